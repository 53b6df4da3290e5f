package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestStore_SaveTimeline_InsertsSegmentsAndAdvisoriesInOneTx(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	timeline := model.Timeline{
		LegID:        "leg-1",
		MissionStart: start,
		MissionEnd:   start.Add(time.Hour),
		Segments: []model.TimelineSegment{
			{Start: start, End: start.Add(time.Hour), Status: model.Nominal},
		},
		Advisories: []model.TimelineAdvisory{
			{ID: "adv-1", Timestamp: start, EventType: model.EventSeverityChange, Severity: model.SeverityInfo},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timeline_segments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timeline_advisories").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SaveTimeline(context.Background(), "leg-1", timeline)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveTimeline_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	timeline := model.Timeline{
		Segments: []model.TimelineSegment{{Start: start, End: start.Add(time.Hour)}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timeline_segments").WillReturnError(assertErr)
	mock.ExpectRollback()

	err := store.SaveTimeline(context.Background(), "leg-1", timeline)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var assertErr = errDriverFailure{}

type errDriverFailure struct{}

func (errDriverFailure) Error() string { return "driver failure" }
