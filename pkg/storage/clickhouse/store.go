// Package clickhouse implements the TimelineStore archival backend,
// appending computed segments and advisories as rows for long-term mission
// history rather than point-in-time lookup. Grounded directly on the
// teacher's app/rtkrcv/rtkrcv.go writeObs2ClickHouse (sqlx.Open against a
// clickhouse DSN, tx.Prepare + batched inserts), generalized from raw
// observation batches to timeline segment/advisory rows.
package clickhouse

import (
	"context"
	"encoding/json"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2" // registers the "clickhouse" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS timeline_segments (
	leg_id       String,
	saved_at     DateTime,
	start_time   DateTime,
	end_time     DateTime,
	status       String,
	payload      String
) ENGINE = MergeTree ORDER BY (leg_id, saved_at, start_time);

CREATE TABLE IF NOT EXISTS timeline_advisories (
	leg_id       String,
	saved_at     DateTime,
	timestamp    DateTime,
	event_type   String,
	severity     String,
	payload      String
) ENGINE = MergeTree ORDER BY (leg_id, saved_at, timestamp);
`

// Store appends Timeline snapshots to ClickHouse on every explicit save;
// earlier snapshots are never updated in place, and LoadTimeline returns the
// most recently archived snapshot for legID.
type Store struct {
	db *sqlx.DB
}

// Open connects to ClickHouse over its sqlx/database-sql driver and
// ensures the archive tables exist.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "clickhouse", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "clickhouse: connect")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "clickhouse: migrate schema")
	}
	return &Store{db: db}, nil
}

func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// SaveTimeline appends one row per segment and one row per advisory inside
// a single transaction (spec §6: "Timelines are persisted only on explicit
// save").
func (s *Store) SaveTimeline(ctx context.Context, legID string, timeline model.Timeline) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.WrapComputationFailed("clickhouse.SaveTimeline", err)
	}
	defer tx.Rollback() //nolint:errcheck

	savedAt := time.Now().UTC()
	for _, seg := range timeline.Segments {
		payload, merr := json.Marshal(seg)
		if merr != nil {
			return errs.WrapComputationFailed("clickhouse.SaveTimeline", merr)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO timeline_segments (leg_id, saved_at, start_time, end_time, status, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`, legID, savedAt, seg.Start, seg.End, seg.Status.String(), payload); err != nil {
			return errs.WrapComputationFailed("clickhouse.SaveTimeline", err)
		}
	}
	for _, adv := range timeline.Advisories {
		payload, merr := json.Marshal(adv)
		if merr != nil {
			return errs.WrapComputationFailed("clickhouse.SaveTimeline", merr)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO timeline_advisories (leg_id, saved_at, timestamp, event_type, severity, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`, legID, savedAt, adv.Timestamp, string(adv.EventType), string(adv.Severity), payload); err != nil {
			return errs.WrapComputationFailed("clickhouse.SaveTimeline", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.WrapComputationFailed("clickhouse.SaveTimeline", err)
	}
	return nil
}

type segmentRow struct {
	Payload []byte `db:"payload"`
}

type advisoryRow struct {
	Payload []byte `db:"payload"`
}

// LoadTimeline reconstructs the most recently archived snapshot for legID
// from its segment and advisory rows.
func (s *Store) LoadTimeline(ctx context.Context, legID string) (model.Timeline, error) {
	var segRows []segmentRow
	if err := s.db.SelectContext(ctx, &segRows, `
		SELECT payload FROM timeline_segments
		WHERE leg_id = ? AND saved_at = (SELECT max(saved_at) FROM timeline_segments WHERE leg_id = ?)
		ORDER BY start_time
	`, legID, legID); err != nil {
		return model.Timeline{}, errs.WrapComputationFailed("clickhouse.LoadTimeline", err)
	}
	if len(segRows) == 0 {
		return model.Timeline{}, errs.NotFound("clickhouse.LoadTimeline", "no archived timeline for leg %s", legID)
	}

	timeline := model.Timeline{LegID: legID}
	for _, row := range segRows {
		var seg model.TimelineSegment
		if err := json.Unmarshal(row.Payload, &seg); err != nil {
			return model.Timeline{}, errs.WrapComputationFailed("clickhouse.LoadTimeline", err)
		}
		timeline.Segments = append(timeline.Segments, seg)
	}
	if len(timeline.Segments) > 0 {
		timeline.MissionStart = timeline.Segments[0].Start
		timeline.MissionEnd = timeline.Segments[len(timeline.Segments)-1].End
	}

	var advRows []advisoryRow
	if err := s.db.SelectContext(ctx, &advRows, `
		SELECT payload FROM timeline_advisories
		WHERE leg_id = ? AND saved_at = (SELECT max(saved_at) FROM timeline_advisories WHERE leg_id = ?)
		ORDER BY timestamp
	`, legID, legID); err != nil {
		return model.Timeline{}, errs.WrapComputationFailed("clickhouse.LoadTimeline", err)
	}
	for _, row := range advRows {
		var adv model.TimelineAdvisory
		if err := json.Unmarshal(row.Payload, &adv); err != nil {
			return model.Timeline{}, errs.WrapComputationFailed("clickhouse.LoadTimeline", err)
		}
		timeline.Advisories = append(timeline.Advisories, adv)
	}
	return timeline, nil
}
