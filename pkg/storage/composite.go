package storage

// Composite satisfies Store by pairing an independent RouteStore+
// LegConfigStore backend (e.g. postgres) with an independent TimelineStore
// backend (e.g. clickhouse's append-only archive). The two halves are
// deployed and scaled separately in production, matching spec.md §6's
// "Storage" collaborator being described as three logically distinct
// load/save pairs rather than one monolithic backend.
type Composite struct {
	RouteStore
	LegConfigStore
	TimelineStore
}

var _ Store = Composite{}
