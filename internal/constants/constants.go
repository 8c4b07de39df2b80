package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	SyncTimeout        = 15 * time.Minute
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBBatchSize       = 500
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Pagination stops once the first entry of a page is older than this
// floor. The feed is only approximately time-ordered, so this can
// under-fetch near the boundary; kept as a guardrail against unbounded
// history walks.
var HistoryFloor = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	// DefaultSyncWorkers of 1 keeps the reference one-fetch-in-flight
	// behavior; higher values fan out detail fetches.
	DefaultSyncWorkers = 1
	MaxSyncWorkers     = 8
)
