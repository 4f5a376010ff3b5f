package model

import "time"

// RunReport holds per-run diagnostics. It is not part of the data contract.
type RunReport struct {
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool

	Fetched   map[string]int // records fetched per source id
	Malformed int

	EmbeddingFailures int
	CandidatePairs    int
	DroppedPrimary    int // dedup losers from the primary collection
	DroppedSecondary  int // dedup losers from the secondary collection

	KeywordClassified   int
	OracleClassified    int
	DroppedUnclassified int

	RemoteLocations     int
	UnknownLocations    int
	LocationsQueried    int // distinct raw strings sent to the oracle
	LocationsUnresolved int

	IdentityCollisions int
	Output             int
}

// DroppedByDedup is the total number of records removed as duplicates.
func (r RunReport) DroppedByDedup() int {
	return r.DroppedPrimary + r.DroppedSecondary
}
