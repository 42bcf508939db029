package pairrank

import "time"

// Item is the public representation of a list item. It mirrors
// internal/model.Item; this package's types carry no internal imports,
// so embedding consumers never need to import internal/*.
type Item struct {
	Content   string
	Completed bool
}

// Comparison is the public representation of a recorded pairwise
// judgement.
type Comparison struct {
	TaskA     string
	TaskB     string
	Winner    string
	Timestamp time.Time
}

// RankingEntry is one item's position in a list's current ranking.
type RankingEntry struct {
	Content            string
	Score              float64
	Rank               int
	Variance           float64
	ConfidenceInterval [2]float64
	ComparisonsCount   int
}

// Stats are the derived coverage/convergence statistics for a list.
type Stats struct {
	TotalComparisons     int
	UniquePairs          int
	PossiblePairs        int
	Coverage             float64
	Convergence          float64
	MeanVariance         float64
	MaxInformationGain   float64
	OptimalNextPair      *[2]string
	InitialVariance      float64
	PriorPrecision       float64
	ConvergenceThreshold float64
}

// Rankings bundles the per-item entries and derived statistics for a
// list.
type Rankings struct {
	Entries []RankingEntry
	Stats   Stats
}
