// Package model holds the wire and domain types shared by the rating
// engine, the list store, and the HTTP/MCP surfaces.
package model

import "time"

// Item is a single task tracked by a list. Identity is its Content,
// compared byte-for-byte: no trimming, no case folding. Completed is
// advisory and never influences ranking or selection.
type Item struct {
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Comparison is an immutable pairwise judgement: Winner equals TaskA or
// TaskB. TaskA == TaskB == Winner is a self-comparison, used to register
// an item without expressing a preference.
type Comparison struct {
	TaskA     string    `json:"task_a_content"`
	TaskB     string    `json:"task_b_content"`
	Winner    string    `json:"winner_content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSelfComparison reports whether c registers an item without carrying
// preference information.
func (c Comparison) IsSelfComparison() bool {
	return c.TaskA == c.TaskB && c.TaskB == c.Winner
}

// Loser returns the task that did not win.
func (c Comparison) Loser() string {
	if c.Winner == c.TaskA {
		return c.TaskB
	}
	return c.TaskA
}

// RankingEntry is one item's position in a list's current ranking.
type RankingEntry struct {
	Content            string     `json:"content"`
	Score              float64    `json:"score"`
	Rank               int        `json:"rank"`
	Variance           float64    `json:"variance"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	ComparisonsCount   int        `json:"comparisons_count"`
}

// Stats are the derived coverage/convergence statistics for a list,
// computed alongside its rankings.
type Stats struct {
	TotalComparisons     int        `json:"total_comparisons"`
	UniquePairs          int        `json:"unique_pairs"`
	PossiblePairs        int        `json:"possible_pairs"`
	Coverage             float64    `json:"coverage"`
	Convergence          float64    `json:"convergence"`
	MeanVariance         float64    `json:"mean_variance"`
	MaxInformationGain   float64    `json:"max_information_gain"`
	OptimalNextPair      *[2]string `json:"optimal_next_pair"`
	InitialVariance      float64    `json:"initial_variance"`
	PriorPrecision       float64    `json:"prior_precision"`
	ConvergenceThreshold float64    `json:"convergence_threshold"`
}

// Rankings bundles the per-item entries and the derived statistics
// returned by a single call to a list's rankings operation.
type Rankings struct {
	Entries []RankingEntry `json:"rankings"`
	Stats   Stats          `json:"stats"`
}

// HealthStatus is the payload for GET /api/health.
type HealthStatus struct {
	Status        string `json:"status"`
	DBConnected   bool   `json:"db_connected"`
	MemoryMode    bool   `json:"memory_mode"`
}
