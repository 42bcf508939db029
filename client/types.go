package client

import "time"

// Item is a single task tracked by a list.
type Item struct {
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Comparison is a recorded pairwise judgement.
type Comparison struct {
	TaskA     string    `json:"task_a_content"`
	TaskB     string    `json:"task_b_content"`
	Winner    string    `json:"winner_content"`
	Timestamp time.Time `json:"timestamp"`
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

// Stats are the derived coverage/convergence statistics for a list.
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

// Rankings bundles the per-item entries and derived statistics.
type Rankings struct {
	Entries []RankingEntry `json:"rankings"`
	Stats   Stats          `json:"stats"`
}

// HealthStatus is the payload for GET /api/health.
type HealthStatus struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
	MemoryMode  bool   `json:"memory_mode"`
}

// comparisonsResponse is the wire shape of POST /api/comparisons/content.
type comparisonsResponse struct {
	Comparisons []Comparison `json:"comparisons"`
}

type listIDBody struct {
	ListID string `json:"list_id"`
}

type deleteTaskBody struct {
	ListID  string `json:"list_id"`
	Content string `json:"content"`
}

type addComparisonBody struct {
	ListID string `json:"list_id"`
	TaskA  string `json:"task_a_content"`
	TaskB  string `json:"task_b_content"`
	Winner string `json:"winner_content"`
}

type okBody struct {
	OK bool `json:"ok"`
}

// errorBody is the flat error shape pairrank returns on 4xx/5xx.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
