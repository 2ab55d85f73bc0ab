package tournamentqueue

// GenerateDrawJob runs draw generation for a round in the background.
// At most one unfinished job exists per round.
type GenerateDrawJob struct {
	TournamentID string  `json:"tournament_id"`
	RoundID      string  `json:"round_id" river:"unique"`
	Algorithm    string  `json:"algorithm,omitempty"`
	Force        bool    `json:"force"`
	Seed         *uint64 `json:"seed,omitempty"`
}

// Kind returns the job type identifier for River
func (GenerateDrawJob) Kind() string { return "generate_draw" }

// JobInfo describes a queued draw job.
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	RoundID     string `json:"round_id"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
