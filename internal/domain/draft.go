package domain

// ImportDraft is an uncommitted candidate card produced by synthesis.
// Drafts are ephemeral: they live only inside an import session and are
// never persisted on their own. IDs are session-scoped, assigned in
// draft order so regeneration from identical material reproduces them.
type ImportDraft struct {
	ID              string    `json:"id"`
	ClusterID       string    `json:"cluster_id"`
	Title           string    `json:"title"`
	Tags            []string  `json:"tags,omitempty"`
	Body            string    `json:"body"`
	ConfidenceScore float64   `json:"confidence_score"`
	Source          SourceRef `json:"source"`
	Selected        bool      `json:"selected"`
}
