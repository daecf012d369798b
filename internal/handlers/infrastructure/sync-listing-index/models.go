package synclistingindex

// SyncResult reports what a single event did to the index.
type SyncResult struct {
	Action    string `json:"action"`
	ListingID string `json:"listingId"`
	// Operation is "indexed", "deleted" or "skipped".
	Operation string `json:"operation"`
}

type ReindexResult struct {
	Total    int      `json:"total"`
	Indexed  int64    `json:"indexed"`
	Failed   int64    `json:"failed"`
	Duration string   `json:"duration"`
	Errors   []string `json:"errors,omitempty"`
}
