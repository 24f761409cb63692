package research

// Source is one stored reference from a search run.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SaveInput is the payload offered to the user for saving after a live
// search turn.
type SaveInput struct {
	Query    string
	Topic    string
	Raw      any      // full search analysis, stored as a JSON blob
	KeyFacts []string // key information lines
	Sources  []Source
}

// SavedResearch is one persisted research record. AccessCount is bumped by
// the lookup that returns the record, never by the caller.
type SavedResearch struct {
	ID           int64
	Query        string
	Topic        string
	SearchData   []byte
	Summary      string
	KeyFacts     []string
	Sources      []Source
	Timestamp    string
	AccessCount  int
	LastAccessed string
}

// TopicSummary is one row of the saved-topics overview.
type TopicSummary struct {
	Topic        string
	SearchCount  int
	LatestSearch string
	TotalAccess  int
}

// Stats is the status-command snapshot.
type Stats struct {
	SavedSearches    int
	UniqueTopics     int
	TotalAccessCount int
}
