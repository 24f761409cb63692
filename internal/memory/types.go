package memory

// Memory is one explicitly consented fact about the user.
type Memory struct {
	ID        int64
	SessionID string
	Key       string
	Value     string
	Type      string
	Consent   bool
	Timestamp string
}

// ConsentEntry is one append-only consent log row.
type ConsentEntry struct {
	ID           int64
	Action       string
	Subject      string
	UserResponse string
	Timestamp    string
}

// Stats is a compact snapshot used by status reporting.
type Stats struct {
	MemoriesStored     int
	ConversationsToday int
	ConsentEntries     int
}
