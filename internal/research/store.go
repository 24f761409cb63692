// Package research is the saved-research store: web search runs the user
// chose to keep, looked up again later as cache hits instead of issuing new
// searches. Writes go through the consent gate like explicit memories do.
package research

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/isidman/gurukukomi/internal/consent"
)

const topicClipLength = 50

type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	gate *consent.Gate
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	s.gate = consent.NewGate(s)
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS search_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			topic TEXT NOT NULL,
			search_data TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			key_facts TEXT NOT NULL DEFAULT '[]',
			sources TEXT NOT NULL DEFAULT '[]',
			user_consent INTEGER NOT NULL DEFAULT 1,
			timestamp TEXT NOT NULL DEFAULT (datetime('now')),
			access_count INTEGER NOT NULL DEFAULT 0,
			last_accessed TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_topic ON search_results(topic, timestamp)`,
		`CREATE TABLE IF NOT EXISTS search_consent (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			user_response TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// RecordConsent implements consent.Recorder for the research catalog.
func (s *Store) RecordConsent(action consent.Action, subject, userResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO search_consent (action, subject, user_response)
		VALUES (?, ?, ?)
	`, string(action), subject, userResponse)
	if err != nil {
		return fmt.Errorf("record consent: %w", err)
	}
	return nil
}

// DefaultTopic derives a topic label from a query when none was provided.
func DefaultTopic(query string) string {
	query = strings.TrimSpace(query)
	if len(query) > topicClipLength {
		return query[:topicClipLength] + "..."
	}
	return query
}

// AskToSave starts the save-consent protocol for a finished search run and
// returns the prompt to show the user. A `requested` log entry is written
// regardless of the eventual answer.
func (s *Store) AskToSave(query, topic string, sourceCount int) (string, error) {
	if topic == "" {
		topic = DefaultTopic(query)
	}
	if err := s.gate.Request(topic + ": " + query); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"I found some great information about %q from %d sources.\n\n"+
			"Would you like me to save this research for future reference?\n"+
			"That would help me give you faster, more informed answers about this topic later.\n\n"+
			"- Say \"yes\" or \"save it\" to store this research\n"+
			"- Say \"no\" or \"don't save\" to keep it temporary only\n\n"+
			"This is completely your choice and you can delete saved research anytime!",
		topic, sourceCount)
	return prompt, nil
}

// ProcessSaveConsent resolves the answer to an AskToSave prompt. Granted
// inserts the record; declined keeps nothing but the log entry; unclear
// returns a re-prompt and touches nothing.
func (s *Store) ProcessSaveConsent(response string, input SaveInput) (string, consent.Outcome, error) {
	topic := input.Topic
	if topic == "" {
		topic = DefaultTopic(input.Query)
		input.Topic = topic
	}

	outcome, err := s.gate.Resolve(topic+": "+input.Query, response, func() error {
		return s.insert(input)
	})
	if err != nil {
		return "", outcome, err
	}

	switch outcome {
	case consent.OutcomeGranted:
		return fmt.Sprintf("Perfect. I've saved the research about %q for future reference. "+
			"I can now give you faster, more detailed answers about this topic anytime you ask!", topic), outcome, nil
	case consent.OutcomeDeclined:
		return "No issues here. I'll keep this information for our current conversation only. " +
			"You can always ask me to research it again anytime!", outcome, nil
	default:
		return "I'm not sure if you want me to save this research or not. " +
			"Could you say 'yes' to save it, or 'no' to keep it temporary?", outcome, nil
	}
}

func (s *Store) insert(input SaveInput) error {
	rawJSON, err := json.Marshal(input.Raw)
	if err != nil {
		return fmt.Errorf("marshal search data: %w", err)
	}
	keyFactsJSON, err := json.Marshal(input.KeyFacts)
	if err != nil {
		return fmt.Errorf("marshal key facts: %w", err)
	}
	sourcesJSON, err := json.Marshal(input.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
		INSERT INTO search_results (query, topic, search_data, summary, key_facts, sources, user_consent)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, input.Query, input.Topic, string(rawJSON), Summarize(input), string(keyFactsJSON), string(sourcesJSON))
	if err != nil {
		return fmt.Errorf("insert research: %w", err)
	}
	return nil
}

// Summarize builds the stored one-line summary: the first two key facts
// clipped to 100 runes each, or a source-count fallback.
func Summarize(input SaveInput) string {
	if len(input.KeyFacts) > 0 {
		points := input.KeyFacts
		if len(points) > 2 {
			points = points[:2]
		}
		clipped := make([]string, 0, len(points))
		for _, p := range points {
			runes := []rune(p)
			if len(runes) > 100 {
				p = string(runes[:100]) + "..."
			}
			clipped = append(clipped, p)
		}
		return strings.Join(clipped, ". ")
	}
	return fmt.Sprintf("Research from %d sources with comprehensive information.", len(input.Sources))
}

// FindSaved looks up the most recent consented record whose topic or query
// contains the given text. The lookup itself bumps access_count and
// last_accessed in the same transaction; callers must not count separately.
// Returns nil when nothing matches.
func (s *Store) FindSaved(topicQuery string) (*SavedResearch, error) {
	topicQuery = strings.TrimSpace(topicQuery)
	if topicQuery == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin lookup: %w", err)
	}
	defer tx.Rollback()

	pattern := "%" + topicQuery + "%"
	row := tx.QueryRow(`
		SELECT id, query, topic, search_data, summary, key_facts, sources, timestamp, access_count
		FROM search_results
		WHERE (topic LIKE ? OR query LIKE ?) AND user_consent = 1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, pattern, pattern)

	var rec SavedResearch
	var searchData, keyFacts, sources string
	err = row.Scan(&rec.ID, &rec.Query, &rec.Topic, &searchData, &rec.Summary, &keyFacts, &sources, &rec.Timestamp, &rec.AccessCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan research: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE search_results
		SET access_count = access_count + 1, last_accessed = datetime('now')
		WHERE id = ?
	`, rec.ID); err != nil {
		return nil, fmt.Errorf("touch research: %w", err)
	}

	var lastAccessed sql.NullString
	if err := tx.QueryRow(`SELECT last_accessed FROM search_results WHERE id = ?`, rec.ID).Scan(&lastAccessed); err != nil {
		return nil, fmt.Errorf("read last_accessed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lookup: %w", err)
	}

	rec.AccessCount++
	rec.LastAccessed = lastAccessed.String
	rec.SearchData = []byte(searchData)
	// Malformed persisted payloads decode as empty, never as errors.
	if err := json.Unmarshal([]byte(keyFacts), &rec.KeyFacts); err != nil {
		rec.KeyFacts = nil
	}
	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		rec.Sources = nil
	}
	return &rec, nil
}

// SavedTopics groups the catalog by topic, newest first.
func (s *Store) SavedTopics() ([]TopicSummary, error) {
	rows, err := s.db.Query(`
		SELECT topic, COUNT(*), MAX(timestamp), COALESCE(SUM(access_count), 0)
		FROM search_results
		WHERE user_consent = 1
		GROUP BY topic
		ORDER BY MAX(timestamp) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	result := make([]TopicSummary, 0)
	for rows.Next() {
		var t TopicSummary
		if err := rows.Scan(&t.Topic, &t.SearchCount, &t.LatestSearch, &t.TotalAccess); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return result, nil
}

// Delete removes every record whose topic contains the given substring.
// Returns false when nothing matched.
func (s *Store) Delete(topic string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM search_results WHERE topic LIKE ?`, "%"+topic+"%")
	if err != nil {
		return false, fmt.Errorf("delete research: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) Stats() (Stats, error) {
	var st Stats

	row := s.db.QueryRow(`SELECT COUNT(*) FROM search_results WHERE user_consent = 1`)
	if err := row.Scan(&st.SavedSearches); err != nil {
		return st, fmt.Errorf("count saved: %w", err)
	}
	row = s.db.QueryRow(`SELECT COUNT(DISTINCT topic) FROM search_results WHERE user_consent = 1`)
	if err := row.Scan(&st.UniqueTopics); err != nil {
		return st, fmt.Errorf("count topics: %w", err)
	}
	row = s.db.QueryRow(`SELECT COALESCE(SUM(access_count), 0) FROM search_results WHERE user_consent = 1`)
	if err := row.Scan(&st.TotalAccessCount); err != nil {
		return st, fmt.Errorf("sum access: %w", err)
	}
	return st, nil
}
