// Package memory is the explicit-fact store: things the user has agreed, via
// the consent gate, to have remembered across conversations. Nothing lands
// here without a granted consent transition.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/isidman/gurukukomi/internal/consent"
)

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
		"PRAGMA foreign_keys=ON",
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
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL DEFAULT 'default',
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			timestamp TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS explicit_memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL DEFAULT 'default',
			memory_key TEXT NOT NULL,
			memory_value TEXT NOT NULL,
			memory_type TEXT NOT NULL DEFAULT 'preference',
			user_consent INTEGER NOT NULL DEFAULT 1,
			timestamp TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memories_session ON explicit_memories(session_id, memory_key)`,
		`CREATE TABLE IF NOT EXISTS consent_log (
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

// RecordConsent implements consent.Recorder. The log is append-only; rows are
// never updated or deleted.
func (s *Store) RecordConsent(action consent.Action, subject, userResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO consent_log (action, subject, user_response)
		VALUES (?, ?, ?)
	`, string(action), subject, userResponse)
	if err != nil {
		return fmt.Errorf("record consent: %w", err)
	}
	return nil
}

// StoreConversation appends one exchange for the session.
func (s *Store) StoreConversation(sessionID, message, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO conversations (session_id, message, response)
		VALUES (?, ?, ?)
	`, sessionID, message, response)
	if err != nil {
		return fmt.Errorf("store conversation: %w", err)
	}
	return nil
}

func (s *Store) ConversationCount(sessionID string) (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("conversation count: %w", err)
	}
	return count, nil
}

// AskToRemember starts the consent protocol for one fact. It always logs a
// `requested` entry, no matter how the user eventually answers, and returns
// the prompt to show the user.
func (s *Store) AskToRemember(key, value string) (string, error) {
	subject := memorySubject(key, value)
	if err := s.gate.Request(subject); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"I'd like to remember that you %s: %q\n"+
			"This would help me give you better responses in future conversations.\n\n"+
			"Are you okay with that?\n"+
			"- Say \"yes\" or \"remember it\" to allow it.\n"+
			"- Say \"no\" or \"don't remember\" to decline.\n\n"+
			"This is completely optional and you can change your mind anytime!",
		key, value)
	return prompt, nil
}

// ProcessConsent resolves the user's answer to an AskToRemember prompt. Only
// a granted outcome writes a memory row; declined leaves just the log entry;
// an unclear answer returns a re-prompt and touches nothing.
func (s *Store) ProcessConsent(sessionID, response, key, value, memType string) (string, consent.Outcome, error) {
	if memType == "" {
		memType = "preference"
	}
	subject := memorySubject(key, value)

	outcome, err := s.gate.Resolve(subject, response, func() error {
		return s.insert(sessionID, key, value, memType)
	})
	if err != nil {
		return "", outcome, err
	}

	switch outcome {
	case consent.OutcomeGranted:
		return "Okay, got it! I'll remember that for future conversations. Thank you for letting me know!", outcome, nil
	case consent.OutcomeDeclined:
		return "Cool, I won't be remembering that. Let me know if you change your mind in the future.", outcome, nil
	default:
		return "I'm not so sure if you want me to remember that or not. Could you tell me 'yes' or 'no'?", outcome, nil
	}
}

func (s *Store) insert(sessionID, key, value, memType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO explicit_memories (session_id, memory_key, memory_value, memory_type, user_consent)
		VALUES (?, ?, ?, ?, 1)
	`, sessionID, key, value, memType)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// Forget deletes every memory in the session whose key contains the given
// substring and logs the deletion as a consent event. Returns false when
// nothing matched.
func (s *Store) Forget(sessionID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin forget: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM explicit_memories
		WHERE session_id = ? AND memory_key LIKE ?
	`, sessionID, "%"+key+"%")
	if err != nil {
		return false, fmt.Errorf("forget memories: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("forget rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.Exec(`
		INSERT INTO consent_log (action, subject, user_response)
		VALUES (?, ?, ?)
	`, string(consent.ActionForgotten), key, fmt.Sprintf("forgot %d memories", affected))
	if err != nil {
		return false, fmt.Errorf("log forget: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit forget: %w", err)
	}
	return true, nil
}

// Memories lists the session's consented facts, oldest first.
func (s *Store) Memories(sessionID string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, memory_key, memory_value, memory_type, user_consent, timestamp
		FROM explicit_memories
		WHERE session_id = ? AND user_consent = 1
		ORDER BY id ASC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	result := make([]Memory, 0)
	for rows.Next() {
		var m Memory
		var consented int
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Key, &m.Value, &m.Type, &consented, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Consent = consented == 1
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return result, nil
}

// ConsentLog returns the most recent consent entries, newest first.
func (s *Store) ConsentLog(limit int) ([]ConsentEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, action, subject, user_response, timestamp
		FROM consent_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query consent log: %w", err)
	}
	defer rows.Close()

	result := make([]ConsentEntry, 0)
	for rows.Next() {
		var e ConsentEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.UserResponse, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan consent entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent log: %w", err)
	}
	return result, nil
}

func (s *Store) Stats(sessionID string) (Stats, error) {
	var st Stats

	// An empty session id means "across all sessions".
	row := s.db.QueryRow(`
		SELECT COUNT(*) FROM explicit_memories
		WHERE (? = '' OR session_id = ?) AND user_consent = 1
	`, sessionID, sessionID)
	if err := row.Scan(&st.MemoriesStored); err != nil {
		return st, fmt.Errorf("count memories: %w", err)
	}

	row = s.db.QueryRow(`
		SELECT COUNT(*) FROM conversations
		WHERE (? = '' OR session_id = ?) AND date(timestamp) = date('now')
	`, sessionID, sessionID)
	if err := row.Scan(&st.ConversationsToday); err != nil {
		return st, fmt.Errorf("count conversations: %w", err)
	}

	row = s.db.QueryRow(`SELECT COUNT(*) FROM consent_log`)
	if err := row.Scan(&st.ConsentEntries); err != nil {
		return st, fmt.Errorf("count consent log: %w", err)
	}
	return st, nil
}

func memorySubject(key, value string) string {
	return strings.TrimSpace(key) + ": " + strings.TrimSpace(value)
}
