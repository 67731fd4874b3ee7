// Package session persists per-user career chat history and mock interview
// progress in SQLite.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	SenderUser = "User"
	SenderAI   = "AI"
)

// ErrEmptyUser is returned when no user id is given
var ErrEmptyUser = errors.New("user id is required")

// Message is one turn of a career chat
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed session store
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages (user_id, seq);

CREATE TABLE IF NOT EXISTS interview_questions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	question TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_user ON interview_questions (user_id, seq);

CREATE TABLE IF NOT EXISTS interview_scores (
	user_id TEXT PRIMARY KEY,
	total INTEGER NOT NULL DEFAULT 0,
	scored INTEGER NOT NULL DEFAULT 0
);
`

// Open opens or creates the session database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &Store{db: db}, nil
}

// AppendMessage adds a message to the user's conversation
func (s *Store) AppendMessage(ctx context.Context, userID, sender, text string) error {
	if userID == "" {
		return ErrEmptyUser
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, sender, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, sender, text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Conversation returns the user's messages, oldest first
func (s *Store) Conversation(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, body, created_at FROM messages WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// FormatConversation renders the conversation as "Sender: text" lines
func (s *Store) FormatConversation(ctx context.Context, userID string) (string, error) {
	messages, err := s.Conversation(ctx, userID)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.Sender + ": " + m.Text
	}
	return strings.Join(lines, "\n"), nil
}

// ResetConversation deletes the user's chat history
func (s *Store) ResetConversation(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset conversation: %w", err)
	}
	return nil
}

// AddQuestionWithin records question only while the user has been asked fewer
// than limit questions. The count and the insert run as one statement, so
// concurrent callers cannot exceed the limit. It reports whether the question
// was recorded.
func (s *Store) AddQuestionWithin(ctx context.Context, userID, question string, limit int) (bool, error) {
	if userID == "" {
		return false, ErrEmptyUser
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interview_questions (user_id, question, created_at)
		SELECT ?, ?, ?
		WHERE (SELECT COUNT(*) FROM interview_questions WHERE user_id = ?) < ?`,
		userID, question, time.Now().UTC(), userID, limit,
	)
	if err != nil {
		return false, fmt.Errorf("add question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add question: %w", err)
	}
	return n == 1, nil
}

// Questions returns the questions asked so far, oldest first
func (s *Store) Questions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question FROM interview_questions WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCount returns how many questions the user has been asked
func (s *Store) QuestionCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interview_questions WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// AddScore adds a role-fit score to the user's running total
func (s *Store) AddScore(ctx context.Context, userID string, score int) error {
	if userID == "" {
		return ErrEmptyUser
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interview_scores (user_id, total, scored) VALUES (?, ?, 1)
		 ON CONFLICT(user_id) DO UPDATE SET total = total + excluded.total, scored = scored + 1`,
		userID, score,
	)
	if err != nil {
		return fmt.Errorf("add score: %w", err)
	}
	return nil
}

// Score returns the running total and the number of scored answers
func (s *Store) Score(ctx context.Context, userID string) (total, scored int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT total, scored FROM interview_scores WHERE user_id = ?`, userID,
	).Scan(&total, &scored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("load score: %w", err)
	}
	return total, scored, nil
}

// ResetInterview clears the user's questions and scores
func (s *Store) ResetInterview(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset interview: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interview_questions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset interview questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM interview_scores WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset interview scores: %w", err)
	}
	return tx.Commit()
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
