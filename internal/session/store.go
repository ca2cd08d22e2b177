package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/pdfrag/internal/db"
)

// Store persists transcripts in the in-memory database.
type Store struct {
	db *db.DB
}

// NewStore creates a transcript store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) createSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		id, at, at,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (s *Store) deleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// appendTurn adds a turn to the end of a session's transcript.
func (s *Store) appendTurn(ctx context.Context, sessionID string, turn ChatTurn) (*ChatTurn, error) {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	turn.CreatedAt = time.Now().UTC()

	sources := []byte("[]")
	if len(turn.Sources) > 0 {
		var err error
		sources, err = json.Marshal(turn.Sources)
		if err != nil {
			return nil, fmt.Errorf("encoding sources: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (id, session_id, role, content, sources, is_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, sessionID, string(turn.Role), turn.Content, string(sources), turn.IsError, turn.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("adding turn: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, turn.CreatedAt, sessionID); err != nil {
		log.Printf("session %s: updating timestamp: %v", sessionID, err)
	}

	return &turn, nil
}

func (s *Store) deleteTurn(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting turn: %w", err)
	}
	return nil
}

// turns returns a session's transcript in insertion order.
func (s *Store) turns(ctx context.Context, sessionID string) ([]ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, sources, is_error, created_at
		 FROM chat_turns WHERE session_id = ? ORDER BY rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var role, sources string
		if err := rows.Scan(&t.ID, &role, &t.Content, &sources, &t.IsError, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = Role(role)
		if err := json.Unmarshal([]byte(sources), &t.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources of turn %s: %w", t.ID, err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *Store) clearTurns(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing transcript: %w", err)
	}
	return nil
}
