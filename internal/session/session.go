// Package session owns per-user pipeline state: one engine, its readiness
// and the chat transcript.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ziadkadry99/pdfrag/internal/ingest"
	"github.com/ziadkadry99/pdfrag/internal/rag"
	"github.com/ziadkadry99/pdfrag/internal/vectordb"
)

// ErrEmptyQuestion is returned by Ask for blank input.
var ErrEmptyQuestion = errors.New("question is empty")

// Session is one user's engine plus transcript. Its actions run one at a
// time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	engine Engine
	store  *Store

	now        func() time.Time
	lastActive atomic.Int64 // unix nanoseconds
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// LastActive returns when the session last started or finished an action.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}

// lockActive takes the session lock and marks activity on both ends of
// the action. The returned func releases the lock.
func (s *Session) lockActive() func() {
	s.mu.Lock()
	s.touch()
	return func() {
		s.touch()
		s.mu.Unlock()
	}
}

// Ready reports whether the session's engine has an index.
func (s *Session) Ready() bool {
	return s.engine.Ready()
}

// Process ingests files into a fresh index. On success the transcript is
// cleared; on failure the previous index and transcript are kept.
func (s *Session) Process(ctx context.Context, files []ingest.UploadedFile) (*rag.IngestReport, error) {
	defer s.lockActive()()

	report, err := s.engine.Ingest(ctx, files)
	if err != nil {
		log.Printf("session %s: processing failed: %v", s.ID, err)
		return nil, err
	}
	if err := s.store.clearTurns(ctx, s.ID); err != nil {
		return nil, err
	}
	return report, nil
}

// Ask records the question, runs the pipeline and records the answer. Error
// answers are recorded like any other. The returned error only reports
// transcript failures or blank input.
func (s *Session) Ask(ctx context.Context, question string) (*ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	defer s.lockActive()()

	userTurn, err := s.store.appendTurn(ctx, s.ID, ChatTurn{Role: RoleUser, Content: question})
	if err != nil {
		return nil, err
	}

	ans := s.engine.Ask(ctx, question)
	if ans.Err != nil {
		log.Printf("session %s: %v", s.ID, ans.Err)
	}

	turn, err := s.store.appendTurn(ctx, s.ID, ChatTurn{
		Role:    RoleAssistant,
		Content: ans.Text,
		Sources: ans.Sources,
		IsError: ans.Err != nil,
	})
	if err != nil {
		// The question must not stay in the transcript without a reply.
		if delErr := s.store.deleteTurn(context.WithoutCancel(ctx), userTurn.ID); delErr != nil {
			log.Printf("session %s: removing unanswered question: %v", s.ID, delErr)
		}
		return nil, err
	}
	return turn, nil
}

// Search returns the passages nearest to query without asking the model.
func (s *Session) Search(ctx context.Context, query string, k int) ([]vectordb.Match, error) {
	defer s.lockActive()()
	return s.engine.Search(ctx, query, k)
}

// Clear empties the transcript.
func (s *Session) Clear(ctx context.Context) error {
	defer s.lockActive()()
	return s.store.clearTurns(ctx, s.ID)
}

// Transcript returns the turns so far, oldest first.
func (s *Session) Transcript(ctx context.Context) ([]ChatTurn, error) {
	defer s.lockActive()()
	return s.store.turns(ctx, s.ID)
}
