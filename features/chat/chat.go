package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineqa/internal/answer"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
	SaveMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
}

// Answerer streams one grounded answer for a question given the prior turns.
type Answerer interface {
	Ask(ctx context.Context, question string, records []answer.Turn, onToken func(string) error) (string, error)
}

type Service struct {
	repo     Repository
	answerer Answerer
}

func NewService(repo Repository, answerer Answerer) *Service {
	return &Service{repo: repo, answerer: answerer}
}

const titleMaxRunes = 50

func (s *Service) CreateSession(ctx context.Context, title string) (*Session, error) {
	session := &Session{Title: title}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	return s.repo.ListSessions(ctx)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID)
}

// Ask answers the question within the session, streaming tokens through
// onToken. The session's message history is replayed to the model; both the
// question and the finished answer are persisted afterwards. An empty
// sessionID starts a new session titled from the question.
func (s *Service) Ask(ctx context.Context, sessionID, question string, onToken func(string) error) (string, string, error) {
	var records []answer.Turn

	if sessionID == "" {
		session := &Session{Title: truncateTitle(question)}
		if err := s.repo.CreateSession(ctx, session); err != nil {
			return "", "", fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = session.ID
	} else {
		if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
			return "", "", err
		}
		messages, err := s.repo.ListMessages(ctx, sessionID)
		if err != nil {
			return "", "", fmt.Errorf("failed to load history: %w", err)
		}
		records = make([]answer.Turn, 0, len(messages))
		for _, m := range messages {
			records = append(records, answer.Turn{Role: m.Role, Content: m.Content})
		}
	}

	reply, err := s.answerer.Ask(ctx, question, records, onToken)
	if err != nil {
		return "", sessionID, err
	}

	if err := s.repo.SaveMessage(ctx, &Message{SessionID: sessionID, Role: answer.RoleUser, Content: question}); err != nil {
		return "", sessionID, fmt.Errorf("failed to save question: %w", err)
	}
	if err := s.repo.SaveMessage(ctx, &Message{SessionID: sessionID, Role: answer.RoleAssistant, Content: reply}); err != nil {
		return "", sessionID, fmt.Errorf("failed to save answer: %w", err)
	}

	return reply, sessionID, nil
}

func truncateTitle(question string) string {
	runes := []rune(question)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes])
	}
	return question
}
