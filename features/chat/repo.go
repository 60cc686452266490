package chat

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateSession(ctx context.Context, session *Session) error {
	query := `INSERT INTO chat_sessions (title) VALUES ($1) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, session.Title).
		Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

func (r *PostgresRepo) GetSession(ctx context.Context, id string) (*Session, error) {
	session := &Session{}
	query := `SELECT id, title, created_at, updated_at FROM chat_sessions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *PostgresRepo) ListSessions(ctx context.Context) ([]Session, error) {
	query := `SELECT id, title, created_at, updated_at FROM chat_sessions ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresRepo) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SaveMessage(ctx context.Context, msg *Message) error {
	query := `INSERT INTO chat_messages (session_id, role, content) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, msg.SessionID, msg.Role, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, msg.SessionID)
	return err
}

func (r *PostgresRepo) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	query := `SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
