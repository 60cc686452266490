package chat_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cineqa/features/chat"
)

func TestPostgresRepo_CreateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_sessions (title) VALUES ($1) RETURNING id, created_at, updated_at")).
		WithArgs("新对话").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("sess-1", now, now))

	session := &chat.Session{Title: "新对话"}
	require.NoError(t, repo.CreateSession(context.Background(), session))
	assert.Equal(t, "sess-1", session.ID)
}

func TestPostgresRepo_GetSession_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, created_at, updated_at FROM chat_sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestPostgresRepo_SaveMessage_TouchesSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO chat_messages (session_id, role, content) VALUES ($1, $2, $3) RETURNING id, created_at")).
		WithArgs("sess-1", "user", "问题").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("msg-1", now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1")).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := &chat.Message{SessionID: "sess-1", Role: "user", Content: "问题"}
	require.NoError(t, repo.SaveMessage(context.Background(), msg))
	assert.Equal(t, "msg-1", msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_ListMessages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "role", "content", "created_at"}).
		AddRow("m1", "sess-1", "user", "问", now).
		AddRow("m2", "sess-1", "assistant", "答", now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM chat_messages WHERE session_id = $1 ORDER BY created_at, id")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	messages, err := repo.ListMessages(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "问", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestPostgresRepo_DeleteSession_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := chat.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM chat_sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteSession(context.Background(), "missing"), chat.ErrNotFound)
}
