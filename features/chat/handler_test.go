package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cineqa/internal/answer"
)

func TestHandler_Ask_StreamsNDJSON(t *testing.T) {
	repo := new(MockRepository)
	answerer := new(MockAnswerer)

	repo.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
	repo.On("SaveMessage", mock.Anything, mock.Anything).Return(nil).Twice()
	answerer.On("Ask", mock.Anything, "星际穿越讲了什么？", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			onToken := args.Get(3).(func(string) error)
			onToken("星际穿越")
			onToken("讲述了一个关于时间的故事。")
		}).
		Return("星际穿越讲述了一个关于时间的故事。", nil)

	h := NewHandler(NewService(repo, answerer), "gemini-2.0-flash")

	body := `{"question": "星际穿越讲了什么？"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var frames []streamFrame
	scanner := bufio.NewScanner(bytes.NewReader(rec.Body.Bytes()))
	for scanner.Scan() {
		var f streamFrame
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &f))
		frames = append(frames, f)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, "gemini-2.0-flash", frames[0].Model)
	assert.Equal(t, answer.RoleAssistant, frames[0].Message.Role)
	assert.Equal(t, "星际穿越", frames[0].Message.Content)
	assert.False(t, frames[0].Done)

	last := frames[len(frames)-1]
	assert.True(t, last.Done)
	assert.Equal(t, "stop", last.DoneReason)
	assert.Equal(t, "", last.Message.Content)
}

func TestHandler_Ask_RequiresQuestion(t *testing.T) {
	h := NewHandler(NewService(new(MockRepository), new(MockAnswerer)), "m")

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "s"}`))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Ask_UnknownSession(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetSession", mock.Anything, "missing").Return(nil, ErrNotFound)

	h := NewHandler(NewService(repo, new(MockAnswerer)), "m")

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"session_id": "missing", "question": "问题"}`))
	rec := httptest.NewRecorder()
	h.Ask(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreateSession_DefaultTitle(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateSession", mock.Anything, mock.MatchedBy(func(s *Session) bool {
		return s.Title == "新对话"
	})).Return(nil)

	h := NewHandler(NewService(repo, new(MockAnswerer)), "m")

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	repo.AssertExpectations(t)
}

func TestHandler_History(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetSession", mock.Anything, "sess-1").Return(&Session{ID: "sess-1"}, nil)
	repo.On("ListMessages", mock.Anything, "sess-1").Return([]Message{
		{ID: "m1", Role: answer.RoleUser, Content: "问"},
	}, nil)

	h := NewHandler(NewService(repo, new(MockAnswerer)), "m")

	req := httptest.NewRequest(http.MethodGet, "/chat/sessions/sess-1/messages", nil)
	req.SetPathValue("id", "sess-1")
	rec := httptest.NewRecorder()
	h.History(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"问"`)
}

func TestHandler_DeleteSession_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("DeleteSession", mock.Anything, "missing").Return(ErrNotFound)

	h := NewHandler(NewService(repo, new(MockAnswerer)), "m")

	req := httptest.NewRequest(http.MethodDelete, "/chat/sessions/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.DeleteSession(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
