package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"hack-arena/internal/infra/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	quizzes := memory.NewQuizStore(nil)
	hub := NewHub()
	engine := app.NewGameEngine(memory.NewRoomStore(), memory.NewConnRegistry(), quizzes, hub, app.Settings{
		TickInterval: time.Hour,
	})
	return NewRouter(NewAPIHandler(app.NewQuizService(quizzes, []string{"HACK2024"})), NewWSHandler(engine, hub))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVerifyKeyEndpoint(t *testing.T) {
	router := newAPIRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/verify-key", map[string]string{"key": "HACK2024"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/verify-key", map[string]string{"key": "nope"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, false, resp["success"])
}

func TestQuizCRUDOverHTTP(t *testing.T) {
	router := newAPIRouter(t)

	quiz := domain.Quiz{
		Title:       "HTTP Quiz",
		Description: "saved over the API",
		Questions: []domain.Question{
			{Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2, TimeLimit: 15},
		},
	}

	// unauthorized save
	w := doJSON(t, router, http.MethodPost, "/api/save-quiz", map[string]any{"key": "wrong", "quiz": quiz})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// valid save
	w = doJSON(t, router, http.MethodPost, "/api/save-quiz", map[string]any{"key": "HACK2024", "quiz": quiz})
	require.Equal(t, http.StatusOK, w.Code)
	var saved struct {
		Success bool   `json:"success"`
		QuizID  string `json:"quizId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.True(t, saved.Success)
	require.NotEmpty(t, saved.QuizID)

	// list
	w = doJSON(t, router, http.MethodGet, "/api/quizzes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []domain.QuizSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, "HTTP Quiz", summaries[0].Title)

	// get by id
	w = doJSON(t, router, http.MethodGet, "/api/quiz/"+saved.QuizID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Quiz
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	require.Equal(t, saved.QuizID, fetched.ID)

	// delete
	w = doJSON(t, router, http.MethodDelete, "/api/quiz/"+saved.QuizID, map[string]string{"key": "HACK2024"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/quiz/"+saved.QuizID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveQuizValidation(t *testing.T) {
	router := newAPIRouter(t)

	bad := domain.Quiz{
		Title: "Broken",
		Questions: []domain.Question{
			{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 0},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/api/save-quiz", map[string]any{"key": "HACK2024", "quiz": bad})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteQuizNotFound(t *testing.T) {
	router := newAPIRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/quiz/missing", map[string]string{"key": "HACK2024"})
	require.Equal(t, http.StatusNotFound, w.Code)
}
