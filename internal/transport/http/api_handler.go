package http

import (
	"errors"
	"net/http"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// APIHandler exposes the quiz-management REST surface. Everything here is
// thin glue over app.QuizService; game flow lives on the websocket.
type APIHandler struct {
	quizzes *app.QuizService
}

func NewAPIHandler(quizzes *app.QuizService) *APIHandler {
	return &APIHandler{quizzes: quizzes}
}

// NewRouter wires the REST API, the websocket endpoint and a health check.
func NewRouter(api *APIHandler, ws *WSHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws", func(c *gin.Context) {
		ws.ServeWS(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/verify-key", api.verifyKey)
		apiGroup.POST("/save-quiz", api.saveQuiz)
		apiGroup.GET("/quizzes", api.listQuizzes)
		apiGroup.GET("/quiz/:id", api.getQuiz)
		apiGroup.DELETE("/quiz/:id", api.deleteQuiz)
	}
	return r
}

type verifyKeyRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *APIHandler) verifyKey(c *gin.Context) {
	var req verifyKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "key required"})
		return
	}
	if !h.quizzes.VerifyKey(req.Key) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "invalid key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type saveQuizRequest struct {
	Key  string      `json:"key" binding:"required"`
	Quiz domain.Quiz `json:"quiz" binding:"required"`
}

func (h *APIHandler) saveQuiz(c *gin.Context) {
	var req saveQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "key and quiz required"})
		return
	}
	id, err := h.quizzes.SaveQuiz(c.Request.Context(), req.Key, req.Quiz)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
	case errors.Is(err, domain.ErrInvalidQuiz):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to save quiz"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "quizId": id})
	}
}

func (h *APIHandler) listQuizzes(c *gin.Context) {
	summaries, err := h.quizzes.ListQuizzes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to list quizzes"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *APIHandler) getQuiz(c *gin.Context) {
	quiz, err := h.quizzes.GetQuiz(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quiz"})
	default:
		c.JSON(http.StatusOK, quiz)
	}
}

type deleteQuizRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *APIHandler) deleteQuiz(c *gin.Context) {
	var req deleteQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "key required"})
		return
	}
	err := h.quizzes.DeleteQuiz(c.Request.Context(), req.Key, c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
	case errors.Is(err, domain.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "quiz not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to delete quiz"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "quiz deleted"})
	}
}
