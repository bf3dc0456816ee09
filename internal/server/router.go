package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"github.com/PavanKumar06/stackoverflow-client/internal/realtime"
	"github.com/PavanKumar06/stackoverflow-client/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const usernameContextKey = "forum_username"

var (
	errMissingStore         = errors.New("store service dependency required")
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingHub           = errors.New("broadcast hub dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates session tokens.
type SessionTokenManager interface {
	IssueSessionToken(ctx context.Context, username string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the HTTP handler.
type Dependencies struct {
	Store  *store.Service
	Tokens SessionTokenManager
	Hub    *Hub
	Logger *zap.Logger
}

// NewHTTPHandler builds the gin router for the reference backend.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}
	if deps.Hub == nil {
		return nil, errMissingHub
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:  deps.Store,
		tokens: deps.Tokens,
		hub:    deps.Hub,
		logger: logger,
	}

	router.POST("/auth/login", handler.handleLogin)
	router.GET("/stream", handler.handleStream)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/questions", handler.handleListQuestions)
	protected.GET("/questions/:id", handler.handleGetQuestion)
	protected.POST("/questions", handler.handleNewQuestion)
	protected.POST("/questions/:id/answers", handler.handleNewAnswer)
	protected.POST("/questions/:id/vote", handler.handleVote)
	protected.POST("/comments", handler.handleNewComment)
	protected.GET("/tags", handler.handleListTags)

	return router, nil
}

type httpHandler struct {
	store  *store.Service
	tokens SessionTokenManager
	hub    *Hub
	logger *zap.Logger
}

type loginRequestPayload struct {
	Username string `json:"username"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	username, err := forum.NewUsername(request.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_username"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSessionToken(c.Request.Context(), username.String())
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleListQuestions(c *gin.Context) {
	order := forum.OrderNewest
	if raw := c.Query("order"); raw != "" {
		parsed, err := forum.ParseOrder(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order"})
			return
		}
		order = parsed
	}
	questions, err := h.store.ListQuestions(c.Request.Context(), c.Query("search"), order)
	if err != nil {
		h.logger.Error("failed to list questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// handleGetQuestion counts the fetch as a view, so it bumps the counter and
// broadcasts the updated aggregate to all stream subscribers.
func (h *httpHandler) handleGetQuestion(c *gin.Context) {
	questionID, err := forum.NewQuestionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_question_id"})
		return
	}
	question, err := h.store.IncrementViews(c.Request.Context(), questionID)
	if errors.Is(err, store.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "question_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch_failed"})
		return
	}
	if err := h.hub.Broadcast(realtime.EventViewsUpdated, question); err != nil {
		h.logger.Warn("views broadcast failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, question)
}

type newQuestionPayload struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
}

func (h *httpHandler) handleNewQuestion(c *gin.Context) {
	username := c.GetString(usernameContextKey)
	var request newQuestionPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.Title) == "" || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	question, err := h.store.CreateQuestion(c.Request.Context(), forum.Username(username), request.Title, request.Text, request.Tags)
	if err != nil {
		h.logger.Error("failed to create question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusOK, question)
}

type newAnswerPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleNewAnswer(c *gin.Context) {
	username := c.GetString(usernameContextKey)
	questionID, err := forum.NewQuestionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_question_id"})
		return
	}
	var request newAnswerPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	answer, err := h.store.AddAnswer(c.Request.Context(), questionID, forum.Username(username), request.Text)
	if errors.Is(err, store.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "question_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to add answer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "answer_failed"})
		return
	}

	if err := h.hub.Broadcast(realtime.EventAnswerAdded, realtime.AnswerAddedPayload{
		QuestionID: questionID.String(),
		Answer:     answer,
	}); err != nil {
		h.logger.Warn("answer broadcast failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, answer)
}

type newCommentPayload struct {
	TargetID   string `json:"targetId"`
	TargetKind string `json:"targetKind"`
	Text       string `json:"text"`
}

// handleNewComment persists the comment, then broadcasts the authoritative
// post-update copy of the whole target so clients replace rather than patch.
func (h *httpHandler) handleNewComment(c *gin.Context) {
	username := c.GetString(usernameContextKey)
	var request newCommentPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	kind, err := forum.ParseTargetKind(request.TargetKind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_target_kind"})
		return
	}
	if strings.TrimSpace(request.TargetID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_target_id"})
		return
	}

	comment, err := h.store.AddComment(c.Request.Context(), kind, request.TargetID, forum.Username(username), request.Text)
	if errors.Is(err, store.ErrQuestionNotFound) || errors.Is(err, store.ErrAnswerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "target_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to add comment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comment_failed"})
		return
	}

	h.broadcastCommentAdded(c.Request.Context(), kind, request.TargetID)
	c.JSON(http.StatusOK, comment)
}

func (h *httpHandler) broadcastCommentAdded(ctx context.Context, kind forum.TargetKind, targetID string) {
	var target any
	switch kind {
	case forum.TargetQuestion:
		question, err := h.store.GetQuestion(ctx, forum.QuestionID(targetID))
		if err != nil {
			h.logger.Warn("comment broadcast skipped", zap.Error(err))
			return
		}
		target = question
	case forum.TargetAnswer:
		answer, _, err := h.store.GetAnswer(ctx, targetID)
		if err != nil {
			h.logger.Warn("comment broadcast skipped", zap.Error(err))
			return
		}
		target = answer
	}
	if err := h.hub.Broadcast(realtime.EventCommentAdded, gin.H{
		"updatedTarget": target,
		"targetKind":    string(kind),
	}); err != nil {
		h.logger.Warn("comment broadcast failed", zap.Error(err))
	}
}

type votePayload struct {
	Direction string `json:"direction"`
}

func (h *httpHandler) handleVote(c *gin.Context) {
	username := c.GetString(usernameContextKey)
	questionID, err := forum.NewQuestionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_question_id"})
		return
	}
	var request votePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var up bool
	switch strings.ToLower(strings.TrimSpace(request.Direction)) {
	case "up":
		up = true
	case "down":
		up = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_direction"})
		return
	}

	upVotes, downVotes, err := h.store.ApplyVote(c.Request.Context(), questionID, forum.Username(username), up)
	if errors.Is(err, store.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "question_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to apply vote", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vote_failed"})
		return
	}

	if err := h.hub.Broadcast(realtime.EventVoteChanged, realtime.VoteChangedPayload{
		QuestionID: questionID.String(),
		UpVotes:    upVotes,
		DownVotes:  downVotes,
	}); err != nil {
		h.logger.Warn("vote broadcast failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"upVotes": upVotes, "downVotes": downVotes})
}

func (h *httpHandler) handleListTags(c *gin.Context) {
	tags, err := h.store.ListTags(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list tags", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tags_failed"})
		return
	}
	response := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		response = append(response, gin.H{"name": tag.Name, "count": tag.Count})
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	username, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(usernameContextKey, username)
	c.Next()
}
