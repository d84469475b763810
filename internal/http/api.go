package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/events"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/service"
)

// logDateLayout renders log entries as "Mon Jan 02 2006".
const logDateLayout = "Mon Jan 02 2006"

const userNotFoundMessage = "No User By That Id"

// Config carries the handler's collaborators.
type Config struct {
	Users     service.UserService
	Exercises service.ExerciseService
	Archives  service.ArchiveService
	Events    events.Publisher
	Logger    *logrus.Logger
	StaticDir string
	ViewsDir  string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	exercises service.ExerciseService
	archives  service.ArchiveService
	events    events.Publisher
	logger    *logrus.Logger
	staticDir string
	viewsDir  string
}

func NewHandler(cfg Config) *Handler {
	if cfg.Events == nil {
		cfg.Events = events.NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Handler{
		users:     cfg.Users,
		exercises: cfg.Exercises,
		archives:  cfg.Archives,
		events:    cfg.Events,
		logger:    cfg.Logger,
		staticDir: cfg.StaticDir,
		viewsDir:  cfg.ViewsDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	if h.staticDir != "" {
		router.Static("/public", h.staticDir)
	}
	if h.viewsDir != "" {
		index := filepath.Join(h.viewsDir, "index.html")
		router.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	}
	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/users", h.createUser)
		api.GET("/users", h.listUsers)
		api.GET("/users/:_id", h.getUser)
		api.POST("/users/:_id/exercises", h.appendExercise)
		api.GET("/users/:_id/logs", h.queryLogs)
		api.POST("/users/:_id/archive", h.archiveUser)
		api.GET("/users/:_id/archives", h.listArchives)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

type createUserRequest struct {
	Username string `json:"username" form:"username"`
}

type appendExerciseRequest struct {
	Description string      `json:"description" form:"description"`
	Duration    json.Number `json:"duration" form:"duration"`
	Date        string      `json:"date" form:"date"`
}

type UserResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

type UserDetailResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
}

type ExerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

type LogEntryResponse struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type LogResponse struct {
	ID       string             `json:"_id"`
	Username string             `json:"username"`
	Count    int                `json:"count"`
	Log      []LogEntryResponse `json:"log"`
}

type ArchiveResponse struct {
	Key        string `json:"key"`
	Location   string `json:"location"`
	Size       int64  `json:"size"`
	ArchivedAt string `json:"archived_at,omitempty"`
	URL        string `json:"url,omitempty"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(c.Request.Context(), events.TypeUserCreated, events.UserCreated{
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: user.CreatedAt,
	})
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = UserResponse{ID: users[i].ID, Username: users[i].Username}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), userIDParam(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserDetailResponse{ID: user.ID, Username: user.Username, Count: user.LogCount})
}

func (h *Handler) appendExercise(c *gin.Context) {
	var req appendExerciseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.exercises.AppendEntry(c.Request.Context(), service.AppendEntryInput{
		UserID:      userIDParam(c),
		Description: req.Description,
		Duration:    req.Duration.String(),
		Date:        req.Date,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.publish(c.Request.Context(), events.TypeExerciseLogged, events.ExerciseLogged{
		UserID:      result.UserID,
		Username:    result.Username,
		Description: result.Entry.Description,
		Duration:    result.Entry.Duration,
		Date:        result.Entry.Date,
		OccurredAt:  time.Now().UTC(),
	})
	c.JSON(http.StatusOK, ExerciseResponse{
		ID:          result.UserID,
		Username:    result.Username,
		Date:        result.Entry.Date.UTC().Format(http.TimeFormat),
		Duration:    result.Entry.Duration,
		Description: result.Entry.Description,
	})
}

func (h *Handler) queryLogs(c *gin.Context) {
	filter, err := domain.ParseLogFilter(c.Query("from"), c.Query("to"), c.Query("limit"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	view, err := h.exercises.QueryLogs(c.Request.Context(), userIDParam(c), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := LogResponse{
		ID:       view.UserID,
		Username: view.Username,
		Count:    view.Count,
		Log:      make([]LogEntryResponse, len(view.Log)),
	}
	for i, entry := range view.Log {
		resp.Log[i] = LogEntryResponse{
			Description: entry.Description,
			Duration:    entry.Duration,
			Date:        formatDate(entry.Date),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) archiveUser(c *gin.Context) {
	if h.archives == nil {
		h.writeError(c, service.ErrArchiveDisabled)
		return
	}

	archive, err := h.archives.ArchiveUser(c.Request.Context(), userIDParam(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, archiveToResponse(*archive))
}

func (h *Handler) listArchives(c *gin.Context) {
	if h.archives == nil {
		h.writeError(c, service.ErrArchiveDisabled)
		return
	}

	archives, err := h.archives.ListArchives(c.Request.Context(), userIDParam(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ArchiveResponse, len(archives))
	for i := range archives {
		resp[i] = archiveToResponse(archives[i])
	}
	c.JSON(http.StatusOK, resp)
}

type healthReporter interface {
	Healthy() bool
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) health(c *gin.Context) {
	eventsStatus := dependencyStatus{OK: true, Message: "disabled"}
	if reporter, ok := h.events.(healthReporter); ok {
		eventsStatus = dependencyStatus{OK: reporter.Healthy()}
		if !eventsStatus.OK {
			eventsStatus.Message = "connection closed"
		}
	}

	statusCode := http.StatusOK
	if !eventsStatus.OK {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"ok": eventsStatus.OK,
		"dependencies": gin.H{
			"events": eventsStatus,
		},
	})
}

func (h *Handler) publish(ctx context.Context, eventType string, payload any) {
	err := h.events.Publish(ctx, eventType, payload)
	observability.RecordEventPublished(eventType, err)
	if err != nil {
		h.logger.Warnf("publish %s: %v", eventType, err)
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": userNotFoundMessage})
	case errors.Is(err, service.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again"})
	default:
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// userIDParam reads the :_id path segment. Forms that post to the literal
// "/api/users/:_id/exercises" route carry the id in a ":_id" field instead.
func userIDParam(c *gin.Context) string {
	id := strings.TrimSpace(c.Param("_id"))
	if id == "" || id == ":_id" {
		id = strings.TrimSpace(c.PostForm(":_id"))
	}
	return id
}

func formatDate(t time.Time) string {
	return t.UTC().Format(logDateLayout)
}

func archiveToResponse(archive service.Archive) ArchiveResponse {
	resp := ArchiveResponse{
		Key:      archive.Key,
		Location: archive.Location,
		Size:     archive.Size,
		URL:      archive.URL,
	}
	if !archive.ArchivedAt.IsZero() {
		resp.ArchivedAt = archive.ArchivedAt.Format(time.RFC3339)
	}
	return resp
}
