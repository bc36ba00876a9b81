package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smartyg/competitionnotify/app/console"
	"github.com/smartyg/competitionnotify/app/database"
)

const (
	defaultFeedLimit = 50
	maxConsoleBody   = 64 << 10
)

func NewHandler(processedRepo database.ProcessedRepository, notificationRepo database.NotificationRepository,
	generator GeneratorInterface, dispatcher DispatcherInterface, status StatusInterface, version string) *Handler {
	return &Handler{
		processedRepo:    processedRepo,
		notificationRepo: notificationRepo,
		generator:        generator,
		dispatcher:       dispatcher,
		status:           status,
		feedLimit:        defaultFeedLimit,
		version:          version,
	}
}

func (h *Handler) GetNotificationsFeed(c *gin.Context) {
	notifications, err := h.notificationRepo.ListPending(c.Request.Context(), h.feedLimit)
	if err != nil {
		slog.Error("Database error", "operation", "list_pending", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(notifications, time.Now())
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(notifications)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if count, err := h.processedRepo.Count(c.Request.Context()); err == nil {
		health["processed"] = count
	} else {
		slog.Error("Database error", "operation", "count_processed", "error", err)
		health["status"] = "degraded"
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	snapshot, discoveredAt := h.status.Snapshot()

	stats := map[string]interface{}{
		"discovered":    len(snapshot),
		"running_tasks": h.status.Running(),
	}
	if !discoveredAt.IsZero() {
		stats["discovered_at"] = discoveredAt.In(time.Local).Format(time.RFC3339)
	}
	if count, err := h.processedRepo.Count(ctx); err == nil {
		stats["processed"] = count
	}
	if count, err := h.notificationRepo.Count(ctx); err == nil {
		stats["notifications"] = count
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListProcessed(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	records, err := h.processedRepo.List(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_processed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": records, "count": len(records)})
}

func (h *Handler) APIGetNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	n, err := h.notificationRepo.Get(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_notification", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if n == nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, n)
}

// APIConsole runs a console command. The request body, when present, is
// handed to the module as its JSON payload.
func (h *Handler) APIConsole(c *gin.Context) {
	module := c.Param("module")
	command := c.Param("command")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConsoleBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"module": module, "command": command, "response": http.StatusBadRequest, "error": "body is not valid JSON"})
		return
	}

	data, err := h.dispatcher.Dispatch(c.Request.Context(), module, command, body)
	if err != nil {
		status := consoleStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("Console command failed", "module", module, "command", command, "error", err)
		}
		c.JSON(status, gin.H{"module": module, "command": command, "response": status, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"module": module, "command": command, "response": http.StatusOK, "data": data})
}

func consoleStatus(err error) int {
	switch {
	case errors.Is(err, console.ErrUnknownModule):
		return http.StatusNotFound
	case errors.Is(err, console.ErrUnknownCommand), errors.Is(err, console.ErrWrongDataType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
