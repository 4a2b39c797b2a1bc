package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/logfile"
	"github.com/isheraz/stroll-test/internal/models"
	"github.com/isheraz/stroll-test/internal/service"
)

const (
	defaultLogLines = 50
	maxLogLines     = 1000
)

// Pinger is anything that can report its own health.
type Pinger interface {
	Health(ctx context.Context) error
}

type OpsHandler struct {
	service     *service.ContentService
	cache       Pinger
	postgres    Pinger
	cacheDriver string
	localSize   func() int
	hitRate     func() float64
	logPath     string
	log         *logrus.Entry
}

type OpsConfig struct {
	Cache       Pinger
	Postgres    Pinger
	CacheDriver string
	// LocalSize reports the in-process cache size; nil for Redis.
	LocalSize func() int
	// DriverHitRate reports the cache driver's hit rate.
	DriverHitRate func() float64
	LogPath       string
}

func NewOpsHandler(service *service.ContentService, cfg OpsConfig, log *logrus.Entry) *OpsHandler {
	return &OpsHandler{
		service:     service,
		cache:       cfg.Cache,
		postgres:    cfg.Postgres,
		cacheDriver: cfg.CacheDriver,
		localSize:   cfg.LocalSize,
		hitRate:     cfg.DriverHitRate,
		logPath:     cfg.LogPath,
		log:         log,
	}
}

// GetLogs returns the last n lines of the request log (default 50).
func (h *OpsHandler) GetLogs(c *gin.Context) {
	n := defaultLogLines
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLogLines {
			badRequest(c, h.log, errInvalidLineCount(raw))
			return
		}
		n = parsed
	}

	lines, err := logfile.Tail(h.logPath, n)
	if err != nil {
		h.log.WithError(err).Error("Error reading log file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading log file"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No logs found"})
		return
	}

	h.log.Debugf("Returning the last %d log entries.", len(lines))
	c.JSON(http.StatusOK, models.LogsResponse{Logs: lines})
}

func (h *OpsHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	cacheOK := h.cache == nil || h.cache.Health(ctx) == nil
	postgresOK := h.postgres == nil || h.postgres.Health(ctx) == nil

	status := "healthy"
	statusCode := http.StatusOK
	if !cacheOK || !postgresOK {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.HealthResponse{
		Status:     status,
		CacheOK:    cacheOK,
		PostgresOK: postgresOK,
		Timestamp:  time.Now().UTC(),
	})
}

func (h *OpsHandler) Stats(c *gin.Context) {
	stats := h.service.Stats()

	resp := models.StatsResponse{
		CacheDriver:  h.cacheDriver,
		CacheHits:    stats.Hits,
		CacheMisses:  stats.Misses,
		CacheErrors:  stats.CacheErrors,
		CacheHitRate: stats.HitRate(),
		StoreReads:   stats.StoreReads,
	}
	if h.localSize != nil {
		resp.LocalSize = h.localSize()
	}
	if h.hitRate != nil {
		resp.DriverHitRate = h.hitRate()
	}

	c.JSON(http.StatusOK, resp)
}

type errInvalidLineCount string

func (e errInvalidLineCount) Error() string {
	return "n must be an integer between 1 and " + strconv.Itoa(maxLogLines) + ", got " + strconv.Quote(string(e))
}
