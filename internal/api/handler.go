// Package api serves the store query contract and the signal bundle as JSON
// for dashboards.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/signal"
	"github.com/lankasignal/lankasignal/internal/snapshot"
	"github.com/lankasignal/lankasignal/internal/store"
	"github.com/lankasignal/lankasignal/internal/window"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Store interface {
	signal.Store
	TotalCount() (int, error)
	RecentSignals(signalType string, w window.Window) ([]store.Signal, error)
}

// SnapshotReader returns the last published signal bundle.
type SnapshotReader interface {
	Latest(ctx context.Context) (*signal.Bundle, error)
}

// Options are the defaults applied when a request omits a parameter.
type Options struct {
	DefaultHours   float64
	TopN           int
	MinOccurrences int
}

type Handler struct {
	store     Store
	analytics *analytics.Engine
	detector  *signal.Detector
	snapshots SnapshotReader
	opts      Options
}

func NewHandler(s Store, d *signal.Detector, opts Options) *Handler {
	if opts.DefaultHours <= 0 {
		opts.DefaultHours = 24
	}
	return &Handler{store: s, analytics: analytics.New(s), detector: d, opts: opts}
}

// SetSnapshots enables GET /signals/latest.
func (h *Handler) SetSnapshots(r SnapshotReader) {
	h.snapshots = r
}

// windowParams reads hours, hours_end and repeated source parameters. It
// writes a 400 and returns false on malformed numbers.
func (h *Handler) windowParams(c *gin.Context) (window.Window, []string, bool) {
	older, ok := floatQuery(c, "hours", h.opts.DefaultHours)
	if !ok {
		return window.Window{}, nil, false
	}
	newer, ok := floatQuery(c, "hours_end", 0)
	if !ok {
		return window.Window{}, nil, false
	}
	return window.Between(older, newer), c.QueryArray("source"), true
}

func floatQuery(c *gin.Context, name string, def float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return v, true
}

func (h *Handler) GetHealth(c *gin.Context) {
	n, err := h.store.TotalCount()
	if err != nil {
		slog.Error("error counting articles", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Articles: n})
}

func (h *Handler) GetArticles(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultLimit)
	if !ok {
		return
	}
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}
	cat := c.Query("category")

	articles, err := h.store.QueryWindow(w, sources)
	if err != nil {
		slog.Error("error querying articles", "error", err, "window", w.String())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := ArticlesResponse{Window: w.String(), Limit: limit, Articles: []ArticleResponse{}}
	for _, a := range articles {
		if cat != "" && string(a.CategoryOrGeneral()) != cat {
			continue
		}
		res.Total++
		if len(res.Articles) < limit {
			res.Articles = append(res.Articles, toArticleResponse(a))
		}
	}
	c.JSON(http.StatusOK, res)
}

func toArticleResponse(a store.Article) ArticleResponse {
	return ArticleResponse{
		ID:          a.ID,
		Title:       a.Title,
		URL:         a.URL,
		Source:      a.Source,
		Category:    string(a.CategoryOrGeneral()),
		Sentiment:   a.SentimentOrNeutral(),
		CollectedAt: a.CollectedAt.UTC().Format(time.RFC3339),
		Processed:   a.Processed,
	}
}

func (h *Handler) GetCategoryDistribution(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	dist, err := h.analytics.CategoryDistribution(w, sources)
	if err != nil {
		slog.Error("error fetching category distribution", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, CategoryDistributionResponse{Window: w.String(), Distribution: dist})
}

func (h *Handler) GetSourceDistribution(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	dist, err := h.analytics.SourceDistribution(w, sources)
	if err != nil {
		slog.Error("error fetching source distribution", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, SourceDistributionResponse{Window: w.String(), Distribution: dist})
}

func (h *Handler) GetSentiment(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	sent, err := h.analytics.SentimentByCategory(w, sources)
	if err != nil {
		slog.Error("error fetching sentiment", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, SentimentResponse{Window: w.String(), Sentiment: sent})
}

func (h *Handler) GetTrending(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	topN, ok := intQuery(c, "top_n", h.opts.TopN)
	if !ok {
		return
	}
	minOcc, ok := intQuery(c, "min_occurrences", h.opts.MinOccurrences)
	if !ok {
		return
	}
	topics, err := h.analytics.TrendingTopics(w, sources, topN, minOcc)
	if err != nil {
		slog.Error("error fetching trending topics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, TrendingResponse{Window: w.String(), Topics: topics})
}

func (h *Handler) GetSummary(c *gin.Context) {
	w, sources, ok := h.windowParams(c)
	if !ok {
		return
	}
	sum, err := h.analytics.Summary(w, sources, h.opts.TopN, h.opts.MinOccurrences)
	if err != nil {
		slog.Error("error building summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GetSignals runs every detector and returns the fresh bundle.
func (h *Handler) GetSignals(c *gin.Context) {
	b, err := h.detector.GenerateAll()
	if err != nil {
		slog.Error("error generating signals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetSignalHistory lists persisted signals, optionally filtered by type.
func (h *Handler) GetSignalHistory(c *gin.Context) {
	w, _, ok := h.windowParams(c)
	if !ok {
		return
	}
	typ := c.Query("type")
	sigs, err := h.store.RecentSignals(typ, w)
	if err != nil {
		slog.Error("error fetching signal history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if sigs == nil {
		sigs = []store.Signal{}
	}
	c.JSON(http.StatusOK, SignalHistoryResponse{Window: w.String(), Type: typ, Signals: sigs})
}

// GetLatestSignals returns the last published bundle without recomputing.
func (h *Handler) GetLatestSignals(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Snapshots disabled"})
		return
	}
	b, err := h.snapshots.Latest(c.Request.Context())
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No snapshot published"})
		return
	}
	if err != nil {
		slog.Error("error reading snapshot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Snapshot error"})
		return
	}
	c.JSON(http.StatusOK, b)
}
