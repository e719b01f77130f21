package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the read-only endpoints. An empty origins list disables
// CORS handling.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}

	r.GET("/health", h.GetHealth)
	r.GET("/articles", h.GetArticles)
	r.GET("/distribution/categories", h.GetCategoryDistribution)
	r.GET("/distribution/sources", h.GetSourceDistribution)
	r.GET("/sentiment", h.GetSentiment)
	r.GET("/trending", h.GetTrending)
	r.GET("/summary", h.GetSummary)
	r.GET("/signals", h.GetSignals)
	r.GET("/signals/history", h.GetSignalHistory)
	r.GET("/signals/latest", h.GetLatestSignals)
	return r
}
