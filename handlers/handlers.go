// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/caselaw/core"
)

// Service is the engine surface the handlers call. *caselaw.Engine
// satisfies it.
type Service interface {
	Search(ctx context.Context, q *core.SearchQuery) *core.SearchResponse
	GetCaseByCitation(ctx context.Context, cite string) *core.UnifiedResult
	FindRelated(ctx context.Context, source core.SourceID, id string, limit int) ([]core.UnifiedResult, error)
	SourceStatus() []core.SourceStatus
}

// ErrServiceRequired is returned when a nil service is provided.
var ErrServiceRequired = errors.New("service is required")

// Handler serves the case law API.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler creates a handler over svc. A nil logger uses slog.Default().
func NewHandler(svc Service, logger *slog.Logger) (*Handler, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}, nil
}

// RegisterRoutes mounts the API under r.
func RegisterRoutes(r gin.IRouter, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/search", h.Search)
		api.GET("/cases/by-citation", h.GetByCitation)
		api.GET("/cases/:source/:id/related", h.Related)
		api.GET("/sources", h.Sources)
	}
	r.GET("/health", h.Health)
}

// NewRouter builds a gin engine with the API, request logging, panic
// recovery and /metrics served from gatherer. A nil gatherer leaves
// /metrics unmounted.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	RegisterRoutes(r, h)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Search handles GET /api/search
func (h *Handler) Search(c *gin.Context) {
	q, err := parseSearchQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}
	if err := core.ValidateQuery(q); err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	ok(c, h.svc.Search(c.Request.Context(), q))
}

// GetByCitation handles GET /api/cases/by-citation
func (h *Handler) GetByCitation(c *gin.Context) {
	cite := strings.TrimSpace(c.Query("cite"))
	if cite == "" {
		fail(c, http.StatusBadRequest, CodeMissingCitation, "cite is required")
		return
	}
	res := h.svc.GetCaseByCitation(c.Request.Context(), cite)
	if res == nil {
		fail(c, http.StatusNotFound, CodeCaseNotFound, fmt.Sprintf("no case found for %q", cite))
		return
	}
	ok(c, res)
}

// Related handles GET /api/cases/:source/:id/related
func (h *Handler) Related(c *gin.Context) {
	source, err := core.ParseSourceID(c.Param("source"))
	if err != nil {
		fail(c, http.StatusBadRequest, CodeUnknownSource, err.Error())
		return
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		fail(c, http.StatusBadRequest, CodeInvalidParameter, err.Error())
		return
	}

	results, err := h.svc.FindRelated(c.Request.Context(), source, c.Param("id"), limit)
	switch {
	case errors.Is(err, core.ErrCaseNotFound):
		fail(c, http.StatusNotFound, CodeCaseNotFound, err.Error())
		return
	case errors.Is(err, core.ErrUnknownSource):
		fail(c, http.StatusBadRequest, CodeUnknownSource, err.Error())
		return
	case errors.Is(err, core.ErrSourceUnavailable):
		fail(c, http.StatusServiceUnavailable, CodeSourceUnavailable, err.Error())
		return
	case err != nil:
		h.logger.Error("related lookup failed", "source", source, "id", c.Param("id"), "err", err)
		fail(c, http.StatusBadGateway, CodeInternal, err.Error())
		return
	}
	ok(c, results)
}

// Sources handles GET /api/sources
func (h *Handler) Sources(c *gin.Context) {
	ok(c, h.svc.SourceStatus())
}

// Health handles GET /health. The service is healthy while at least one
// source is available.
func (h *Handler) Health(c *gin.Context) {
	statuses := h.svc.SourceStatus()
	available := 0
	for _, s := range statuses {
		if s.Available {
			available++
		}
	}
	if available == 0 {
		fail(c, http.StatusServiceUnavailable, CodeSourceUnavailable, "no sources available")
		return
	}
	ok(c, gin.H{"status": "ok", "available_sources": available})
}

func parseSearchQuery(c *gin.Context) (*core.SearchQuery, error) {
	q := &core.SearchQuery{
		Query:        c.Query("q"),
		Jurisdiction: c.Query("jurisdiction"),
		DateMin:      c.Query("date_min"),
		DateMax:      c.Query("date_max"),
	}

	limit, err := intParam(c, "limit")
	if err != nil {
		return nil, err
	}
	q.Limit = limit

	if raw := c.Query("sources"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := core.ParseSourceID(part)
			if err != nil {
				return nil, err
			}
			q.Sources = append(q.Sources, id)
		}
	}

	if raw := c.Query("prefer_offline"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("prefer_offline: %q is not a boolean", raw)
		}
		q.PreferOffline = &v
	}
	return q, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a non-negative integer", name, raw)
	}
	return n, nil
}
