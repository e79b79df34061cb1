// server/server.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package server serves stored products over HTTP and renders new ones on
// request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hdwx/metproducts/log"
	"github.com/hdwx/metproducts/metrics"
	"github.com/hdwx/metproducts/product"
	"github.com/hdwx/metproducts/storage"
	"github.com/hdwx/metproducts/wx"
)

// Size of synthetic grids rendered when a request does not name one.
const (
	defaultSyntheticNX = 100
	defaultSyntheticNY = 60
	maxSyntheticPoints = 1000 * 1000
)

// Server exposes stored panels, on-demand rendering, health and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	renderer   *product.Renderer
	metrics    *metrics.Metrics
	lg         *log.Logger
	startTime  time.Time
}

// New creates a server listening on addr. The renderer's backend is used
// both to serve panels and to store the ones it renders.
func New(addr string, r *product.Renderer, m *metrics.Metrics, lg *log.Logger) *Server {
	s := &Server{
		renderer:  r,
		metrics:   m,
		lg:        lg,
		startTime: time.Now(),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.logRequests)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/healthz", s.handleHealth)
	router.Get("/readyz", s.handleReady)
	if m != nil {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}
	router.Route("/panels", func(pr chi.Router) {
		pr.Get("/", s.handleList)
		pr.Get("/*", s.handlePanel)
	})
	router.Post("/render", s.handleRender)
	s.mountDebug(router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.lg.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.lg.Info("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"bytes", ww.BytesWritten(), "elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady checks that the product storage can be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.renderer.Backend.List(ctx, ".ready"); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type panelEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// handleList returns the stored panels under the optional "prefix" query
// parameter, sorted by path.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix != "" {
		var err error
		if prefix, err = storage.Clean(prefix); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	objs, err := s.renderer.Backend.List(r.Context(), prefix)
	if err != nil {
		s.lg.Errorf("list %q: %v", prefix, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	entries := []panelEntry{}
	for p, sz := range objs {
		if strings.HasSuffix(p, ".png") {
			entries = append(entries, panelEntry{Path: p, Size: sz})
		}
	}
	slices.SortFunc(entries, func(a, b panelEntry) int { return strings.Compare(a.Path, b.Path) })
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	p, err := storage.Clean(chi.URLParam(r, "*"))
	if err != nil || !strings.HasSuffix(p, ".png") {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%q: not a panel path", chi.URLParam(r, "*")))
		return
	}

	rd, err := s.renderer.Backend.OpenRead(r.Context(), p)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%s: not found", p))
		return
	} else if err != nil {
		s.lg.Errorf("%s: %v", p, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer rd.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := io.Copy(w, rd); err != nil {
		s.lg.Warnf("%s: %v", p, err)
	}
}

// RenderRequest asks for the panel of one forecast time. If Grid is set, it
// names a grid file in storage; otherwise a synthetic grid is rendered.
type RenderRequest struct {
	Grid string `json:"grid,omitempty"`

	Model string    `json:"model,omitempty"`
	Init  time.Time `json:"init"`
	Lead  string    `json:"lead,omitempty"` // e.g. "6h"
	NX    int       `json:"nx,omitempty"`
	NY    int       `json:"ny,omitempty"`
}

func (req RenderRequest) grid(ctx context.Context, b storage.Backend) (*wx.Grid, error) {
	if req.Grid != "" {
		p, err := storage.Clean(req.Grid)
		if err != nil {
			return nil, err
		}
		return product.LoadGrid(ctx, b, p)
	}

	if req.Model == "" {
		return nil, errors.New("no model given")
	}
	if req.Init.IsZero() {
		return nil, errors.New("no init time given")
	}
	var lead time.Duration
	if req.Lead != "" {
		var err error
		if lead, err = time.ParseDuration(req.Lead); err != nil {
			return nil, fmt.Errorf("lead: %w", err)
		} else if lead < 0 {
			return nil, fmt.Errorf("lead %s: must not be negative", req.Lead)
		}
	}
	nx, ny := req.NX, req.NY
	if nx == 0 && ny == 0 {
		nx, ny = defaultSyntheticNX, defaultSyntheticNY
	}
	if nx < 2 || ny < 2 || nx*ny > maxSyntheticPoints {
		return nil, fmt.Errorf("%dx%d: invalid grid size", nx, ny)
	}
	return wx.Synthetic(req.Model, nx, ny, req.Init.UTC(), lead), nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := req.grid(r.Context(), s.renderer.Backend)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	} else if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ev, err := s.renderer.Render(r.Context(), g)
	if err != nil {
		s.lg.Errorf("render: %v", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
