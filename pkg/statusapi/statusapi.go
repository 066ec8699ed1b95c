// Copyright 2025 Embedos Systems GmbH
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

// Package statusapi serves a small read-only HTTP view of the running
// recovery attempt, for provisioning tooling and technicians with shell
// access to the device.
package statusapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Snapshot is the externally visible state of the recovery attempt.
type Snapshot struct {
	State          string  `json:"state"`
	Outcome        string  `json:"outcome,omitempty"`
	RetryCount     int     `json:"retryCount"`
	ChildPid       int     `json:"childPid,omitempty"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	StartedAt      string  `json:"startedAt"`
}

// Server publishes the snapshot over HTTP.
type Server struct {
	mu       sync.RWMutex
	snapshot Snapshot

	httpServer *http.Server
	logger     *zap.SugaredLogger
	started    time.Time
}

// NewServer creates a status API server bound to addr. Call Start to
// begin serving.
func NewServer(addr string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		logger:  logger,
		started: time.Now(),
	}
	s.snapshot = Snapshot{
		State:     "initializing",
		StartedAt: s.started.UTC().Format(time.RFC3339),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/v1/recovery/status", s.handleStatus)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return s
}

// Handler exposes the HTTP handler for in-process use and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warnf("Status API server stopped: %s", err)
		}
	}()
}

// Update replaces the published state and outcome. Elapsed time is
// derived from the server's own start time on every request.
func (s *Server) Update(state string, outcomeName string, retryCount int, childPid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.State = state
	s.snapshot.Outcome = outcomeName
	s.snapshot.RetryCount = retryCount
	s.snapshot.ChildPid = childPid
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warnf("Status API shutdown failed: %s", err)
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()

	snapshot.ElapsedSeconds = time.Since(s.started).Seconds()

	body, err := json.Marshal(snapshot)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to encode status")

		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
