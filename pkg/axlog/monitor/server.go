// Package monitor serves a live readout of the decoder over HTTP, so a
// browser or curl can watch the meter without tailing the log output.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/axmet/axlog/pkg/ax178"
)

type Server struct {
	mu      sync.RWMutex
	last    *ax178.Measurement
	stats   ax178.Stats
	started time.Time
	srv     *http.Server
}

func NewServer(port int) *Server {
	return &Server{
		srv:     &http.Server{Addr: fmt.Sprintf(":%d", port)},
		started: time.Now(),
	}
}

// Record stores the latest measurement and decode counters for /status.
func (s *Server) Record(m ax178.Measurement, stats ax178.Stats) {
	s.mu.Lock()
	s.last = &m
	s.stats = stats
	s.mu.Unlock()
}

// RecordStats updates the counters without a new measurement, used on sync
// faults.
func (s *Server) RecordStats(stats ax178.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

type statusResponse struct {
	Measurement *measurementJSON `json:"measurement"`
	Frames      uint64           `json:"frames"`
	SyncFaults  uint64           `json:"sync_faults"`
	BitsSlipped uint64           `json:"bits_slipped"`
	Uptime      string           `json:"uptime"`
}

type measurementJSON struct {
	Display   string    `json:"display"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Prefix    string    `json:"prefix"`
	Mode      string    `json:"mode"`
	Overload  bool      `json:"overload"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	resp := statusResponse{
		Frames:      s.stats.Frames,
		SyncFaults:  s.stats.Faults,
		BitsSlipped: s.stats.Slipped,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	}
	if s.last != nil {
		resp.Measurement = &measurementJSON{
			Display:   s.last.String(),
			Value:     s.last.Value,
			Unit:      string(s.last.Unit),
			Prefix:    string(s.last.Prefix),
			Mode:      string(s.last.Mode),
			Overload:  s.last.Overload,
			Timestamp: s.last.Timestamp,
		}
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) router() http.Handler {
	router := httprouter.New()
	router.GET("/status", s.status)
	return router
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	s.srv.Handler = s.router()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
