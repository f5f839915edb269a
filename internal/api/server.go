// Package api provides the HTTP API for observing the shop floor.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"shopfloor/internal/customer"
	"shopfloor/internal/engine"
	"shopfloor/internal/persistence"
	"shopfloor/internal/store"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	historyLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/store", s.handleStore)
	mux.HandleFunc("/api/v1/customers", s.handleCustomers)
	mux.HandleFunc("/api/v1/customer/", s.handleCustomerDetail)
	mux.HandleFunc("/api/v1/visits", s.handleVisits)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/events/history", RateLimitMiddleware(historyLimiter, s.handleEventHistory))
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/restock", s.adminOnly(s.handleRestock))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SHOPSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"tick":            s.Sim.LastTick,
		"sim_time":        engine.SimTime(s.Sim.LastTick),
		"hour":            engine.HourOfDay(s.Sim.LastTick),
		"open":            !s.Sim.Closing,
		"speed":           s.Eng.Speed,
		"running":         s.Eng.Running,
		"customers":       len(s.Sim.Records),
		"active_visits":   len(s.Sim.Visits),
		"revenue":         s.Sim.Ledger.Revenue(),
		"visitors_today":  s.Sim.Stats.VisitorsToday,
		"sales_today":     s.Sim.Stats.SalesToday,
		"peak_concurrent": s.Sim.Stats.PeakConcurrent,
	}
	writeJSON(w, status)
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	type resourceSummary struct {
		ID            store.ResourceID `json:"id"`
		Kind          string           `json:"kind"`
		Name          string           `json:"name"`
		Category      int              `json:"category"`
		Price         float64          `json:"price"`
		Stock         int              `json:"stock"`
		MaxStock      int              `json:"max_stock"`
		Sold          int              `json:"sold"`
		Operational   bool             `json:"operational"`
		QueueLen      int              `json:"queue_len"`
		EstimatedWait float64          `json:"estimated_wait_sec"`
	}

	result := make([]resourceSummary, 0, len(s.Sim.Resources))
	for _, res := range s.Sim.Resources {
		qlen, wait := 0, 0.0
		if q := s.Sim.Queues[res.ID]; q != nil {
			qlen = q.Len()
			wait = q.PredictWait(qlen)
		}
		result = append(result, resourceSummary{
			ID:            res.ID,
			Kind:          store.KindName(res.Kind),
			Name:          res.Name,
			Category:      res.Category,
			Price:         res.Price,
			Stock:         res.Stock,
			MaxStock:      res.MaxStock,
			Sold:          res.Sold,
			Operational:   res.Operational,
			QueueLen:      qlen,
			EstimatedWait: wait,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	writeJSON(w, result)
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	type customerSummary struct {
		ID            customer.ID `json:"id"`
		Name          string      `json:"name"`
		Archetype     string      `json:"archetype"`
		Level         int         `json:"level"`
		XP            int         `json:"xp"`
		Trust         int         `json:"trust"`
		LifetimeSpent float64     `json:"lifetime_spent"`
		VisitCount    int         `json:"visit_count"`
		OnFloor       bool        `json:"on_floor"`
	}

	result := make([]customerSummary, 0, len(s.Sim.Records))
	for id, rec := range s.Sim.Records {
		_, active := s.Sim.Visits[id]
		result = append(result, customerSummary{
			ID:            rec.ID,
			Name:          rec.Name,
			Archetype:     rec.ArchetypeID,
			Level:         rec.Level,
			XP:            rec.XP,
			Trust:         rec.Trust,
			LifetimeSpent: rec.LifetimeSpent,
			VisitCount:    rec.VisitCount,
			OnFloor:       active,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	writeJSON(w, result)
}

func (s *Server) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing customer id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	rec, ok := s.Sim.Records[customer.ID(id)]
	if !ok {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	result := map[string]any{
		"record": rec,
	}
	if v, active := s.Sim.Visits[customer.ID(id)]; active {
		result["visit"] = map[string]any{
			"phase":         engine.PhaseName(v.Phase),
			"target":        v.Target,
			"wallet":        v.Session.Wallet,
			"spent":         v.Session.Spent,
			"embarrassment": v.Embarrassment,
			"started_tick":  v.Session.StartTick,
		}
	}
	writeJSON(w, result)
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	type visitSummary struct {
		Customer customer.ID      `json:"customer"`
		Name     string           `json:"name"`
		Phase    string           `json:"phase"`
		Target   store.ResourceID `json:"target"`
		Wallet   float64          `json:"wallet"`
		Spent    float64          `json:"spent"`
	}

	result := make([]visitSummary, 0, len(s.Sim.Visits))
	for id, v := range s.Sim.Visits {
		result = append(result, visitSummary{
			Customer: id,
			Name:     v.Record.Name,
			Phase:    engine.PhaseName(v.Phase),
			Target:   v.Target,
			Wallet:   v.Session.Wallet,
			Spent:    v.Session.Spent,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Customer < result[j].Customer })
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.Events.Recent(limit)

	// Optional kind filter.
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []engine.Event{}
	}

	writeJSON(w, events)
}

func (s *Server) handleEventHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		slog.Error("event history query failed", "error", err)
		writeJSON(w, []engine.Event{})
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

// handleRestock forces an immediate restock pass, as if an hour boundary
// had just passed.
func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restocked := s.Sim.RestockAll()
	slog.Info("manual restock", "shelves", restocked)
	writeJSON(w, map[string]int{"restocked": restocked})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
