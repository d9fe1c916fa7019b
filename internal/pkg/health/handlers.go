package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Vodeneev/livebet/internal/pkg/config"
)

// MomentumSettings is the operator surface of the momentum strategy: read
// the active parameter set, replace it wholesale. Replacement must be
// copy-on-replace so in-flight evaluations are unaffected.
type MomentumSettings interface {
	Config() config.StrategyConfig
	ReplaceConfig(config.StrategyConfig) error
}

// FavoriteSettings is the same surface for the favorite checklist.
type FavoriteSettings interface {
	Config() config.FavoriteConfig
	ReplaceConfig(config.FavoriteConfig) error
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"service": s.opts.Service,
		"matches": s.opts.Store.Len(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMatches returns the latest snapshot of every observed match.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	snapshots := s.opts.Store.LatestAll()
	writeJSON(w, map[string]interface{}{
		"count":   len(snapshots),
		"matches": snapshots,
	})
}

// handleMatch returns the full stored history of one match.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}
	history := s.opts.Store.History(id)
	if len(history) == 0 {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"match_id": id,
		"history":  history,
	})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ring == nil {
		writeJSON(w, map[string]interface{}{"signals": []interface{}{}})
		return
	}
	signals := s.opts.Ring.Recent()
	writeJSON(w, map[string]interface{}{
		"count":   len(signals),
		"signals": signals,
	})
}

// handleStrategy reads (GET) or replaces (POST) the running parameter set.
// POST bodies are full parameter sets, not patches: partial updates would
// break the copy-on-replace contract.
func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		out := map[string]interface{}{}
		if s.opts.Momentum != nil {
			out["momentum"] = s.opts.Momentum.Config()
		}
		if s.opts.Favorite != nil {
			out["favorite"] = s.opts.Favorite.Config()
		}
		writeJSON(w, out)

	case http.MethodPost:
		var body struct {
			Momentum *config.StrategyConfig `json:"momentum"`
			Favorite *config.FavoriteConfig `json:"favorite"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if body.Momentum != nil {
			if s.opts.Momentum == nil {
				http.Error(w, "momentum strategy not running in this service", http.StatusBadRequest)
				return
			}
			if err := s.opts.Momentum.ReplaceConfig(*body.Momentum); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			slog.Info("Strategy settings replaced", "strategy", "momentum")
		}
		if body.Favorite != nil {
			if s.opts.Favorite == nil {
				http.Error(w, "favorite strategy not running in this service", http.StatusBadRequest)
				return
			}
			if err := s.opts.Favorite.ReplaceConfig(*body.Favorite); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			slog.Info("Strategy settings replaced", "strategy", "favorite")
		}
		writeJSON(w, map[string]string{"status": "ok"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("State server: response encode failed", "error", err)
	}
}
