package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/AzizBahloul/llm-gladiator-arena/config"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/arena"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/storage"
	"github.com/AzizBahloul/llm-gladiator-arena/internal/types"
)

// Server exposes the arena over HTTP: season lifecycle, round stepping,
// save slots and a websocket spectator feed.
type Server struct {
	cfg     config.Config
	store   *storage.Store
	archive *storage.Archive
	deps    arena.Deps
	hub     *Hub
	logger  *zap.Logger

	mu   sync.Mutex
	orch *arena.Orchestrator
	slot int
}

// New creates the HTTP surface. archive may be nil when round history
// indexing is disabled.
func New(cfg config.Config, store *storage.Store, archive *storage.Archive, deps arena.Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	deps.Store = store
	return &Server{
		cfg:     cfg,
		store:   store,
		archive: archive,
		deps:    deps,
		hub:     NewHub(logger),
		logger:  logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Post("/seasons", s.handleCreateSeason)
	r.Get("/seasons/current", s.handleCurrentSeason)
	r.Post("/seasons/current/rounds", s.handleAdvanceRound)
	r.Get("/seasons/current/summaries", s.handleSummaries)

	r.Get("/slots", s.handleSlots)
	r.Post("/slots/{slot}/load", s.handleLoadSlot)

	r.Get("/ws", s.hub.ServeHTTP)
	return r
}

func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slot int `json:"slot"`
	}
	if r.Body != nil {
		// An empty body starts a season without an explicit save slot
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Slot != 0 && (req.Slot < 1 || req.Slot > s.cfg.Storage.MaxSlots) {
		http.Error(w, "slot out of range", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	state := arena.NewSeason(s.cfg, s.logger)
	s.orch = arena.NewOrchestrator(s.cfg, state, s.deps, req.Slot, s.logger)
	s.slot = req.Slot
	s.mu.Unlock()

	s.logger.Info("season created",
		zap.String("season_id", state.SeasonID),
		zap.Int("slot", req.Slot))
	s.hub.Broadcast("season_started", state)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleCurrentSeason(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		http.Error(w, "no active season", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, orch.State())
}

func (s *Server) handleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		http.Error(w, "no active season", http.StatusNotFound)
		return
	}

	summary, err := orch.RunRound(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrPersistenceFailure) {
			s.logger.Error("round checkpoint failed", zap.Error(err))
			http.Error(w, "failed to persist round", http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if s.archive != nil {
		if err := s.archive.RecordSummary(orch.State().SeasonID, summary); err != nil {
			s.logger.Error("round archive failed", zap.Error(err))
		}
	}

	s.hub.Broadcast("round_complete", summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSummaries(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		http.Error(w, "no active season", http.StatusNotFound)
		return
	}

	summaries := orch.State().Summaries
	if summaries == nil {
		summaries = []types.RoundSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleSlots(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Slots())
}

func (s *Server) handleLoadSlot(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}

	state, err := s.store.Load(slot)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSlotOutOfRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrEmptySlot):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			s.logger.Error("slot load failed", zap.Int("slot", slot), zap.Error(err))
			http.Error(w, "failed to load slot", http.StatusInternalServerError)
		}
		return
	}

	s.mu.Lock()
	s.orch = arena.NewOrchestrator(s.cfg, state, s.deps, slot, s.logger)
	s.slot = slot
	s.mu.Unlock()

	s.logger.Info("season resumed",
		zap.String("season_id", state.SeasonID),
		zap.Int("round", state.Round),
		zap.Int("slot", slot))
	s.hub.Broadcast("season_resumed", state)
	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
