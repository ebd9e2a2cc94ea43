package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/pokeapi-client/pkg/cache"
	"github.com/Sternrassler/pokeapi-client/pkg/client"
	"github.com/Sternrassler/pokeapi-client/pkg/logging"
	"github.com/Sternrassler/pokeapi-client/pkg/metrics"
	"github.com/Sternrassler/pokeapi-client/pkg/registration"
	"github.com/Sternrassler/pokeapi-client/pkg/resource"
	"github.com/Sternrassler/pokeapi-client/pkg/starter"
	"github.com/rs/zerolog"
)

// server wires HTTP routes to a single PokeAPI client and the player store.
type server struct {
	// mu serializes use of client, which is not safe for concurrent use.
	mu      sync.Mutex
	client  *client.Client
	players *registration.Store

	newClient    starter.NewClientFunc
	starterNames []string
	timeout      time.Duration
	logger       zerolog.Logger
}

func newServer(c *client.Client, players *registration.Store, newClient starter.NewClientFunc) *server {
	return &server{
		client:       c,
		players:      players,
		newClient:    newClient,
		starterNames: starter.DefaultNames,
		timeout:      30 * time.Second,
		logger:       logging.NewLogger("proxy"),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(s.client.Store()))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /pokemon/{name}", lookupHandler[resource.Pokemon](s))
	mux.HandleFunc("GET /pokemon-species/{name}", lookupHandler[resource.PokemonSpecies](s))
	mux.HandleFunc("GET /language/{name}", lookupHandler[resource.Language](s))
	mux.HandleFunc("GET /starters", s.startersHandler)
	mux.HandleFunc("POST /players", s.registerHandler)
	mux.HandleFunc("GET /players/{id}", s.playerHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler reports whether the cache store answers. A miss counts as
// ready.
func readyHandler(store cache.Store) http.HandlerFunc {
	readyKey := cache.KeyFor("pokedex-proxy/ready")
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if _, err := store.Get(ctx, readyKey); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			http.Error(w, "Cache store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// lookupHandler serves one resource by name, or by id when the path value is
// numeric.
func lookupHandler[T resource.Resource](s *server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		name := r.PathValue("name")
		s.mu.Lock()
		var (
			v   T
			err error
		)
		if id, convErr := strconv.Atoi(name); convErr == nil {
			v, err = client.GetByID[T](ctx, s.client, id)
		} else {
			v, err = client.GetByName[T](ctx, s.client, name)
		}
		s.mu.Unlock()

		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *server) startersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	starters, err := starter.Load(ctx, s.newClient, s.starterNames)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, starters)
}

type registerRequest struct {
	PlayerID string `json:"player_id"`
	Starter  string `json:"starter"`
}

func (s *server) registerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode body: %v", registration.ErrInvalidPlayer, err))
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		s.writeError(w, r, fmt.Errorf("%w: player id is required", registration.ErrInvalidPlayer))
		return
	}
	if !slices.Contains(s.starterNames, req.Starter) {
		s.writeError(w, r, fmt.Errorf("%w: %q is not a starter", registration.ErrInvalidPlayer, req.Starter))
		return
	}

	first, err := s.loadStarter(ctx, req.Starter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.players.RegisterPlayer(ctx, req.PlayerID, first); err != nil {
		s.writeError(w, r, err)
		return
	}

	player, err := s.players.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info().Str("player_id", player.ID).Str("starter", first.Name).Msg("Player registered")
	writeJSON(w, http.StatusCreated, player)
}

func (s *server) loadStarter(ctx context.Context, name string) (starter.Starter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := client.GetByName[resource.Pokemon](ctx, s.client, name)
	if err != nil {
		return starter.Starter{}, fmt.Errorf("load pokemon %s: %w", name, err)
	}
	species, err := client.GetByRef(ctx, s.client, p.Species)
	if err != nil {
		return starter.Starter{}, fmt.Errorf("load species of %s: %w", name, err)
	}
	return starter.FromResources(p, species, starter.DefaultLanguage), nil
}

func (s *server) playerHandler(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// statusFor maps domain and fetch errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrInvalidName),
		errors.Is(err, client.ErrInvalidReference),
		errors.Is(err, registration.ErrInvalidPlayer):
		return http.StatusBadRequest
	case client.IsNotFound(err), errors.Is(err, registration.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, registration.ErrPlayerAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case client.ClassOf(err) != "":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
