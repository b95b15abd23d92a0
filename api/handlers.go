package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"card-duel-server/cards"
	"card-duel-server/lobby"
	"card-duel-server/storage"
)

const bearerPrefix = "Bearer "

// TokenVerifier validates a bearer token and returns the user it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID, name string, err error)
}

// DeckLister lists a user's saved decks.
type DeckLister interface {
	ListDecks(ctx context.Context, userID string) ([]storage.DeckSummary, error)
}

// Counter reports a live count, such as running matches.
type Counter interface {
	Count() int
}

// Handler holds dependencies for API handlers. Decks and Auth may be nil.
type Handler struct {
	Catalog *cards.Catalog
	Lobbies *lobby.Registry
	Matches Counter
	Decks   DeckLister
	Auth    TokenVerifier
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(catalog *cards.Catalog, lobbies *lobby.Registry, matches Counter, decks DeckLister, verifier TokenVerifier) *Handler {
	return &Handler{
		Catalog: catalog,
		Lobbies: lobbies,
		Matches: matches,
		Decks:   decks,
		Auth:    verifier,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/cards", h.Cards)
	mux.HandleFunc("/api/lobbies", h.OpenLobbies)
	mux.HandleFunc("/api/decks", h.MyDecks)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// preflight handles CORS and rejects anything but GET. It reports whether the request is done.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	if CORS(w, r) {
		return true
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return true
	}
	return false
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	if h.Auth == nil {
		return ""
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	userID, _, err := h.Auth.Verify(r.Context(), token)
	if err != nil {
		slog.Info("bearer token rejected", "tag", "api", "err", err)
		return ""
	}
	return userID
}

func writeJSON(w http.ResponseWriter, what string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "tag", "api", "what", what, "err", err)
	}
}

// HealthResponse is the JSON structure for /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Matches int    `json:"matches"`
	Lobbies int    `json:"lobbies"`
}

// Health reports liveness and current load.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	resp := HealthResponse{Status: "ok"}
	if h.Matches != nil {
		resp.Matches = h.Matches.Count()
	}
	if h.Lobbies != nil {
		resp.Lobbies = h.Lobbies.Count()
	}
	writeJSON(w, "health", resp)
}

// CardsResponse is the JSON structure for /api/cards.
type CardsResponse struct {
	Cards []cards.Definition `json:"cards"`
	Decks []string           `json:"decks"`
}

// Cards returns the card catalog and the template deck names.
func (h *Handler) Cards(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	writeJSON(w, "cards", CardsResponse{Cards: h.Catalog.All(), Decks: h.Catalog.DeckNames()})
}

// OpenLobbies lists lobbies waiting for a guest.
func (h *Handler) OpenLobbies(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	list := []lobby.Summary{}
	if h.Lobbies != nil {
		list = h.Lobbies.OpenLobbies()
	}
	writeJSON(w, "lobbies", list)
}

// DecksResponse is the JSON structure for /api/decks.
type DecksResponse struct {
	Templates []string              `json:"templates"`
	Saved     []storage.DeckSummary `json:"saved"`
}

// MyDecks returns the template decks and the authenticated user's saved decks.
func (h *Handler) MyDecks(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	saved := []storage.DeckSummary{}
	if h.Decks != nil {
		list, err := h.Decks.ListDecks(r.Context(), userID)
		if err != nil {
			slog.Error("list decks", "tag", "api", "user", userID, "err", err)
			http.Error(w, "failed to load decks", http.StatusInternalServerError)
			return
		}
		if list != nil {
			saved = list
		}
	}
	writeJSON(w, "decks", DecksResponse{Templates: h.Catalog.DeckNames(), Saved: saved})
}
