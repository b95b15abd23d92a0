package matchmaking

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"card-duel-server/cards"
	"card-duel-server/game"
)

// Registry owns every live match, keyed by match ID. It is the only place games are
// inserted or removed.
type Registry struct {
	mu      sync.Mutex
	matches map[string]*game.Game
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{matches: make(map[string]*game.Game)}
}

// Create allocates a fresh match ID, builds the game between the two seats and inserts
// it. The caller starts the loop with go g.Run(). The game removes itself from the
// registry when its loop exits.
func (r *Registry) Create(first, second *game.Seat, firstDeck, secondDeck []cards.Definition) *game.Game {
	id := uuid.NewString()
	g := game.NewGame(id, first, second, firstDeck, secondDeck)
	g.OnFinish = r.Remove

	r.mu.Lock()
	r.matches[id] = g
	n := len(r.matches)
	r.mu.Unlock()

	slog.Info("match created", "tag", "matchmaking", "match", id, "first", first.ID, "second", second.ID, "live", n)
	return g
}

// Get returns the game for id. A missing match is reported with ok=false.
func (r *Registry) Get(id string) (*game.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.matches[id]
	return g, ok
}

// Remove deletes the match immediately. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()
	if ok {
		slog.Debug("match removed", "tag", "matchmaking", "match", id)
	}
}

// Count returns the number of live matches.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}
