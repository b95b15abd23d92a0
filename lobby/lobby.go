package lobby

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"card-duel-server/matcherrors"
)

// DefaultStaleAfter is how long a lobby may wait for a guest before Cleanup removes it.
const DefaultStaleAfter = 30 * time.Minute

// State is the lifecycle position of a lobby.
type State int

const (
	Waiting State = iota
	Ready
	Started
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Ready:
		return "ready"
	case Started:
		return "started"
	default:
		return "unknown"
	}
}

// Lobby is a private two-player room. Values handed out by the Registry are copies.
type Lobby struct {
	ID        string
	HostID    string
	HostName  string
	HostDeck  string
	GuestID   string
	GuestName string
	GuestDeck string
	State     State
	CreatedAt time.Time
}

// Summary is the public listing of an open lobby.
type Summary struct {
	ID        string    `json:"id"`
	HostName  string    `json:"hostName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry owns all lobbies that have not started or been closed.
type Registry struct {
	mu         sync.Mutex
	lobbies    map[string]*Lobby
	staleAfter time.Duration
	now        func() time.Time
}

// NewRegistry creates an empty Registry. A non-positive staleAfter uses DefaultStaleAfter.
func NewRegistry(staleAfter time.Duration) *Registry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Registry{
		lobbies:    make(map[string]*Lobby),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Create opens a new waiting lobby hosted by hostID.
func (r *Registry) Create(hostID, hostName, deckID string) Lobby {
	l := &Lobby{
		ID:       uuid.NewString(),
		HostID:   hostID,
		HostName: hostName,
		HostDeck: deckID,
		State:    Waiting,
	}

	r.mu.Lock()
	l.CreatedAt = r.now()
	r.lobbies[l.ID] = l
	r.mu.Unlock()

	slog.Info("lobby created", "tag", "lobby", "lobby", l.ID, "host", hostID)
	return *l
}

// Join seats guestID in a waiting lobby, making it ready.
func (r *Registry) Join(id, guestID, guestName, deckID string) (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, matcherrors.ErrLobbyNotFound
	}
	if l.State != Waiting {
		return Lobby{}, matcherrors.ErrLobbyUnavailable
	}
	if l.HostID == guestID {
		return Lobby{}, matcherrors.ErrCannotJoinOwnLobby
	}
	l.GuestID = guestID
	l.GuestName = guestName
	l.GuestDeck = deckID
	l.State = Ready
	slog.Info("lobby ready", "tag", "lobby", "lobby", id, "guest", guestID)
	return *l, nil
}

// Leave takes playerID out of the lobby. If the host leaves, the lobby is deleted and
// closed is true; the returned lobby still names the guest so they can be told. If the
// guest leaves, the lobby reopens with the guest fields cleared.
func (r *Registry) Leave(id, playerID string) (l Lobby, closed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lp, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, false, matcherrors.ErrLobbyNotFound
	}
	switch playerID {
	case lp.HostID:
		delete(r.lobbies, id)
		slog.Info("lobby closed by host", "tag", "lobby", "lobby", id)
		return *lp, true, nil
	case lp.GuestID:
		lp.GuestID, lp.GuestName, lp.GuestDeck = "", "", ""
		lp.State = Waiting
		return *lp, false, nil
	default:
		return Lobby{}, false, matcherrors.ErrNotInLobby
	}
}

// Start moves a ready lobby to started and removes it from the registry. The returned
// lobby carries both members and their decks for match creation.
func (r *Registry) Start(id, playerID string) (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, matcherrors.ErrLobbyNotFound
	}
	if l.HostID != playerID {
		if l.GuestID == playerID {
			return Lobby{}, matcherrors.ErrNotLobbyHost
		}
		return Lobby{}, matcherrors.ErrNotInLobby
	}
	if l.State != Ready {
		return Lobby{}, matcherrors.ErrLobbyNotReady
	}
	l.State = Started
	delete(r.lobbies, id)
	slog.Info("lobby started", "tag", "lobby", "lobby", id)
	return *l, nil
}

// Reopen puts a lobby returned by Start back as waiting, with the guest seat cleared.
// It is used when the match cannot be created after all.
func (r *Registry) Reopen(l Lobby) Lobby {
	l.GuestID, l.GuestName, l.GuestDeck = "", "", ""
	l.State = Waiting

	r.mu.Lock()
	r.lobbies[l.ID] = &l
	r.mu.Unlock()

	slog.Info("lobby reopened", "tag", "lobby", "lobby", l.ID)
	return l
}

// Cleanup deletes waiting lobbies older than the stale limit and returns them.
func (r *Registry) Cleanup() []Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.staleAfter)
	var removed []Lobby
	for id, l := range r.lobbies {
		if l.State == Waiting && l.CreatedAt.Before(cutoff) {
			delete(r.lobbies, id)
			removed = append(removed, *l)
		}
	}
	if len(removed) > 0 {
		slog.Info("stale lobbies removed", "tag", "lobby", "count", len(removed))
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is cancelled, passing each removed
// lobby to onRemoved (which may be nil). Should be run as a goroutine.
func (r *Registry) RunCleanup(ctx context.Context, interval time.Duration, onRemoved func(Lobby)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range r.Cleanup() {
				if onRemoved != nil {
					onRemoved(l)
				}
			}
		}
	}
}

// OpenLobbies lists waiting lobbies, newest first.
func (r *Registry) OpenLobbies() []Summary {
	r.mu.Lock()
	out := make([]Summary, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		if l.State == Waiting {
			out = append(out, Summary{ID: l.ID, HostName: l.HostName, CreatedAt: l.CreatedAt})
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns a copy of the lobby.
func (r *Registry) Get(id string) (Lobby, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, false
	}
	return *l, true
}

// Count returns the number of lobbies not yet started or closed.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}
