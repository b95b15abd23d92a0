package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"card-duel-server/cards"
	"card-duel-server/config"
	"card-duel-server/game"
	"card-duel-server/lobby"
	"card-duel-server/matcherrors"
	"card-duel-server/wsutil"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MatchmakerInterface defines what the Hub needs from the Matchmaker.
type MatchmakerInterface interface {
	Enqueue(ctx context.Context, c *Client, deckID string) error
	LeaveQueue(c *Client)
	StartMatch(ctx context.Context, first, second *Client, firstDeck, secondDeck string) error
}

// MatchLookup is the read and remove side of the match registry.
type MatchLookup interface {
	Get(id string) (*game.Game, bool)
	Remove(id string)
}

// DeckResolver turns a deck choice into card definitions.
type DeckResolver interface {
	ResolveDeck(ctx context.Context, userID, deckID string) ([]cards.Definition, error)
}

// TokenVerifier validates an identity provider token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID, name string, err error)
}

// Deps are the collaborators the Hub routes to. Auth may be nil to allow guests only.
type Deps struct {
	Matchmaker MatchmakerInterface
	Matches    MatchLookup
	Lobbies    *lobby.Registry
	Decks      DeckResolver
	Auth       TokenVerifier
}

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Config     *config.Config

	Matchmaker MatchmakerInterface
	Matches    MatchLookup
	Lobbies    *lobby.Registry
	Decks      DeckResolver
	Auth       TokenVerifier

	mu      sync.RWMutex
	players map[string]*Client // identified clients by player ID
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, deps Deps) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Config:     cfg,
		Matchmaker: deps.Matchmaker,
		Matches:    deps.Matches,
		Lobbies:    deps.Lobbies,
		Decks:      deps.Decks,
		Auth:       deps.Auth,
		players:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "hub")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "hub", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				h.disconnect(client)
				close(client.Send)
				slog.Info("client disconnected", "tag", "hub", "clients", len(h.Clients))
			}
		}
	}
}

// disconnect tears down everything the client was part of. A live match is removed from
// the registry first and then told about the disconnect, which forfeits it and informs
// the remaining player.
func (h *Hub) disconnect(c *Client) {
	matchID, lobbyID, queued := c.markClosed()
	userID, _ := c.Identity()

	h.mu.Lock()
	if h.players[userID] == c {
		delete(h.players, userID)
	}
	h.mu.Unlock()

	if queued {
		h.Matchmaker.LeaveQueue(c)
	}
	if lobbyID != "" {
		if err := h.leaveLobby(lobbyID, userID); err != nil {
			slog.Debug("leaving lobby on disconnect", "tag", "lobby", "lobby", lobbyID, "err", err)
		}
	}
	if matchID != "" {
		if g, ok := h.Matches.Get(matchID); ok {
			h.Matches.Remove(matchID)
			g.Submit(game.Action{Type: game.ActionDisconnect, PlayerID: userID})
		}
	}
}

// bind maps userID to c, replacing previous. A player ID held by another connection is rejected.
func (h *Hub) bind(c *Client, previous, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if other, ok := h.players[userID]; ok && other != c {
		return matcherrors.ErrAlreadyConnected
	}
	if previous != "" && h.players[previous] == c {
		delete(h.players, previous)
	}
	h.players[userID] = c
	return nil
}

// client returns the connection identified as playerID, or nil.
func (h *Hub) client(playerID string) *Client {
	if playerID == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.players[playerID]
}

// leaveLobby removes userID from lobby id and tells the other member.
func (h *Hub) leaveLobby(id, userID string) error {
	l, closed, err := h.Lobbies.Leave(id, userID)
	if err != nil {
		return err
	}
	if closed {
		if guest := h.client(l.GuestID); guest != nil {
			guest.clearLobby(id)
			wsutil.SendJSON(guest.Send, LobbyClosedMsg{Type: "lobby_closed", LobbyID: id, Reason: "host_left"})
		}
		return nil
	}
	if host := h.client(l.HostID); host != nil {
		wsutil.SendJSON(host.Send, LobbyMsg{Type: "lobby_update", Lobby: newLobbyView(l)})
	}
	return nil
}

// LobbyExpired tells the host of a lobby removed by the stale sweep.
func (h *Hub) LobbyExpired(l lobby.Lobby) {
	host := h.client(l.HostID)
	if host == nil {
		return
	}
	host.clearLobby(l.ID)
	wsutil.SendJSON(host.Send, LobbyClosedMsg{Type: "lobby_closed", LobbyID: l.ID, Reason: "expired"})
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "hub", "err", err)
		return
	}

	client := NewClient(h, conn)
	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
