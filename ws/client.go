package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"card-duel-server/cards"
	"card-duel-server/game"
	"card-duel-server/matcherrors"
	"card-duel-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Upper bound for deck lookups and token checks made while handling one message.
	requestTimeout = 5 * time.Second
)

// Client is a middleman between the websocket connection and the hub.
// Session fields are guarded by mu because the matchmaker and the hub update them
// from their own goroutines.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	mu      sync.Mutex
	userID  string
	name    string
	guest   bool
	deckID  string
	matchID string
	lobbyID string
	queued  bool
	closed  bool
}

// NewClient creates a client for conn with a buffered send channel.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// Identity returns the player ID and display name bound to the connection.
func (c *Client) Identity() (userID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.name
}

// SetIdentity binds a player identity to the connection.
func (c *Client) SetIdentity(userID, name string) {
	c.mu.Lock()
	c.userID, c.name = userID, name
	c.mu.Unlock()
}

// MatchID returns the match the client was last assigned to, if any.
func (c *Client) MatchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

// AssignMatch records that the client is seated in match id and leaves the queue.
// It reports false when the connection has already closed.
func (c *Client) AssignMatch(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.matchID = id
	c.queued = false
	c.lobbyID = ""
	return true
}

// markClosed flags the connection as gone and returns the session it still held.
func (c *Client) markClosed() (matchID, lobbyID string, queued bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.matchID, c.lobbyID, c.queued
}

func (c *Client) setLobby(id string) {
	c.mu.Lock()
	c.lobbyID = id
	c.mu.Unlock()
}

// clearLobby forgets the lobby only if it is still id.
func (c *Client) clearLobby(id string) {
	c.mu.Lock()
	if c.lobbyID == id {
		c.lobbyID = ""
	}
	c.mu.Unlock()
}

func (c *Client) lobby() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbyID
}

// busy reports whether the client is queued, in a lobby or in a live match.
// A match ID that no longer resolves is dropped.
func (c *Client) busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matchID != "" {
		if _, ok := c.Hub.Matches.Get(c.matchID); ok {
			return true
		}
		c.matchID = ""
	}
	return c.queued || c.lobbyID != ""
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "hub", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch envelope.Type {
	case "auth":
		c.handleAuth(ctx, envelope.Raw)
	case "set_name":
		c.handleSetName(envelope.Raw)
	case "select_deck":
		c.handleSelectDeck(ctx, envelope.Raw)
	case "find_game":
		c.handleFindGame(ctx, envelope.Raw)
	case "cancel_find_game":
		c.handleCancelFindGame()
	case "create_lobby":
		c.handleCreateLobby(ctx, envelope.Raw)
	case "join_lobby":
		c.handleJoinLobby(ctx, envelope.Raw)
	case "leave_lobby":
		c.handleLeaveLobby()
	case "start_game":
		c.handleStartGame(ctx)
	case "get_lobbies":
		wsutil.SendJSON(c.Send, LobbiesMsg{Type: "lobbies", Lobbies: c.Hub.Lobbies.OpenLobbies()})
	case "play_card":
		c.handlePlayCard(envelope.Raw)
	case "attack":
		c.handleAttack(envelope.Raw)
	case "end_turn":
		c.submit(game.Action{Type: game.ActionEndTurn})
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(ctx context.Context, raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if c.Hub.Auth == nil {
		c.sendError("Authentication is not configured; use set_name.")
		return
	}
	if c.busy() {
		c.sendErr(matcherrors.ErrAlreadyBusy)
		return
	}
	userID, name, err := c.Hub.Auth.Verify(ctx, msg.Token)
	if err != nil {
		slog.Info("auth rejected", "tag", "auth", "err", err)
		c.sendErr(matcherrors.ErrInvalidToken)
		return
	}
	if name == "" {
		name = "Player"
	}
	c.identify(userID, truncateName(name, c.Hub.Config.MaxNameLength), false)
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid set_name message.")
		return
	}

	name := strings.TrimSpace(msg.Name)
	n := utf8.RuneCountInString(name)
	if n < 1 || n > c.Hub.Config.MaxNameLength {
		c.sendError(fmt.Sprintf("Name must be between 1 and %d characters.", c.Hub.Config.MaxNameLength))
		return
	}
	if c.busy() {
		c.sendError("Cannot change name while queued, in a lobby or in a match.")
		return
	}

	// An authenticated player keeps their ID and only changes the display name.
	c.mu.Lock()
	userID, guest := c.userID, c.guest
	c.mu.Unlock()
	if userID == "" {
		userID = "guest-" + uuid.NewString()
		guest = true
	}
	c.identify(userID, name, guest)
}

func (c *Client) identify(userID, name string, guest bool) {
	c.mu.Lock()
	previous := c.userID
	c.mu.Unlock()

	if err := c.Hub.bind(c, previous, userID); err != nil {
		c.sendErr(err)
		return
	}

	c.mu.Lock()
	c.userID, c.name, c.guest = userID, name, guest
	c.mu.Unlock()

	slog.Info("player identified", "tag", "hub", "player", userID, "guest", guest)
	wsutil.SendJSON(c.Send, IdentifiedMsg{Type: "identified", PlayerID: userID, Name: name, Guest: guest})
}

// requireIdentity returns the bound identity, replying with an error if there is none.
func (c *Client) requireIdentity() (userID, name string, ok bool) {
	userID, name = c.Identity()
	if userID == "" {
		c.sendErr(matcherrors.ErrNotIdentified)
		return "", "", false
	}
	return userID, name, true
}

// deckFor returns requested, or the selected deck when requested is empty.
func (c *Client) deckFor(requested string) string {
	if requested != "" {
		return requested
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deckID
}

func (c *Client) handleSelectDeck(ctx context.Context, raw json.RawMessage) {
	var msg SelectDeckMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.DeckID == "" {
		c.sendError("Invalid select_deck message.")
		return
	}
	userID, _, ok := c.requireIdentity()
	if !ok {
		return
	}
	if matchID := c.MatchID(); matchID != "" {
		if _, live := c.Hub.Matches.Get(matchID); live {
			c.sendError("Cannot change deck during a match.")
			return
		}
	}
	if _, err := c.Hub.Decks.ResolveDeck(ctx, userID, msg.DeckID); err != nil {
		c.sendErr(err)
		return
	}

	c.mu.Lock()
	c.deckID = msg.DeckID
	c.mu.Unlock()
	wsutil.SendJSON(c.Send, DeckSelectedMsg{Type: "deck_selected", DeckID: msg.DeckID})
}

func (c *Client) handleFindGame(ctx context.Context, raw json.RawMessage) {
	var msg FindGameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid find_game message.")
		return
	}
	if _, _, ok := c.requireIdentity(); !ok {
		return
	}
	if c.busy() {
		c.sendErr(matcherrors.ErrAlreadyBusy)
		return
	}

	c.mu.Lock()
	c.queued = true
	c.mu.Unlock()
	if err := c.Hub.Matchmaker.Enqueue(ctx, c, c.deckFor(msg.DeckID)); err != nil {
		c.mu.Lock()
		c.queued = false
		c.mu.Unlock()
		c.sendErr(err)
		return
	}
	wsutil.SendJSON(c.Send, WaitingForMatchMsg{Type: "waiting_for_match"})
}

func (c *Client) handleCancelFindGame() {
	c.mu.Lock()
	queued := c.queued
	c.queued = false
	c.mu.Unlock()
	if !queued {
		c.sendError("You are not in the matchmaking queue.")
		return
	}
	c.Hub.Matchmaker.LeaveQueue(c)
	wsutil.SendJSON(c.Send, QueueLeftMsg{Type: "queue_left"})
}

func (c *Client) handleCreateLobby(ctx context.Context, raw json.RawMessage) {
	var msg CreateLobbyMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid create_lobby message.")
		return
	}
	userID, name, ok := c.requireIdentity()
	if !ok {
		return
	}
	if c.busy() {
		c.sendErr(matcherrors.ErrAlreadyBusy)
		return
	}
	deckID := c.deckFor(msg.DeckID)
	if _, err := c.Hub.Decks.ResolveDeck(ctx, userID, deckID); err != nil {
		c.sendErr(err)
		return
	}

	l := c.Hub.Lobbies.Create(userID, name, deckID)
	c.setLobby(l.ID)
	wsutil.SendJSON(c.Send, LobbyMsg{Type: "lobby_created", Lobby: newLobbyView(l)})
}

func (c *Client) handleJoinLobby(ctx context.Context, raw json.RawMessage) {
	var msg JoinLobbyMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.LobbyID == "" {
		c.sendError("Invalid join_lobby message.")
		return
	}
	userID, name, ok := c.requireIdentity()
	if !ok {
		return
	}
	if c.busy() {
		c.sendErr(matcherrors.ErrAlreadyBusy)
		return
	}
	deckID := c.deckFor(msg.DeckID)
	if _, err := c.Hub.Decks.ResolveDeck(ctx, userID, deckID); err != nil {
		c.sendErr(err)
		return
	}

	l, err := c.Hub.Lobbies.Join(msg.LobbyID, userID, name, deckID)
	if err != nil {
		c.sendErr(err)
		return
	}
	c.setLobby(l.ID)

	update := LobbyMsg{Type: "lobby_update", Lobby: newLobbyView(l)}
	wsutil.SendJSON(c.Send, update)
	if host := c.Hub.client(l.HostID); host != nil {
		wsutil.SendJSON(host.Send, update)
	}
}

func (c *Client) handleLeaveLobby() {
	id := c.lobby()
	if id == "" {
		c.sendErr(matcherrors.ErrNotInLobby)
		return
	}
	userID, _ := c.Identity()
	if err := c.Hub.leaveLobby(id, userID); err != nil {
		c.sendErr(err)
		return
	}
	c.clearLobby(id)
	wsutil.SendJSON(c.Send, LobbyClosedMsg{Type: "lobby_closed", LobbyID: id, Reason: "left"})
}

func (c *Client) handleStartGame(ctx context.Context) {
	id := c.lobby()
	if id == "" {
		c.sendErr(matcherrors.ErrNotInLobby)
		return
	}
	userID, _ := c.Identity()

	l, err := c.Hub.Lobbies.Start(id, userID)
	if err != nil {
		c.sendErr(err)
		return
	}
	// The guest may disconnect while the lobby is being started; its own teardown then
	// finds no lobby, so the host gets the lobby back with the seat open.
	guest := c.Hub.client(l.GuestID)
	if guest == nil {
		reopened := c.Hub.Lobbies.Reopen(l)
		wsutil.SendJSON(c.Send, LobbyMsg{Type: "lobby_update", Lobby: newLobbyView(reopened)})
		c.sendError("Your opponent is no longer connected.")
		return
	}
	c.clearLobby(id)
	guest.clearLobby(id)

	if err := c.Hub.Matchmaker.StartMatch(ctx, c, guest, l.HostDeck, l.GuestDeck); err != nil {
		slog.Error("starting lobby match", "tag", "lobby", "lobby", id, "err", err)
		c.sendErr(err)
		wsutil.SendError(guest.Send, err.Error())
	}
}

func (c *Client) handlePlayCard(raw json.RawMessage) {
	var msg PlayCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.CardID == "" {
		c.sendError("Invalid play_card message.")
		return
	}
	c.submit(game.Action{Type: game.ActionPlayCard, CardID: msg.CardID, Target: msg.Target})
}

func (c *Client) handleAttack(raw json.RawMessage) {
	var msg AttackMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.AttackerID == "" || msg.Target == nil {
		c.sendError("Invalid attack message.")
		return
	}
	c.submit(game.Action{Type: game.ActionAttack, AttackerID: msg.AttackerID, Target: msg.Target})
}

// submit routes a game action to the client's match by match ID. An unknown match
// drops the action and tells the client.
func (c *Client) submit(a game.Action) {
	matchID := c.MatchID()
	if matchID == "" {
		c.sendErr(matcherrors.ErrNotInMatch)
		return
	}
	g, ok := c.Hub.Matches.Get(matchID)
	if !ok {
		c.sendErr(matcherrors.ErrMatchNotFound)
		return
	}
	a.PlayerID, _ = c.Identity()
	if !g.Submit(a) {
		c.sendErr(matcherrors.ErrMatchNotFound)
	}
}

func (c *Client) sendError(message string) {
	wsutil.SendError(c.Send, message)
}

// sendErr replies with err's message. Unexpected errors are logged and hidden.
func (c *Client) sendErr(err error) {
	if isClientError(err) {
		c.sendError(err.Error())
		return
	}
	slog.Error("request failed", "tag", "hub", "err", err)
	c.sendError("Internal error.")
}

func truncateName(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	return string([]rune(name)[:max])
}

// isClientError reports whether err is an ordinary rejection the client may see.
func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var clientErrors = []error{
	matcherrors.ErrMatchNotFound,
	matcherrors.ErrNotInMatch,
	matcherrors.ErrAlreadyBusy,
	matcherrors.ErrAlreadyConnected,
	matcherrors.ErrLobbyNotFound,
	matcherrors.ErrLobbyUnavailable,
	matcherrors.ErrCannotJoinOwnLobby,
	matcherrors.ErrLobbyNotReady,
	matcherrors.ErrNotLobbyHost,
	matcherrors.ErrNotInLobby,
	matcherrors.ErrNotIdentified,
	matcherrors.ErrInvalidToken,
	cards.ErrUnknownDeck,
	cards.ErrUnknownCard,
}
