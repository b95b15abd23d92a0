package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"card-duel-server/cards"
	"card-duel-server/game"
	"card-duel-server/ws"
	"card-duel-server/wsutil"
)

// ErrStopped is returned by Enqueue once the matchmaker loop has exited.
var ErrStopped = errors.New("matchmaker stopped")

// DeckResolver turns a player's deck choice into card definitions.
type DeckResolver interface {
	ResolveDeck(ctx context.Context, userID, deckID string) ([]cards.Definition, error)
}

// ticket is one queued player with their resolved deck.
type ticket struct {
	client *ws.Client
	userID string
	name   string
	deck   []cards.Definition
}

// queueOp is either a join (ticket set) or a leave (leave set). Both travel on one
// channel so a client's join and leave are applied in the order they were sent.
type queueOp struct {
	ticket *ticket
	leave  *ws.Client
}

// Matchmaker manages the queue of players waiting for a quick match and starts
// matches, both for the queue and for lobbies.
type Matchmaker struct {
	queue    chan queueOp
	done     chan struct{} // closed when Run returns
	registry *Registry
	decks    DeckResolver
}

// NewMatchmaker creates a new Matchmaker.
func NewMatchmaker(registry *Registry, decks DeckResolver) *Matchmaker {
	return &Matchmaker{
		queue:    make(chan queueOp, 100),
		done:     make(chan struct{}),
		registry: registry,
		decks:    decks,
	}
}

// Enqueue resolves the client's deck and adds the client to the queue. A deck that
// cannot be resolved is returned as an error and the client is not queued.
func (m *Matchmaker) Enqueue(ctx context.Context, c *ws.Client, deckID string) error {
	userID, name := c.Identity()
	deck, err := m.decks.ResolveDeck(ctx, userID, deckID)
	if err != nil {
		return err
	}
	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	select {
	case m.queue <- queueOp{ticket: &ticket{client: c, userID: userID, name: name, deck: deck}}:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LeaveQueue removes the client from the queue if it is waiting. After Run has
// returned there is no queue left and the call is a no-op.
func (m *Matchmaker) LeaveQueue(c *ws.Client) {
	select {
	case m.queue <- queueOp{leave: c}:
	case <-m.done:
	}
}

// Run is the matchmaker's main loop. It holds at most one waiting player and pairs
// them with the next arrival. Should be run as a goroutine.
func (m *Matchmaker) Run(ctx context.Context) {
	defer close(m.done)
	var waiting *ticket
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.queue:
			if op.leave != nil {
				if waiting != nil && waiting.client == op.leave {
					slog.Debug("player left queue", "tag", "matchmaking", "player", waiting.userID)
					waiting = nil
				}
				continue
			}
			t := op.ticket
			if waiting == nil || waiting.userID == t.userID {
				waiting = t
				slog.Debug("player waiting", "tag", "matchmaking", "player", t.userID)
				continue
			}
			first := *waiting
			waiting = nil
			m.start(first, *t)
		}
	}
}

// StartMatch resolves both decks and starts a match between two clients, as done for
// a lobby whose host starts the game.
func (m *Matchmaker) StartMatch(ctx context.Context, first, second *ws.Client, firstDeck, secondDeck string) error {
	a, err := m.ticketFor(ctx, first, firstDeck)
	if err != nil {
		return err
	}
	b, err := m.ticketFor(ctx, second, secondDeck)
	if err != nil {
		return err
	}
	m.start(a, b)
	return nil
}

func (m *Matchmaker) ticketFor(ctx context.Context, c *ws.Client, deckID string) (ticket, error) {
	userID, name := c.Identity()
	deck, err := m.decks.ResolveDeck(ctx, userID, deckID)
	if err != nil {
		return ticket{}, fmt.Errorf("deck for %s: %w", userID, err)
	}
	return ticket{client: c, userID: userID, name: name, deck: deck}, nil
}

// start creates the match, tells both players and runs its loop. A player whose
// connection closed in the meantime is disconnected from the new match at once.
func (m *Matchmaker) start(first, second ticket) {
	g := m.registry.Create(
		&game.Seat{ID: first.userID, Name: first.name, Send: first.client.Send},
		&game.Seat{ID: second.userID, Name: second.name, Send: second.client.Send},
		first.deck, second.deck,
	)

	var gone []string
	for _, t := range []ticket{first, second} {
		if !t.client.AssignMatch(g.ID) {
			gone = append(gone, t.userID)
		}
	}

	m.sendMatchFound(first, second, g)
	m.sendMatchFound(second, first, g)

	// Start the game goroutine (it broadcasts initial state automatically)
	go g.Run()

	for _, id := range gone {
		m.registry.Remove(g.ID)
		g.Submit(game.Action{Type: game.ActionDisconnect, PlayerID: id})
	}
}

func (m *Matchmaker) sendMatchFound(t, opponent ticket, g *game.Game) {
	wsutil.SendJSON(t.client.Send, ws.MatchFoundMsg{
		Type:         "match_found",
		MatchID:      g.ID,
		OpponentID:   opponent.userID,
		OpponentName: opponent.name,
		YourTurn:     g.Match.TurnOwner == t.userID,
	})
}
