package game

import (
	"errors"
	"log/slog"

	"card-duel-server/cards"
	"card-duel-server/wsutil"
)

// ActionType enumerates the kinds of actions a game can process.
type ActionType int

const (
	ActionPlayCard ActionType = iota
	ActionAttack
	ActionEndTurn
	ActionDisconnect // player's connection closed; the match is forfeited
)

// Action represents a player action sent into the game's action channel.
type Action struct {
	Type       ActionType
	PlayerID   string
	CardID     string  // hand instance ID (for PlayCard)
	AttackerID string  // field instance ID (for Attack)
	Target     *Target // nil when the card or action takes none
}

// Seat is a connected player's end of the game: identity plus outbound channel.
type Seat struct {
	ID   string
	Name string
	Send chan []byte
}

// Game runs one match: it owns the Match and applies actions one at a time, so every
// rule transition completes before the next action is looked at.
type Game struct {
	ID    string
	Match *Match
	Seats [2]*Seat

	Actions chan Action
	Done    chan struct{}

	// OnFinish is called once when Run returns (normal end or disconnect).
	OnFinish func(gameID string)
}

// NewGame creates a new Game between two seats using the given decks.
func NewGame(id string, first, second *Seat, firstDeck, secondDeck []cards.Definition) *Game {
	match := NewMatch(id,
		Entrant{ID: first.ID, Name: first.Name, Deck: firstDeck},
		Entrant{ID: second.ID, Name: second.Name, Deck: secondDeck},
	)
	return &Game{
		ID:      id,
		Match:   match,
		Seats:   [2]*Seat{first, second},
		Actions: make(chan Action, 16),
		Done:    make(chan struct{}),
	}
}

// Submit hands an action to the game loop. It reports false if the loop has exited.
func (g *Game) Submit(a Action) bool {
	select {
	case <-g.Done:
		return false
	default:
	}
	select {
	case g.Actions <- a:
		return true
	case <-g.Done:
		return false
	}
}

// Run is the main game loop. It processes actions sequentially.
// It should be run as a goroutine.
func (g *Game) Run() {
	defer func() {
		close(g.Done)
		if g.OnFinish != nil {
			g.OnFinish(g.ID)
		}
	}()

	g.broadcastState()

	for action := range g.Actions {
		if action.Type == ActionDisconnect {
			g.handleDisconnect(action.PlayerID)
			return
		}
		if err := g.apply(action); err != nil {
			g.sendError(action.PlayerID, err)
			continue
		}
		g.broadcastState()
		if g.Match.Phase == Ended {
			g.broadcastGameOver("completed")
			return
		}
	}
}

func (g *Game) apply(a Action) error {
	switch a.Type {
	case ActionPlayCard:
		return g.Match.PlayCard(a.PlayerID, a.CardID, a.Target)
	case ActionAttack:
		if a.Target == nil {
			return ErrInvalidTarget
		}
		return g.Match.Attack(a.PlayerID, a.AttackerID, *a.Target)
	case ActionEndTurn:
		return g.Match.EndTurn(a.PlayerID)
	default:
		return errors.New("unknown action")
	}
}

func (g *Game) handleDisconnect(playerID string) {
	if err := g.Match.Forfeit(playerID); err != nil && !errors.Is(err, ErrMatchEnded) {
		slog.Warn("disconnect from unknown player", "tag", "game", "game", g.ID, "player", playerID)
		return
	}
	if s := g.seat(playerID); s != nil {
		s.Send = nil
	}
	slog.Info("player disconnected, match forfeited", "tag", "game", "game", g.ID, "player", playerID, "winner", g.Match.Winner)

	for _, s := range g.Seats {
		if s.Send == nil {
			continue
		}
		wsutil.SendJSON(s.Send, map[string]string{"type": "opponent_disconnected"})
	}
	g.broadcastState()
	g.broadcastGameOver("opponent_disconnected")
}

func (g *Game) seat(playerID string) *Seat {
	for _, s := range g.Seats {
		if s.ID == playerID {
			return s
		}
	}
	return nil
}

func (g *Game) sendError(playerID string, err error) {
	if s := g.seat(playerID); s != nil {
		wsutil.SendError(s.Send, err.Error())
	}
}

func (g *Game) broadcastState() {
	for _, s := range g.Seats {
		if s.Send == nil {
			continue
		}
		state, err := g.Match.StateForPlayer(s.ID)
		if err != nil {
			slog.Error("building game state", "tag", "game", "game", g.ID, "err", err)
			continue
		}
		wsutil.SendJSON(s.Send, state)
	}
}

// GameOverMsg announces the final result to one player.
type GameOverMsg struct {
	Type   string `json:"type"`
	Result string `json:"result"` // win, lose or draw
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

func (g *Game) broadcastGameOver(reason string) {
	slog.Info("match ended", "tag", "game", "game", g.ID, "winner", g.Match.Winner, "reason", reason, "turn", g.Match.Turn)
	for _, s := range g.Seats {
		if s.Send == nil {
			continue
		}
		result := "lose"
		switch g.Match.Winner {
		case WinnerDraw:
			result = "draw"
		case s.ID:
			result = "win"
		}
		wsutil.SendJSON(s.Send, GameOverMsg{
			Type:   "game_over",
			Result: result,
			Winner: g.Match.Winner,
			Reason: reason,
		})
	}
}
