package game

import (
	"fmt"

	"card-duel-server/cards"
)

// Phase is the lifecycle state of a match. Ended is terminal.
type Phase int

const (
	Playing Phase = iota
	Ended
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// WinnerDraw is the Winner value when both heroes fall together.
const WinnerDraw = "draw"

// Opening hand sizes.
const (
	OpeningHand       = 4
	SecondPlayerBonus = 1
)

// TargetType names what a target ID refers to.
type TargetType string

const (
	TargetUnit      TargetType = "unit"
	TargetHero      TargetType = "hero"
	TargetStructure TargetType = "structure"
)

// Target identifies a unit or structure by instance ID, or a hero by player ID.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// Entrant is a player entering a match with the deck they chose.
type Entrant struct {
	ID   string
	Name string
	Deck []cards.Definition
}

// Match is the rules state machine for one two-player game.
// It is not safe for concurrent use; the owning Game serializes access.
type Match struct {
	ID        string
	Players   [2]*Participant // Players[0] takes the first turn
	TurnOwner string
	Turn      int
	Phase     Phase
	Winner    string

	instanceSeq int
}

// NewMatch sets up a fresh match: shuffled decks, opening hands, first player to act.
// The same IDs and decks always produce the same deck order and hands.
func NewMatch(id string, first, second Entrant) *Match {
	m := &Match{
		ID:    id,
		Turn:  1,
		Phase: Playing,
	}
	for i, e := range []Entrant{first, second} {
		p := newParticipant(e.ID, e.Name)
		p.Deck = m.buildDeck(e)
		m.Players[i] = p
	}
	m.TurnOwner = first.ID
	m.Players[0].MaxMana = 1
	m.Players[0].Mana = 1

	m.draw(m.Players[0], OpeningHand)
	m.draw(m.Players[1], OpeningHand+SecondPlayerBonus)
	return m
}

func (m *Match) buildDeck(e Entrant) []*CardInstance {
	n := len(e.Deck)
	if n > cards.DeckSize {
		n = cards.DeckSize
	}
	defs := make([]cards.Definition, n)
	copy(defs, e.Deck[:n])
	deterministicShuffle(defs, shuffleSeed(m.ID, e.ID))

	deck := make([]*CardInstance, n)
	for i := range defs {
		deck[i] = newInstance(m.nextInstanceID(), &defs[i])
	}
	return deck
}

func (m *Match) nextInstanceID() string {
	m.instanceSeq++
	return fmt.Sprintf("c%d", m.instanceSeq)
}

// sides returns the acting participant and their opponent.
func (m *Match) sides(playerID string) (self, opponent *Participant, err error) {
	switch playerID {
	case m.Players[0].ID:
		return m.Players[0], m.Players[1], nil
	case m.Players[1].ID:
		return m.Players[1], m.Players[0], nil
	default:
		return nil, nil, ErrUnknownPlayer
	}
}

// Participant returns the state of the given player.
func (m *Match) Participant(playerID string) (*Participant, bool) {
	p, _, err := m.sides(playerID)
	return p, err == nil
}

// Opponent returns the ID of the other player.
func (m *Match) Opponent(playerID string) (string, bool) {
	_, o, err := m.sides(playerID)
	if err != nil {
		return "", false
	}
	return o.ID, true
}

// checkTurn validates that the match is live and playerID owns the turn.
func (m *Match) checkTurn(playerID string) (self, opponent *Participant, err error) {
	self, opponent, err = m.sides(playerID)
	if err != nil {
		return nil, nil, err
	}
	if m.Phase != Playing {
		return nil, nil, ErrMatchEnded
	}
	if m.TurnOwner != playerID {
		return nil, nil, ErrNotYourTurn
	}
	return self, opponent, nil
}

// draw moves n cards from the deck to the hand. An empty deck deals fatigue equal to the
// turn number per missing card; a full hand sends the drawn card to the graveyard.
func (m *Match) draw(p *Participant, n int) {
	for i := 0; i < n; i++ {
		if len(p.Deck) == 0 {
			p.Health -= m.Turn
			continue
		}
		c := p.Deck[0]
		p.Deck = p.Deck[1:]
		if len(p.Hand) >= MaxHandSize {
			p.Graveyard = append(p.Graveyard, c)
			continue
		}
		p.Hand = append(p.Hand, c)
	}
}

// checkGameEnd ends the match when a hero has fallen. Both at once is a draw.
func (m *Match) checkGameEnd() {
	if m.Phase == Ended {
		return
	}
	firstDown := m.Players[0].Health <= 0
	secondDown := m.Players[1].Health <= 0
	switch {
	case firstDown && secondDown:
		m.end(WinnerDraw)
	case firstDown:
		m.end(m.Players[1].ID)
	case secondDown:
		m.end(m.Players[0].ID)
	}
}

func (m *Match) end(winner string) {
	m.Phase = Ended
	m.Winner = winner
}

// Forfeit ends a live match in favour of playerID's opponent.
func (m *Match) Forfeit(playerID string) error {
	_, opponent, err := m.sides(playerID)
	if err != nil {
		return err
	}
	if m.Phase == Ended {
		return ErrMatchEnded
	}
	m.end(opponent.ID)
	return nil
}

// findUnit locates a unit on either field.
func (m *Match) findUnit(instanceID string) (*CardInstance, *Participant) {
	for _, p := range m.Players {
		if u := p.unit(instanceID); u != nil {
			return u, p
		}
	}
	return nil, nil
}
