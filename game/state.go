package game

// CardView is the client-facing representation of a card instance.
type CardView struct {
	InstanceID string   `json:"instanceId"`
	CardID     string   `json:"cardId"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Cost       int      `json:"cost"`
	Attack     int      `json:"attack,omitempty"`
	Health     int      `json:"health,omitempty"`
	MaxHealth  int      `json:"maxHealth,omitempty"`
	CanAttack  bool     `json:"canAttack,omitempty"`
	Abilities  []string `json:"abilities,omitempty"`
	Target     string   `json:"target,omitempty"`
}

// PlayerView is the public part of a participant, visible to both players.
type PlayerView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Health         int        `json:"health"`
	Mana           int        `json:"mana"`
	MaxMana        int        `json:"maxMana"`
	HandCount      int        `json:"handCount"`
	DeckCount      int        `json:"deckCount"`
	GraveyardCount int        `json:"graveyardCount"`
	Field          []CardView `json:"field"`
	Structures     []CardView `json:"structures"`
}

// GameStateMsg is the full game state sent to one player. Only the recipient's own
// hand is included; the opponent's hand is visible as a count.
type GameStateMsg struct {
	Type       string     `json:"type"`
	MatchID    string     `json:"matchId"`
	Phase      string     `json:"phase"`
	Winner     string     `json:"winner,omitempty"`
	IsYourTurn bool       `json:"isYourTurn"`
	TurnNumber int        `json:"turnNumber"`
	Hand       []CardView `json:"hand"`
	You        PlayerView `json:"you"`
	Opponent   PlayerView `json:"opponent"`
}

// StateForPlayer returns the match as seen by playerID.
func (m *Match) StateForPlayer(playerID string) (GameStateMsg, error) {
	self, opponent, err := m.sides(playerID)
	if err != nil {
		return GameStateMsg{}, err
	}
	hand := make([]CardView, 0, len(self.Hand))
	for _, c := range self.Hand {
		v := BuildCardView(c)
		v.Cost = effectiveCost(self, c.Def)
		hand = append(hand, v)
	}
	return GameStateMsg{
		Type:       "game_state",
		MatchID:    m.ID,
		Phase:      m.Phase.String(),
		Winner:     m.Winner,
		IsYourTurn: m.Phase == Playing && m.TurnOwner == playerID,
		TurnNumber: m.Turn,
		Hand:       hand,
		You:        BuildPlayerView(self),
		Opponent:   BuildPlayerView(opponent),
	}, nil
}

// BuildCardView creates a CardView from an instance.
func BuildCardView(c *CardInstance) CardView {
	return CardView{
		InstanceID: c.InstanceID,
		CardID:     c.Def.ID,
		Name:       c.Def.Name,
		Kind:       string(c.Def.Kind),
		Cost:       c.Def.Cost,
		Attack:     c.Attack,
		Health:     c.Health,
		MaxHealth:  c.MaxHealth,
		CanAttack:  c.CanAttack,
		Abilities:  c.Abilities.List(),
		Target:     string(c.Def.Target),
	}
}

// BuildPlayerView creates the public view of a participant.
func BuildPlayerView(p *Participant) PlayerView {
	return PlayerView{
		ID:             p.ID,
		Name:           p.Name,
		Health:         p.Health,
		Mana:           p.Mana,
		MaxMana:        p.MaxMana,
		HandCount:      len(p.Hand),
		DeckCount:      len(p.Deck),
		GraveyardCount: len(p.Graveyard),
		Field:          buildCardViews(p.Field),
		Structures:     buildCardViews(p.Structures),
	}
}

func buildCardViews(list []*CardInstance) []CardView {
	views := make([]CardView, len(list))
	for i, c := range list {
		views[i] = BuildCardView(c)
	}
	return views
}
