package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"card-duel-server/cards"
)

const (
	alice = "alice"
	bob   = "bob"
)

func unitDef(id string, cost, attack, health int, abilities ...string) cards.Definition {
	return cards.Definition{
		ID:        id,
		Name:      id,
		Kind:      cards.KindUnit,
		Cost:      cost,
		Attack:    attack,
		Health:    health,
		Abilities: abilities,
	}
}

func spellDef(id string, cost int, target cards.TargetKind, effect cards.Effect) cards.Definition {
	return cards.Definition{
		ID:     id,
		Name:   id,
		Kind:   cards.KindSpell,
		Cost:   cost,
		Target: target,
		Effect: effect,
	}
}

func structureDef(id string, cost, health int, effect cards.Effect) cards.Definition {
	return cards.Definition{
		ID:     id,
		Name:   id,
		Kind:   cards.KindStructure,
		Cost:   cost,
		Health: health,
		Effect: effect,
	}
}

// distinctDeck returns n units with distinct IDs so deck order is observable.
func distinctDeck(prefix string, n int) []cards.Definition {
	deck := make([]cards.Definition, n)
	for i := range deck {
		deck[i] = unitDef(fmt.Sprintf("%s-%02d", prefix, i), 1, 1, 1)
	}
	return deck
}

func newTestMatch(t *testing.T) *Match {
	t.Helper()
	return NewMatch("m-1",
		Entrant{ID: alice, Name: "Alice", Deck: distinctDeck("a", cards.DeckSize)},
		Entrant{ID: bob, Name: "Bob", Deck: distinctDeck("b", cards.DeckSize)},
	)
}

func player(t *testing.T, m *Match, id string) *Participant {
	t.Helper()
	p, ok := m.Participant(id)
	require.True(t, ok)
	return p
}

func instance(m *Match, def cards.Definition) *CardInstance {
	d := def
	return newInstance(m.nextInstanceID(), &d)
}

// giveHand puts a fresh copy of def into p's hand.
func giveHand(m *Match, p *Participant, def cards.Definition) *CardInstance {
	c := instance(m, def)
	p.Hand = append(p.Hand, c)
	return c
}

// placeUnit puts a fresh copy of def onto p's field.
func placeUnit(m *Match, p *Participant, def cards.Definition, canAttack bool) *CardInstance {
	c := instance(m, def)
	c.CanAttack = canAttack
	p.Field = append(p.Field, c)
	return c
}

func placeStructure(m *Match, p *Participant, def cards.Definition) *CardInstance {
	c := instance(m, def)
	p.Structures = append(p.Structures, c)
	return c
}

// snapshot serializes every participant so tests can assert nothing changed.
func snapshot(t *testing.T, m *Match) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return string(data)
}

func unitTarget(c *CardInstance) *Target { return &Target{Type: TargetUnit, ID: c.InstanceID} }

func heroTarget(id string) *Target { return &Target{Type: TargetHero, ID: id} }

// requireInvariants checks the limits that must hold after every action.
func requireInvariants(t *testing.T, m *Match) {
	t.Helper()
	seen := make(map[string]bool)
	for _, p := range m.Players {
		require.GreaterOrEqual(t, p.Mana, 0, p.ID)
		require.LessOrEqual(t, p.Mana, p.MaxMana, p.ID)
		require.LessOrEqual(t, p.MaxMana, MaxMana, p.ID)
		require.LessOrEqual(t, len(p.Hand), MaxHandSize, p.ID)
		require.LessOrEqual(t, len(p.Field), MaxFieldSize, p.ID)
		for _, zone := range [][]*CardInstance{p.Deck, p.Hand, p.Field, p.Structures, p.Graveyard} {
			for _, c := range zone {
				require.False(t, seen[c.InstanceID], "duplicate instance %s", c.InstanceID)
				seen[c.InstanceID] = true
			}
		}
	}
	if m.Phase == Playing {
		require.Contains(t, []string{alice, bob}, m.TurnOwner)
	} else {
		require.NotEmpty(t, m.Winner)
	}
}
