package game

import "card-duel-server/cards"

// Per-player limits.
const (
	StartingHealth = 30
	MaxMana        = 10
	MaxHandSize    = 10
	MaxFieldSize   = 6
)

// Participant is one player's mutable state inside a match.
type Participant struct {
	ID      string
	Name    string
	Health  int
	MaxMana int
	Mana    int

	Deck       []*CardInstance // next draw is Deck[0]
	Hand       []*CardInstance
	Field      []*CardInstance // units, in play order
	Structures []*CardInstance
	Graveyard  []*CardInstance
}

func newParticipant(id, name string) *Participant {
	return &Participant{
		ID:     id,
		Name:   name,
		Health: StartingHealth,
	}
}

// unit returns the unit on this participant's field with the given instance ID.
func (p *Participant) unit(instanceID string) *CardInstance {
	if i := indexOf(p.Field, instanceID); i >= 0 {
		return p.Field[i]
	}
	return nil
}

func (p *Participant) structure(instanceID string) *CardInstance {
	if i := indexOf(p.Structures, instanceID); i >= 0 {
		return p.Structures[i]
	}
	return nil
}

// countAbility returns how many units on the field carry tag.
func (p *Participant) countAbility(tag string) int {
	n := 0
	for _, u := range p.Field {
		if u.Abilities.Has(tag) {
			n++
		}
	}
	return n
}

// tauntUnits returns the units on the field that carry taunt.
func (p *Participant) tauntUnits() []*CardInstance {
	var out []*CardInstance
	for _, u := range p.Field {
		if u.Abilities.Has(cards.AbilityTaunt) {
			out = append(out, u)
		}
	}
	return out
}

// structureEffectTotal sums the values of owned structures with the given effect.
func (p *Participant) structureEffectTotal(kind cards.EffectKind) int {
	total := 0
	for _, s := range p.Structures {
		if s.Def.Effect.Kind == kind {
			total += s.Def.Effect.Value
		}
	}
	return total
}

// destroy moves a unit or structure from play to the graveyard.
func (p *Participant) destroy(c *CardInstance) {
	if i := indexOf(p.Field, c.InstanceID); i >= 0 {
		p.Field = removeAt(p.Field, i)
	} else if i := indexOf(p.Structures, c.InstanceID); i >= 0 {
		p.Structures = removeAt(p.Structures, i)
	} else {
		return
	}
	p.Graveyard = append(p.Graveyard, c)
}

func (p *Participant) healHero(amount int) {
	p.Health += amount
	if p.Health > StartingHealth {
		p.Health = StartingHealth
	}
}
