package game

import (
	"sort"

	"card-duel-server/cards"
)

// AbilitySet is the mutable set of ability tags carried by one card instance.
type AbilitySet map[string]struct{}

func newAbilitySet(tags []string) AbilitySet {
	s := make(AbilitySet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is present.
func (s AbilitySet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Add grants tag.
func (s AbilitySet) Add(tag string) { s[tag] = struct{}{} }

// Remove revokes tag.
func (s AbilitySet) Remove(tag string) { delete(s, tag) }

// List returns the tags sorted, for stable client output.
func (s AbilitySet) List() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CardInstance is one copy of a definition materialized inside a match.
type CardInstance struct {
	InstanceID string
	Def        *cards.Definition
	Attack     int
	Health     int
	MaxHealth  int
	CanAttack  bool
	Abilities  AbilitySet
	// Inspired is set the first time the unit receives an inspire buff and never cleared.
	Inspired bool
}

func newInstance(id string, def *cards.Definition) *CardInstance {
	return &CardInstance{
		InstanceID: id,
		Def:        def,
		Attack:     def.Attack,
		Health:     def.Health,
		MaxHealth:  def.Health,
		Abilities:  newAbilitySet(def.Abilities),
	}
}

// Damaged reports whether the instance is below its maximum health.
func (c *CardInstance) Damaged() bool {
	return c.Health < c.MaxHealth
}

func indexOf(list []*CardInstance, instanceID string) int {
	for i, c := range list {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

func removeAt(list []*CardInstance, i int) []*CardInstance {
	return append(list[:i], list[i+1:]...)
}
