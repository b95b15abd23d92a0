package game

import "card-duel-server/cards"

// PlayCard plays instanceID from playerID's hand. target may be nil for cards whose
// target kind is untargeted. All checks run before anything is mutated.
func (m *Match) PlayCard(playerID, instanceID string, target *Target) error {
	self, opponent, err := m.checkTurn(playerID)
	if err != nil {
		return err
	}
	idx := indexOf(self.Hand, instanceID)
	if idx < 0 {
		return ErrCardNotInHand
	}
	card := self.Hand[idx]
	def := card.Def

	cost := effectiveCost(self, def)
	if self.Mana < cost {
		return ErrInsufficientMana
	}

	var tu *CardInstance
	var towner *Participant
	if !def.Target.Untargeted() {
		tu, towner, err = m.validateTarget(self, opponent, def, target)
		if err != nil {
			return err
		}
	}

	switch def.Kind {
	case cards.KindUnit:
		if len(self.Field) >= MaxFieldSize {
			return ErrFieldFull
		}
	case cards.KindStructure:
		if len(self.Structures) >= MaxFieldSize {
			return ErrFieldFull
		}
	}

	self.Hand = removeAt(self.Hand, idx)
	self.Mana -= cost

	switch def.Kind {
	case cards.KindUnit:
		card.CanAttack = card.Abilities.Has(cards.AbilitySwift)
		self.Field = append(self.Field, card)
	case cards.KindStructure:
		self.Structures = append(self.Structures, card)
	case cards.KindSpell:
		m.resolveSpell(self, opponent, def, tu, towner)
		self.Graveyard = append(self.Graveyard, card)
	}

	m.checkGameEnd()
	return nil
}

func effectiveCost(p *Participant, def *cards.Definition) int {
	cost := def.Cost - p.structureEffectTotal(cards.EffectCostReduction)
	if cost < 0 {
		cost = 0
	}
	return cost
}

// validateTarget checks target against the card's declared target kind and returns the
// targeted unit (nil for a hero) and its owner.
func (m *Match) validateTarget(self, opponent *Participant, def *cards.Definition, target *Target) (*CardInstance, *Participant, error) {
	if target == nil {
		return nil, nil, ErrInvalidTarget
	}

	var unit *CardInstance
	var owner *Participant
	switch target.Type {
	case TargetUnit:
		unit, owner = m.findUnit(target.ID)
	case TargetHero:
		switch target.ID {
		case self.ID:
			owner = self
		case opponent.ID:
			owner = opponent
		}
	}
	if owner == nil {
		return nil, nil, ErrInvalidTarget
	}
	isUnit := unit != nil

	var ok bool
	switch def.Target {
	case cards.TargetEnemyUnit:
		ok = isUnit && owner == opponent
	case cards.TargetFriendlyUnit:
		ok = isUnit && owner == self
	case cards.TargetFriendly:
		ok = owner == self
	case cards.TargetAnyUnit:
		ok = isUnit
	case cards.TargetEnemy:
		ok = owner == opponent
	case cards.TargetAny:
		ok = true
	}
	if !ok {
		return nil, nil, ErrInvalidTarget
	}

	// Only damage and heal make sense on a hero.
	if !isUnit && def.Effect.Kind != cards.EffectDamage && def.Effect.Kind != cards.EffectHeal {
		return nil, nil, ErrInvalidTarget
	}
	return unit, owner, nil
}

// spellTarget is one resolved recipient of a spell: a unit, or a hero when unit is nil.
type spellTarget struct {
	unit  *CardInstance
	owner *Participant
}

// recipients expands a spell's target kind into concrete recipients.
func recipients(self, opponent *Participant, def *cards.Definition, unit *CardInstance, owner *Participant) []spellTarget {
	var out []spellTarget
	switch def.Target {
	case cards.TargetSelf:
		out = append(out, spellTarget{owner: self})
	case cards.TargetAllFriendly:
		for _, u := range self.Field {
			out = append(out, spellTarget{unit: u, owner: self})
		}
	case cards.TargetAllEnemies:
		for _, u := range opponent.Field {
			out = append(out, spellTarget{unit: u, owner: opponent})
		}
	default:
		if owner != nil {
			out = append(out, spellTarget{unit: unit, owner: owner})
		}
	}
	return out
}

func (m *Match) resolveSpell(self, opponent *Participant, def *cards.Definition, unit *CardInstance, owner *Participant) {
	e := def.Effect
	targets := recipients(self, opponent, def, unit, owner)

	switch e.Kind {
	case cards.EffectDamage:
		amount := e.Value + self.countAbility(cards.AbilitySpellpower)
		for _, t := range targets {
			if t.unit == nil {
				t.owner.Health -= amount
				continue
			}
			applyDamage(t.owner, t.unit, amount)
		}
	case cards.EffectHeal:
		for _, t := range targets {
			if t.unit == nil {
				t.owner.healHero(e.Value)
				continue
			}
			healUnit(t.unit, e.Value)
		}
	case cards.EffectBuff:
		for _, t := range targets {
			if t.unit == nil {
				continue
			}
			t.unit.Attack += e.Attack
			t.unit.Health += e.Health
			t.unit.MaxHealth += e.Health
		}
	case cards.EffectDebuff:
		for _, t := range targets {
			if t.unit == nil {
				continue
			}
			t.unit.Attack -= e.Attack
			if t.unit.Attack < 0 {
				t.unit.Attack = 0
			}
			t.unit.Health -= e.Health
			t.unit.MaxHealth -= e.Health
			if t.unit.Health <= 0 {
				t.owner.destroy(t.unit)
			}
		}
	case cards.EffectDraw:
		m.draw(self, e.Value)
	case cards.EffectDestroyDamaged:
		for _, t := range targets {
			if t.unit != nil && t.unit.Damaged() {
				t.owner.destroy(t.unit)
			}
		}
	case cards.EffectGrantAbility:
		for _, t := range targets {
			if t.unit != nil {
				t.unit.Abilities.Add(e.Ability)
			}
		}
	case cards.EffectHealAllFriendly:
		for _, u := range self.Field {
			healUnit(u, e.Value)
		}
	}
}
