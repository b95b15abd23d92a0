package game

import "card-duel-server/cards"

// Attack has playerID's unit attackerID strike target: the enemy hero, an enemy unit
// or an enemy structure.
func (m *Match) Attack(playerID, attackerID string, target Target) error {
	self, opponent, err := m.checkTurn(playerID)
	if err != nil {
		return err
	}
	attacker := self.unit(attackerID)
	if attacker == nil {
		return ErrAttackerNotFound
	}
	if !attacker.CanAttack {
		return ErrCannotAttack
	}

	var defender, building *CardInstance
	switch target.Type {
	case TargetHero:
		if target.ID != opponent.ID {
			return ErrInvalidTarget
		}
	case TargetUnit:
		if defender = opponent.unit(target.ID); defender == nil {
			return ErrInvalidTarget
		}
	case TargetStructure:
		if building = opponent.structure(target.ID); building == nil {
			return ErrInvalidTarget
		}
	default:
		return ErrInvalidTarget
	}

	if taunts := opponent.tauntUnits(); len(taunts) > 0 {
		if defender == nil || indexOf(taunts, defender.InstanceID) < 0 {
			return ErrMustAttackTaunt
		}
	}

	damage := attacker.Attack
	if attacker.Abilities.Has(cards.AbilityCharge) {
		damage *= 2
	}

	switch {
	case defender != nil:
		applyDamage(opponent, defender, damage)
		// Combat is simultaneous: the defender strikes back with its current attack
		// even when this hit destroys it. Ranged attackers take no return damage.
		if !attacker.Abilities.Has(cards.AbilityRanged) {
			applyDamage(self, attacker, defender.Attack)
		}
	case building != nil:
		building.Health -= damage
		if building.Health <= 0 {
			opponent.destroy(building)
		}
	default:
		opponent.Health -= damage
	}
	attacker.CanAttack = false

	m.checkGameEnd()
	return nil
}
