package game

import "card-duel-server/cards"

// Adjacency ability magnitudes.
const (
	healAllyAmount = 2
	inspireBonus   = 1
)

// EndTurn resolves playerID's end-of-turn effects and hands the turn to the opponent.
func (m *Match) EndTurn(playerID string) error {
	self, opponent, err := m.checkTurn(playerID)
	if err != nil {
		return err
	}

	m.endOfTurnEffects(self, opponent)
	m.checkGameEnd()
	if m.Phase == Ended {
		return nil
	}

	m.TurnOwner = opponent.ID
	if opponent == m.Players[0] {
		m.Turn++
	}
	opponent.MaxMana++
	if opponent.MaxMana > MaxMana {
		opponent.MaxMana = MaxMana
	}
	opponent.Mana = opponent.MaxMana
	m.draw(opponent, 1)
	for _, u := range opponent.Field {
		u.CanAttack = true
	}

	m.checkGameEnd()
	return nil
}

func (m *Match) endOfTurnEffects(self, opponent *Participant) {
	for _, s := range append([]*CardInstance(nil), self.Structures...) {
		e := s.Def.Effect
		switch e.Kind {
		case cards.EffectEndTurnDamage:
			switch e.Target {
			case cards.TargetAll:
				damageUnits(self, self.Field, e.Value)
				damageUnits(opponent, opponent.Field, e.Value)
				self.Health -= e.Value
				opponent.Health -= e.Value
			case cards.TargetEnemy:
				damageUnits(opponent, opponent.Field, e.Value)
				opponent.Health -= e.Value
			default:
				damageUnits(opponent, opponent.Field, e.Value)
			}
			// Each trigger resolves whole; the first one that decides the match ends it.
			m.checkGameEnd()
			if m.Phase == Ended {
				return
			}
		case cards.EffectEndTurnHeal:
			for _, u := range self.Field {
				healUnit(u, e.Value)
			}
		}
	}

	for i, u := range self.Field {
		healAlly := u.Abilities.Has(cards.AbilityHealAlly)
		inspire := u.Abilities.Has(cards.AbilityInspire)
		if !healAlly && !inspire {
			continue
		}
		for _, n := range neighbours(self.Field, i) {
			if healAlly {
				healUnit(n, healAllyAmount)
			}
			// Inspired is never reset, so each unit gets this buff once per match.
			if inspire && !n.Inspired {
				n.Attack += inspireBonus
				n.Health += inspireBonus
				n.MaxHealth += inspireBonus
				n.Inspired = true
			}
		}
	}
}

func neighbours(field []*CardInstance, i int) []*CardInstance {
	var out []*CardInstance
	if i > 0 {
		out = append(out, field[i-1])
	}
	if i+1 < len(field) {
		out = append(out, field[i+1])
	}
	return out
}
