package game

import "card-duel-server/cards"

// applyDamage runs one instance of damage against a unit owned by owner.
// Armor soaks 1, a divine shield absorbs the whole hit and is consumed, frenzy gains
// attack when damage lands, and a unit at 0 health or less goes to the graveyard.
func applyDamage(owner *Participant, u *CardInstance, amount int) {
	if amount < 0 {
		amount = 0
	}
	if u.Abilities.Has(cards.AbilityArmor) {
		amount--
		if amount < 0 {
			amount = 0
		}
	}
	if amount > 0 && u.Abilities.Has(cards.AbilityDivineShield) {
		u.Abilities.Remove(cards.AbilityDivineShield)
		return
	}
	u.Health -= amount
	if amount > 0 && u.Abilities.Has(cards.AbilityFrenzy) {
		u.Attack++
	}
	if u.Health <= 0 {
		owner.destroy(u)
	}
}

// damageUnits applies the same damage to each listed unit. The list is copied first
// because destroyed units leave their owner's field.
func damageUnits(owner *Participant, units []*CardInstance, amount int) {
	for _, u := range append([]*CardInstance(nil), units...) {
		applyDamage(owner, u, amount)
	}
}

func healUnit(u *CardInstance, amount int) {
	u.Health += amount
	if u.Health > u.MaxHealth {
		u.Health = u.MaxHealth
	}
}
