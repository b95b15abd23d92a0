package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-duel-server/cards"
)

func TestEndTurn_PassesTurnAndRampsMana(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	b := player(t, m, bob)
	sleepy := placeUnit(m, b, unitDef("sleepy", 1, 1, 1), false)
	bobHand := len(b.Hand)

	require.NoError(t, m.EndTurn(alice))
	assert.Equal(t, bob, m.TurnOwner)
	assert.Equal(t, 1, m.Turn)
	assert.Equal(t, 1, b.MaxMana)
	assert.Equal(t, 1, b.Mana)
	assert.Len(t, b.Hand, bobHand+1)
	assert.True(t, sleepy.CanAttack)
	assert.ErrorIs(t, m.EndTurn(alice), ErrNotYourTurn)

	require.NoError(t, m.EndTurn(bob))
	assert.Equal(t, alice, m.TurnOwner)
	assert.Equal(t, 2, m.Turn)
	assert.Equal(t, 2, a.MaxMana)
	assert.Equal(t, 2, a.Mana)
	requireInvariants(t, m)
}

func TestEndTurn_ManaCapsAtTen(t *testing.T) {
	m := newTestMatch(t)
	b := player(t, m, bob)
	b.MaxMana = MaxMana
	b.Mana = 3

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, MaxMana, b.MaxMana)
	assert.Equal(t, MaxMana, b.Mana)
}

func TestEndTurn_FullHandDiscardsDraw(t *testing.T) {
	m := newTestMatch(t)
	b := player(t, m, bob)
	for len(b.Hand) < MaxHandSize {
		giveHand(m, b, unitDef("filler", 1, 1, 1))
	}
	top := b.Deck[0]
	deck := len(b.Deck)

	require.NoError(t, m.EndTurn(alice))

	assert.Len(t, b.Hand, MaxHandSize)
	assert.Len(t, b.Deck, deck-1)
	assert.Equal(t, top, b.Graveyard[len(b.Graveyard)-1])
}

func TestEndTurn_EmptyDeckDealsFatigue(t *testing.T) {
	m := newTestMatch(t)
	b := player(t, m, bob)
	b.Deck = nil

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, StartingHealth-1, b.Health)
}

func TestEndTurn_FatigueCanEndMatch(t *testing.T) {
	m := newTestMatch(t)
	b := player(t, m, bob)
	b.Deck = nil
	b.Health = 1

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, Ended, m.Phase)
	assert.Equal(t, alice, m.Winner)
}

func TestEndTurn_StructureDamageDraw(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	b := player(t, m, bob)
	a.Health, b.Health = 2, 2
	placeStructure(m, a, structureDef("cataclysm", 5, 5, cards.Effect{Kind: cards.EffectEndTurnDamage, Value: 2, Target: cards.TargetAll}))

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, Ended, m.Phase)
	assert.Equal(t, WinnerDraw, m.Winner)
	assert.Equal(t, alice, m.TurnOwner, "turn does not pass once the match is over")
	requireInvariants(t, m)
}

func TestEndTurn_FirstLethalTriggerDecides(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	b := player(t, m, bob)
	a.Health, b.Health = 1, 1
	placeStructure(m, a, structureDef("sniper_tower", 3, 4, cards.Effect{Kind: cards.EffectEndTurnDamage, Value: 1, Target: cards.TargetEnemy}))
	placeStructure(m, a, structureDef("cataclysm", 5, 5, cards.Effect{Kind: cards.EffectEndTurnDamage, Value: 1, Target: cards.TargetAll}))

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, Ended, m.Phase)
	assert.Equal(t, alice, m.Winner)
	assert.Equal(t, 1, a.Health, "later triggers do not resolve once the match is decided")
	assert.Equal(t, 0, b.Health)
	assert.Equal(t, alice, m.TurnOwner)
	requireInvariants(t, m)
}

func TestEndTurn_StructureDamageTargets(t *testing.T) {
	tests := []struct {
		target        cards.TargetKind
		bobHeroHit    bool
		aliceUnitsHit bool
		aliceHeroHit  bool
	}{
		{cards.TargetNone, false, false, false},
		{cards.TargetAllEnemies, false, false, false},
		{cards.TargetEnemy, true, false, false},
		{cards.TargetAll, true, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			m := newTestMatch(t)
			a := player(t, m, alice)
			b := player(t, m, bob)
			mine := placeUnit(m, a, unitDef("mine", 1, 1, 5), false)
			theirs := placeUnit(m, b, unitDef("theirs", 1, 1, 5), false)
			placeStructure(m, a, structureDef("tower", 3, 4, cards.Effect{Kind: cards.EffectEndTurnDamage, Value: 1, Target: tt.target}))

			require.NoError(t, m.EndTurn(alice))

			assert.Equal(t, 4, theirs.Health)
			assert.Equal(t, tt.aliceUnitsHit, mine.Health == 4)
			assert.Equal(t, tt.bobHeroHit, b.Health == StartingHealth-1)
			assert.Equal(t, tt.aliceHeroHit, a.Health == StartingHealth-1)
		})
	}
}

func TestEndTurn_StructureDamageOnlyForOwner(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	b := player(t, m, bob)
	mine := placeUnit(m, a, unitDef("mine", 1, 1, 5), false)
	placeStructure(m, b, structureDef("tower", 3, 4, cards.Effect{Kind: cards.EffectEndTurnDamage, Value: 1}))

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, 5, mine.Health)
}

func TestEndTurn_StructureHeal(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	hurt := placeUnit(m, a, unitDef("hurt", 1, 1, 6), false)
	nearly := placeUnit(m, a, unitDef("nearly", 1, 1, 6), false)
	hurt.Health, nearly.Health = 1, 5
	placeStructure(m, a, structureDef("shrine", 3, 4, cards.Effect{Kind: cards.EffectEndTurnHeal, Value: 2}))

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, 3, hurt.Health)
	assert.Equal(t, 6, nearly.Health)
}

func TestEndTurn_HealAllyHealsNeighbours(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	left := placeUnit(m, a, unitDef("left", 1, 1, 6), false)
	medic := placeUnit(m, a, unitDef("medic", 2, 1, 6, cards.AbilityHealAlly), false)
	right := placeUnit(m, a, unitDef("right", 1, 1, 6), false)
	far := placeUnit(m, a, unitDef("far", 1, 1, 6), false)
	for _, u := range []*CardInstance{left, medic, right, far} {
		u.Health = 1
	}

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, 3, left.Health)
	assert.Equal(t, 1, medic.Health)
	assert.Equal(t, 3, right.Health)
	assert.Equal(t, 1, far.Health)
}

// The inspire buff is tracked by a flag that is never cleared, so a unit next to an
// inspirer is buffed on the first end of turn and never again, even by another inspirer.
func TestInspireBuffsEachNeighbourOnlyOnceEver(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	captain := placeUnit(m, a, unitDef("captain", 3, 2, 2, cards.AbilityInspire), false)
	soldier := placeUnit(m, a, unitDef("soldier", 1, 1, 1), false)
	second := placeUnit(m, a, unitDef("captain", 3, 2, 2, cards.AbilityInspire), false)

	require.NoError(t, m.EndTurn(alice))
	assert.Equal(t, 2, soldier.Attack)
	assert.Equal(t, 2, soldier.Health)
	assert.Equal(t, 2, soldier.MaxHealth)
	assert.True(t, soldier.Inspired)
	assert.Equal(t, 2, captain.Attack)
	assert.Equal(t, 2, second.Attack)

	require.NoError(t, m.EndTurn(bob))
	require.NoError(t, m.EndTurn(alice))
	assert.Equal(t, 2, soldier.Attack)
	assert.Equal(t, 2, soldier.Health)
}

func TestInspireAdjacentInspirersBuffEachOther(t *testing.T) {
	m := newTestMatch(t)
	a := player(t, m, alice)
	first := placeUnit(m, a, unitDef("captain", 3, 2, 2, cards.AbilityInspire), false)
	second := placeUnit(m, a, unitDef("captain", 3, 2, 2, cards.AbilityInspire), false)

	require.NoError(t, m.EndTurn(alice))

	assert.Equal(t, 3, first.Attack)
	assert.Equal(t, 3, second.Attack)
}

// Random legal and illegal actions must never break the per-player limits.
func TestRandomPlayKeepsInvariants(t *testing.T) {
	catalog, err := cards.LoadCatalog("")
	require.NoError(t, err)
	deckA, err := catalog.Deck("vanguard")
	require.NoError(t, err)
	deckB, err := catalog.Deck("arcane")
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 20; game++ {
		m := NewMatch("fuzz",
			Entrant{ID: alice, Deck: deckA},
			Entrant{ID: bob, Deck: deckB},
		)
		for step := 0; step < 400 && m.Phase == Playing; step++ {
			self, opp, err := m.sides(m.TurnOwner)
			require.NoError(t, err)
			targets := randomTargets(self, opp)
			target := targets[rng.Intn(len(targets))]

			switch rng.Intn(4) {
			case 0, 1:
				if len(self.Hand) > 0 {
					c := self.Hand[rng.Intn(len(self.Hand))]
					_ = m.PlayCard(self.ID, c.InstanceID, &target)
				}
			case 2:
				if len(self.Field) > 0 {
					u := self.Field[rng.Intn(len(self.Field))]
					_ = m.Attack(self.ID, u.InstanceID, target)
				}
			default:
				require.NoError(t, m.EndTurn(self.ID))
			}
			requireInvariants(t, m)
		}
	}
}

func randomTargets(self, opp *Participant) []Target {
	out := []Target{
		{Type: TargetHero, ID: self.ID},
		{Type: TargetHero, ID: opp.ID},
	}
	for _, p := range []*Participant{self, opp} {
		for _, u := range p.Field {
			out = append(out, Target{Type: TargetUnit, ID: u.InstanceID})
		}
		for _, s := range p.Structures {
			out = append(out, Target{Type: TargetStructure, ID: s.InstanceID})
		}
	}
	return out
}
