package cards

// Kind is the resolution category of a card.
type Kind string

const (
	KindUnit      Kind = "unit"
	KindSpell     Kind = "spell"
	KindStructure Kind = "structure"
)

// TargetKind declares what a card may be played on.
// The empty kind means the card takes no target (most units and structures).
type TargetKind string

const (
	TargetNone         TargetKind = ""
	TargetEnemyUnit    TargetKind = "enemy_unit"
	TargetFriendlyUnit TargetKind = "friendly_unit"
	TargetFriendly     TargetKind = "friendly"
	TargetAnyUnit      TargetKind = "any_unit"
	TargetEnemy        TargetKind = "enemy"
	TargetAny          TargetKind = "any"
	TargetSelf         TargetKind = "self"
	TargetAllFriendly  TargetKind = "all_friendly"
	TargetAllEnemies   TargetKind = "all_enemies"
	// TargetAll is only meaningful for structure triggers: every unit and both heroes.
	TargetAll TargetKind = "all"
)

// Untargeted reports whether a card with this kind is played without a target.
func (t TargetKind) Untargeted() bool {
	switch t {
	case TargetNone, TargetSelf, TargetAllFriendly, TargetAllEnemies, TargetAll:
		return true
	default:
		return false
	}
}

// EffectKind selects what a spell or structure does when it resolves or triggers.
type EffectKind string

const (
	EffectNone            EffectKind = ""
	EffectDamage          EffectKind = "damage"
	EffectHeal            EffectKind = "heal"
	EffectBuff            EffectKind = "buff"
	EffectDebuff          EffectKind = "debuff"
	EffectDraw            EffectKind = "draw"
	EffectDestroyDamaged  EffectKind = "destroy_damaged"
	EffectGrantAbility    EffectKind = "grant_ability"
	EffectHealAllFriendly EffectKind = "heal_all_friendly"

	// Structure effects.
	EffectCostReduction EffectKind = "cost_reduction"
	EffectEndTurnDamage EffectKind = "end_turn_damage"
	EffectEndTurnHeal   EffectKind = "end_turn_heal"
)

// Ability tags understood by the engine.
const (
	AbilitySwift        = "swift"
	AbilityCharge       = "charge"
	AbilityTaunt        = "taunt"
	AbilityRanged       = "ranged"
	AbilityArmor        = "armor"
	AbilityDivineShield = "divine_shield"
	AbilityFrenzy       = "frenzy"
	AbilitySpellpower   = "spellpower"
	AbilityHealAlly     = "heal_ally"
	AbilityInspire      = "inspire"
)

// Effect describes a spell's resolution or a structure's passive/trigger.
// Value is the magnitude for damage, heal, draw, cost_reduction and the end-of-turn
// triggers; Attack/Health are the deltas for buff and debuff.
type Effect struct {
	Kind    EffectKind `yaml:"kind" json:"kind"`
	Value   int        `yaml:"value,omitempty" json:"value,omitempty"`
	Attack  int        `yaml:"attack,omitempty" json:"attack,omitempty"`
	Health  int        `yaml:"health,omitempty" json:"health,omitempty"`
	Ability string     `yaml:"ability,omitempty" json:"ability,omitempty"`
	// Target narrows end_turn_damage: all_enemies (default), enemy or all.
	Target TargetKind `yaml:"target,omitempty" json:"target,omitempty"`
}

// Definition is an immutable card as published by the catalog.
type Definition struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Kind      Kind       `yaml:"kind" json:"kind"`
	Cost      int        `yaml:"cost" json:"cost"`
	Attack    int        `yaml:"attack,omitempty" json:"attack,omitempty"`
	Health    int        `yaml:"health,omitempty" json:"health,omitempty"`
	Abilities []string   `yaml:"abilities,omitempty" json:"abilities,omitempty"`
	Target    TargetKind `yaml:"target,omitempty" json:"target,omitempty"`
	Effect    Effect     `yaml:"effect,omitempty" json:"effect,omitempty"`
}

// HasAbility reports whether the printed card carries the ability tag.
func (d *Definition) HasAbility(tag string) bool {
	for _, a := range d.Abilities {
		if a == tag {
			return true
		}
	}
	return false
}
