package catalog

import (
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// Default returns the built-in catalog used when the database carries no
// catalog rows. The set is small but covers every ability kind, card
// category, and arena mechanic.
func Default() *Catalog {
	c, err := New(defaultAbilities, defaultCards, defaultArenas)
	if err != nil {
		// The built-in data is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return c
}

var defaultAbilities = []AbilityDef{
	{Name: "fireball", Kind: AbilityDamage},
	{Name: "frost_lance", Kind: AbilityDamage},
	{Name: "strike", Kind: AbilityDamage},
	{Name: "mend", Kind: AbilityHeal},
	{Name: "war_cry", Kind: AbilityBuff},
	{Name: "hex", Kind: AbilityDebuff},
	{Name: "ignite", Kind: AbilityApplyStatus},
	{Name: "flash_freeze", Kind: AbilityApplyStatus},
	{Name: "barrier", Kind: AbilityApplyStatus},
	{Name: "venom", Kind: AbilityApplyStatus},
	{Name: "siphon", Kind: AbilityDrain},
	{Name: "surge", Kind: AbilityEnergyGain},
	{Name: "attune", Kind: AbilityManaGain},
	{Name: "foresight", Kind: AbilityDraw},
	{Name: "purify", Kind: AbilityCleanse},
}

var defaultCards = []CardDef{
	{
		ID: "ember-whelp", Name: "Ember Whelp", Category: CategoryCreature,
		Attack: 2, Defense: 1, Health: 3, Energy: 2,
		Abilities: []AbilityRef{{Name: "strike", Params: AbilityParams{Amount: 2, School: SchoolFire}}},
	},
	{
		ID: "cinder-golem", Name: "Cinder Golem", Category: CategoryCreature,
		Attack: 4, Defense: 3, Health: 6, Energy: 4,
		ManaCost:  map[mana.Color]int{mana.Crimson: 1},
		Abilities: []AbilityRef{{Name: "ignite", Params: AbilityParams{Status: StatusBurn, Amount: 2, Duration: 3}}},
	},
	{
		ID: "tidecaller", Name: "Tidecaller", Category: CategoryCreature,
		Attack: 2, Defense: 2, Health: 4, Energy: 3,
		ManaCost:  map[mana.Color]int{mana.Azure: 1},
		Abilities: []AbilityRef{{Name: "flash_freeze", Params: AbilityParams{Status: StatusFreeze, Amount: 1, Duration: 1}}},
	},
	{
		ID: "watchtower", Name: "Watchtower", Category: CategoryStructure,
		Defense: 4, Health: 8, Energy: 3,
		Abilities: []AbilityRef{{Name: "barrier", Params: AbilityParams{Status: StatusShield, Amount: 3, Duration: 2, Target: "self"}}},
	},
	{
		ID: "fireball-scroll", Name: "Fireball Scroll", Category: CategoryActionSlow,
		Energy:    3,
		Abilities: []AbilityRef{{Name: "fireball", Params: AbilityParams{Amount: 4, School: SchoolFire}}},
	},
	{
		ID: "healing-draught", Name: "Healing Draught", Category: CategoryActionSlow,
		Energy:    2,
		Abilities: []AbilityRef{{Name: "mend", Params: AbilityParams{Amount: 4, Target: "self"}}},
	},
	{
		ID: "counterspark", Name: "Counterspark", Category: CategoryActionFast,
		Energy:    1,
		Abilities: []AbilityRef{{Name: "frost_lance", Params: AbilityParams{Amount: 2, School: SchoolFrost}}},
	},
	{
		ID: "venom-dart", Name: "Venom Dart", Category: CategoryActionFast,
		Energy:    2,
		Abilities: []AbilityRef{{Name: "venom", Params: AbilityParams{Status: StatusPoison, Amount: 1, Duration: 2}}},
	},
	{
		ID: "spike-snare", Name: "Spike Snare", Category: CategoryTrap,
		Energy:    2,
		Abilities: []AbilityRef{{Name: "strike", Params: AbilityParams{Amount: 3}}},
	},
	{
		ID: "runed-blade", Name: "Runed Blade", Category: CategoryEquipment,
		Attack: 2, Energy: 2,
		Abilities: []AbilityRef{{Name: "war_cry", Params: AbilityParams{Amount: 2, Stat: StatAttack, Target: "self"}}},
	},
	{
		ID: "sigil-of-growth", Name: "Sigil of Growth", Category: CategoryEnchantment,
		Energy:    2,
		ManaCost:  map[mana.Color]int{mana.Verdant: 1},
		Abilities: []AbilityRef{{Name: "surge", Params: AbilityParams{Amount: 2, Target: "self"}}},
	},
	{
		ID: "hero-pyra", Name: "Pyra, Flame Warden", Category: CategoryHero,
		Attack: 3, Defense: 3, Health: 10, Affinity: mana.Crimson,
		Abilities: []AbilityRef{{Name: "fireball", Params: AbilityParams{Amount: 3, School: SchoolFire}}},
	},
	{
		ID: "hero-maren", Name: "Maren of the Deep", Category: CategoryHero,
		Attack: 2, Defense: 4, Health: 12, Affinity: mana.Azure,
		Abilities: []AbilityRef{{Name: "mend", Params: AbilityParams{Amount: 3, Target: "self"}}},
	},
}

var defaultArenas = []ArenaDef{
	{
		Name: "molten-forge", DisplayName: "The Molten Forge",
		ManaColor: mana.Crimson, ManaPerTurn: 1,
		Passive: PassiveAmplifyFire, PassiveValue: 1,
		HeroAffinity: mana.Crimson, AffinityBonus: 1,
		SpecialRules: []SpecialRule{
			{Name: "eruption", Kind: RuleGlobalDamage, Magnitude: 1, PeriodTurns: 4, MaxUses: 3},
		},
		Objective: &Objective{Kind: ObjectiveFireDamage, Threshold: 20, RewardEnergy: 3},
	},
	{
		Name: "sunken-sanctum", DisplayName: "The Sunken Sanctum",
		ManaColor: mana.Azure, ManaPerTurn: 1,
		Passive: PassiveAmplifyFrost, PassiveValue: 1,
		HeroAffinity: mana.Azure, AffinityBonus: 1,
		SpecialRules: []SpecialRule{
			{Name: "tide-surge", Kind: RuleBonusMana, Magnitude: 1, PeriodTurns: 3, MaxUses: 4},
		},
		Objective: &Objective{Kind: ObjectiveFreezes, Threshold: 5, RewardEnergy: 3},
	},
	{
		Name: "verdant-hollow", DisplayName: "The Verdant Hollow",
		ManaColor: mana.Verdant, ManaPerTurn: 1,
		Passive: PassiveAmplifyHealing, PassiveValue: 1,
		HeroAffinity: mana.Verdant, AffinityBonus: 1,
		SpecialRules: []SpecialRule{
			{Name: "bloom", Kind: RuleGlobalHeal, Magnitude: 1, PeriodTurns: 3, MaxUses: 5},
		},
		Objective: &Objective{Kind: ObjectiveHealing, Threshold: 15, RewardEnergy: 2},
	},
}
