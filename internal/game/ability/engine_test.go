package ability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

func TestResolveDamageDefaultsToOpponent(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "fireball", Kind: catalog.AbilityDamage},
		catalog.AbilityParams{Amount: 4, School: catalog.SchoolFire},
		Modifiers{},
	)
	require.NoError(t, err)
	require.Len(t, effects, 1)

	assert.Equal(t, EffectDamage, effects[0].Kind)
	assert.Equal(t, SideOpponent, effects[0].Side)
	assert.Equal(t, 4, effects[0].Amount)
	assert.Equal(t, catalog.SchoolFire, effects[0].School)
}

func TestResolveDamageAppliesSchoolBonus(t *testing.T) {
	mods := Modifiers{DamageBonus: map[catalog.DamageSchool]int{catalog.SchoolFire: 1}}

	effects, err := Resolve(
		catalog.AbilityDef{Name: "fireball", Kind: catalog.AbilityDamage},
		catalog.AbilityParams{Amount: 4, School: catalog.SchoolFire},
		mods,
	)
	require.NoError(t, err)
	assert.Equal(t, 5, effects[0].Amount)

	// Bonus is school-scoped: frost damage is unaffected.
	effects, err = Resolve(
		catalog.AbilityDef{Name: "frost_lance", Kind: catalog.AbilityDamage},
		catalog.AbilityParams{Amount: 2, School: catalog.SchoolFrost},
		mods,
	)
	require.NoError(t, err)
	assert.Equal(t, 2, effects[0].Amount)
}

func TestResolveUnschooledDamageIsPhysical(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "strike", Kind: catalog.AbilityDamage},
		catalog.AbilityParams{Amount: 3},
		Modifiers{},
	)
	require.NoError(t, err)
	assert.Equal(t, catalog.SchoolPhysical, effects[0].School)
}

func TestResolveHealTargetsSelfWithBonus(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "mend", Kind: catalog.AbilityHeal},
		catalog.AbilityParams{Amount: 4, Target: "self"},
		Modifiers{HealingBonus: 1},
	)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectHeal, effects[0].Kind)
	assert.Equal(t, SideSelf, effects[0].Side)
	assert.Equal(t, 5, effects[0].Amount)
}

func TestResolveDrainProducesDamageAndHeal(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "siphon", Kind: catalog.AbilityDrain},
		catalog.AbilityParams{Amount: 3},
		Modifiers{},
	)
	require.NoError(t, err)
	require.Len(t, effects, 2)

	assert.Equal(t, EffectDamage, effects[0].Kind)
	assert.Equal(t, SideOpponent, effects[0].Side)
	assert.Equal(t, 3, effects[0].Amount)

	assert.Equal(t, EffectHeal, effects[1].Kind)
	assert.Equal(t, SideSelf, effects[1].Side)
	assert.Equal(t, 3, effects[1].Amount)
}

func TestResolveDebuffIsNegativeStatOnOpponent(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "hex", Kind: catalog.AbilityDebuff},
		catalog.AbilityParams{Amount: 2, Stat: catalog.StatAttack},
		Modifiers{},
	)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectStat, effects[0].Kind)
	assert.Equal(t, SideOpponent, effects[0].Side)
	assert.Equal(t, -2, effects[0].Amount)
}

func TestResolveStatusSideDependsOnStatus(t *testing.T) {
	// Hostile statuses land on the opponent.
	effects, err := Resolve(
		catalog.AbilityDef{Name: "ignite", Kind: catalog.AbilityApplyStatus},
		catalog.AbilityParams{Status: catalog.StatusBurn, Amount: 2, Duration: 3},
		Modifiers{},
	)
	require.NoError(t, err)
	assert.Equal(t, SideOpponent, effects[0].Side)
	assert.Equal(t, 3, effects[0].Duration)

	// Beneficial statuses land on the caster.
	effects, err = Resolve(
		catalog.AbilityDef{Name: "barrier", Kind: catalog.AbilityApplyStatus},
		catalog.AbilityParams{Status: catalog.StatusShield, Amount: 3, Duration: 2},
		Modifiers{},
	)
	require.NoError(t, err)
	assert.Equal(t, SideSelf, effects[0].Side)
}

func TestResolveManaGain(t *testing.T) {
	effects, err := Resolve(
		catalog.AbilityDef{Name: "attune", Kind: catalog.AbilityManaGain},
		catalog.AbilityParams{Amount: 2, Color: mana.Verdant},
		Modifiers{},
	)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectMana, effects[0].Kind)
	assert.Equal(t, mana.Verdant, effects[0].ManaColor)
	assert.Equal(t, 2, effects[0].Amount)
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	_, err := Resolve(catalog.AbilityDef{Name: "warp", Kind: catalog.AbilityKind("warp")}, catalog.AbilityParams{}, Modifiers{})
	require.Error(t, err)
}
