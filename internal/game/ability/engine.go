// Package ability resolves named card abilities into typed effects. It has
// no knowledge of matches, timers, or networking; the game state applies the
// effects it produces.
package ability

import (
	"fmt"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// Side identifies which player an effect lands on, relative to the caster.
type Side string

const (
	SideSelf     Side = "self"
	SideOpponent Side = "opponent"
)

// EffectKind is the closed set of effect outputs.
type EffectKind string

const (
	EffectDamage  EffectKind = "damage"
	EffectHeal    EffectKind = "heal"
	EffectStatus  EffectKind = "status"
	EffectStat    EffectKind = "stat"
	EffectEnergy  EffectKind = "energy"
	EffectMana    EffectKind = "mana"
	EffectDraw    EffectKind = "draw"
	EffectCleanse EffectKind = "cleanse"
)

// Effect is one resolved consequence of an ability.
type Effect struct {
	Kind      EffectKind           `json:"kind"`
	Side      Side                 `json:"side"`
	Ability   string               `json:"ability"`
	Amount    int                  `json:"amount,omitempty"`
	School    catalog.DamageSchool `json:"school,omitempty"`
	Status    catalog.StatusType   `json:"status,omitempty"`
	Duration  int                  `json:"duration,omitempty"`
	Stat      catalog.Stat         `json:"stat,omitempty"`
	ManaColor mana.Color           `json:"manaColor,omitempty"`
}

// Modifiers are the arena-supplied adjustments applied during resolution.
type Modifiers struct {
	DamageBonus  map[catalog.DamageSchool]int
	HealingBonus int
}

// Resolve turns one ability reference into its effects, applying modifiers.
// The ability must already have passed catalog validation; unknown kinds are
// still rejected so a stale catalog cannot corrupt a running match.
func Resolve(def catalog.AbilityDef, params catalog.AbilityParams, mods Modifiers) ([]Effect, error) {
	switch def.Kind {
	case catalog.AbilityDamage:
		return []Effect{{
			Kind:    EffectDamage,
			Side:    sideOf(params, SideOpponent),
			Ability: def.Name,
			Amount:  params.Amount + mods.DamageBonus[schoolOf(params)],
			School:  schoolOf(params),
		}}, nil

	case catalog.AbilityHeal:
		return []Effect{{
			Kind:    EffectHeal,
			Side:    sideOf(params, SideSelf),
			Ability: def.Name,
			Amount:  params.Amount + mods.HealingBonus,
		}}, nil

	case catalog.AbilityDrain:
		// Damage the opponent, heal the caster for the same base amount.
		dealt := params.Amount + mods.DamageBonus[schoolOf(params)]
		return []Effect{
			{Kind: EffectDamage, Side: SideOpponent, Ability: def.Name, Amount: dealt, School: schoolOf(params)},
			{Kind: EffectHeal, Side: SideSelf, Ability: def.Name, Amount: params.Amount + mods.HealingBonus},
		}, nil

	case catalog.AbilityBuff:
		return []Effect{{
			Kind:    EffectStat,
			Side:    sideOf(params, SideSelf),
			Ability: def.Name,
			Amount:  params.Amount,
			Stat:    params.Stat,
		}}, nil

	case catalog.AbilityDebuff:
		return []Effect{{
			Kind:    EffectStat,
			Side:    sideOf(params, SideOpponent),
			Ability: def.Name,
			Amount:  -params.Amount,
			Stat:    params.Stat,
		}}, nil

	case catalog.AbilityApplyStatus:
		side := SideOpponent
		if beneficial(params.Status) {
			side = SideSelf
		}
		return []Effect{{
			Kind:     EffectStatus,
			Side:     sideOf(params, side),
			Ability:  def.Name,
			Amount:   params.Amount,
			Status:   params.Status,
			Duration: params.Duration,
		}}, nil

	case catalog.AbilityEnergyGain:
		return []Effect{{
			Kind:    EffectEnergy,
			Side:    sideOf(params, SideSelf),
			Ability: def.Name,
			Amount:  params.Amount,
		}}, nil

	case catalog.AbilityManaGain:
		return []Effect{{
			Kind:      EffectMana,
			Side:      sideOf(params, SideSelf),
			Ability:   def.Name,
			Amount:    params.Amount,
			ManaColor: params.Color,
		}}, nil

	case catalog.AbilityDraw:
		return []Effect{{
			Kind:    EffectDraw,
			Side:    sideOf(params, SideSelf),
			Ability: def.Name,
			Amount:  params.Amount,
		}}, nil

	case catalog.AbilityCleanse:
		return []Effect{{
			Kind:    EffectCleanse,
			Side:    sideOf(params, SideSelf),
			Ability: def.Name,
		}}, nil
	}

	return nil, fmt.Errorf("unknown ability kind %q", def.Kind)
}

func sideOf(params catalog.AbilityParams, fallback Side) Side {
	switch params.Target {
	case string(SideSelf):
		return SideSelf
	case string(SideOpponent):
		return SideOpponent
	}
	return fallback
}

func schoolOf(params catalog.AbilityParams) catalog.DamageSchool {
	if params.School == "" {
		return catalog.SchoolPhysical
	}
	return params.School
}

func beneficial(status catalog.StatusType) bool {
	switch status {
	case catalog.StatusShield, catalog.StatusAttackUp, catalog.StatusDefenseUp:
		return true
	}
	return false
}
