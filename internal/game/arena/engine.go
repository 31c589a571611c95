// Package arena applies match-wide arena modifiers: passive bonuses, per-turn
// mana generation, hero affinity bonuses, periodic special rules, and
// objective checks. It has no knowledge of matches or networking.
package arena

import (
	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/ability"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// MatchStats are the cumulative match statistics arena objectives watch.
type MatchStats struct {
	FireDamage  int `json:"fireDamage"`
	Healing     int `json:"healing"`
	Freezes     int `json:"freezes"`
	CardsPlayed int `json:"cardsPlayed"`
}

// State is the mutable per-match arena state, initialized once from a static
// catalog entry and advanced each turn.
type State struct {
	Def           catalog.ArenaDef
	Turn          int
	RuleUses      map[string]int
	ObjectiveDone bool
}

// NewState initializes arena state from a catalog entry.
func NewState(def catalog.ArenaDef) *State {
	return &State{
		Def:      def,
		RuleUses: make(map[string]int),
	}
}

// Modifiers returns the ability-resolution modifiers this arena grants.
func (s *State) Modifiers() ability.Modifiers {
	mods := ability.Modifiers{DamageBonus: make(map[catalog.DamageSchool]int)}
	switch s.Def.Passive {
	case catalog.PassiveAmplifyFire:
		mods.DamageBonus[catalog.SchoolFire] = s.Def.PassiveValue
	case catalog.PassiveAmplifyFrost:
		mods.DamageBonus[catalog.SchoolFrost] = s.Def.PassiveValue
	case catalog.PassiveAmplifyHealing:
		mods.HealingBonus = s.Def.PassiveValue
	}
	return mods
}

// EnergyBonus returns extra turn-start energy granted to the current player,
// including the hero affinity bonus when the hero matches the arena.
func (s *State) EnergyBonus(heroAffinity mana.Color) int {
	bonus := 0
	if s.Def.Passive == catalog.PassiveBonusEnergy {
		bonus += s.Def.PassiveValue
	}
	if heroAffinity != "" && heroAffinity == s.Def.HeroAffinity {
		bonus += s.Def.AffinityBonus
	}
	return bonus
}

// RuleTrigger is a special rule that fired this turn.
type RuleTrigger struct {
	Rule      catalog.SpecialRule `json:"rule"`
	UsesSpent int                 `json:"usesSpent"`
}

// TurnEffects is everything the arena contributes at the start of a turn.
type TurnEffects struct {
	ManaColor  mana.Color    `json:"manaColor"`
	ManaAmount int           `json:"manaAmount"`
	Triggers   []RuleTrigger `json:"triggers,omitempty"`
}

// TurnStart advances the arena's turn counter and returns the turn's mana
// generation plus any special rules whose period divides the turn and whose
// use limit is not exhausted.
func (s *State) TurnStart(turn int) TurnEffects {
	s.Turn = turn

	effects := TurnEffects{
		ManaColor:  s.Def.ManaColor,
		ManaAmount: s.Def.ManaPerTurn,
	}

	for _, rule := range s.Def.SpecialRules {
		if turn%rule.PeriodTurns != 0 {
			continue
		}
		if rule.MaxUses > 0 && s.RuleUses[rule.Name] >= rule.MaxUses {
			continue
		}
		s.RuleUses[rule.Name]++
		effects.Triggers = append(effects.Triggers, RuleTrigger{
			Rule:      rule,
			UsesSpent: s.RuleUses[rule.Name],
		})
	}

	return effects
}

// ObjectiveResult reports a completed arena objective.
type ObjectiveResult struct {
	Kind         catalog.ObjectiveKind `json:"kind"`
	Threshold    int                   `json:"threshold"`
	RewardEnergy int                   `json:"rewardEnergy"`
}

// CheckObjective returns the objective result the first time the watched
// statistic crosses its threshold, and nil on every later call.
func (s *State) CheckObjective(stats MatchStats) *ObjectiveResult {
	obj := s.Def.Objective
	if obj == nil || s.ObjectiveDone {
		return nil
	}

	var progress int
	switch obj.Kind {
	case catalog.ObjectiveFireDamage:
		progress = stats.FireDamage
	case catalog.ObjectiveHealing:
		progress = stats.Healing
	case catalog.ObjectiveFreezes:
		progress = stats.Freezes
	case catalog.ObjectiveCardsPlayed:
		progress = stats.CardsPlayed
	default:
		return nil
	}

	if progress < obj.Threshold {
		return nil
	}

	s.ObjectiveDone = true
	return &ObjectiveResult{
		Kind:         obj.Kind,
		Threshold:    obj.Threshold,
		RewardEnergy: obj.RewardEnergy,
	}
}

// Progress returns the watched statistic's current value and threshold, for
// state views. Returns false when the arena has no objective.
func (s *State) Progress(stats MatchStats) (current, threshold int, ok bool) {
	obj := s.Def.Objective
	if obj == nil {
		return 0, 0, false
	}
	switch obj.Kind {
	case catalog.ObjectiveFireDamage:
		current = stats.FireDamage
	case catalog.ObjectiveHealing:
		current = stats.Healing
	case catalog.ObjectiveFreezes:
		current = stats.Freezes
	case catalog.ObjectiveCardsPlayed:
		current = stats.CardsPlayed
	}
	return current, obj.Threshold, true
}
