package game

import (
	"fmt"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
)

// Phase represents one of the four fixed segments composing a turn.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseMain
	PhaseAttack
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseStart:  "start",
	PhaseMain:   "main",
	PhaseAttack: "attack",
	PhaseEnd:    "end",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase_%d", int(p))
}

// phaseSequence is the fixed cyclic phase order within a turn.
var phaseSequence = []Phase{PhaseStart, PhaseMain, PhaseAttack, PhaseEnd}

// nextPhase returns the phase following p and whether the turn wrapped.
func nextPhase(p Phase) (Phase, bool) {
	for i, phase := range phaseSequence {
		if phase == p {
			if i == len(phaseSequence)-1 {
				return phaseSequence[0], true
			}
			return phaseSequence[i+1], false
		}
	}
	return PhaseStart, true
}

// windowCategories is the fixed table of card categories playable per phase.
// Phases absent from the table open no play window.
var windowCategories = map[Phase][]catalog.Category{
	PhaseMain: {
		catalog.CategoryCreature,
		catalog.CategoryStructure,
		catalog.CategoryActionSlow,
		catalog.CategoryEquipment,
		catalog.CategoryEnchantment,
	},
	PhaseAttack: {
		catalog.CategoryActionFast,
		catalog.CategoryTrap,
	},
}

// Rules are the per-match rule constants.
type Rules struct {
	PhaseDurationMs map[Phase]int
	MaxTurns        int
	StartingHealth  int
	StartingHand    int
	EnergyPerTurn   int
	MaxEnergy       int
	HistoryLimit    int
}

// DefaultRules returns the standard rule constants.
func DefaultRules() Rules {
	return Rules{
		PhaseDurationMs: map[Phase]int{
			PhaseStart:  10_000,
			PhaseMain:   40_000,
			PhaseAttack: 15_000,
			PhaseEnd:    5_000,
		},
		MaxTurns:       20,
		StartingHealth: 20,
		StartingHand:   5,
		EnergyPerTurn:  3,
		MaxEnergy:      10,
		HistoryLimit:   50,
	}
}
