package catalog

import (
	"fmt"
	"strings"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// AbilityKind is the closed set of effects an ability can produce.
type AbilityKind string

const (
	AbilityDamage      AbilityKind = "damage"
	AbilityHeal        AbilityKind = "heal"
	AbilityBuff        AbilityKind = "buff"
	AbilityDebuff      AbilityKind = "debuff"
	AbilityApplyStatus AbilityKind = "apply_status"
	AbilityDrain       AbilityKind = "drain"
	AbilityEnergyGain  AbilityKind = "energy_gain"
	AbilityManaGain    AbilityKind = "mana_gain"
	AbilityDraw        AbilityKind = "draw"
	AbilityCleanse     AbilityKind = "cleanse"
)

// DamageSchool classifies damage for arena modifiers and match statistics.
type DamageSchool string

const (
	SchoolPhysical DamageSchool = "physical"
	SchoolFire     DamageSchool = "fire"
	SchoolFrost    DamageSchool = "frost"
	SchoolArcane   DamageSchool = "arcane"
)

// StatusType is the closed set of timed status effects.
type StatusType string

const (
	StatusBurn        StatusType = "burn"
	StatusPoison      StatusType = "poison"
	StatusFreeze      StatusType = "freeze"
	StatusStun        StatusType = "stun"
	StatusShield      StatusType = "shield"
	StatusAttackUp    StatusType = "attack_up"
	StatusAttackDown  StatusType = "attack_down"
	StatusDefenseUp   StatusType = "defense_up"
	StatusDefenseDown StatusType = "defense_down"
)

// Stat names a buffable/debuffable combat stat.
type Stat string

const (
	StatAttack  Stat = "attack"
	StatDefense Stat = "defense"
)

// Category is a card's play category. The category decides both when a card
// may be played and which zone it ends up in.
type Category string

const (
	CategoryCreature    Category = "creature"
	CategoryStructure   Category = "structure"
	CategoryActionFast  Category = "action_fast"
	CategoryActionSlow  Category = "action_slow"
	CategoryEquipment   Category = "equipment"
	CategoryEnchantment Category = "enchantment"
	CategoryHero        Category = "hero"
	CategoryTrap        Category = "trap"
)

// AbilityParams carries the typed parameters of one ability reference.
// Which fields are meaningful depends on the ability kind; ValidateAbility
// enforces that at load time.
type AbilityParams struct {
	Amount   int          `json:"amount,omitempty"`
	School   DamageSchool `json:"school,omitempty"`
	Status   StatusType   `json:"status,omitempty"`
	Duration int          `json:"duration,omitempty"`
	Stat     Stat         `json:"stat,omitempty"`
	Color    mana.Color   `json:"color,omitempty"`
	Target   string       `json:"target,omitempty"` // "self" or "opponent"; default opponent for hostile kinds
}

// AbilityRef is an ability as carried on a card: a catalog name plus the
// card's own parameters.
type AbilityRef struct {
	Name   string        `json:"name"`
	Params AbilityParams `json:"params"`
}

// AbilityDef registers an ability name against its kind.
type AbilityDef struct {
	Name string
	Kind AbilityKind
}

// CardDef is a static card catalog entry.
type CardDef struct {
	ID        string
	Name      string
	Category  Category
	Attack    int
	Defense   int
	Health    int
	Energy    int // energy cost to play
	ManaCost  map[mana.Color]int
	Abilities []AbilityRef
	Affinity  mana.Color // hero affinity; only meaningful for heroes
}

// SpecialRuleKind is the closed set of periodic arena rules.
type SpecialRuleKind string

const (
	RuleGlobalDamage SpecialRuleKind = "global_damage"
	RuleGlobalHeal   SpecialRuleKind = "global_heal"
	RuleBonusMana    SpecialRuleKind = "bonus_mana"
)

// SpecialRule fires every PeriodTurns turns, at most MaxUses times per match.
type SpecialRule struct {
	Name        string
	Kind        SpecialRuleKind
	Magnitude   int
	PeriodTurns int
	MaxUses     int
}

// PassiveKind is the closed set of always-on arena modifiers.
type PassiveKind string

const (
	PassiveAmplifyFire    PassiveKind = "amplify_fire"
	PassiveAmplifyFrost   PassiveKind = "amplify_frost"
	PassiveAmplifyHealing PassiveKind = "amplify_healing"
	PassiveBonusEnergy    PassiveKind = "bonus_energy"
	PassiveNone           PassiveKind = "none"
)

// ObjectiveKind names the match statistic an arena objective watches.
type ObjectiveKind string

const (
	ObjectiveFireDamage  ObjectiveKind = "fire_damage"
	ObjectiveHealing     ObjectiveKind = "healing"
	ObjectiveFreezes     ObjectiveKind = "freezes"
	ObjectiveCardsPlayed ObjectiveKind = "cards_played"
)

// Objective is a one-shot arena goal rewarded with bonus energy for the
// player who crosses the threshold.
type Objective struct {
	Kind         ObjectiveKind
	Threshold    int
	RewardEnergy int
}

// ArenaDef is a static arena catalog entry.
type ArenaDef struct {
	Name          string
	DisplayName   string
	ManaColor     mana.Color
	ManaPerTurn   int
	Passive       PassiveKind
	PassiveValue  int
	HeroAffinity  mana.Color // heroes of this affinity gain bonus energy
	AffinityBonus int
	SpecialRules  []SpecialRule
	Objective     *Objective
}

// Catalog is the validated, read-only lookup set the engine runs against.
type Catalog struct {
	abilities map[string]AbilityDef
	cards     map[string]CardDef
	arenas    map[string]ArenaDef
	arenaList []string
}

// New builds a catalog from raw definitions, validating every entry.
// Malformed catalogs are a startup failure, never an execution-time one.
func New(abilities []AbilityDef, cards []CardDef, arenas []ArenaDef) (*Catalog, error) {
	c := &Catalog{
		abilities: make(map[string]AbilityDef, len(abilities)),
		cards:     make(map[string]CardDef, len(cards)),
		arenas:    make(map[string]ArenaDef, len(arenas)),
	}

	for _, def := range abilities {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("ability with empty name")
		}
		if _, dup := c.abilities[name]; dup {
			return nil, fmt.Errorf("duplicate ability %q", name)
		}
		if !validAbilityKind(def.Kind) {
			return nil, fmt.Errorf("ability %q: unknown kind %q", name, def.Kind)
		}
		c.abilities[name] = def
	}

	for _, card := range cards {
		if card.ID == "" {
			return nil, fmt.Errorf("card with empty id")
		}
		if _, dup := c.cards[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card %q", card.ID)
		}
		if !validCategory(card.Category) {
			return nil, fmt.Errorf("card %q: unknown category %q", card.ID, card.Category)
		}
		if card.Energy < 0 {
			return nil, fmt.Errorf("card %q: negative energy cost", card.ID)
		}
		for _, ref := range card.Abilities {
			def, ok := c.abilities[ref.Name]
			if !ok {
				return nil, fmt.Errorf("card %q: unknown ability %q", card.ID, ref.Name)
			}
			if err := ValidateAbility(def.Kind, ref.Params); err != nil {
				return nil, fmt.Errorf("card %q: ability %q: %w", card.ID, ref.Name, err)
			}
		}
		c.cards[card.ID] = card
	}

	for _, arena := range arenas {
		if arena.Name == "" {
			return nil, fmt.Errorf("arena with empty name")
		}
		if _, dup := c.arenas[arena.Name]; dup {
			return nil, fmt.Errorf("duplicate arena %q", arena.Name)
		}
		if !mana.Valid(arena.ManaColor) {
			return nil, fmt.Errorf("arena %q: unknown mana color %q", arena.Name, arena.ManaColor)
		}
		for _, rule := range arena.SpecialRules {
			if rule.PeriodTurns <= 0 {
				return nil, fmt.Errorf("arena %q: rule %q: period must be positive", arena.Name, rule.Name)
			}
			if rule.Kind != RuleGlobalDamage && rule.Kind != RuleGlobalHeal && rule.Kind != RuleBonusMana {
				return nil, fmt.Errorf("arena %q: rule %q: unknown kind %q", arena.Name, rule.Name, rule.Kind)
			}
		}
		if obj := arena.Objective; obj != nil && obj.Threshold <= 0 {
			return nil, fmt.Errorf("arena %q: objective threshold must be positive", arena.Name)
		}
		c.arenas[arena.Name] = arena
		c.arenaList = append(c.arenaList, arena.Name)
	}

	return c, nil
}

// ValidateAbility checks that params are well formed for the given kind.
func ValidateAbility(kind AbilityKind, p AbilityParams) error {
	switch kind {
	case AbilityDamage, AbilityDrain:
		if p.Amount <= 0 {
			return fmt.Errorf("amount must be positive")
		}
		if p.School != "" && !validSchool(p.School) {
			return fmt.Errorf("unknown damage school %q", p.School)
		}
	case AbilityHeal, AbilityEnergyGain, AbilityDraw:
		if p.Amount <= 0 {
			return fmt.Errorf("amount must be positive")
		}
	case AbilityBuff, AbilityDebuff:
		if p.Amount <= 0 {
			return fmt.Errorf("amount must be positive")
		}
		if p.Stat != StatAttack && p.Stat != StatDefense {
			return fmt.Errorf("unknown stat %q", p.Stat)
		}
	case AbilityApplyStatus:
		if !validStatus(p.Status) {
			return fmt.Errorf("unknown status %q", p.Status)
		}
		if p.Duration <= 0 {
			return fmt.Errorf("duration must be positive")
		}
	case AbilityManaGain:
		if p.Amount <= 0 {
			return fmt.Errorf("amount must be positive")
		}
		if !mana.Valid(p.Color) {
			return fmt.Errorf("unknown mana color %q", p.Color)
		}
	case AbilityCleanse:
		// no parameters required
	default:
		return fmt.Errorf("unknown ability kind %q", kind)
	}
	return nil
}

// Ability returns the ability definition for a name.
func (c *Catalog) Ability(name string) (AbilityDef, bool) {
	def, ok := c.abilities[name]
	return def, ok
}

// Abilities returns all ability definitions.
func (c *Catalog) Abilities() []AbilityDef {
	abilities := make([]AbilityDef, 0, len(c.abilities))
	for _, def := range c.abilities {
		abilities = append(abilities, def)
	}
	return abilities
}

// Card returns the card definition for an id.
func (c *Catalog) Card(id string) (CardDef, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Cards returns all card definitions.
func (c *Catalog) Cards() []CardDef {
	cards := make([]CardDef, 0, len(c.cards))
	for _, card := range c.cards {
		cards = append(cards, card)
	}
	return cards
}

// Arena returns the arena definition for a name.
func (c *Catalog) Arena(name string) (ArenaDef, bool) {
	arena, ok := c.arenas[name]
	return arena, ok
}

// ArenaNames returns arena names in registration order.
func (c *Catalog) ArenaNames() []string {
	names := make([]string, len(c.arenaList))
	copy(names, c.arenaList)
	return names
}

func validAbilityKind(k AbilityKind) bool {
	switch k {
	case AbilityDamage, AbilityHeal, AbilityBuff, AbilityDebuff, AbilityApplyStatus,
		AbilityDrain, AbilityEnergyGain, AbilityManaGain, AbilityDraw, AbilityCleanse:
		return true
	}
	return false
}

func validCategory(cat Category) bool {
	switch cat {
	case CategoryCreature, CategoryStructure, CategoryActionFast, CategoryActionSlow,
		CategoryEquipment, CategoryEnchantment, CategoryHero, CategoryTrap:
		return true
	}
	return false
}

func validSchool(s DamageSchool) bool {
	switch s {
	case SchoolPhysical, SchoolFire, SchoolFrost, SchoolArcane:
		return true
	}
	return false
}

func validStatus(s StatusType) bool {
	switch s {
	case StatusBurn, StatusPoison, StatusFreeze, StatusStun, StatusShield,
		StatusAttackUp, StatusAttackDown, StatusDefenseUp, StatusDefenseDown:
		return true
	}
	return false
}
