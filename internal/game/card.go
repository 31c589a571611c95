package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// Zone names a card zone. A card instance is in exactly one zone at a time.
type Zone string

const (
	ZoneHand        Zone = "hand"
	ZoneArsenal     Zone = "arsenal"
	ZoneEquipment   Zone = "equipment"
	ZoneBattlefield Zone = "battlefield"
	ZoneGraveyard   Zone = "graveyard"
)

// CardInstance is a card in play, embedded in exactly one zone.
type CardInstance struct {
	InstanceID string             `json:"instanceId"`
	CardID     string             `json:"cardId"`
	Name       string             `json:"name"`
	Category   catalog.Category   `json:"category"`
	Attack     int                `json:"attack"`
	Defense    int                `json:"defense"`
	Health     int                `json:"health"`
	Energy     int                `json:"energy"`
	ManaCost   map[mana.Color]int `json:"manaCost,omitempty"`
	Affinity   mana.Color         `json:"affinity,omitempty"`
	Abilities  []catalog.AbilityRef `json:"abilities,omitempty"`
}

// newCardInstance stamps a catalog card into a unique in-play instance.
func newCardInstance(def catalog.CardDef) *CardInstance {
	inst := &CardInstance{
		InstanceID: uuid.New().String(),
		CardID:     def.ID,
		Name:       def.Name,
		Category:   def.Category,
		Attack:     def.Attack,
		Defense:    def.Defense,
		Health:     def.Health,
		Energy:     def.Energy,
		Affinity:   def.Affinity,
		Abilities:  def.Abilities,
	}
	if len(def.ManaCost) > 0 {
		inst.ManaCost = make(map[mana.Color]int, len(def.ManaCost))
		for color, amount := range def.ManaCost {
			inst.ManaCost[color] = amount
		}
	}
	return inst
}

// terminalZone returns the zone a card moves to after a successful play.
func terminalZone(cat catalog.Category) Zone {
	switch cat {
	case catalog.CategoryCreature, catalog.CategoryStructure, catalog.CategoryEnchantment, catalog.CategoryHero:
		return ZoneBattlefield
	case catalog.CategoryEquipment:
		return ZoneEquipment
	default:
		// Actions and traps resolve and go to the graveyard.
		return ZoneGraveyard
	}
}

// StatusEffect is a timed modifier attached to a player.
type StatusEffect struct {
	Type      catalog.StatusType `json:"type"`
	Magnitude int                `json:"magnitude"`
	Remaining int                `json:"remaining"` // turns left; decremented at turn start
	SourceID  string             `json:"sourceId"`
	AppliedAt time.Time          `json:"appliedAt"`
}

// disabling reports whether the status blocks card play while active.
func (s StatusEffect) disabling() bool {
	return s.Type == catalog.StatusFreeze || s.Type == catalog.StatusStun
}

// damageOverTime returns the per-turn damage of the status, or zero.
func (s StatusEffect) damageOverTime() (int, catalog.DamageSchool) {
	switch s.Type {
	case catalog.StatusBurn:
		return s.Magnitude, catalog.SchoolFire
	case catalog.StatusPoison:
		return s.Magnitude, catalog.SchoolPhysical
	}
	return 0, ""
}
