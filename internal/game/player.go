package game

import (
	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// PlayerState holds one player's side of a match. It is mutated only by
// GameState operations executed on behalf of that player's team.
type PlayerState struct {
	PlayerID  string
	ConsoleID string
	Team      int

	Health int
	Energy int
	Mana   *mana.Pool
	Hero   *CardInstance

	Hand        []*CardInstance
	Arsenal     []*CardInstance
	Equipment   []*CardInstance
	Battlefield []*CardInstance
	Graveyard   []*CardInstance

	Statuses []StatusEffect

	// Aggregate stat modifiers from buffs/debuffs.
	AttackMod  int
	DefenseMod int
}

// zone returns the slice backing the named zone.
func (p *PlayerState) zone(z Zone) *[]*CardInstance {
	switch z {
	case ZoneHand:
		return &p.Hand
	case ZoneArsenal:
		return &p.Arsenal
	case ZoneEquipment:
		return &p.Equipment
	case ZoneBattlefield:
		return &p.Battlefield
	case ZoneGraveyard:
		return &p.Graveyard
	}
	return nil
}

// findPlayable locates a card in hand or arsenal by instance id or card id.
func (p *PlayerState) findPlayable(cardID string) (*CardInstance, Zone) {
	for _, zone := range []Zone{ZoneHand, ZoneArsenal} {
		for _, card := range *p.zone(zone) {
			if card.InstanceID == cardID || card.CardID == cardID {
				return card, zone
			}
		}
	}
	return nil, ""
}

// moveCard removes the instance from its zone and appends it to the target
// zone. Zone membership stays exclusive.
func (p *PlayerState) moveCard(card *CardInstance, from, to Zone) {
	src := p.zone(from)
	for i, c := range *src {
		if c.InstanceID == card.InstanceID {
			*src = append((*src)[:i], (*src)[i+1:]...)
			break
		}
	}
	dst := p.zone(to)
	*dst = append(*dst, card)
}

// drawCards moves up to n cards from the top of the arsenal into the hand
// and returns how many were actually drawn.
func (p *PlayerState) drawCards(n int) int {
	drawn := 0
	for i := 0; i < n && len(p.Arsenal) > 0; i++ {
		card := p.Arsenal[0]
		p.Arsenal = p.Arsenal[1:]
		p.Hand = append(p.Hand, card)
		drawn++
	}
	return drawn
}

// disabled reports whether an active status blocks card play.
func (p *PlayerState) disabled() bool {
	for _, s := range p.Statuses {
		if s.disabling() {
			return true
		}
	}
	return false
}

// shieldAbsorb consumes shield magnitude against incoming damage and returns
// the damage left over.
func (p *PlayerState) shieldAbsorb(amount int) int {
	for i := range p.Statuses {
		if p.Statuses[i].Type != catalog.StatusShield {
			continue
		}
		if p.Statuses[i].Magnitude >= amount {
			p.Statuses[i].Magnitude -= amount
			amount = 0
		} else {
			amount -= p.Statuses[i].Magnitude
			p.Statuses[i].Magnitude = 0
		}
		if amount == 0 {
			break
		}
	}
	// Drop spent shields.
	kept := p.Statuses[:0]
	for _, s := range p.Statuses {
		if s.Type == catalog.StatusShield && s.Magnitude <= 0 {
			continue
		}
		kept = append(kept, s)
	}
	p.Statuses = kept
	return amount
}

// applyStatus attaches a status effect following the stacking rules:
// damage-over-time effects stack, shields accumulate, other effects of the
// same type are replaced.
func (p *PlayerState) applyStatus(effect StatusEffect) {
	switch effect.Type {
	case catalog.StatusBurn, catalog.StatusPoison:
		p.Statuses = append(p.Statuses, effect)
	case catalog.StatusShield:
		for i := range p.Statuses {
			if p.Statuses[i].Type == catalog.StatusShield {
				p.Statuses[i].Magnitude += effect.Magnitude
				if effect.Remaining > p.Statuses[i].Remaining {
					p.Statuses[i].Remaining = effect.Remaining
				}
				return
			}
		}
		p.Statuses = append(p.Statuses, effect)
	default:
		for i := range p.Statuses {
			if p.Statuses[i].Type == effect.Type {
				p.Statuses[i] = effect
				return
			}
		}
		p.Statuses = append(p.Statuses, effect)
	}
}

// statMod sums the active timed stat statuses for one stat.
func (p *PlayerState) statMod(stat catalog.Stat) int {
	mod := 0
	for _, s := range p.Statuses {
		switch {
		case stat == catalog.StatAttack && s.Type == catalog.StatusAttackUp:
			mod += s.Magnitude
		case stat == catalog.StatAttack && s.Type == catalog.StatusAttackDown:
			mod -= s.Magnitude
		case stat == catalog.StatDefense && s.Type == catalog.StatusDefenseUp:
			mod += s.Magnitude
		case stat == catalog.StatDefense && s.Type == catalog.StatusDefenseDown:
			mod -= s.Magnitude
		}
	}
	return mod
}

// cleanse removes all hostile statuses.
func (p *PlayerState) cleanse() int {
	kept := p.Statuses[:0]
	removed := 0
	for _, s := range p.Statuses {
		switch s.Type {
		case catalog.StatusShield, catalog.StatusAttackUp, catalog.StatusDefenseUp:
			kept = append(kept, s)
		default:
			removed++
		}
	}
	p.Statuses = kept
	return removed
}
