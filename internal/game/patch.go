package game

import (
	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/ability"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/arena"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// WindowView is the client-facing play window state.
type WindowView struct {
	Open        bool               `json:"open"`
	Categories  []catalog.Category `json:"categories,omitempty"`
	RemainingMs int                `json:"remainingMs"`
}

// CardView is the client-facing shape of a card instance.
type CardView struct {
	InstanceID string           `json:"instanceId"`
	CardID     string           `json:"cardId"`
	Name       string           `json:"name"`
	Category   catalog.Category `json:"category"`
	Attack     int              `json:"attack"`
	Defense    int              `json:"defense"`
	Health     int              `json:"health"`
}

// PlayerView is the client-facing shape of one player's state.
type PlayerView struct {
	PlayerID    string             `json:"playerId"`
	Team        int                `json:"team"`
	Health      int                `json:"health"`
	Energy      int                `json:"energy"`
	Mana        map[mana.Color]int `json:"mana,omitempty"`
	AttackMod   int                `json:"attackMod"`
	DefenseMod  int                `json:"defenseMod"`
	HandCount   int                `json:"handCount"`
	ArsenalSize int                `json:"arsenalSize"`
	Hero        *CardView          `json:"hero,omitempty"`
	Battlefield []CardView         `json:"battlefield,omitempty"`
	Equipment   []CardView         `json:"equipment,omitempty"`
	Statuses    []StatusEffect     `json:"statuses,omitempty"`
}

// AppliedEffect records one effect after it landed on a concrete team.
type AppliedEffect struct {
	Team    int                `json:"team"`
	Kind    ability.EffectKind `json:"kind"`
	Ability string             `json:"ability,omitempty"`
	Amount  int                `json:"amount,omitempty"`
	Status  catalog.StatusType `json:"status,omitempty"`
	Detail  string             `json:"detail,omitempty"`
}

// Patch is the structured description of everything one operation changed.
// Every patch carries the match's strictly increasing sequence number so
// clients can detect gaps and request a resync.
type Patch struct {
	Seq           uint64                 `json:"seq"`
	Reason        string                 `json:"reason"`
	Turn          int                    `json:"turn"`
	Phase         string                 `json:"phase"`
	CurrentPlayer int                    `json:"currentPlayer"`
	Window        WindowView             `json:"playWindow"`
	Players       map[int]*PlayerView    `json:"players,omitempty"`
	Effects       []AppliedEffect        `json:"effects,omitempty"`
	ArenaTriggers []arena.RuleTrigger    `json:"arenaTriggers,omitempty"`
	Objective     *arena.ObjectiveResult `json:"objective,omitempty"`
	Stats         arena.MatchStats       `json:"stats"`
	PlayedCard    *CardView              `json:"playedCard,omitempty"`
}

func cardView(c *CardInstance) *CardView {
	if c == nil {
		return nil
	}
	return &CardView{
		InstanceID: c.InstanceID,
		CardID:     c.CardID,
		Name:       c.Name,
		Category:   c.Category,
		Attack:     c.Attack,
		Defense:    c.Defense,
		Health:     c.Health,
	}
}

func cardViews(cards []*CardInstance) []CardView {
	if len(cards) == 0 {
		return nil
	}
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, *cardView(c))
	}
	return views
}

func playerView(p *PlayerState) *PlayerView {
	statuses := make([]StatusEffect, len(p.Statuses))
	copy(statuses, p.Statuses)
	return &PlayerView{
		PlayerID:    p.PlayerID,
		Team:        p.Team,
		Health:      p.Health,
		Energy:      p.Energy,
		Mana:        p.Mana.Snapshot(),
		AttackMod:   p.AttackMod + p.statMod(catalog.StatAttack),
		DefenseMod:  p.DefenseMod + p.statMod(catalog.StatDefense),
		HandCount:   len(p.Hand),
		ArsenalSize: len(p.Arsenal),
		Hero:        cardView(p.Hero),
		Battlefield: cardViews(p.Battlefield),
		Equipment:   cardViews(p.Equipment),
		Statuses:    statuses,
	}
}
