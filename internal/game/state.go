// Package game owns the authoritative per-match state: players, zones,
// phases, timers, statuses, and history. One GameState exists per active
// match; all mutations are serialized by the owning match runtime, so the
// state itself carries no lock.
package game

import (
	"math/rand"
	"sort"
	"time"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/ability"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/arena"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game/mana"
)

// PlayWindow is the time-boxed interval during which cards of certain
// categories may be played.
type PlayWindow struct {
	Open        bool
	Categories  map[catalog.Category]bool
	RemainingMs int
}

func (w PlayWindow) view() WindowView {
	v := WindowView{Open: w.Open, RemainingMs: w.RemainingMs}
	if w.Open {
		for _, cat := range []catalog.Category{
			catalog.CategoryCreature, catalog.CategoryStructure, catalog.CategoryActionSlow,
			catalog.CategoryEquipment, catalog.CategoryEnchantment, catalog.CategoryActionFast,
			catalog.CategoryTrap, catalog.CategoryHero,
		} {
			if w.Categories[cat] {
				v.Categories = append(v.Categories, cat)
			}
		}
	}
	return v
}

// HistoryEntry is one action in the bounded match history.
type HistoryEntry struct {
	Seq    uint64    `json:"seq"`
	Turn   int       `json:"turn"`
	Phase  string    `json:"phase"`
	Team   int       `json:"team"`
	Action string    `json:"action"`
	CardID string    `json:"cardId,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// WinCondition names why a match ended.
type WinCondition string

const (
	WinByHealth    WinCondition = "health"
	WinByTurnLimit WinCondition = "turn_limit"
	WinByConcede   WinCondition = "concede"
)

// WinResult describes a finished match. WinnerTeam is -1 for a draw.
type WinResult struct {
	WinnerTeam int          `json:"winnerTeam"`
	Condition  WinCondition `json:"condition"`
}

// PlayerSetup seeds one participant into a new GameState.
type PlayerSetup struct {
	PlayerID  string
	ConsoleID string
	Team      int
	HeroID    string // optional; defaults to a catalog hero
}

// GameState is one match's authoritative in-memory state.
type GameState struct {
	MatchID string
	Seed    int64

	Turn          int
	Phase         Phase
	CurrentPlayer int

	Rules   Rules
	Players map[int]*PlayerState
	Arena   *arena.State
	Stats   arena.MatchStats

	PhaseStartedAt   time.Time
	PhaseRemainingMs int
	Window           PlayWindow

	History []HistoryEntry

	sequence uint64
	rng      *rand.Rand
	catalog  *catalog.Catalog
	now      func() time.Time
}

// NewState builds a GameState for the given participants and arena. The seed
// drives arsenal shuffling so a match is reproducible from its seed.
func NewState(matchID string, seed int64, rules Rules, cat *catalog.Catalog, arenaDef catalog.ArenaDef, setups []PlayerSetup) *GameState {
	s := &GameState{
		MatchID: matchID,
		Seed:    seed,
		Turn:    1,
		Phase:   PhaseStart,
		Rules:   rules,
		Players: make(map[int]*PlayerState, len(setups)),
		Arena:   arena.NewState(arenaDef),
		rng:     rand.New(rand.NewSource(seed)),
		catalog: cat,
		now:     time.Now,
	}

	heroes := heroCards(cat)
	for _, setup := range setups {
		player := &PlayerState{
			PlayerID:  setup.PlayerID,
			ConsoleID: setup.ConsoleID,
			Team:      setup.Team,
			Health:    rules.StartingHealth,
			Mana:      mana.NewPool(),
		}
		if hero := pickHero(cat, heroes, setup); hero != nil {
			player.Hero = hero
		}
		player.Arsenal = s.buildArsenal()
		player.drawCards(rules.StartingHand)
		s.Players[setup.Team] = player
	}

	s.PhaseRemainingMs = rules.PhaseDurationMs[PhaseStart]
	s.PhaseStartedAt = s.now()
	return s
}

// buildArsenal shuffles the non-hero catalog cards into a fresh arsenal.
func (s *GameState) buildArsenal() []*CardInstance {
	defs := s.catalog.Cards()
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	arsenal := make([]*CardInstance, 0, len(defs))
	for _, def := range defs {
		if def.Category == catalog.CategoryHero {
			continue
		}
		arsenal = append(arsenal, newCardInstance(def))
	}
	s.rng.Shuffle(len(arsenal), func(i, j int) {
		arsenal[i], arsenal[j] = arsenal[j], arsenal[i]
	})
	return arsenal
}

func heroCards(cat *catalog.Catalog) []catalog.CardDef {
	var heroes []catalog.CardDef
	for _, def := range cat.Cards() {
		if def.Category == catalog.CategoryHero {
			heroes = append(heroes, def)
		}
	}
	sort.Slice(heroes, func(i, j int) bool { return heroes[i].ID < heroes[j].ID })
	return heroes
}

func pickHero(cat *catalog.Catalog, heroes []catalog.CardDef, setup PlayerSetup) *CardInstance {
	if setup.HeroID != "" {
		if def, ok := cat.Card(setup.HeroID); ok && def.Category == catalog.CategoryHero {
			return newCardInstance(def)
		}
	}
	if len(heroes) == 0 {
		return nil
	}
	return newCardInstance(heroes[setup.Team%len(heroes)])
}

// Sequence returns the current sequence number.
func (s *GameState) Sequence() uint64 {
	return s.sequence
}

// Begin runs the first turn's start-phase entry effects and returns the
// opening patch.
func (s *GameState) Begin() *Patch {
	patch := s.newPatch("match_start")
	s.enterPhase(patch)
	return patch
}

// AdvancePhase transitions to the next phase in the fixed cyclic order.
// On wrap it increments the turn and flips the current player. It always
// succeeds.
func (s *GameState) AdvancePhase() *Patch {
	next, wrapped := nextPhase(s.Phase)
	if wrapped {
		s.Turn++
		s.CurrentPlayer = 1 - s.CurrentPlayer
	}
	s.Phase = next

	patch := s.newPatch("phase_advance")
	s.enterPhase(patch)
	return patch
}

// enterPhase resets the timer, manages the play window, and runs phase-entry
// side effects, recording everything into the patch.
func (s *GameState) enterPhase(patch *Patch) {
	s.PhaseRemainingMs = s.Rules.PhaseDurationMs[s.Phase]
	s.PhaseStartedAt = s.now()
	s.Window = PlayWindow{}

	switch s.Phase {
	case PhaseStart:
		s.turnStartEffects(patch)
	case PhaseMain, PhaseAttack:
		s.openWindow(s.Phase)
	case PhaseEnd:
		// Bookkeeping only.
	}

	patch.Turn = s.Turn
	patch.Phase = s.Phase.String()
	patch.CurrentPlayer = s.CurrentPlayer
	patch.Window = s.Window.view()
	for team, player := range s.Players {
		patch.Players[team] = playerView(player)
	}
	patch.Stats = s.Stats
}

func (s *GameState) openWindow(phase Phase) {
	cats := windowCategories[phase]
	set := make(map[catalog.Category]bool, len(cats))
	for _, cat := range cats {
		set[cat] = true
	}
	s.Window = PlayWindow{
		Open:        true,
		Categories:  set,
		RemainingMs: s.Rules.PhaseDurationMs[phase],
	}
}

// turnStartEffects runs resource generation, arena turn effects, and status
// ticking when the start phase is entered.
func (s *GameState) turnStartEffects(patch *Patch) {
	current := s.Players[s.CurrentPlayer]

	// Energy generation for the current player.
	if current != nil {
		bonus := 0
		if current.Hero != nil {
			bonus = s.Arena.EnergyBonus(current.Hero.Affinity)
		}
		gained := s.Rules.EnergyPerTurn + bonus
		current.Energy = min(current.Energy+gained, s.Rules.MaxEnergy)
		current.drawCards(1)
	}

	// Arena mana generation and special rules.
	effects := s.Arena.TurnStart(s.Turn)
	if current != nil && effects.ManaAmount > 0 {
		current.Mana.Add(effects.ManaColor, effects.ManaAmount)
	}
	patch.ArenaTriggers = effects.Triggers
	for _, trigger := range effects.Triggers {
		s.applyArenaRule(trigger, patch)
	}

	// Status-effect ticking for all players.
	for team, player := range s.Players {
		s.tickStatuses(team, player, patch)
	}
}

// applyArenaRule applies one fired special rule to the match.
func (s *GameState) applyArenaRule(trigger arena.RuleTrigger, patch *Patch) {
	rule := trigger.Rule
	for team, player := range s.Players {
		switch rule.Kind {
		case catalog.RuleGlobalDamage:
			dealt := s.damagePlayer(player, rule.Magnitude, catalog.SchoolPhysical)
			patch.Effects = append(patch.Effects, AppliedEffect{
				Team: team, Kind: ability.EffectDamage, Amount: dealt, Detail: rule.Name,
			})
		case catalog.RuleGlobalHeal:
			healed := s.healPlayer(player, rule.Magnitude)
			patch.Effects = append(patch.Effects, AppliedEffect{
				Team: team, Kind: ability.EffectHeal, Amount: healed, Detail: rule.Name,
			})
		case catalog.RuleBonusMana:
			player.Mana.Add(s.Arena.Def.ManaColor, rule.Magnitude)
			patch.Effects = append(patch.Effects, AppliedEffect{
				Team: team, Kind: ability.EffectMana, Amount: rule.Magnitude, Detail: rule.Name,
			})
		}
	}
}

// tickStatuses applies damage-over-time, decrements durations, and drops
// expired effects for one player.
func (s *GameState) tickStatuses(team int, player *PlayerState, patch *Patch) {
	// Damage first: shield absorption inside damagePlayer rewrites the
	// status slice, so iterate a snapshot.
	snapshot := make([]StatusEffect, len(player.Statuses))
	copy(snapshot, player.Statuses)
	for _, status := range snapshot {
		if dmg, school := status.damageOverTime(); dmg > 0 {
			dealt := s.damagePlayer(player, dmg, school)
			patch.Effects = append(patch.Effects, AppliedEffect{
				Team: team, Kind: ability.EffectDamage, Amount: dealt,
				Status: status.Type, Detail: "status_tick",
			})
		}
	}

	kept := player.Statuses[:0]
	for _, status := range player.Statuses {
		status.Remaining--
		if status.Remaining > 0 {
			kept = append(kept, status)
		}
	}
	player.Statuses = kept
}

// damagePlayer routes damage through shields, updates match statistics, and
// returns the amount that reached health.
func (s *GameState) damagePlayer(player *PlayerState, amount int, school catalog.DamageSchool) int {
	if amount <= 0 {
		return 0
	}
	if school == catalog.SchoolFire {
		s.Stats.FireDamage += amount
	}
	after := player.shieldAbsorb(amount)
	player.Health -= after
	return after
}

// healPlayer heals up to the starting health cap and updates statistics.
func (s *GameState) healPlayer(player *PlayerState, amount int) int {
	if amount <= 0 {
		return 0
	}
	missing := s.Rules.StartingHealth - player.Health
	if missing < 0 {
		missing = 0
	}
	healed := min(amount, missing)
	player.Health += healed
	s.Stats.Healing += healed
	return healed
}

// PlayCard validates and executes one card play for the given team. On
// success the returned patch carries the applied deltas and any arena
// objective completed as a side effect.
func (s *GameState) PlayCard(team int, cardID, action, target string) (*Patch, error) {
	if team != s.CurrentPlayer {
		return nil, ErrNotYourTurn
	}
	if !s.Window.Open {
		return nil, ErrNoActiveWindow
	}

	player := s.Players[team]
	if player == nil {
		return nil, ErrCardNotFound
	}
	if player.disabled() {
		return nil, ErrPlayerDisabled
	}

	card, fromZone := player.findPlayable(cardID)
	if card == nil {
		return nil, ErrCardNotFound
	}
	if !s.Window.Categories[card.Category] {
		return nil, ErrWrongCategory
	}
	if player.Energy < card.Energy || !player.Mana.CanPay(cardManaCost(card)) {
		return nil, ErrInsufficientResources
	}

	// Pay costs. Checked above, so neither can fail halfway.
	player.Energy -= card.Energy
	player.Mana.Pay(cardManaCost(card))

	patch := s.newPatch("card_played")
	patch.PlayedCard = cardView(card)

	mods := s.Arena.Modifiers()
	for _, ref := range card.Abilities {
		def, ok := s.catalog.Ability(ref.Name)
		if !ok {
			continue // validated at load; skip rather than corrupt the match
		}
		effects, err := ability.Resolve(def, ref.Params, mods)
		if err != nil {
			continue
		}
		for _, effect := range effects {
			s.applyEffect(team, card, effect, patch)
		}
	}

	player.moveCard(card, fromZone, terminalZone(card.Category))
	s.Stats.CardsPlayed++

	if result := s.Arena.CheckObjective(s.Stats); result != nil {
		patch.Objective = result
		player.Energy = min(player.Energy+result.RewardEnergy, s.Rules.MaxEnergy)
	}

	s.appendHistory(HistoryEntry{
		Seq:    patch.Seq,
		Turn:   s.Turn,
		Phase:  s.Phase.String(),
		Team:   team,
		Action: action,
		CardID: card.CardID,
		At:     s.now(),
	})

	patch.Turn = s.Turn
	patch.Phase = s.Phase.String()
	patch.CurrentPlayer = s.CurrentPlayer
	patch.Window = s.Window.view()
	for t, p := range s.Players {
		patch.Players[t] = playerView(p)
	}
	patch.Stats = s.Stats
	return patch, nil
}

// applyEffect lands one resolved effect on the proper player.
func (s *GameState) applyEffect(casterTeam int, source *CardInstance, effect ability.Effect, patch *Patch) {
	targetTeam := casterTeam
	if effect.Side == ability.SideOpponent {
		targetTeam = 1 - casterTeam
	}
	target := s.Players[targetTeam]
	if target == nil {
		return
	}

	applied := AppliedEffect{Team: targetTeam, Kind: effect.Kind, Ability: effect.Ability}

	switch effect.Kind {
	case ability.EffectDamage:
		applied.Amount = s.damagePlayer(target, effect.Amount, effect.School)
	case ability.EffectHeal:
		applied.Amount = s.healPlayer(target, effect.Amount)
	case ability.EffectStatus:
		target.applyStatus(StatusEffect{
			Type:      effect.Status,
			Magnitude: effect.Amount,
			Remaining: effect.Duration,
			SourceID:  source.InstanceID,
			AppliedAt: s.now(),
		})
		if effect.Status == catalog.StatusFreeze {
			s.Stats.Freezes++
		}
		applied.Amount = effect.Amount
		applied.Status = effect.Status
	case ability.EffectStat:
		switch effect.Stat {
		case catalog.StatAttack:
			target.AttackMod += effect.Amount
		case catalog.StatDefense:
			target.DefenseMod += effect.Amount
		}
		applied.Amount = effect.Amount
	case ability.EffectEnergy:
		target.Energy = min(target.Energy+effect.Amount, s.Rules.MaxEnergy)
		applied.Amount = effect.Amount
	case ability.EffectMana:
		target.Mana.Add(effect.ManaColor, effect.Amount)
		applied.Amount = effect.Amount
	case ability.EffectDraw:
		applied.Amount = target.drawCards(effect.Amount)
	case ability.EffectCleanse:
		applied.Amount = target.cleanse()
	}

	patch.Effects = append(patch.Effects, applied)
}

// CheckWinCondition returns a result when the match is decided: a player at
// zero health loses, or past the turn limit the higher-health player wins.
// Pure read; no mutation.
func (s *GameState) CheckWinCondition() *WinResult {
	p0, p1 := s.Players[0], s.Players[1]
	if p0 == nil || p1 == nil {
		return nil
	}

	switch {
	case p0.Health <= 0 && p1.Health <= 0:
		return &WinResult{WinnerTeam: -1, Condition: WinByHealth}
	case p0.Health <= 0:
		return &WinResult{WinnerTeam: 1, Condition: WinByHealth}
	case p1.Health <= 0:
		return &WinResult{WinnerTeam: 0, Condition: WinByHealth}
	}

	if s.Turn > s.Rules.MaxTurns {
		switch {
		case p0.Health > p1.Health:
			return &WinResult{WinnerTeam: 0, Condition: WinByTurnLimit}
		case p1.Health > p0.Health:
			return &WinResult{WinnerTeam: 1, Condition: WinByTurnLimit}
		default:
			return &WinResult{WinnerTeam: -1, Condition: WinByTurnLimit}
		}
	}

	return nil
}

// Snapshot builds a full-state patch carrying the current sequence number
// without consuming one. Used to resync a reconnecting client.
func (s *GameState) Snapshot() *Patch {
	patch := &Patch{
		Seq:           s.sequence,
		Reason:        "resync",
		Turn:          s.Turn,
		Phase:         s.Phase.String(),
		CurrentPlayer: s.CurrentPlayer,
		Window:        s.Window.view(),
		Players:       make(map[int]*PlayerView, len(s.Players)),
		Stats:         s.Stats,
	}
	for team, player := range s.Players {
		patch.Players[team] = playerView(player)
	}
	return patch
}

// UpdateTimer decrements the phase timer and any open play window. Phase
// advancement on timeout is the match runtime's responsibility.
func (s *GameState) UpdateTimer(deltaMs int) {
	if deltaMs <= 0 {
		return
	}
	s.PhaseRemainingMs -= deltaMs
	if s.PhaseRemainingMs < 0 {
		s.PhaseRemainingMs = 0
	}
	if s.Window.Open {
		s.Window.RemainingMs -= deltaMs
		if s.Window.RemainingMs <= 0 {
			s.Window = PlayWindow{}
		}
	}
}

func (s *GameState) newPatch(reason string) *Patch {
	s.sequence++
	return &Patch{
		Seq:     s.sequence,
		Reason:  reason,
		Players: make(map[int]*PlayerView, len(s.Players)),
	}
}

func (s *GameState) appendHistory(entry HistoryEntry) {
	s.History = append(s.History, entry)
	if limit := s.Rules.HistoryLimit; limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

func cardManaCost(card *CardInstance) map[mana.Color]int {
	if card.ManaCost == nil {
		return nil
	}
	return card.ManaCost
}
