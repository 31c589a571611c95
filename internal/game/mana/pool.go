package mana

import (
	"sync"
)

// Color represents a mana color.
type Color string

const (
	Crimson  Color = "crimson"
	Azure    Color = "azure"
	Verdant  Color = "verdant"
	Obsidian Color = "obsidian"
	Radiant  Color = "radiant"
	Aether   Color = "aether"
)

// Colors lists every mana color in canonical order.
var Colors = []Color{Crimson, Azure, Verdant, Obsidian, Radiant, Aether}

// Valid reports whether c is a known mana color.
func Valid(c Color) bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Pool represents a player's mana pool.
type Pool struct {
	mu      sync.RWMutex
	amounts map[Color]int
}

// NewPool creates a new empty mana pool.
func NewPool() *Pool {
	return &Pool{amounts: make(map[Color]int)}
}

// Add adds mana of the given color to the pool.
func (p *Pool) Add(color Color, amount int) {
	if amount <= 0 || !Valid(color) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts[color] += amount
}

// Get returns the amount of a specific color.
func (p *Pool) Get(color Color) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.amounts[color]
}

// Total returns the total mana count across all colors.
func (p *Pool) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	for _, amount := range p.amounts {
		total += amount
	}
	return total
}

// CanPay reports whether the pool covers every color in the cost.
func (p *Pool) CanPay(cost map[Color]int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for color, amount := range cost {
		if p.amounts[color] < amount {
			return false
		}
	}
	return true
}

// Pay spends the cost from the pool. Returns false and leaves the pool
// untouched when any color is short.
func (p *Pool) Pay(cost map[Color]int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for color, amount := range cost {
		if p.amounts[color] < amount {
			return false
		}
	}
	for color, amount := range cost {
		p.amounts[color] -= amount
	}
	return true
}

// Empty removes all mana from the pool.
func (p *Pool) Empty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.amounts = make(map[Color]int)
}

// Snapshot returns a copy of the pool's contents, omitting zero entries.
func (p *Pool) Snapshot() map[Color]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[Color]int, len(p.amounts))
	for color, amount := range p.amounts {
		if amount > 0 {
			out[color] = amount
		}
	}
	return out
}

// Copy creates a deep copy of the mana pool.
func (p *Pool) Copy() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := NewPool()
	for color, amount := range p.amounts {
		cp.amounts[color] = amount
	}
	return cp
}
