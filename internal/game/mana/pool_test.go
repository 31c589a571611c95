package mana

import (
	"testing"
)

func TestPool_Add(t *testing.T) {
	pool := NewPool()

	pool.Add(Crimson, 2)
	if pool.Get(Crimson) != 2 {
		t.Errorf("Expected 2 crimson mana, got %d", pool.Get(Crimson))
	}

	pool.Add(Azure, 1)
	if pool.Get(Azure) != 1 {
		t.Errorf("Expected 1 azure mana, got %d", pool.Get(Azure))
	}

	// Unknown colors and non-positive amounts are ignored.
	pool.Add(Color("plaid"), 3)
	pool.Add(Crimson, -1)
	if pool.Total() != 3 {
		t.Errorf("Expected total 3, got %d", pool.Total())
	}
}

func TestPool_Pay(t *testing.T) {
	pool := NewPool()
	pool.Add(Crimson, 3)
	pool.Add(Azure, 2)

	if !pool.Pay(map[Color]int{Crimson: 2, Azure: 1}) {
		t.Error("Expected to pay 2 crimson + 1 azure")
	}
	if pool.Get(Crimson) != 1 {
		t.Errorf("Expected 1 crimson remaining, got %d", pool.Get(Crimson))
	}
	if pool.Get(Azure) != 1 {
		t.Errorf("Expected 1 azure remaining, got %d", pool.Get(Azure))
	}

	// Short on one color: nothing is spent.
	if pool.Pay(map[Color]int{Crimson: 1, Verdant: 1}) {
		t.Error("Expected payment to fail with no verdant mana")
	}
	if pool.Get(Crimson) != 1 {
		t.Errorf("Expected failed payment to leave pool untouched, got %d crimson", pool.Get(Crimson))
	}
}

func TestPool_CanPay(t *testing.T) {
	pool := NewPool()
	pool.Add(Verdant, 1)

	if !pool.CanPay(map[Color]int{Verdant: 1}) {
		t.Error("Expected to afford 1 verdant")
	}
	if pool.CanPay(map[Color]int{Verdant: 2}) {
		t.Error("Expected not to afford 2 verdant")
	}
	if !pool.CanPay(nil) {
		t.Error("Expected empty cost to always be payable")
	}
}

func TestPool_Snapshot(t *testing.T) {
	pool := NewPool()
	pool.Add(Radiant, 2)
	pool.Add(Obsidian, 1)
	pool.Pay(map[Color]int{Obsidian: 1})

	snap := pool.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Expected snapshot with 1 entry, got %d", len(snap))
	}
	if snap[Radiant] != 2 {
		t.Errorf("Expected 2 radiant in snapshot, got %d", snap[Radiant])
	}

	// Snapshot is a copy.
	snap[Radiant] = 99
	if pool.Get(Radiant) != 2 {
		t.Error("Expected snapshot mutation not to affect pool")
	}
}

func TestPool_Empty(t *testing.T) {
	pool := NewPool()
	pool.Add(Aether, 4)
	pool.Empty()
	if pool.Total() != 0 {
		t.Errorf("Expected empty pool, got total %d", pool.Total())
	}
}
