package service

import (
	"math"
	"sort"
	"sync"

	"salesboard/internal/domain"
)

// Leaderboard holds cumulative quantity sold per product for the life of the process
type Leaderboard struct {
	mu     sync.RWMutex
	counts map[string]int64
	order  []string // first-seen order, used as the tie-break
}

// NewLeaderboard creates an empty Leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		counts: make(map[string]int64),
	}
}

// Bump adds quantity to name's running total.
// An empty name is recorded as domain.UnknownProduct; a non-positive quantity counts as 1.
// Totals saturate at math.MaxInt64.
func (l *Leaderboard) Bump(name string, quantity int64) {
	if name == "" {
		name = domain.UnknownProduct
	}
	if quantity <= 0 {
		quantity = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.counts[name]; !exists {
		l.order = append(l.order, name)
	}
	if l.counts[name] > math.MaxInt64-quantity {
		l.counts[name] = math.MaxInt64
		return
	}
	l.counts[name] += quantity
}

// Apply bumps every item in order
func (l *Leaderboard) Apply(items []domain.LineItem) {
	for _, it := range items {
		l.Bump(it.Name, it.Quantity)
	}
}

// Top returns at most n entries sorted by count descending.
// Equal counts keep first-seen order.
func (l *Leaderboard) Top(n int) []domain.LeaderboardEntry {
	if n <= 0 {
		return []domain.LeaderboardEntry{}
	}

	l.mu.RLock()
	result := make([]domain.LeaderboardEntry, 0, len(l.order))
	for _, name := range l.order {
		result = append(result, domain.LeaderboardEntry{Name: name, Count: l.counts[name]})
	}
	l.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// Count returns the running total for name (0 if never bumped)
func (l *Leaderboard) Count(name string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[name]
}

// Len returns the number of distinct products
func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
