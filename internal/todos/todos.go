// Package todos orders the task list by how well each task fits the
// user's current energy state.
package todos

import (
	"sort"

	"github.com/aura-labs/aura/internal/store"
)

// Thresholds for the "fresh" state: low fatigue plus plenty of fuel.
const (
	freshFatigueBelow = 50.0
	freshFuelAbove    = 50.0
)

// OrderByEnergy sorts todos in place for the given energy state and
// returns the slice. Fresh users get quick wins first (low effort,
// high impact); tired users get the list reversed so heavy work is
// visibly deferred. Done items always sink to the bottom.
func OrderByEnergy(items []store.Todo, fatigueScore, fuelGauge float64) []store.Todo {
	fresh := fatigueScore < freshFatigueBelow && fuelGauge > freshFuelAbove
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Done != b.Done {
			return !a.Done
		}
		if fresh {
			if a.Effort != b.Effort {
				return a.Effort < b.Effort
			}
			return a.Impact > b.Impact
		}
		if a.Effort != b.Effort {
			return a.Effort > b.Effort
		}
		return a.Impact < b.Impact
	})
	return items
}
