package station

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
)

// YardPrefix starts every maintenance yard id.
const YardPrefix = "MaintenanceYard"

// IsYardID reports whether id names a maintenance yard.
func IsYardID(id string) bool { return strings.HasPrefix(id, YardPrefix+"-") }

// MaintenanceYard holds repaired bicycles until a truck redistributes them.
// It is unbounded.
type MaintenanceYard struct {
	id string

	mu    sync.Mutex
	bikes []*model.Bicycle
}

func NewMaintenanceYard(gen ident.Generator) *MaintenanceYard {
	if gen == nil {
		gen = ident.Default
	}
	return &MaintenanceYard{id: ident.Prefixed(gen, YardPrefix)}
}

func (y *MaintenanceYard) ID() string { return y.id }

// Count returns the number of bicycles waiting in the yard.
func (y *MaintenanceYard) Count() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return len(y.bikes)
}

// Deposit moves every bicycle of *list into the yard and empties *list.
func (y *MaintenanceYard) Deposit(list *[]*model.Bicycle) {
	if list == nil {
		return
	}
	y.mu.Lock()
	y.bikes = append(y.bikes, *list...)
	y.mu.Unlock()
	*list = (*list)[:0]
}

// Collect removes up to n bicycles, oldest first.
func (y *MaintenanceYard) Collect(n int) ([]*model.Bicycle, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: bicycle count must be positive, got %d", ErrInvalidArgument, n)
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	if n > len(y.bikes) {
		n = len(y.bikes)
	}
	out := make([]*model.Bicycle, n)
	copy(out, y.bikes[:n])
	y.bikes = y.bikes[n:]
	return out, nil
}
