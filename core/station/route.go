package station

import "fmt"

// Route is an ordered origin/destination pair. It is the only sanctioned way
// to hold two station locks at once: Lock always takes origin before
// destination.
type Route struct {
	origin      *Station
	destination *Station
}

// NewRoute validates the pair. Both stations must be set and distinct.
func NewRoute(origin, destination *Station) (Route, error) {
	if origin == nil || destination == nil {
		return Route{}, fmt.Errorf("%w: route needs both stations", ErrInvalidArgument)
	}
	if origin == destination || origin.id == destination.id {
		return Route{}, fmt.Errorf("%w: route origin and destination are both %s", ErrInvalidArgument, origin.id)
	}
	return Route{origin: origin, destination: destination}, nil
}

func (r Route) Origin() *Station      { return r.origin }
func (r Route) Destination() *Station { return r.destination }

// Lock locks origin, then destination.
func (r Route) Lock() {
	r.origin.Lock()
	r.destination.Lock()
}

// Unlock releases the locks in reverse order.
func (r Route) Unlock() {
	r.destination.Unlock()
	r.origin.Unlock()
}
