// Package station implements the shared resources of the network: docking
// stations, the recharge point and the maintenance yard.
//
// A Station owns its bicycles, partitioned into one FIFO pool per state, and a
// single mutex. Every pool operation documented as "requires the lock" must be
// called between Lock and Unlock; the station never locks itself for them so
// that callers can compose several operations atomically. The only way to hold
// two station locks at once is a Route, which always locks origin before
// destination.
//
// Occupancy counts every docked bicycle (available, rented, in transit,
// relocating, out of service). In-repair bicycles have left the station and do
// not count. Occupancy never exceeds capacity: every operation that adds
// bicycles checks free capacity first.
package station
