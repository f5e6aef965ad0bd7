package model

import "time"

// BicycleRecord is the immutable view of a bicycle used for reporting.
type BicycleRecord struct {
	ID         string    `json:"id"`
	Type       BikeType  `json:"type"`
	State      State     `json:"state"`
	CapturedAt time.Time `json:"captured_at"`
}

// IsElectric reports whether the recorded bicycle is electric.
func (r BicycleRecord) IsElectric() bool { return r.Type == Electric }

// StationSnapshot captures the per-state counts of a station at a point in time.
type StationSnapshot struct {
	StationID    string    `json:"station_id" yaml:"station_id"`
	Capacity     int       `json:"capacity" yaml:"capacity"`
	Available    int       `json:"available" yaml:"available"`
	Rented       int       `json:"rented" yaml:"rented"`
	InRepair     int       `json:"in_repair" yaml:"in_repair"`
	InTransit    int       `json:"in_transit" yaml:"in_transit"`
	Relocating   int       `json:"relocating" yaml:"relocating"`
	OutOfService int       `json:"out_of_service" yaml:"out_of_service"`
	Occupancy    int       `json:"occupancy" yaml:"occupancy"`
	Free         int       `json:"free" yaml:"free"`
	CapturedAt   time.Time `json:"captured_at" yaml:"captured_at"`
}

// Count returns the snapshot count for s.
func (s StationSnapshot) Count(st State) int {
	switch st {
	case Available:
		return s.Available
	case Rented:
		return s.Rented
	case InRepair:
		return s.InRepair
	case InTransit:
		return s.InTransit
	case Relocating:
		return s.Relocating
	case OutOfService:
		return s.OutOfService
	}
	return 0
}
