package app

import (
	"fmt"

	"github.com/kilianp07/bikesim/config"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/station"
)

// stationOptions derives the station policy from the configuration.
func stationOptions(cfg *config.Config, gen ident.Generator, rnd random.Source) station.Options {
	return station.Options{
		Gen:            gen,
		Rand:           rnd,
		MinCapacity:    cfg.Policy.MinCapacity,
		MaxCapacity:    cfg.Policy.MaxCapacity,
		BreakdownPct:   cfg.Policy.BreakdownPct,
		MinMaintenance: cfg.Policy.MinMaintenance,
	}
}

// BuildNetwork creates the stations and the recharge point. Explicit
// stations are built as listed; otherwise StationCount stations named
// Station-1..N get a random capacity and a random fleet.
func BuildNetwork(cfg *config.Config, gen ident.Generator, rnd random.Source) ([]*station.Station, *station.RechargePoint, error) {
	opts := stationOptions(cfg, gen, rnd)
	interval := cfg.Policy.MaintenanceInterval

	var stations []*station.Station
	if len(cfg.Network.Stations) > 0 {
		for i, sc := range cfg.Network.Stations {
			bikes := make([]*model.Bicycle, 0, sc.Normal+sc.Electric)
			for n := 0; n < sc.Normal+sc.Electric; n++ {
				typ := model.Normal
				if n >= sc.Normal {
					typ = model.Electric
				}
				b, err := model.NewBicycle(gen, "", typ, interval)
				if err != nil {
					return nil, nil, fmt.Errorf("station %d: %w", i, err)
				}
				bikes = append(bikes, b)
			}
			capacity := sc.Capacity
			if capacity == 0 {
				capacity = max(random.Between(rnd, opts.MinCapacity, opts.MaxCapacity), len(bikes))
			}
			st, err := station.NewStation(sc.ID, capacity, opts, bikes...)
			if err != nil {
				return nil, nil, fmt.Errorf("station %d: %w", i, err)
			}
			stations = append(stations, st)
		}
	} else {
		for i := 1; i <= cfg.Network.StationCount; i++ {
			capacity := random.Between(rnd, opts.MinCapacity, opts.MaxCapacity)
			hi := min(cfg.Network.MaxBicycles, capacity)
			lo := min(cfg.Network.MinBicycles, hi)
			n := random.Between(rnd, lo, hi+1)
			bikes := make([]*model.Bicycle, n)
			for j := range bikes {
				bikes[j] = model.NewRandomBicycle(gen, rnd, interval)
			}
			st, err := station.NewStation(fmt.Sprintf("Station-%d", i), capacity, opts, bikes...)
			if err != nil {
				return nil, nil, fmt.Errorf("station %d: %w", i, err)
			}
			stations = append(stations, st)
		}
	}

	recharge := station.NewRechargePoint(cfg.Network.RechargeCapacity, opts)
	return stations, recharge, nil
}
