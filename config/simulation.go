package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/bikesim/core/worker"
	"github.com/kilianp07/bikesim/pkg/export"
)

// SimulationConfig controls the run itself.
type SimulationConfig struct {
	// Duration bounds the run; 0 runs until interrupted.
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Seed feeds the random source; 0 seeds from the clock.
	Seed              int64         `json:"seed" yaml:"seed"`
	Users             int           `json:"users" yaml:"users"`
	UserSpawnInterval time.Duration `json:"user_spawn_interval" yaml:"user_spawn_interval"`
	Trucks            int           `json:"trucks" yaml:"trucks"`
	// ReportPath receives the end-of-run summary when set.
	ReportPath   string `json:"report_path" yaml:"report_path"`
	ReportFormat string `json:"report_format" yaml:"report_format"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.Users == 0 {
		c.Users = 20
	}
	if c.UserSpawnInterval <= 0 {
		c.UserSpawnInterval = 500 * time.Millisecond
	}
	if c.Trucks == 0 {
		c.Trucks = 1
	}
	if c.ReportFormat == "" {
		c.ReportFormat = string(export.FormatJSON)
	}
}

// Validate checks value ranges.
func (c SimulationConfig) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("simulation.duration must not be negative")
	}
	if c.Users < 0 || c.Trucks < 0 {
		return fmt.Errorf("simulation.users and simulation.trucks must not be negative")
	}
	if _, err := export.ParseFormat(c.ReportFormat); err != nil {
		return fmt.Errorf("simulation.report_format: %w", err)
	}
	return nil
}

// StationConfig describes one station of an explicit network.
type StationConfig struct {
	ID       string `json:"id" yaml:"id"`
	Capacity int    `json:"capacity" yaml:"capacity"`
	Normal   int    `json:"normal" yaml:"normal"`
	Electric int    `json:"electric" yaml:"electric"`
}

// NetworkConfig lists the stations, or asks for StationCount random ones.
type NetworkConfig struct {
	Stations         []StationConfig `json:"stations" yaml:"stations"`
	StationCount     int             `json:"station_count" yaml:"station_count"`
	MinBicycles      int             `json:"min_bicycles" yaml:"min_bicycles"`
	MaxBicycles      int             `json:"max_bicycles" yaml:"max_bicycles"`
	RechargeCapacity int             `json:"recharge_capacity" yaml:"recharge_capacity"`
}

// SetDefaults applies sane defaults.
func (c *NetworkConfig) SetDefaults() {
	if len(c.Stations) == 0 && c.StationCount == 0 {
		c.StationCount = 5
	}
	if c.MaxBicycles == 0 {
		c.MaxBicycles = 8
	}
	if c.MinBicycles == 0 {
		c.MinBicycles = 3
	}
}

// Validate checks that at least two stations exist and fleets fit.
func (c NetworkConfig) Validate() error {
	if len(c.Stations) > 0 {
		if len(c.Stations) < 2 {
			return fmt.Errorf("network.stations needs at least two stations")
		}
		seen := make(map[string]bool, len(c.Stations))
		for i, s := range c.Stations {
			if s.Normal < 0 || s.Electric < 0 || s.Capacity < 0 {
				return fmt.Errorf("network.stations[%d]: negative value", i)
			}
			if s.Capacity > 0 && s.Normal+s.Electric > s.Capacity {
				return fmt.Errorf("network.stations[%d]: %d bicycles exceed capacity %d", i, s.Normal+s.Electric, s.Capacity)
			}
			if s.ID != "" {
				if seen[s.ID] {
					return fmt.Errorf("network.stations[%d]: duplicate id %s", i, s.ID)
				}
				seen[s.ID] = true
			}
		}
		return nil
	}
	if c.StationCount < 2 {
		return fmt.Errorf("network.station_count must be at least 2")
	}
	if c.MinBicycles < 0 || c.MaxBicycles < c.MinBicycles {
		return fmt.Errorf("network: need 0 <= min_bicycles <= max_bicycles")
	}
	return nil
}

// PolicyConfig holds the station and manager thresholds.
type PolicyConfig struct {
	MinCapacity         int           `json:"min_capacity" yaml:"min_capacity"`
	MaxCapacity         int           `json:"max_capacity" yaml:"max_capacity"`
	MinMaintenance      int           `json:"min_maintenance" yaml:"min_maintenance"`
	BreakdownPct        int           `json:"breakdown_pct" yaml:"breakdown_pct"`
	ChargePct           int           `json:"charge_pct" yaml:"charge_pct"`
	MaintenanceInterval time.Duration `json:"maintenance_interval" yaml:"maintenance_interval"`
}

// SetDefaults applies sane defaults.
func (c *PolicyConfig) SetDefaults() {
	if c.MinCapacity == 0 {
		c.MinCapacity = 5
	}
	if c.MaxCapacity == 0 {
		c.MaxCapacity = 10
	}
	if c.MinMaintenance == 0 {
		c.MinMaintenance = 2
	}
	if c.BreakdownPct == 0 {
		c.BreakdownPct = 20
	}
	if c.ChargePct == 0 {
		c.ChargePct = 40
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = 12 * time.Second
	}
}

// Validate checks value ranges.
func (c PolicyConfig) Validate() error {
	if c.MinCapacity < 1 || c.MaxCapacity < c.MinCapacity {
		return fmt.Errorf("policy: need 1 <= min_capacity <= max_capacity")
	}
	if c.MinMaintenance < 0 {
		return fmt.Errorf("policy.min_maintenance must not be negative")
	}
	if c.BreakdownPct < 0 || c.BreakdownPct > 100 || c.ChargePct < 0 || c.ChargePct > 100 {
		return fmt.Errorf("policy: percentages must be within [0,100]")
	}
	return nil
}

// TimingConfig holds simulated activity durations.
type TimingConfig struct {
	Transport    time.Duration `json:"transport" yaml:"transport"`
	Repair       time.Duration `json:"repair" yaml:"repair"`
	RideStart    time.Duration `json:"ride_start" yaml:"ride_start"`
	Charge       time.Duration `json:"charge" yaml:"charge"`
	Sweep        time.Duration `json:"sweep" yaml:"sweep"`
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

// SetDefaults applies sane defaults. RetryBackoff stays 0 unless set.
func (c *TimingConfig) SetDefaults() {
	d := worker.DefaultTiming()
	if c.Transport <= 0 {
		c.Transport = d.TransportTime
	}
	if c.Repair <= 0 {
		c.Repair = d.RepairTime
	}
	if c.RideStart <= 0 {
		c.RideStart = d.RideStartTime
	}
	if c.Charge <= 0 {
		c.Charge = d.ChargeTime
	}
	if c.Sweep <= 0 {
		c.Sweep = time.Second
	}
}

// Validate checks value ranges.
func (c TimingConfig) Validate() error {
	if c.RetryBackoff < 0 {
		return fmt.Errorf("timing.retry_backoff must not be negative")
	}
	return nil
}

// Worker converts the timing to worker durations.
func (c TimingConfig) Worker() worker.Timing {
	return worker.Timing{
		TransportTime: c.Transport,
		RepairTime:    c.Repair,
		RideStartTime: c.RideStart,
		ChargeTime:    c.Charge,
	}
}
