package events

import (
	"fmt"
	"sort"
)

// Kind identifies an event type by its numeric code.
type Kind int

const (
	UserTransportRequested   Kind = 10
	UserAwaitingConfirmation Kind = 11
	UserRequestConfirmed     Kind = 12
	UserRequestRejected      Kind = 13
	UserBicyclePickup        Kind = 14
	UserTripStarted          Kind = 15
	UserNeedsRecharge        Kind = 16
	UserTripFinishing        Kind = 17
	UserBicycleDelivered     Kind = 18

	StationNoBicycles          Kind = 20
	StationBelowMinimum        Kind = 21
	StationNoSpace             Kind = 22
	StationMaintenanceRequired Kind = 23

	BicycleStateChanged     Kind = 30
	BicycleNeedsMaintenance Kind = 31
	BicycleNeedsRecharge    Kind = 32
	BicycleBrokenDown       Kind = 33

	TechnicianRequested  Kind = 40
	TechnicianCollecting Kind = 41
	TechnicianDelivering Kind = 42
	TechnicianRepairing  Kind = 43

	TruckRequested  Kind = 50
	TruckCollecting Kind = 51
	TruckDelivering Kind = 52
	TruckInTransit  Kind = 53

	ManagerProcessingRequest    Kind = 60
	ManagerCheckingStations     Kind = 61
	ManagerRequestingTechnician Kind = 62
	ManagerRequestingTruck      Kind = 63
	ManagerRedistributing       Kind = 64

	RechargeStarted  Kind = 70
	RechargeFinished Kind = 71
	RechargeNoSlots  Kind = 72

	YardBicycleReceived Kind = 80
	YardBicycleRepaired Kind = 81
	YardBicycleReady    Kind = 82

	SystemStarted Kind = 90
	SystemStopped Kind = 91
	SystemError   Kind = 99
)

type kindInfo struct {
	name        string
	description string
}

var catalogue = map[Kind]kindInfo{
	UserTransportRequested:   {"user_transport_requested", "Transport requested"},
	UserAwaitingConfirmation: {"user_awaiting_confirmation", "Awaiting confirmation"},
	UserRequestConfirmed:     {"user_request_confirmed", "Request confirmed"},
	UserRequestRejected:      {"user_request_rejected", "Request rejected"},
	UserBicyclePickup:        {"user_bicycle_pickup", "Bicycle picked up"},
	UserTripStarted:          {"user_trip_started", "Trip started"},
	UserNeedsRecharge:        {"user_needs_recharge", "Bicycle needs recharging"},
	UserTripFinishing:        {"user_trip_finishing", "Trip finishing"},
	UserBicycleDelivered:     {"user_bicycle_delivered", "Bicycle delivered"},

	StationNoBicycles:          {"station_no_bicycles", "Station has no available bicycles"},
	StationBelowMinimum:        {"station_below_minimum", "Station below minimum bicycles"},
	StationNoSpace:             {"station_no_space", "Station has no free docks"},
	StationMaintenanceRequired: {"station_maintenance_required", "Station requires maintenance"},

	BicycleStateChanged:     {"bicycle_state_changed", "Bicycle state changed"},
	BicycleNeedsMaintenance: {"bicycle_needs_maintenance", "Bicycle needs maintenance"},
	BicycleNeedsRecharge:    {"bicycle_needs_recharge", "Bicycle needs recharging"},
	BicycleBrokenDown:       {"bicycle_broken_down", "Bicycle broke down during use"},

	TechnicianRequested:  {"technician_requested", "Technician requested"},
	TechnicianCollecting: {"technician_collecting", "Technician collecting bicycles"},
	TechnicianDelivering: {"technician_delivering", "Technician delivering bicycles to the maintenance yard"},
	TechnicianRepairing:  {"technician_repairing", "Technician repairing bicycles"},

	TruckRequested:  {"truck_requested", "Truck requested for redistribution"},
	TruckCollecting: {"truck_collecting", "Truck collecting bicycles"},
	TruckDelivering: {"truck_delivering", "Truck delivering bicycles"},
	TruckInTransit:  {"truck_in_transit", "Truck in transit"},

	ManagerProcessingRequest:    {"manager_processing_request", "Manager processing transport request"},
	ManagerCheckingStations:     {"manager_checking_stations", "Manager checking stations"},
	ManagerRequestingTechnician: {"manager_requesting_technician", "Manager requesting maintenance technician"},
	ManagerRequestingTruck:      {"manager_requesting_truck", "Manager requesting redistribution truck"},
	ManagerRedistributing:       {"manager_redistributing", "Manager redistributing bicycles"},

	RechargeStarted:  {"recharge_started", "Bicycle recharge started"},
	RechargeFinished: {"recharge_finished", "Bicycle recharge finished"},
	RechargeNoSlots:  {"recharge_no_slots", "No recharge slots available"},

	YardBicycleReceived: {"yard_bicycle_received", "Bicycle received at the maintenance yard"},
	YardBicycleRepaired: {"yard_bicycle_repaired", "Bicycle repaired at the maintenance yard"},
	YardBicycleReady:    {"yard_bicycle_ready", "Bicycle ready for redistribution"},

	SystemStarted: {"system_started", "System started"},
	SystemStopped: {"system_stopped", "System stopped"},
	SystemError:   {"system_error", "System error"},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(catalogue))
	for k, info := range catalogue {
		m[info.name] = k
	}
	return m
}()

// Kinds returns every catalogued kind in code order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(catalogue))
	for k := range catalogue {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (k Kind) Code() int { return int(k) }

func (k Kind) Valid() bool {
	_, ok := catalogue[k]
	return ok
}

func (k Kind) String() string {
	if info, ok := catalogue[k]; ok {
		return info.name
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// Description is the human readable label used by Format.
func (k Kind) Description() string {
	if info, ok := catalogue[k]; ok {
		return info.description
	}
	return "Unknown event"
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	if k, ok := byName[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}
