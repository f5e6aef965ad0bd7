// Package events defines the simulation event catalogue and the Emitter that
// stamps events and fans them out to recorders (event log stores, the event
// bus, the structured logger, the MQTT publisher).
//
// Kinds are grouped by actor:
//   - 10-18: users
//   - 20-23: stations
//   - 30-33: bicycles
//   - 40-43: technicians
//   - 50-53: trucks
//   - 60-64: the network manager
//   - 70-72: the recharge point
//   - 80-82: the maintenance yard
//   - 90, 91, 99: the system
package events
