// Package infra contains the technical adapters of the simulation: the
// zerolog logger, Prometheus and InfluxDB sinks, the MQTT publisher and the
// Sentry monitor. These packages depend only on interfaces defined in core.
package infra
