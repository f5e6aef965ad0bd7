package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/bikesim/core/events"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/infra/logger"
)

// InfluxSink writes station snapshots and events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.SnapshotSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func snapshotPoint(s model.StationSnapshot) *write.Point {
	return write.NewPointWithMeasurement("station_snapshot").
		AddTag("station_id", s.StationID).
		AddField("capacity", s.Capacity).
		AddField("available", s.Available).
		AddField("rented", s.Rented).
		AddField("in_repair", s.InRepair).
		AddField("in_transit", s.InTransit).
		AddField("relocating", s.Relocating).
		AddField("out_of_service", s.OutOfService).
		AddField("occupancy", s.Occupancy).
		AddField("free", s.Free).
		SetTime(s.CapturedAt)
}

// RecordStationSnapshots writes one station_snapshot point per station in a
// single batch.
func (s *InfluxSink) RecordStationSnapshots(snaps []model.StationSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, len(snaps))
	for i, snap := range snaps {
		points[i] = snapshotPoint(snap)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordEvent writes the event as a sim_event point.
func (s *InfluxSink) RecordEvent(e events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sim_event").
		AddTag("kind", e.Kind.String()).
		AddTag("origin", e.Origin).
		AddField("code", e.Kind.Code()).
		AddField("event_id", e.ID)
	if e.Destination != "" {
		p.AddField("destination", e.Destination)
	}
	if e.BicycleID != "" {
		p.AddField("bicycle_id", e.BicycleID)
	}
	p.SetTime(e.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

var (
	_ coremetrics.SnapshotSink  = (*InfluxSink)(nil)
	_ coremetrics.EventRecorder = (*InfluxSink)(nil)
)
