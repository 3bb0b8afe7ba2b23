package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
	"github.com/sensorgrid/telemetry-core/internal/metrics"
)

// defaultWriteTimeout bounds a single store write during ingestion.
const defaultWriteTimeout = 5 * time.Second

// defaultStatsWindow is used when no window is requested.
const defaultStatsWindow = 24 * time.Hour

// Broadcaster delivers classified readings to connected dashboard clients.
// Implemented by the realtime hub.
type Broadcaster interface {
	BroadcastReading(reading *SensorReading)
}

// Sink mirrors readings into a secondary store (e.g., InfluxDB).
// Implementations must be non-blocking; failures must not surface here.
type Sink interface {
	WriteReading(deviceID, location string, temperature, humidity, powerUsage float64, isAlert bool, timestamp time.Time)
}

// Service owns the ingestion pipeline and reading operations.
//
// The pipeline is: decode -> stamp -> classify -> persist -> broadcast.
// A reading is broadcast only after its durable write succeeds.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
	logger      *logging.Logger

	sink    Sink             // optional time-series mirror
	metrics *metrics.Metrics // optional operational counters

	writeTimeout time.Duration
}

// NewService creates a telemetry service.
//
// The broadcaster may be nil during tests; readings are then persisted
// without fan-out.
func NewService(repo Repository, broadcaster Broadcaster, logger *logging.Logger) *Service {
	return &Service{
		repo:         repo,
		broadcaster:  broadcaster,
		logger:       logger,
		writeTimeout: defaultWriteTimeout,
	}
}

// SetSink attaches an optional secondary reading sink.
func (s *Service) SetSink(sink Sink) {
	s.sink = sink
}

// SetMetrics attaches optional operational counters.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// inboundReading is the wire shape of a telemetry payload.
//
// Metrics absent from the payload decode to zero. This is deliberate:
// single-metric devices publish partial payloads and the original
// dashboard contract records the missing metrics as 0 rather than null.
type inboundReading struct {
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	PowerUsage  float64    `json:"powerUsage"`
	Location    string     `json:"location"`
	Timestamp   *time.Time `json:"timestamp"`
}

// Ingest processes one raw payload from a device.
//
// It decodes the payload, stamps a timestamp if the payload carries none,
// classifies the metrics, persists the reading, and then hands it to the
// broadcaster. Exactly one durable write happens per call, and the
// broadcast happens only if that write succeeded.
//
// Errors:
//   - ErrBadPayload: malformed JSON or empty device id (drop, no retry)
//   - ErrStoreUnavailable: the store rejected the write (no broadcast)
func (s *Service) Ingest(ctx context.Context, deviceID string, payload []byte) (*SensorReading, error) {
	if deviceID == "" {
		s.metrics.IncBadPayload()
		return nil, fmt.Errorf("%w: empty device id", ErrBadPayload)
	}

	var in inboundReading
	if err := json.Unmarshal(payload, &in); err != nil {
		s.metrics.IncBadPayload()
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	reading := &SensorReading{
		ID:          NewReadingID(),
		DeviceID:    deviceID,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		PowerUsage:  in.PowerUsage,
		Location:    in.Location,
		Timestamp:   time.Now().UTC(),
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		reading.Timestamp = in.Timestamp.UTC()
	}

	classify(reading)

	if err := s.persist(ctx, reading); err != nil {
		return nil, err
	}

	s.metrics.IncIngested()
	s.fanOut(reading)
	return reading, nil
}

// Create persists a reading built by an API caller.
//
// The classifier overwrites any alert fields the caller supplied; alert
// state is always derived, never accepted from input.
func (s *Service) Create(ctx context.Context, reading *SensorReading) error {
	if err := reading.Validate(); err != nil {
		return err
	}

	if reading.ID == "" {
		reading.ID = NewReadingID()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	classify(reading)

	if err := s.persist(ctx, reading); err != nil {
		return err
	}

	s.fanOut(reading)
	return nil
}

// persist writes a reading with a bounded timeout.
func (s *Service) persist(ctx context.Context, reading *SensorReading) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := s.repo.Create(writeCtx, reading); err != nil {
		s.metrics.IncStoreFailure()
		s.logger.Error("persisting reading failed",
			"device_id", reading.DeviceID,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// fanOut delivers a persisted reading to the hub and the optional sink.
func (s *Service) fanOut(reading *SensorReading) {
	if s.sink != nil {
		s.sink.WriteReading(
			reading.DeviceID,
			reading.Location,
			reading.Temperature,
			reading.Humidity,
			reading.PowerUsage,
			reading.IsAlert,
			reading.Timestamp,
		)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastReading(reading)
		s.metrics.IncBroadcast()
	}
}

// List retrieves readings matching the filter, unsorted.
func (s *Service) List(ctx context.Context, filter Filter) ([]SensorReading, error) {
	return s.repo.Find(ctx, filter)
}

// Count returns the number of readings matching the filter.
func (s *Service) Count(ctx context.Context, filter Filter) (int64, error) {
	return s.repo.Count(ctx, filter)
}

// Latest returns the most recent readings, newest first.
func (s *Service) Latest(ctx context.Context, deviceID string, limit int) ([]SensorReading, error) {
	if limit <= 0 {
		limit = 10
	}

	readings, err := s.repo.Find(ctx, Filter{DeviceID: deviceID})
	if err != nil {
		return nil, err
	}

	sort.Slice(readings, func(i, j int) bool {
		if readings[i].Timestamp.Equal(readings[j].Timestamp) {
			return readings[i].ID > readings[j].ID
		}
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})

	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

// Get retrieves a single reading by id.
func (s *Service) Get(ctx context.Context, id string) (*SensorReading, error) {
	return s.repo.FindByID(ctx, id)
}

// Delete removes a reading and returns it.
func (s *Service) Delete(ctx context.Context, id string) (*SensorReading, error) {
	return s.repo.FindByIDAndDelete(ctx, id)
}

// SoftDelete marks a reading deleted, recording who deleted it.
func (s *Service) SoftDelete(ctx context.Context, id, deletedBy string) error {
	return s.repo.SoftDelete(ctx, id, deletedBy)
}

// Devices returns the sorted set of device ids with readings.
func (s *Service) Devices(ctx context.Context) ([]string, error) {
	return s.repo.DistinctDevices(ctx)
}

// Stats aggregates readings over the trailing window in hours.
// A windowHours of 0 or less uses the 24h default.
func (s *Service) Stats(ctx context.Context, deviceID string, windowHours int) (*Stats, error) {
	window := defaultStatsWindow
	if windowHours > 0 {
		window = time.Duration(windowHours) * time.Hour
	}
	return s.repo.Stats(ctx, deviceID, window)
}
