package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Generation limits and value ranges.
//
// Ranges intentionally straddle the alert thresholds so generated data
// exercises both normal and alert paths on a dashboard.
const (
	maxGenerateCount     = 1000
	defaultGenerateCount = 10
	generateDeviceCount  = 5

	generateTempMax  = 100.0
	generateHumMax   = 100.0
	generatePowerMax = 1500.0
)

// Generate creates count random readings spread across a handful of
// device ids and persists them in one batch.
//
// Generated readings are classified like any other but are not broadcast;
// bulk seeding should not flood connected dashboards.
func (s *Service) Generate(ctx context.Context, count int, devicePrefix, location string) ([]SensorReading, error) {
	if count <= 0 {
		count = defaultGenerateCount
	}
	if count > maxGenerateCount {
		return nil, fmt.Errorf("%w: count %d exceeds maximum %d", ErrInvalidReading, count, maxGenerateCount)
	}
	if devicePrefix == "" {
		devicePrefix = "sensor"
	}

	now := time.Now().UTC()
	readings := make([]SensorReading, count)
	for i := range readings {
		r := &readings[i]
		r.ID = NewReadingID()
		r.DeviceID = fmt.Sprintf("%s-%03d", devicePrefix, rand.Intn(generateDeviceCount)+1) //nolint:gosec // Non-cryptographic randomness is fine for seed data
		r.Temperature = round2(rand.Float64() * generateTempMax)                            //nolint:gosec
		r.Humidity = round2(rand.Float64() * generateHumMax)                                //nolint:gosec
		r.PowerUsage = round2(rand.Float64() * generatePowerMax)                            //nolint:gosec
		r.Location = location
		// Spread timestamps backwards a second apart so ordering is stable.
		r.Timestamp = now.Add(-time.Duration(i) * time.Second)
		classify(r)
	}

	if err := s.repo.CreateMany(ctx, readings); err != nil {
		s.metrics.IncStoreFailure()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return readings, nil
}

// round2 rounds to two decimal places for presentable seed values.
func round2(v float64) float64 {
	return float64(int(v*100)) / 100
}
