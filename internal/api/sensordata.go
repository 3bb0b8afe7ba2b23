package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sensorgrid/telemetry-core/internal/pagination"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// createReadingRequest is the request body for POST /sensor-data.
// Alert fields are not accepted; classification is always server-side.
type createReadingRequest struct {
	DeviceID    string     `json:"deviceId"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	PowerUsage  float64    `json:"powerUsage"`
	Location    string     `json:"location"`
	Timestamp   *time.Time `json:"timestamp"`
}

// generateRequest is the request body for POST /sensor-data/generate.
type generateRequest struct {
	Count        int    `json:"count"`
	DevicePrefix string `json:"devicePrefix"`
	Location     string `json:"location"`
}

// sortKeys maps the accepted sortField values to reading sort keys.
var sortKeys = map[string]func(telemetry.SensorReading) any{
	"timestamp":   func(r telemetry.SensorReading) any { return r.Timestamp },
	"createdAt":   func(r telemetry.SensorReading) any { return r.CreatedAt },
	"temperature": func(r telemetry.SensorReading) any { return r.Temperature },
	"humidity":    func(r telemetry.SensorReading) any { return r.Humidity },
	"powerUsage":  func(r telemetry.SensorReading) any { return r.PowerUsage },
	"deviceId":    func(r telemetry.SensorReading) any { return r.DeviceID },
}

// handleListReadings returns a page of readings.
//
// Query parameters: page, limit, sortField, sortOrder, pageToken,
// deviceId, alertsOnly, start, end. A pageToken switches the listing to
// cursor mode; otherwise page/limit offset mode applies.
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseFilter(q.Get("deviceId"), q.Get("alertsOnly"), q.Get("start"), q.Get("end"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	sortField := q.Get("sortField")
	if sortField == "" {
		sortField = "timestamp"
	}
	key, ok := sortKeys[sortField]
	if !ok {
		writeBadRequest(w, "unsupported sortField: "+sortField)
		return
	}

	req := pagination.Request{
		Page:      atoiOrZero(q.Get("page")),
		Limit:     atoiOrZero(q.Get("limit")),
		SortField: sortField,
		SortOrder: q.Get("sortOrder"),
		Token:     q.Get("pageToken"),
	}

	readings, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list readings failed", "error", err)
		writeInternalError(w, "failed to list readings")
		return
	}

	result := pagination.Paginate(readings, req,
		func(r telemetry.SensorReading) string { return r.ID },
		key,
		s.logger,
	)
	writeData(w, http.StatusOK, result)
}

// handleCreateReading persists a reading submitted through the API.
// The classifier derives alert state; caller-supplied alert fields are ignored.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	reading := &telemetry.SensorReading{
		DeviceID:    req.DeviceID,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		PowerUsage:  req.PowerUsage,
		Location:    req.Location,
	}
	if req.Timestamp != nil {
		reading.Timestamp = req.Timestamp.UTC()
	}

	if err := s.service.Create(r.Context(), reading); err != nil {
		if errors.Is(err, telemetry.ErrInvalidReading) {
			writeBadRequest(w, "deviceId is required")
			return
		}
		s.logger.Error("create reading failed", "device_id", req.DeviceID, "error", err)
		writeInternalError(w, "failed to create reading")
		return
	}

	writeData(w, http.StatusCreated, reading)
}

// handleStats returns aggregate statistics over a trailing window.
// Query parameters: deviceId (optional), hours (default 24).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hours := atoiOrZero(q.Get("hours"))
	if q.Get("hours") != "" && hours <= 0 {
		writeBadRequest(w, "hours must be a positive integer")
		return
	}

	stats, err := s.service.Stats(r.Context(), q.Get("deviceId"), hours)
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		writeInternalError(w, "failed to compute statistics")
		return
	}

	writeData(w, http.StatusOK, stats)
}

// handleLatest returns the most recent readings, newest first.
// Query parameters: deviceId (optional), limit (default 10).
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	readings, err := s.service.Latest(r.Context(), q.Get("deviceId"), atoiOrZero(q.Get("limit")))
	if err != nil {
		s.logger.Error("latest readings query failed", "error", err)
		writeInternalError(w, "failed to fetch latest readings")
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"items": readings,
		"count": len(readings),
	})
}

// handleDevices returns the sorted set of device ids with readings.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.service.Devices(r.Context())
	if err != nil {
		s.logger.Error("device listing failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGenerate seeds the store with synthetic readings.
// Generated data is not broadcast; it exists for demos and load tests.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	readings, err := s.service.Generate(r.Context(), req.Count, req.DevicePrefix, req.Location)
	if err != nil {
		if errors.Is(err, telemetry.ErrInvalidReading) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("generate failed", "error", err)
		writeInternalError(w, "failed to generate readings")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("synthetic readings generated", "count", len(readings), "requested_by", claims.Subject)
	writeData(w, http.StatusCreated, map[string]any{
		"generated": len(readings),
		"items":     readings,
	})
}

// handleGetReading returns a single reading by id.
func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reading, err := s.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetry.ErrReadingNotFound) {
			writeNotFound(w, "reading not found")
			return
		}
		s.logger.Error("get reading failed", "id", id, "error", err)
		writeInternalError(w, "failed to fetch reading")
		return
	}

	writeData(w, http.StatusOK, reading)
}

// handleDeleteReading removes a reading.
//
// With ?soft=true the reading is retained but marked deleted, recording
// the deleting account; otherwise the row is removed and returned.
func (s *Server) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := claimsFromContext(r.Context())

	if r.URL.Query().Get("soft") == "true" {
		if err := s.service.SoftDelete(r.Context(), id, claims.Subject); err != nil {
			if errors.Is(err, telemetry.ErrReadingNotFound) {
				writeNotFound(w, "reading not found")
				return
			}
			s.logger.Error("soft delete failed", "id", id, "error", err)
			writeInternalError(w, "failed to delete reading")
			return
		}
		s.logger.Info("reading soft-deleted", "id", id, "deleted_by", claims.Subject)
		writeData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
		return
	}

	reading, err := s.service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, telemetry.ErrReadingNotFound) {
			writeNotFound(w, "reading not found")
			return
		}
		s.logger.Error("delete failed", "id", id, "error", err)
		writeInternalError(w, "failed to delete reading")
		return
	}

	s.logger.Info("reading deleted", "id", id, "deleted_by", claims.Subject)
	writeData(w, http.StatusOK, reading)
}

// parseFilter builds a reading filter from query parameters.
func parseFilter(deviceID, alertsOnly, start, end string) (telemetry.Filter, error) {
	filter := telemetry.Filter{
		DeviceID:   deviceID,
		AlertsOnly: alertsOnly == "true",
	}

	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return filter, errors.New("start must be an RFC 3339 timestamp")
		}
		filter.Start = &t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return filter, errors.New("end must be an RFC 3339 timestamp")
		}
		filter.End = &t
	}

	return filter, nil
}

// atoiOrZero parses an integer query parameter, treating absence or
// garbage as zero (the pagination layer applies defaults).
func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s) //nolint:errcheck // zero on failure is the contract
	return n
}
