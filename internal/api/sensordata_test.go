package api

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/auth"
	"github.com/sensorgrid/telemetry-core/internal/pagination"
	"github.com/sensorgrid/telemetry-core/internal/telemetry"
)

// readingPage mirrors the pagination result shape for decoding.
type readingPage = pagination.Result[telemetry.SensorReading]

// seedSequence persists n readings with strictly increasing timestamps.
func (h *testHarness) seedSequence(t *testing.T, n int) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		h.seedReadings(t, &telemetry.SensorReading{
			DeviceID:    fmt.Sprintf("sensor-%03d", i%3),
			Temperature: float64(20 + i),
			Humidity:    50,
			PowerUsage:  100,
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		})
	}
}

func TestListReadings_OffsetMode(t *testing.T) {
	h := testServer(t)
	h.seedSequence(t, 25)
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?limit=10&page=1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	page := decodeBody[readingPage](t, rec)
	if len(page.Items) != 10 {
		t.Errorf("items = %d, want 10", len(page.Items))
	}
	if page.TotalCount != 25 {
		t.Errorf("totalCount = %d, want 25", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", page.TotalPages)
	}
	if !page.HasNextPage {
		t.Error("hasNextPage = false, want true")
	}
	if page.NextToken == "" {
		t.Error("no nextPageToken on a page with a successor")
	}

	// Default sort is timestamp descending.
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].Timestamp.After(page.Items[i-1].Timestamp) {
			t.Fatal("items not in descending timestamp order")
		}
	}
}

func TestListReadings_CursorWalk(t *testing.T) {
	h := testServer(t)
	h.seedSequence(t, 12)
	token := tokenFor(t, auth.RoleUser)

	seen := make(map[string]bool)
	pageToken := ""
	for pages := 0; pages < 5; pages++ {
		path := "/api/v1/sensor-data?limit=5"
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}

		rec := h.doRequest(t, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		page := decodeBody[readingPage](t, rec)
		for _, item := range page.Items {
			if seen[item.ID] {
				t.Fatalf("reading %s returned twice across pages", item.ID)
			}
			seen[item.ID] = true
		}
		if !page.HasNextPage {
			break
		}
		pageToken = page.NextToken
	}

	if len(seen) != 12 {
		t.Errorf("cursor walk covered %d readings, want 12", len(seen))
	}
}

func TestListReadings_MalformedTokenFallsBack(t *testing.T) {
	h := testServer(t)
	h.seedSequence(t, 5)
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?pageToken=%21%21garbage", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (offset fallback)", rec.Code)
	}

	page := decodeBody[readingPage](t, rec)
	if page.Page != 1 {
		t.Errorf("page = %d, want 1 after fallback", page.Page)
	}
	if len(page.Items) != 5 {
		t.Errorf("items = %d, want 5", len(page.Items))
	}
}

func TestListReadings_Filters(t *testing.T) {
	h := testServer(t)
	h.seedReadings(t,
		&telemetry.SensorReading{DeviceID: "sensor-000", Temperature: 95, Humidity: 50, PowerUsage: 100},
		&telemetry.SensorReading{DeviceID: "sensor-000", Temperature: 25, Humidity: 50, PowerUsage: 100},
		&telemetry.SensorReading{DeviceID: "sensor-001", Temperature: 25, Humidity: 50, PowerUsage: 100},
	)
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?deviceId=sensor-000", token, nil)
	page := decodeBody[readingPage](t, rec)
	if page.TotalCount != 2 {
		t.Errorf("deviceId filter totalCount = %d, want 2", page.TotalCount)
	}

	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?alertsOnly=true", token, nil)
	page = decodeBody[readingPage](t, rec)
	if page.TotalCount != 1 {
		t.Errorf("alertsOnly filter totalCount = %d, want 1", page.TotalCount)
	}
	if len(page.Items) == 1 && !page.Items[0].IsAlert {
		t.Error("alertsOnly returned a non-alert reading")
	}

	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?start=not-a-time", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad start filter status = %d, want 400", rec.Code)
	}

	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data?sortField=nonsense", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sortField status = %d, want 400", rec.Code)
	}
}

func TestCreateReading_DerivesAlertState(t *testing.T) {
	h := testServer(t)
	token := tokenFor(t, auth.RoleAdmin)

	rec := h.doRequest(t, http.MethodPost, "/api/v1/sensor-data", token, createReadingRequest{
		DeviceID:    "sensor-001",
		Temperature: 95,
		Humidity:    50,
		PowerUsage:  100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	reading := decodeBody[telemetry.SensorReading](t, rec)
	if reading.ID == "" {
		t.Error("no id assigned")
	}
	if !reading.IsAlert {
		t.Error("95 degrees did not classify as an alert")
	}
	if reading.AlertMessage != "High temperature" {
		t.Errorf("alert message = %q, want %q", reading.AlertMessage, "High temperature")
	}
}

func TestCreateReading_Validation(t *testing.T) {
	h := testServer(t)
	token := tokenFor(t, auth.RoleAdmin)

	rec := h.doRequest(t, http.MethodPost, "/api/v1/sensor-data", token, createReadingRequest{
		Temperature: 25,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty deviceId status = %d, want 400", rec.Code)
	}
}

func TestGetAndDeleteReading(t *testing.T) {
	h := testServer(t)
	adminToken := tokenFor(t, auth.RoleAdmin)

	reading := &telemetry.SensorReading{DeviceID: "sensor-001", Temperature: 25, Humidity: 50, PowerUsage: 100}
	h.seedReadings(t, reading)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/"+reading.ID, tokenFor(t, auth.RoleUser), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = h.doRequest(t, http.MethodDelete, "/api/v1/sensor-data/"+reading.ID, adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	deleted := decodeBody[telemetry.SensorReading](t, rec)
	if deleted.ID != reading.ID {
		t.Errorf("deleted id = %q, want %q", deleted.ID, reading.ID)
	}

	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/"+reading.ID, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}

	rec = h.doRequest(t, http.MethodDelete, "/api/v1/sensor-data/sd-missing1", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", rec.Code)
	}
}

func TestSoftDeleteReading(t *testing.T) {
	h := testServer(t)
	adminToken := tokenFor(t, auth.RoleAdmin)

	reading := &telemetry.SensorReading{DeviceID: "sensor-001", Temperature: 25, Humidity: 50, PowerUsage: 100}
	h.seedReadings(t, reading)

	rec := h.doRequest(t, http.MethodDelete, "/api/v1/sensor-data/"+reading.ID+"?soft=true", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("soft delete status = %d: %s", rec.Code, rec.Body.String())
	}

	// Soft-deleted readings disappear from listings.
	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data", adminToken, nil)
	page := decodeBody[readingPage](t, rec)
	if page.TotalCount != 0 {
		t.Errorf("totalCount after soft delete = %d, want 0", page.TotalCount)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h := testServer(t)
	h.seedReadings(t,
		&telemetry.SensorReading{DeviceID: "sensor-001", Temperature: 20, Humidity: 40, PowerUsage: 100},
		&telemetry.SensorReading{DeviceID: "sensor-001", Temperature: 90, Humidity: 60, PowerUsage: 200},
	)
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	stats := decodeBody[telemetry.Stats](t, rec)
	if stats.Count != 2 {
		t.Errorf("count = %d, want 2", stats.Count)
	}
	if stats.AvgTemperature != 55 {
		t.Errorf("avg temperature = %v, want 55", stats.AvgTemperature)
	}
	if stats.TotalAlerts != 1 {
		t.Errorf("total alerts = %d, want 1", stats.TotalAlerts)
	}

	rec = h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/stats?hours=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad hours status = %d, want 400", rec.Code)
	}
}

func TestLatestEndpoint(t *testing.T) {
	h := testServer(t)
	h.seedSequence(t, 15)
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/latest?limit=5", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody[struct {
		Items []telemetry.SensorReading `json:"items"`
		Count int                       `json:"count"`
	}](t, rec)
	if body.Count != 5 {
		t.Errorf("count = %d, want 5", body.Count)
	}
	for i := 1; i < len(body.Items); i++ {
		if body.Items[i].Timestamp.After(body.Items[i-1].Timestamp) {
			t.Fatal("latest items not newest-first")
		}
	}
}

func TestDevicesEndpoint(t *testing.T) {
	h := testServer(t)
	h.seedSequence(t, 6) // devices sensor-000..002
	token := tokenFor(t, auth.RoleUser)

	rec := h.doRequest(t, http.MethodGet, "/api/v1/sensor-data/devices", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody[struct {
		Devices []string `json:"devices"`
		Count   int      `json:"count"`
	}](t, rec)
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	h := testServer(t)
	token := tokenFor(t, auth.RoleAdmin)

	rec := h.doRequest(t, http.MethodPost, "/api/v1/sensor-data/generate", token, generateRequest{
		Count:        15,
		DevicePrefix: "demo",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody[struct {
		Generated int `json:"generated"`
	}](t, rec)
	if body.Generated != 15 {
		t.Errorf("generated = %d, want 15", body.Generated)
	}

	// Over the cap is rejected.
	rec = h.doRequest(t, http.MethodPost, "/api/v1/sensor-data/generate", token, generateRequest{Count: 100000})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized generate status = %d, want 400", rec.Code)
	}
}
