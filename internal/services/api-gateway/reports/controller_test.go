package reports

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/report"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/gwtest"
)

func day(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

func seed() *gwtest.Notifications {
	return gwtest.NewNotifications(
		&notification.Notification{
			ID: 1, LocationID: gwtest.AgaKhan, LocationName: "Aga Khan", DateOfNotification: day(1), Time: "08:30",
			Mother: notification.Mother{Age: 29, PlaceOfDelivery: "facility"},
			Babies: []notification.Baby{
				{Sex: notification.SexFemale, Outcome: notification.OutcomeFresh, BirthWeight: 2100, GestationWeeks: 34, Place: notification.PlaceFacility},
				{Sex: notification.SexMale, Outcome: notification.OutcomeMacerated, BirthWeight: 1900, GestationWeeks: 34, Place: notification.PlaceFacility},
			},
		},
		&notification.Notification{
			ID: 2, LocationID: gwtest.Westlands, LocationName: "Westlands", DateOfNotification: day(10),
			Babies: []notification.Baby{{Outcome: notification.OutcomeFresh, Place: notification.PlaceHome}},
		},
		&notification.Notification{
			ID: 3, LocationID: gwtest.CoastGeneral, LocationName: "Coast General", DateOfNotification: day(5),
			Babies: []notification.Baby{{Sex: notification.SexMale, Outcome: notification.OutcomeFresh, Place: notification.PlaceFacility}},
		},
	)
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	srv := NewServer(seed(), location.NewHierarchy(gwtest.NewLocations()), nil)
	return gwtest.NewMux(t, srv.Routes()...)
}

func TestRaw_ScopedToSubtree(t *testing.T) {
	h := setup(t)

	rec := gwtest.Do(h, http.MethodGet, "/v1/reports/raw", "county", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var records []report.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Aga Khan", records[0].FacilityLabel())
	assert.Len(t, records[0].Babies, 2)
	assert.Contains(t, rec.Body.String(), `"dateOfNotification":"2026-03-01"`)
	assert.Contains(t, rec.Body.String(), `"birthWeight":2100`)
}

func TestRaw_DateRangeAndLocation(t *testing.T) {
	h := setup(t)

	rec := gwtest.Do(h, http.MethodGet, "/v1/reports/raw?from=2026-03-02&to=2026-03-31", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []report.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	rec = gwtest.Do(h, http.MethodGet, "/v1/reports/raw?location_id=5", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Coast General", records[0].FacilityLabel())
}

func TestRaw_Rejects(t *testing.T) {
	h := setup(t)

	assert.Equal(t, http.StatusForbidden, gwtest.Do(h, http.MethodGet, "/v1/reports/raw?location_id=5", "county", "").Code)
	assert.Equal(t, http.StatusBadRequest, gwtest.Do(h, http.MethodGet, "/v1/reports/raw?from=March", "admin", "").Code)
	assert.Equal(t, http.StatusBadRequest, gwtest.Do(h, http.MethodGet, "/v1/reports/raw?from=2026-03-10&to=2026-03-01", "admin", "").Code)
	assert.Equal(t, http.StatusBadRequest, gwtest.Do(h, http.MethodGet, "/v1/reports/raw?location_id=-1", "admin", "").Code)
}

func TestTiles(t *testing.T) {
	h := setup(t)

	rec := gwtest.Do(h, http.MethodGet, "/v1/reports/tiles", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var s report.TileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Type.Fresh)
	assert.Equal(t, 1, s.Type.Macerated)
	assert.Equal(t, 1, s.Place.Home)
	assert.Equal(t, 3, s.Place.Facility)
	// sex tiles only read the legacy per-record counters
	assert.Zero(t, s.Sex.Female+s.Sex.Male)
}

func TestPreview(t *testing.T) {
	h := setup(t)

	rec := gwtest.Do(h, http.MethodGet, "/v1/reports/preview?location_id=2", "county", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []report.PreviewRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Female", rows[0].Sex)
	assert.Equal(t, "Male", rows[1].Sex)
	assert.Equal(t, report.Unknown, rows[2].Sex)
	assert.Equal(t, "2100", rows[0].Weight)
	assert.Equal(t, "29", rows[0].MotherAge)
	assert.Equal(t, "Westlands", rows[2].Facility)
}

func TestExport(t *testing.T) {
	h := setup(t)

	assert.Equal(t, http.StatusForbidden, gwtest.Do(h, http.MethodGet, "/v1/reports/export", "facility", "").Code)

	rec := gwtest.Do(h, http.MethodGet, "/v1/reports/export?from=2026-03-01", "county", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stillbirths-2-from-2026-03-01.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Preview")
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus three babies")
}
