package vehicle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, e := Open(context.Background(), filepath.Join(t.TempDir(), "db", "plates.db"))
	require.Nil(t, e)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIsAuthorized(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		vehicle Vehicle
		want    bool
	}{
		{"active no expiry", Vehicle{Status: StatusActive}, true},
		{"active not yet expired", Vehicle{Status: StatusActive, AuthorizedFrom: past, ExpiresAt: &future}, true},
		{"expired", Vehicle{Status: StatusActive, ExpiresAt: &past}, false},
		{"expires exactly now", Vehicle{Status: StatusActive, ExpiresAt: &now}, false},
		{"not yet authorized", Vehicle{Status: StatusActive, AuthorizedFrom: future}, false},
		{"inactive", Vehicle{Status: StatusInactive}, false},
		{"suspended", Vehicle{Status: StatusSuspended}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.vehicle.IsAuthorized(now))
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" Suspended ")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, status)

	status, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, status)

	_, err = ParseStatus("stolen")
	assert.Error(t, err)
}

func TestUpsertAndFindByPlate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	stored, e := store.UpsertVehicle(ctx, Vehicle{Plate: " 1852-phd ", Kind: "car", Make: "Toyota", Year: 2019, Resident: "Ana Rojas", Unit: "4B", ExpiresAt: &expires})
	require.Nil(t, e)
	assert.Equal(t, "1852PHD", stored.Plate)
	assert.Equal(t, StatusActive, stored.Status)
	_, err := uuid.Parse(stored.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpiresAt)
	assert.True(t, expires.Equal(*stored.ExpiresAt))
	assert.False(t, stored.AuthorizedFrom.IsZero())

	for _, query := range []string{"1852PHD", "1852 phd", "1852-PHD"} {
		found, ok, e := store.FindByPlate(ctx, query)
		require.Nil(t, e)
		require.True(t, ok, query)
		assert.Equal(t, stored.ID, found.ID)
		assert.Equal(t, "Ana Rojas", found.Resident)
		assert.Equal(t, 2019, found.Year)
	}

	_, ok, e := store.FindByPlate(ctx, "ABC1234")
	require.Nil(t, e)
	assert.False(t, ok)

	_, ok, e = store.FindByPlate(ctx, "  ")
	require.Nil(t, e)
	assert.False(t, ok)
}

func TestUpsertUpdatesExistingPlate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, e := store.UpsertVehicle(ctx, Vehicle{Plate: "ABC1234", Color: "red"})
	require.Nil(t, e)
	second, e := store.UpsertVehicle(ctx, Vehicle{Plate: "abc 1234", Color: "blue", Status: StatusSuspended})
	require.Nil(t, e)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "blue", second.Color)
	assert.Equal(t, StatusSuspended, second.Status)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	vehicles, e := store.ListVehicles(ctx)
	require.Nil(t, e)
	assert.Len(t, vehicles, 1)
}

func TestUpsertRejectsInvalidVehicles(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, e := store.UpsertVehicle(ctx, Vehicle{Plate: " - "})
	assert.NotNil(t, e)
	_, e = store.UpsertVehicle(ctx, Vehicle{Plate: "ABC1234", Status: "stolen"})
	assert.NotNil(t, e)
}

func TestListVehiclesSortedByPlate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, p := range []string{"XYZ9876", "1852PHD", "ABC1234"} {
		_, e := store.UpsertVehicle(ctx, Vehicle{Plate: p})
		require.Nil(t, e)
	}
	vehicles, e := store.ListVehicles(ctx)
	require.Nil(t, e)

	var plates []string
	for _, v := range vehicles {
		plates = append(plates, v.Plate)
	}
	assert.Equal(t, []string{"1852PHD", "ABC1234", "XYZ9876"}, plates)
}

func TestRecordAndRecentAccess(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	v, e := store.UpsertVehicle(ctx, Vehicle{Plate: "1852PHD"})
	require.Nil(t, e)

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	_, e = store.RecordAccess(ctx, AccessRecord{Plate: "1852PHD", VehicleID: v.ID, Outcome: OutcomeGranted, Confidence: 0.93456, Source: "azure", CreatedAt: base})
	require.Nil(t, e)
	_, e = store.RecordAccess(ctx, AccessRecord{Plate: "ABC1234", Outcome: OutcomeDenied, Confidence: 0.7, CreatedAt: base.Add(time.Minute)})
	require.Nil(t, e)
	failed, e := store.RecordAccess(ctx, AccessRecord{Outcome: OutcomeFailed, Notes: "night shift", CreatedAt: base.Add(2 * time.Minute)})
	require.Nil(t, e)
	assert.Equal(t, UnknownPlate, failed.Plate)

	records, e := store.RecentAccess(ctx, 0)
	require.Nil(t, e)
	require.Len(t, records, 3)
	assert.Equal(t, OutcomeFailed, records[0].Outcome)
	assert.Equal(t, "night shift", records[0].Notes)
	assert.Equal(t, OutcomeDenied, records[1].Outcome)
	assert.Empty(t, records[1].VehicleID)
	assert.Equal(t, v.ID, records[2].VehicleID)
	assert.Equal(t, 0.935, records[2].Confidence)
	assert.True(t, base.Equal(records[2].CreatedAt))

	records, e = store.RecentAccess(ctx, 2)
	require.Nil(t, e)
	assert.Len(t, records, 2)
}

func TestRecordAccessRejectsUnknownOutcome(t *testing.T) {
	_, e := openTestStore(t).RecordAccess(context.Background(), AccessRecord{Plate: "1852PHD", Outcome: "maybe"})
	assert.NotNil(t, e)
}

func TestCreateAlert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	record, e := store.RecordAccess(ctx, AccessRecord{Plate: "ABC1234", Outcome: OutcomeDenied})
	require.Nil(t, e)

	alert, e := store.CreateAlert(ctx, Alert{Kind: AlertKindUnauthorized, Title: "Unregistered vehicle ABC1234", AccessRecordID: record.ID})
	require.Nil(t, e)
	assert.Equal(t, SeverityMedium, alert.Severity)
	assert.NotEmpty(t, alert.ID)

	alerts, e := store.RecentAlerts(ctx, 10)
	require.Nil(t, e)
	require.Len(t, alerts, 1)
	assert.Equal(t, record.ID, alerts[0].AccessRecordID)

	_, e = store.CreateAlert(ctx, Alert{Kind: AlertKindUnauthorized})
	assert.NotNil(t, e)
}

func TestOpenInMemory(t *testing.T) {
	store, e := Open(context.Background(), ":memory:")
	require.Nil(t, e)
	defer store.Close()

	_, e = store.UpsertVehicle(context.Background(), Vehicle{Plate: "AB123CD"})
	require.Nil(t, e)
	vehicles, e := store.ListVehicles(context.Background())
	require.Nil(t, e)
	assert.Len(t, vehicles, 1)
}
