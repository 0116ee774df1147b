package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/vehicle"
)

type fakeRecognizer struct {
	result recognize.Result
	region string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte, regionID string) recognize.Result {
	f.region = regionID
	return f.result
}

type fakeNotifier struct {
	alerts    []vehicle.Alert
	decisions []Decision
	fail      bool
}

func (f *fakeNotifier) Notify(_ context.Context, alert vehicle.Alert, decision Decision) *xerr.Error {
	f.alerts = append(f.alerts, alert)
	f.decisions = append(f.decisions, decision)
	if f.fail {
		return xerr.NewError(errors.New("smtp down"), "fake notify", alert.ID)
	}
	return nil
}

func found(plateText string, confidence float64) recognize.Result {
	return recognize.Result{Plate: plateText, Found: true, Confidence: confidence, Source: "local:normal+psm7", Region: "BOLIVIA"}
}

func newTestGate(t *testing.T, result recognize.Result, notifier Notifier) (*Gate, *vehicle.Store) {
	t.Helper()
	store, e := vehicle.Open(context.Background(), ":memory:")
	require.Nil(t, e)
	t.Cleanup(func() { store.Close() })
	return NewGate(&fakeRecognizer{result: result}, store, notifier, ""), store
}

func TestCheckGrantsAuthorizedVehicle(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	gate, store := newTestGate(t, found("1852PHD", 0.7), notifier)
	registered, e := store.UpsertVehicle(ctx, vehicle.Vehicle{Plate: "1852-PHD", Unit: "4B"})
	require.Nil(t, e)

	decision, e := gate.Check(ctx, []byte("img"), "morning")
	require.Nil(t, e)

	assert.Equal(t, vehicle.OutcomeGranted, decision.Outcome)
	assert.True(t, decision.Registered)
	assert.True(t, decision.Authorized)
	assert.False(t, decision.AlertRaised)
	require.NotNil(t, decision.Vehicle)
	assert.Equal(t, registered.ID, decision.Vehicle.ID)
	assert.Empty(t, notifier.alerts)

	records, e := store.RecentAccess(ctx, 10)
	require.Nil(t, e)
	require.Len(t, records, 1)
	assert.Equal(t, decision.RecordID, records[0].ID)
	assert.Equal(t, registered.ID, records[0].VehicleID)
	assert.Equal(t, "morning", records[0].Notes)
	assert.Equal(t, 0.7, records[0].Confidence)
}

func TestCheckDeniesUnregisteredVehicle(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	gate, store := newTestGate(t, found("ABC1234", 0.93), notifier)

	decision, e := gate.Check(ctx, []byte("img"), "")
	require.Nil(t, e)

	assert.Equal(t, vehicle.OutcomeDenied, decision.Outcome)
	assert.False(t, decision.Registered)
	assert.Nil(t, decision.Vehicle)
	assert.True(t, decision.AlertRaised)

	require.Len(t, notifier.alerts, 1)
	alert := notifier.alerts[0]
	assert.Equal(t, vehicle.AlertKindUnauthorized, alert.Kind)
	assert.Equal(t, vehicle.SeverityMedium, alert.Severity)
	assert.Equal(t, decision.RecordID, alert.AccessRecordID)
	assert.Contains(t, alert.Title, "ABC1234")

	alerts, e := store.RecentAlerts(ctx, 10)
	require.Nil(t, e)
	require.Len(t, alerts, 1)
	assert.Equal(t, decision.AlertID, alerts[0].ID)
}

func TestCheckDeniesExpiredVehicle(t *testing.T) {
	ctx := context.Background()
	gate, store := newTestGate(t, found("ABC1234", 0.7), nil)
	expired := time.Now().Add(-24 * time.Hour)
	_, e := store.UpsertVehicle(ctx, vehicle.Vehicle{Plate: "ABC1234", Unit: "7A", ExpiresAt: &expired})
	require.Nil(t, e)

	decision, e := gate.Check(ctx, []byte("img"), "")
	require.Nil(t, e)
	assert.True(t, decision.Registered)
	assert.False(t, decision.Authorized)
	assert.Equal(t, vehicle.OutcomeDenied, decision.Outcome)
	assert.True(t, decision.AlertRaised)

	alerts, e := store.RecentAlerts(ctx, 1)
	require.Nil(t, e)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Description, "unit 7A")
}

func TestCheckRecordsFailedRecognition(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	gate, store := newTestGate(t, recognize.Result{Failure: recognize.FailureNoTextDetected}, notifier)

	decision, e := gate.Check(ctx, []byte("img"), "camera 2")
	require.Nil(t, e)
	assert.Equal(t, vehicle.OutcomeFailed, decision.Outcome)
	assert.False(t, decision.AlertRaised)
	assert.Empty(t, notifier.alerts)

	records, e := store.RecentAccess(ctx, 10)
	require.Nil(t, e)
	require.Len(t, records, 1)
	assert.Equal(t, vehicle.UnknownPlate, records[0].Plate)
	assert.Equal(t, vehicle.OutcomeFailed, records[0].Outcome)
	assert.Contains(t, records[0].Notes, "camera 2")
	assert.Contains(t, records[0].Notes, recognize.FailureNoTextDetected)
}

func TestNotifierFailureDoesNotChangeDecision(t *testing.T) {
	gate, _ := newTestGate(t, found("ABC1234", 0.7), &fakeNotifier{fail: true})

	decision, e := gate.Check(context.Background(), []byte("img"), "")
	require.Nil(t, e)
	assert.Equal(t, vehicle.OutcomeDenied, decision.Outcome)
	assert.True(t, decision.AlertRaised)
}

func TestCheckPassesRegion(t *testing.T) {
	recognizer := &fakeRecognizer{result: recognize.Result{}}
	store, e := vehicle.Open(context.Background(), ":memory:")
	require.Nil(t, e)
	defer store.Close()

	_, e = NewGate(recognizer, store, nil, "ARGENTINA").Check(context.Background(), []byte("img"), "")
	require.Nil(t, e)
	assert.Equal(t, "ARGENTINA", recognizer.region)
}
