// Package access turns a plate photo into a gate decision and keeps the access log.
package access

import (
	"context"
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"condo-plates/src/pkg/recognize"
	"condo-plates/src/pkg/vehicle"
)

type Recognizer interface {
	Recognize(ctx context.Context, imageBytes []byte, regionID string) recognize.Result
}

// Registry is the part of vehicle.Store the gate needs.
type Registry interface {
	FindByPlate(ctx context.Context, rawPlate string) (vehicle.Vehicle, bool, *xerr.Error)
	RecordAccess(ctx context.Context, record vehicle.AccessRecord) (vehicle.AccessRecord, *xerr.Error)
	CreateAlert(ctx context.Context, alert vehicle.Alert) (vehicle.Alert, *xerr.Error)
}

// Notifier delivers a raised alert to people. Failures never change the decision.
type Notifier interface {
	Notify(ctx context.Context, alert vehicle.Alert, decision Decision) *xerr.Error
}

type Decision struct {
	Result      recognize.Result `json:"result"`
	Vehicle     *vehicle.Vehicle `json:"vehicle"`
	Registered  bool             `json:"registered"`
	Authorized  bool             `json:"authorized"`
	Outcome     vehicle.Outcome  `json:"outcome"`
	RecordID    string           `json:"record_id"`
	AlertRaised bool             `json:"alert_raised"`
	AlertID     string           `json:"alert_id,omitempty"`
}

type Gate struct {
	recognizer Recognizer
	registry   Registry
	notifier   Notifier
	region     string
	now        func() time.Time
}

// NewGate wires a gate. notifier may be nil; region "" means the configured default region.
func NewGate(recognizer Recognizer, registry Registry, notifier Notifier, region string) *Gate {
	return &Gate{recognizer: recognizer, registry: registry, notifier: notifier, region: region, now: time.Now}
}

/*
Check reads the plate on imageBytes and decides whether the vehicle may enter.

  - nothing read: a "failed" record with plate UNKNOWN
  - registered and authorized: "granted"
  - unregistered or not authorized: "denied", plus an unauthorized_vehicle alert

Every outcome is written to the access log. Only registry failures are returned as errors.
*/
func (g *Gate) Check(ctx context.Context, imageBytes []byte, notes string) (decision Decision, e *xerr.Error) {
	decision.Result = g.recognizer.Recognize(ctx, imageBytes, g.region)
	result := decision.Result

	if !result.Found {
		decision.Outcome = vehicle.OutcomeFailed
		record, e := g.registry.RecordAccess(ctx, vehicle.AccessRecord{
			Plate: vehicle.UnknownPlate, Outcome: vehicle.OutcomeFailed, Source: result.Source,
			Notes: joinNotes(notes, "recognition failed: "+result.Failure),
		})
		if e != nil {
			return decision, e
		}
		decision.RecordID = record.ID
		tl.Log(tl.Warning, palette.Yellow, "Gate check %s: '%s'", "failed", result.Failure)
		return decision, nil
	}

	registered, found, e := g.registry.FindByPlate(ctx, result.Plate)
	if e != nil {
		return decision, e
	}
	if found {
		decision.Vehicle = &registered
		decision.Registered = true
		decision.Authorized = registered.IsAuthorized(g.now())
	}

	decision.Outcome = vehicle.OutcomeDenied
	if decision.Authorized {
		decision.Outcome = vehicle.OutcomeGranted
	}

	record := vehicle.AccessRecord{
		Plate: result.Plate, Outcome: decision.Outcome, Confidence: result.Confidence,
		Source: result.Source, Notes: notes,
	}
	if found {
		record.VehicleID = registered.ID
	}
	record, e = g.registry.RecordAccess(ctx, record)
	if e != nil {
		return decision, e
	}
	decision.RecordID = record.ID

	if decision.Authorized {
		tl.Log(tl.Notice, palette.Green, "Access %s for '%s' (unit '%s')", "granted", result.Plate, registered.Unit)
		return decision, nil
	}

	tl.Log(tl.Warning, palette.YellowBold, "Access %s for '%s' (registered: %t)", "denied", result.Plate, decision.Registered)
	alert, e := g.registry.CreateAlert(ctx, unauthorizedAlert(decision, record.ID))
	if e != nil {
		return decision, e
	}
	decision.AlertRaised = true
	decision.AlertID = alert.ID

	if g.notifier != nil {
		notifyErr := g.notifier.Notify(ctx, alert, decision)
		if notifyErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "Alert '%s' was stored but %s: %v", alert.ID, "notification failed", notifyErr)
		}
	}
	return decision, nil
}

func unauthorizedAlert(decision Decision, recordID string) vehicle.Alert {
	result := decision.Result
	title := fmt.Sprintf("Unregistered vehicle %s", result.Plate)
	description := fmt.Sprintf("Plate %s is not in the vehicle registry.", result.Plate)
	if decision.Registered {
		title = fmt.Sprintf("Vehicle %s not authorized", result.Plate)
		description = fmt.Sprintf("Plate %s is registered to unit %s but its status is %s or its authorization expired.",
			result.Plate, decision.Vehicle.Unit, decision.Vehicle.Status)
	}
	description += fmt.Sprintf(" Read with confidence %.2f by %s.", result.Confidence, result.Source)

	return vehicle.Alert{
		Kind:           vehicle.AlertKindUnauthorized,
		Severity:       vehicle.SeverityMedium,
		Title:          title,
		Description:    description,
		AccessRecordID: recordID,
	}
}

func joinNotes(notes, extra string) string {
	if notes == "" {
		return extra
	}
	return notes + "; " + extra
}
