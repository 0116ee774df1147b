package vehicle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	_ "modernc.org/sqlite"

	"condo-plates/src/pkg/plate"
)

// fixed width so that stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	plate TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL DEFAULT '',
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	resident TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	authorized_from TEXT NOT NULL,
	expires_at TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS access_records (
	id TEXT PRIMARY KEY,
	plate TEXT NOT NULL,
	vehicle_id TEXT REFERENCES vehicles(id) ON DELETE SET NULL,
	outcome TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_created ON access_records(created_at);
CREATE INDEX IF NOT EXISTS idx_access_plate ON access_records(plate);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	severity TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	access_record_id TEXT REFERENCES access_records(id) ON DELETE SET NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
`

// Store is the SQLite-backed vehicle registry and access log. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

/*
Open opens (creating if needed) the database at path and makes sure the
schema exists. ":memory:" gives a private in-memory database, used by tests.
*/
func Open(ctx context.Context, path string) (store *Store, e *xerr.Error) {
	if path == "" {
		path = Cfg.DatabasePath
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return nil, xerr.NewError(err, "create database directory", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerr.NewError(err, "open sqlite database", path)
	}
	// one connection: sqlite serialises writers anyway and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	store = &Store{db: db, path: path, now: time.Now}
	e = store.initialize(ctx)
	if e != nil {
		db.Close()
		return nil, e
	}

	tl.Log(tl.Info1, palette.Green, "Opened vehicle store at '%s'", path)
	return store, nil
}

func (s *Store) initialize(ctx context.Context) (e *xerr.Error) {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", Cfg.BusyTimeoutMillis),
	}
	for _, pragma := range pragmas {
		_, err := s.db.ExecContext(ctx, pragma)
		if err != nil {
			return xerr.NewError(err, "apply sqlite pragma", pragma)
		}
	}

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return xerr.NewError(err, "create vehicle store schema", s.path)
	}
	return nil
}

func (s *Store) Close() (e *xerr.Error) {
	err := s.db.Close()
	if err != nil {
		return xerr.NewError(err, "close vehicle store", s.path)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, value)
	}
	return t
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// ---------------------------------------------------------------------------------------------------------------------
// vehicles

/*
UpsertVehicle registers v, or updates the vehicle already registered under the
same (normalized) plate. The stored vehicle is returned with its ID and
timestamps filled in.
*/
func (s *Store) UpsertVehicle(ctx context.Context, v Vehicle) (stored Vehicle, e *xerr.Error) {
	v.Plate = plate.NormalizePlate(v.Plate)
	if v.Plate == "" {
		return stored, xerr.NewError(errors.New("empty plate"), "register vehicle", v)
	}
	status, err := ParseStatus(string(v.Status))
	if err != nil {
		return stored, xerr.NewError(err, "register vehicle", v.Plate)
	}
	v.Status = status

	now := s.now()
	existing, found, e := s.FindByPlate(ctx, v.Plate)
	if e != nil {
		return stored, e
	}
	if found {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
	} else {
		v.ID = uuid.NewString()
		v.CreatedAt = now
	}
	if v.AuthorizedFrom.IsZero() {
		v.AuthorizedFrom = now
	}
	v.UpdatedAt = now

	var expiresAt sql.NullString
	if v.ExpiresAt != nil {
		expiresAt = nullableString(formatTime(*v.ExpiresAt))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vehicles (id, plate, kind, make, model, color, year, resident, unit, status, authorized_from, expires_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plate = excluded.plate, kind = excluded.kind, make = excluded.make, model = excluded.model,
			color = excluded.color, year = excluded.year, resident = excluded.resident, unit = excluded.unit,
			status = excluded.status, authorized_from = excluded.authorized_from, expires_at = excluded.expires_at,
			notes = excluded.notes, updated_at = excluded.updated_at`,
		v.ID, v.Plate, v.Kind, v.Make, v.Model, v.Color, v.Year, v.Resident, v.Unit, string(v.Status),
		formatTime(v.AuthorizedFrom), expiresAt, v.Notes, formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	if err != nil {
		return stored, xerr.NewError(err, "upsert vehicle", v.Plate)
	}

	action := "registered"
	if found {
		action = "updated"
	}
	tl.Log(tl.Verbose, palette.Cyan, "Vehicle '%s' %s (id '%s')", v.Plate, action, v.ID)
	return s.reload(ctx, v.ID)
}

func (s *Store) reload(ctx context.Context, id string) (v Vehicle, e *xerr.Error) {
	row := s.db.QueryRowContext(ctx, selectVehicle+" WHERE id = ?", id)
	v, err := scanVehicle(row)
	if err != nil {
		return v, xerr.NewError(err, "reload vehicle", id)
	}
	return v, nil
}

const selectVehicle = `SELECT id, plate, kind, make, model, color, year, resident, unit, status, authorized_from, expires_at, notes, created_at, updated_at FROM vehicles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (v Vehicle, err error) {
	var status, authorizedFrom, createdAt, updatedAt string
	var expiresAt sql.NullString
	err = row.Scan(&v.ID, &v.Plate, &v.Kind, &v.Make, &v.Model, &v.Color, &v.Year, &v.Resident, &v.Unit,
		&status, &authorizedFrom, &expiresAt, &v.Notes, &createdAt, &updatedAt)
	if err != nil {
		return v, err
	}
	v.Status = Status(status)
	v.AuthorizedFrom = parseTime(authorizedFrom)
	if expiresAt.Valid {
		expires := parseTime(expiresAt.String)
		v.ExpiresAt = &expires
	}
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return v, nil
}

// FindByPlate looks a plate up after normalizing it, so "abc-1234" finds "ABC1234".
func (s *Store) FindByPlate(ctx context.Context, rawPlate string) (v Vehicle, found bool, e *xerr.Error) {
	normalized := plate.NormalizePlate(rawPlate)
	if normalized == "" {
		return v, false, nil
	}

	row := s.db.QueryRowContext(ctx, selectVehicle+" WHERE plate = ?", normalized)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Vehicle{}, false, nil
	}
	if err != nil {
		return Vehicle{}, false, xerr.NewError(err, "find vehicle by plate", normalized)
	}
	return v, true, nil
}

func (s *Store) ListVehicles(ctx context.Context) (vehicles []Vehicle, e *xerr.Error) {
	rows, err := s.db.QueryContext(ctx, selectVehicle+" ORDER BY plate")
	if err != nil {
		return nil, xerr.NewError(err, "list vehicles", s.path)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, xerr.NewError(err, "scan vehicle row", s.path)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, xerr.NewError(err, "iterate vehicle rows", s.path)
	}
	return vehicles, nil
}

// ---------------------------------------------------------------------------------------------------------------------
// access log

/*
RecordAccess appends one gate event. An empty plate is stored as UnknownPlate,
confidence is rounded to three decimals.
*/
func (s *Store) RecordAccess(ctx context.Context, record AccessRecord) (stored AccessRecord, e *xerr.Error) {
	record.Plate = plate.NormalizePlate(record.Plate)
	if record.Plate == "" {
		record.Plate = UnknownPlate
	}
	switch record.Outcome {
	case OutcomeGranted, OutcomeDenied, OutcomeFailed:
	default:
		return stored, xerr.NewError(fmt.Errorf("unknown outcome '%s'", record.Outcome), "record access", record.Plate)
	}
	record.ID = uuid.NewString()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	record.Confidence = roundConfidence(record.Confidence)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_records (id, plate, vehicle_id, outcome, confidence, source, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Plate, nullableString(record.VehicleID), string(record.Outcome),
		record.Confidence, record.Source, record.Notes, formatTime(record.CreatedAt),
	)
	if err != nil {
		return stored, xerr.NewError(err, "insert access record", record.Plate)
	}

	tl.Log(tl.Verbose, palette.Cyan, "Access '%s' recorded for plate '%s'", record.Outcome, record.Plate)
	record.CreatedAt = parseTime(formatTime(record.CreatedAt))
	return record, nil
}

func roundConfidence(confidence float64) float64 {
	return float64(int64(confidence*1000+0.5)) / 1000
}

// RecentAccess returns the newest access records first. limit <= 0 uses the configured default.
func (s *Store) RecentAccess(ctx context.Context, limit int) (records []AccessRecord, e *xerr.Error) {
	if limit <= 0 {
		limit = Cfg.RecentAccessLimit
	}
	if Cfg.MaxRecentAccess > 0 && limit > Cfg.MaxRecentAccess {
		limit = Cfg.MaxRecentAccess
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plate, vehicle_id, outcome, confidence, source, notes, created_at
		FROM access_records ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, xerr.NewError(err, "query recent access", limit)
	}
	defer rows.Close()

	for rows.Next() {
		var record AccessRecord
		var vehicleID sql.NullString
		var outcome, createdAt string
		err := rows.Scan(&record.ID, &record.Plate, &vehicleID, &outcome, &record.Confidence, &record.Source, &record.Notes, &createdAt)
		if err != nil {
			return nil, xerr.NewError(err, "scan access row", limit)
		}
		record.VehicleID = vehicleID.String
		record.Outcome = Outcome(outcome)
		record.CreatedAt = parseTime(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, xerr.NewError(err, "iterate access rows", limit)
	}
	return records, nil
}

// ---------------------------------------------------------------------------------------------------------------------
// alerts

func (s *Store) CreateAlert(ctx context.Context, alert Alert) (stored Alert, e *xerr.Error) {
	if strings.TrimSpace(alert.Kind) == "" || strings.TrimSpace(alert.Title) == "" {
		return stored, xerr.NewError(errors.New("alert kind and title are required"), "create alert", alert)
	}
	if alert.Severity == "" {
		alert.Severity = SeverityMedium
	}
	alert.ID = uuid.NewString()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, kind, severity, title, description, access_record_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.Kind, alert.Severity, alert.Title, alert.Description,
		nullableString(alert.AccessRecordID), formatTime(alert.CreatedAt),
	)
	if err != nil {
		return stored, xerr.NewError(err, "insert alert", alert.Title)
	}

	tl.Log(tl.Notice, palette.Yellow, "Alert '%s' (%s) created: '%s'", alert.Kind, alert.Severity, alert.Title)
	alert.CreatedAt = parseTime(formatTime(alert.CreatedAt))
	return alert, nil
}

func (s *Store) RecentAlerts(ctx context.Context, limit int) (alerts []Alert, e *xerr.Error) {
	if limit <= 0 {
		limit = Cfg.RecentAccessLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, severity, title, description, access_record_id, created_at
		FROM alerts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, xerr.NewError(err, "query recent alerts", limit)
	}
	defer rows.Close()

	for rows.Next() {
		var alert Alert
		var recordID sql.NullString
		var createdAt string
		err := rows.Scan(&alert.ID, &alert.Kind, &alert.Severity, &alert.Title, &alert.Description, &recordID, &createdAt)
		if err != nil {
			return nil, xerr.NewError(err, "scan alert row", limit)
		}
		alert.AccessRecordID = recordID.String
		alert.CreatedAt = parseTime(createdAt)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, xerr.NewError(err, "iterate alert rows", limit)
	}
	return alerts, nil
}
