package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrDeviceNotFound = errors.New("device not found")

// Device type constants
const (
	DeviceTypeAnnouncements = "announcements"
	DeviceTypeSalutations   = "salutations"
)

// Device is a plugin-owned device: a container for announcements or a
// salutation emitter. The integer id is the opaque group key the
// announcement store uses.
type Device struct {
	ID        int64
	ProfileID int64
	Name      string
	Type      string
	Enabled   bool
	Config    json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeviceStore provides device CRUD operations.
type DeviceStore interface {
	Get(ctx context.Context, id int64) (*Device, error)
	List(ctx context.Context, profileID int64) ([]*Device, error)
	ListByType(ctx context.Context, profileID int64, deviceType string) ([]*Device, error)
	Create(ctx context.Context, d *Device) error
	Rename(ctx context.Context, id int64, name string) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	SetConfig(ctx context.Context, id int64, config json.RawMessage) error
	Delete(ctx context.Context, id int64) error
}

// Devices returns a DeviceStore for this database.
func (db *DB) Devices() DeviceStore {
	return &deviceStore{db: db}
}

type deviceStore struct {
	db *DB
}

func (s *deviceStore) Get(ctx context.Context, id int64) (*Device, error) {
	d := &Device{}
	var config string
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, name, type, enabled, config, created_at, updated_at
		FROM devices WHERE id = ?
	`, id).Scan(&d.ID, &d.ProfileID, &d.Name, &d.Type, &d.Enabled, &config, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Config = json.RawMessage(config)
	d.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	d.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return d, nil
}

func (s *deviceStore) List(ctx context.Context, profileID int64) ([]*Device, error) {
	return s.list(ctx, `
		SELECT id, profile_id, name, type, enabled, config, created_at, updated_at
		FROM devices WHERE profile_id = ? ORDER BY name
	`, profileID)
}

func (s *deviceStore) ListByType(ctx context.Context, profileID int64, deviceType string) ([]*Device, error) {
	return s.list(ctx, `
		SELECT id, profile_id, name, type, enabled, config, created_at, updated_at
		FROM devices WHERE profile_id = ? AND type = ? ORDER BY name
	`, profileID, deviceType)
}

func (s *deviceStore) list(ctx context.Context, query string, args ...any) ([]*Device, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var devices []*Device
	for rows.Next() {
		d := &Device{}
		var config string
		var createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.ProfileID, &d.Name, &d.Type, &d.Enabled, &config, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.Config = json.RawMessage(config)
		d.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		d.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *deviceStore) Create(ctx context.Context, d *Device) error {
	if d.Type != DeviceTypeAnnouncements && d.Type != DeviceTypeSalutations {
		return fmt.Errorf("unknown device type %q", d.Type)
	}
	config := string(d.Config)
	if config == "" {
		config = "{}"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (profile_id, name, type, enabled, config)
		VALUES (?, ?, ?, ?, ?)
	`, d.ProfileID, d.Name, d.Type, d.Enabled, config)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (s *deviceStore) Rename(ctx context.Context, id int64, name string) error {
	return s.exec(ctx, `
		UPDATE devices SET name = ?, updated_at = datetime('now') WHERE id = ?
	`, name, id)
}

func (s *deviceStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return s.exec(ctx, `
		UPDATE devices SET enabled = ?, updated_at = datetime('now') WHERE id = ?
	`, enabled, id)
}

func (s *deviceStore) SetConfig(ctx context.Context, id int64, config json.RawMessage) error {
	return s.exec(ctx, `
		UPDATE devices SET config = ?, updated_at = datetime('now') WHERE id = ?
	`, string(config), id)
}

func (s *deviceStore) Delete(ctx context.Context, id int64) error {
	return s.exec(ctx, `DELETE FROM devices WHERE id = ?`, id)
}

func (s *deviceStore) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}
