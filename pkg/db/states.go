package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrStateNotFound    = errors.New("device state not found")
	ErrVariableNotFound = errors.New("variable not found")
)

// State is one published state value of a device.
type State struct {
	DeviceID  int64
	Key       string
	Value     string
	UpdatedAt time.Time
}

// StateStore provides access to published device state values.
type StateStore interface {
	Set(ctx context.Context, deviceID int64, key, value string) error
	Get(ctx context.Context, deviceID int64, key string) (string, error)
	List(ctx context.Context, deviceID int64) ([]State, error)
	DeleteForDevice(ctx context.Context, deviceID int64) error
}

// States returns a StateStore for this database.
func (db *DB) States() StateStore {
	return &stateStore{db: db}
}

type stateStore struct {
	db *DB
}

func (s *stateStore) Set(ctx context.Context, deviceID int64, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_states (device_id, state_key, value, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (device_id, state_key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, deviceID, key, value)
	return err
}

func (s *stateStore) Get(ctx context.Context, deviceID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM device_states WHERE device_id = ? AND state_key = ?
	`, deviceID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *stateStore) List(ctx context.Context, deviceID int64) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, state_key, value, updated_at
		FROM device_states WHERE device_id = ? ORDER BY state_key
	`, deviceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var states []State
	for rows.Next() {
		var st State
		var updatedAt string
		if err := rows.Scan(&st.DeviceID, &st.Key, &st.Value, &updatedAt); err != nil {
			return nil, err
		}
		st.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		states = append(states, st)
	}
	return states, rows.Err()
}

func (s *stateStore) DeleteForDevice(ctx context.Context, deviceID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_states WHERE device_id = ?`, deviceID)
	return err
}

// Variable is a named substitution value referenced from announcement
// text via %%v:id%% markers.
type Variable struct {
	ID        int64
	Name      string
	Value     string
	UpdatedAt time.Time
}

// VariableStore provides variable CRUD operations.
type VariableStore interface {
	Get(ctx context.Context, id int64) (*Variable, error)
	GetByName(ctx context.Context, name string) (*Variable, error)
	List(ctx context.Context) ([]*Variable, error)
	Set(ctx context.Context, name, value string) (*Variable, error)
	Delete(ctx context.Context, id int64) error
}

// Variables returns a VariableStore for this database.
func (db *DB) Variables() VariableStore {
	return &variableStore{db: db}
}

type variableStore struct {
	db *DB
}

func (s *variableStore) Get(ctx context.Context, id int64) (*Variable, error) {
	return s.get(ctx, `SELECT id, name, value, updated_at FROM variables WHERE id = ?`, id)
}

func (s *variableStore) GetByName(ctx context.Context, name string) (*Variable, error) {
	return s.get(ctx, `SELECT id, name, value, updated_at FROM variables WHERE name = ?`, name)
}

func (s *variableStore) get(ctx context.Context, query string, arg any) (*Variable, error) {
	v := &Variable{}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&v.ID, &v.Name, &v.Value, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrVariableNotFound
	}
	if err != nil {
		return nil, err
	}
	v.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return v, nil
}

func (s *variableStore) List(ctx context.Context) ([]*Variable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, value, updated_at FROM variables ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var vars []*Variable
	for rows.Next() {
		v := &Variable{}
		var updatedAt string
		if err := rows.Scan(&v.ID, &v.Name, &v.Value, &updatedAt); err != nil {
			return nil, err
		}
		v.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

func (s *variableStore) Set(ctx context.Context, name, value string) (*Variable, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO variables (name, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT (name)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value)
	if err != nil {
		return nil, err
	}
	return s.GetByName(ctx, name)
}

func (s *variableStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM variables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVariableNotFound
	}
	return nil
}
