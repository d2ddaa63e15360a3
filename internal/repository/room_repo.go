package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hvacctl/internal/models"
)

// RoomSQLite persists the write-through snapshot of every room's
// RoomState, keyed by room_id. The in-memory dispatcher remains
// authoritative while running; this store exists purely for restart
// recovery.
type RoomSQLite struct {
	db *sql.DB
}

func NewRoomSQLite(db *sql.DB) *RoomSQLite {
	return &RoomSQLite{db: db}
}

const (
	insertOrUpdateRoomSQL = `
		INSERT INTO room_state (
			room_id, is_on, mode, fan_speed, target_temp, current_temp,
			status, service_time, wait_indefinite, wait_seconds,
			fee, total_fee, room_type, daily_rate, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			is_on=excluded.is_on,
			mode=excluded.mode,
			fan_speed=excluded.fan_speed,
			target_temp=excluded.target_temp,
			current_temp=excluded.current_temp,
			status=excluded.status,
			service_time=excluded.service_time,
			wait_indefinite=excluded.wait_indefinite,
			wait_seconds=excluded.wait_seconds,
			fee=excluded.fee,
			total_fee=excluded.total_fee,
			room_type=excluded.room_type,
			daily_rate=excluded.daily_rate,
			updated_at=excluded.updated_at
	`

	selectRoomSQL = `
		SELECT room_id, is_on, mode, fan_speed, target_temp, current_temp,
			status, service_time, wait_indefinite, wait_seconds,
			fee, total_fee, room_type, daily_rate, updated_at
		FROM room_state WHERE room_id = ?
	`

	selectAllRoomsSQL = `
		SELECT room_id, is_on, mode, fan_speed, target_temp, current_temp,
			status, service_time, wait_indefinite, wait_seconds,
			fee, total_fee, room_type, daily_rate, updated_at
		FROM room_state ORDER BY room_id
	`
)

// Save upserts one room's snapshot.
func (r *RoomSQLite) Save(ctx context.Context, s models.RoomState) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateRoomSQL,
		s.RoomID,
		s.IsOn,
		string(s.Mode),
		string(s.FanSpeed),
		s.TargetTemp,
		s.CurrentTemp,
		string(s.Status),
		s.ServiceTime,
		s.WaitRemaining.IsIndefinite(),
		s.WaitRemaining.Seconds(),
		s.Fee,
		s.TotalFee,
		s.RoomType,
		s.DailyRate,
		tsUTC,
	)
	return err
}

// Load fetches one room's snapshot. Returns (zero, false, nil) if no
// row exists yet.
func (r *RoomSQLite) Load(ctx context.Context, roomID string) (models.RoomState, bool, error) {
	row := r.db.QueryRowContext(ctx, selectRoomSQL, roomID)
	s, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoomState{}, false, nil
		}
		return models.RoomState{}, false, err
	}
	return s, true, nil
}

// LoadAll returns every persisted room snapshot, ordered by room id.
func (r *RoomSQLite) LoadAll(ctx context.Context) ([]models.RoomState, error) {
	rows, err := r.db.QueryContext(ctx, selectAllRoomsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RoomState, 0, 16)
	for rows.Next() {
		s, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (models.RoomState, error) {
	var (
		s                      models.RoomState
		mode, fan, status      string
		waitIndefinite         bool
		waitSeconds            float64
		roomType               sql.NullString
		dailyRate              sql.NullFloat64
	)
	if err := row.Scan(
		&s.RoomID, &s.IsOn, &mode, &fan, &s.TargetTemp, &s.CurrentTemp,
		&status, &s.ServiceTime, &waitIndefinite, &waitSeconds,
		&s.Fee, &s.TotalFee, &roomType, &dailyRate, &s.UpdatedAt,
	); err != nil {
		return models.RoomState{}, err
	}
	s.Mode = models.Mode(mode)
	s.FanSpeed = models.FanSpeed(fan)
	s.Status = models.Status(status)
	if waitIndefinite {
		s.WaitRemaining = models.Indefinite()
	} else {
		s.WaitRemaining = models.Slice(waitSeconds)
	}
	s.RoomType = roomType.String
	s.DailyRate = dailyRate.Float64
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
