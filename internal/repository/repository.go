package repository

import (
	"context"
	"database/sql"
	"time"

	"hvacctl/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// RoomRepo persists the write-through snapshot of room state, keyed by
// room id.
type RoomRepo interface {
	Save(ctx context.Context, s models.RoomState) error
	Load(ctx context.Context, roomID string) (models.RoomState, bool, error)
	LoadAll(ctx context.Context) ([]models.RoomState, error)
}

// EventRepo is the append-only event log.
type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, roomID, typ string) ([]models.Event, error)
}

type Repository struct {
	Room  RoomRepo
	Event EventRepo
	Auth  Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Room:  NewRoomSQLite(db),
		Event: NewEventSQLite(db),
		Auth:  NewUserRepository(db),
	}
}
