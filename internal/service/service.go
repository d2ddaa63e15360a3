package service

import (
	"context"

	"hvacctl/internal/billing"
	"hvacctl/internal/config"
	"hvacctl/internal/dispatch"
	"hvacctl/internal/models"
	"hvacctl/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Room exposes the five external control operations plus read access
// to room state.
type Room interface {
	PowerOn(ctx context.Context, roomID string) error
	PowerOff(ctx context.Context, roomID string) error
	SetFanSpeed(ctx context.Context, roomID string, speed models.FanSpeed) error
	SetTarget(ctx context.Context, roomID string, mode models.Mode, target float64) error
	CheckoutReset(ctx context.Context, roomID string) error
	GetState(roomID string) (models.RoomState, error)
	GetAllStates() []models.RoomState
}

// Billing exposes read-only fee breakdowns.
type Billing interface {
	Current(roomID string, nightsStayed int) (billing.Snapshot, bool)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Service aggregates every sub-service the handlers depend on.
type Service struct {
	Room
	Billing
	EventLog
	Authorization
}

// NewService wires the dispatcher and repository layer into the
// concrete services the handlers talk to.
func NewService(cfg config.Config, d *dispatch.Dispatcher, repos *repository.Repository) *Service {
	return &Service{
		Room:          NewRoomService(cfg, d, repos.Room, repos.Event),
		Billing:       billing.New(d),
		EventLog:      NewEventLogService(repos.Event),
		Authorization: NewAuthService(repos.Auth, cfg.JWTSecret),
	}
}
