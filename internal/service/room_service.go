package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hvacctl/internal/config"
	"hvacctl/internal/dispatch"
	"hvacctl/internal/models"
	"hvacctl/internal/repository"

	"github.com/google/uuid"
)

// Domain errors rejected at the external boundary; the dispatcher and
// simulator never see these, per the error handling design.
var (
	ErrUnknownRoom     = errors.New("unknown room")
	ErrInvalidMode     = errors.New("invalid mode: must be COOL or HEAT")
	ErrInvalidFanSpeed = errors.New("invalid fan speed: must be LOW, MID, or HIGH")
	ErrInvalidTarget   = errors.New("target temperature outside allowed range for mode")
)

// RoomService is the application-facing wrapper around the Dispatcher,
// implementing the five external interfaces: PowerOn, PowerOff,
// SetFanSpeed, SetTarget, CheckoutReset.
type RoomService struct {
	cfg        config.Config
	dispatcher *dispatch.Dispatcher
	roomRepo   repository.RoomRepo
	eventRepo  repository.EventRepo
}

func NewRoomService(cfg config.Config, d *dispatch.Dispatcher, roomRepo repository.RoomRepo, eventRepo repository.EventRepo) *RoomService {
	return &RoomService{cfg: cfg, dispatcher: d, roomRepo: roomRepo, eventRepo: eventRepo}
}

func validFanSpeed(speed models.FanSpeed) bool {
	switch speed {
	case models.FanLow, models.FanMid, models.FanHigh:
		return true
	}
	return false
}

func validMode(mode models.Mode) bool {
	switch mode {
	case models.ModeCool, models.ModeHeat:
		return true
	}
	return false
}

// PowerOn turns the room's unit on and requests service.
func (s *RoomService) PowerOn(ctx context.Context, roomID string) error {
	ok := s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		room.IsOn = true
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	s.dispatcher.Request(roomID)
	s.logEvent(ctx, roomID, "POWER_ON", "room powered on", nil)
	return s.persist(ctx, roomID)
}

// PowerOff releases the room from any dispatcher queue and turns the
// unit off.
func (s *RoomService) PowerOff(ctx context.Context, roomID string) error {
	if _, ok := s.dispatcher.Snapshot(roomID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	s.dispatcher.Release(roomID)
	s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		room.IsOn = false
	})
	s.logEvent(ctx, roomID, "POWER_OFF", "room powered off", nil)
	return s.persist(ctx, roomID)
}

// SetFanSpeed updates fan speed and, if the room is on, re-requests
// service so the dispatcher re-evaluates priority.
func (s *RoomService) SetFanSpeed(ctx context.Context, roomID string, speed models.FanSpeed) error {
	if !validFanSpeed(speed) {
		return ErrInvalidFanSpeed
	}
	var isOn bool
	ok := s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		room.FanSpeed = speed
		isOn = room.IsOn
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if isOn {
		s.dispatcher.Request(roomID)
	}
	s.logEvent(ctx, roomID, "FAN_SPEED_CHANGE", "fan speed changed to "+string(speed), nil)
	return s.persist(ctx, roomID)
}

// SetTarget updates mode and target temperature. Per the design, this
// never calls Request: target changes must not reset wait timers.
func (s *RoomService) SetTarget(ctx context.Context, roomID string, mode models.Mode, target float64) error {
	if !validMode(mode) {
		return ErrInvalidMode
	}
	allowed := s.cfg.TargetRange(string(mode))
	if target < allowed[0] || target > allowed[1] {
		return fmt.Errorf("%w: %.1f not in [%.1f,%.1f]", ErrInvalidTarget, target, allowed[0], allowed[1])
	}

	ok := s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		room.Mode = mode
		room.TargetTemp = target
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	s.logEvent(ctx, roomID, "TARGET_CHANGE", "target set", map[string]any{
		"mode": mode, "target_temp": target,
	})
	return s.persist(ctx, roomID)
}

// CheckoutReset releases the room, zeroes billing fields, and clears
// occupancy. It does not remove the room itself; rooms are permanent.
func (s *RoomService) CheckoutReset(ctx context.Context, roomID string) error {
	if _, ok := s.dispatcher.Snapshot(roomID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	s.dispatcher.Release(roomID)
	s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		room.IsOn = false
		room.Fee = 0
		room.TotalFee = 0
	})
	s.logEvent(ctx, roomID, "CHECKOUT", "room checked out, billing reset", nil)
	return s.persist(ctx, roomID)
}

// GetState returns a single room's current snapshot.
func (s *RoomService) GetState(roomID string) (models.RoomState, error) {
	room, ok := s.dispatcher.Snapshot(roomID)
	if !ok {
		return models.RoomState{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	return room, nil
}

// GetAllStates returns every room's current snapshot.
func (s *RoomService) GetAllStates() []models.RoomState {
	return s.dispatcher.SnapshotAll()
}

func (s *RoomService) logEvent(ctx context.Context, roomID, typ, desc string, meta map[string]any) {
	if s.eventRepo == nil {
		return
	}
	_ = s.eventRepo.Append(ctx, models.Event{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		RoomID:      roomID,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
}

func (s *RoomService) persist(ctx context.Context, roomID string) error {
	if s.roomRepo == nil {
		return nil
	}
	room, ok := s.dispatcher.Snapshot(roomID)
	if !ok {
		return nil
	}
	room.UpdatedAt = time.Now().UTC()
	return s.roomRepo.Save(ctx, room)
}
