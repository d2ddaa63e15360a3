// Package thermal implements the tick-driven model of each room's
// temperature evolution and the hysteresis that generates and
// withdraws service requests against the dispatcher.
package thermal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hvacctl/internal/config"
	"hvacctl/internal/dispatch"
	"hvacctl/internal/logger"
	"hvacctl/internal/models"
)

// Simulator advances every room's current_temp once per tick, accrues
// fees while a room is serving, and evaluates the hysteresis band that
// decides whether the room should call into the Dispatcher.
type Simulator struct {
	cfg        config.Config
	rooms      map[string]*models.RoomState
	dispatcher *dispatch.Dispatcher
	log        *logger.Logger
}

// New returns a Simulator over the same room set the Dispatcher owns.
func New(cfg config.Config, rooms map[string]*models.RoomState, d *dispatch.Dispatcher, log *logger.Logger) *Simulator {
	return &Simulator{cfg: cfg, rooms: rooms, dispatcher: d, log: log}
}

// Run ticks at cfg.Tick until ctx is canceled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.cfg.Tick.Seconds())
		}
	}
}

// tick runs one pass over every known room. A single room's update
// panicking is recovered and logged so the remaining rooms still get
// processed this tick.
func (s *Simulator) tick(dtSeconds float64) {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s.tickRoomSafe(id, dtSeconds)
	}
}

func (s *Simulator) tickRoomSafe(roomID string, dtSeconds float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("room update panicked", "room_id", roomID, "panic", fmt.Sprint(r))
		}
	}()

	var action string
	found := s.dispatcher.WithRoom(roomID, func(room *models.RoomState) {
		action = s.updateRoom(room, dtSeconds)
	})
	if !found {
		return
	}

	switch action {
	case actionRequest:
		s.dispatcher.Request(roomID)
	case actionRelease:
		s.dispatcher.Release(roomID)
	}
}

const (
	actionNone    = ""
	actionRequest = "request"
	actionRelease = "release"
)

// updateRoom implements the per-tick algorithm. Called with the
// dispatcher's lock held via Dispatcher.WithRoom; must not call back
// into the dispatcher itself. Returns which dispatcher call (if any)
// the caller should make once the lock is released.
func (s *Simulator) updateRoom(room *models.RoomState, dtSeconds float64) string {
	dtMin := dtSeconds / 60.0

	if !room.IsOn {
		s.driftToAmbient(room, dtMin)
		if room.Status != models.StatusIdle {
			// Safety net: is_on was cleared without going through
			// Release (should not normally happen, PowerOff already
			// calls Release). Route through the real Release path so
			// the dispatcher's queues stay in sync with status.
			return actionRelease
		}
		return actionNone
	}

	switch room.Status {
	case models.StatusServing:
		s.advanceServing(room, dtMin)
	case models.StatusIdle, models.StatusWaiting:
		s.driftToAmbient(room, dtMin)
	}

	return s.evaluateHysteresis(room)
}

// driftToAmbient moves current_temp toward Ambient by Recovery*dtMin,
// clamped so it never crosses Ambient.
func (s *Simulator) driftToAmbient(room *models.RoomState, dtMin float64) {
	delta := s.cfg.Recovery * dtMin
	if room.CurrentTemp > s.cfg.Ambient {
		room.CurrentTemp = maxF(room.CurrentTemp-delta, s.cfg.Ambient)
	} else if room.CurrentTemp < s.cfg.Ambient {
		room.CurrentTemp = minF(room.CurrentTemp+delta, s.cfg.Ambient)
	}
}

// advanceServing moves current_temp toward target_temp at the fan
// speed's rate, clamped at target so the unit never overshoots, and
// accrues fee/total_fee proportional to wall time served. Active
// conditioning supersedes passive drift: Recovery is not applied here.
func (s *Simulator) advanceServing(room *models.RoomState, dtMin float64) {
	delta := s.cfg.Delta[string(room.FanSpeed)] * dtMin
	switch room.Mode {
	case models.ModeCool:
		room.CurrentTemp = maxF(room.CurrentTemp-delta, room.TargetTemp)
	case models.ModeHeat:
		room.CurrentTemp = minF(room.CurrentTemp+delta, room.TargetTemp)
	}

	rate := s.cfg.Rate[string(room.FanSpeed)] * dtMin
	room.Fee += rate
	room.TotalFee += rate
}

// evaluateHysteresis computes demand per the COOL/HEAT formulas and
// returns the dispatcher call (if any) the room's new demand state
// requires.
func (s *Simulator) evaluateHysteresis(room *models.RoomState) string {
	var demand bool
	switch room.Mode {
	case models.ModeCool:
		if room.Status == models.StatusServing {
			demand = room.CurrentTemp > room.TargetTemp
		} else {
			demand = room.CurrentTemp >= room.TargetTemp+s.cfg.Hyst
		}
	case models.ModeHeat:
		if room.Status == models.StatusServing {
			demand = room.CurrentTemp < room.TargetTemp
		} else {
			demand = room.CurrentTemp <= room.TargetTemp-s.cfg.Hyst
		}
	}

	switch {
	case demand && room.Status == models.StatusIdle:
		return actionRequest
	case !demand && room.Status != models.StatusIdle:
		return actionRelease
	}
	return actionNone
}

func maxF(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
