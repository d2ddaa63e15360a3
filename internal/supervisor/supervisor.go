// Package supervisor wires the dispatcher, simulator, and persistence
// layer together and owns the process's long-lived goroutines.
package supervisor

import (
	"context"
	"time"

	"hvacctl/internal/config"
	"hvacctl/internal/dispatch"
	"hvacctl/internal/logger"
	"hvacctl/internal/models"
	"hvacctl/internal/repository"
	"hvacctl/internal/thermal"
)

// persistInterval is how often the in-memory room set is snapshotted
// to the room_state table. The dispatcher stays authoritative while
// running; this is a write-through convenience for restart recovery.
const persistInterval = 5 * time.Second

// eventSink adapts dispatch.Sink to the event log repository so the
// dispatcher can emit events without knowing about storage.
type eventSink struct {
	repo repository.EventRepo
	log  *logger.Logger
}

func (s *eventSink) Emit(roomID, eventType, description string, metadata map[string]any) {
	ev := models.Event{
		OccurredAt:  time.Now(),
		RoomID:      roomID,
		Type:        eventType,
		Description: description,
		Metadata:    metadata,
	}
	if err := s.repo.Append(context.Background(), ev); err != nil && s.log != nil {
		s.log.Errorw("event_append_failed", "err", err, "room_id", roomID, "type", eventType)
	}
}

// Supervisor owns the single Dispatcher/Simulator pair for the
// process and the goroutines that drive them.
type Supervisor struct {
	cfg        config.Config
	repos      *repository.Repository
	log        *logger.Logger
	Dispatcher *dispatch.Dispatcher
	Simulator  *thermal.Simulator
}

// New loads the persisted room set (falling back to cfg.Rooms defaults
// for any room never seen before) and constructs the Dispatcher and
// Simulator over it.
func New(ctx context.Context, cfg config.Config, repos *repository.Repository, log *logger.Logger) (*Supervisor, error) {
	rooms, err := seedRooms(ctx, cfg, repos.Room)
	if err != nil {
		return nil, err
	}

	sink := &eventSink{repo: repos.Event, log: log}
	d := dispatch.New(cfg, rooms, sink)
	sim := thermal.New(cfg, rooms, d, log)

	return &Supervisor{cfg: cfg, repos: repos, log: log, Dispatcher: d, Simulator: sim}, nil
}

// seedRooms loads persisted rooms and fills in the configured defaults
// for any room ID that has never been persisted.
func seedRooms(ctx context.Context, cfg config.Config, repo repository.RoomRepo) (map[string]*models.RoomState, error) {
	persisted, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	rooms := make(map[string]*models.RoomState, len(persisted)+len(cfg.Rooms))
	for i := range persisted {
		r := persisted[i]
		rooms[r.RoomID] = &r
	}

	now := time.Now()
	for _, seed := range cfg.Rooms {
		if _, ok := rooms[seed.RoomID]; ok {
			continue
		}
		rooms[seed.RoomID] = &models.RoomState{
			RoomID:        seed.RoomID,
			RoomType:      seed.RoomType,
			DailyRate:     seed.DailyRate,
			Status:        models.StatusIdle,
			FanSpeed:      models.FanLow,
			Mode:          models.ModeCool,
			CurrentTemp:   cfg.Ambient,
			TargetTemp:    cfg.Ambient,
			WaitRemaining: models.Slice(0),
			UpdatedAt:     now,
		}
	}
	return rooms, nil
}

// Run starts the dispatcher tick loop, the thermal simulator loop, and
// the write-through persistence loop, blocking until ctx is canceled.
// A final persistence pass runs after cancellation so restart recovery
// sees the latest state.
func (s *Supervisor) Run(ctx context.Context) {
	go s.runDispatcherTicks(ctx)
	go s.Simulator.Run(ctx)
	s.runPersistenceLoop(ctx)
}

func (s *Supervisor) runDispatcherTicks(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	dt := s.cfg.Tick.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Dispatcher.Tick(dt)
		}
	}
}

func (s *Supervisor) runPersistenceLoop(ctx context.Context) {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.persistAll(context.Background())
			return
		case <-ticker.C:
			s.persistAll(ctx)
		}
	}
}

func (s *Supervisor) persistAll(ctx context.Context) {
	for _, st := range s.Dispatcher.SnapshotAll() {
		if err := s.repos.Room.Save(ctx, st); err != nil && s.log != nil {
			s.log.Errorw("room_persist_failed", "err", err, "room_id", st.RoomID)
		}
	}
}
