package supervisor

import (
	"context"
	"testing"

	"hvacctl/internal/config"
	"hvacctl/internal/models"
)

type fakeRoomRepo struct {
	rooms []models.RoomState
	err   error
}

func (f *fakeRoomRepo) Save(ctx context.Context, s models.RoomState) error { return nil }
func (f *fakeRoomRepo) Load(ctx context.Context, roomID string) (models.RoomState, bool, error) {
	for _, r := range f.rooms {
		if r.RoomID == roomID {
			return r, true, nil
		}
	}
	return models.RoomState{}, false, nil
}
func (f *fakeRoomRepo) LoadAll(ctx context.Context) ([]models.RoomState, error) {
	return f.rooms, f.err
}

func TestSeedRooms_PersistedTakesPrecedenceOverDefaults(t *testing.T) {
	cfg := config.Default()
	repo := &fakeRoomRepo{rooms: []models.RoomState{
		{RoomID: "101", Status: models.StatusServing, CurrentTemp: 23.5},
	}}

	rooms, err := seedRooms(context.Background(), cfg, repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rooms) != len(cfg.Rooms) {
		t.Fatalf("expected %d rooms, got %d", len(cfg.Rooms), len(rooms))
	}
	if rooms["101"].Status != models.StatusServing || rooms["101"].CurrentTemp != 23.5 {
		t.Fatalf("expected persisted room 101 to be kept as-is, got %+v", rooms["101"])
	}
	for _, seed := range cfg.Rooms {
		if seed.RoomID == "101" {
			continue
		}
		r, ok := rooms[seed.RoomID]
		if !ok {
			t.Fatalf("expected default-seeded room %s", seed.RoomID)
		}
		if r.Status != models.StatusIdle {
			t.Fatalf("expected default-seeded room %s to be IDLE, got %v", seed.RoomID, r.Status)
		}
		if r.CurrentTemp != cfg.Ambient {
			t.Fatalf("expected default-seeded room %s at ambient temp, got %v", seed.RoomID, r.CurrentTemp)
		}
	}
}

func TestSeedRooms_PropagatesRepoError(t *testing.T) {
	cfg := config.Default()
	repo := &fakeRoomRepo{err: context.DeadlineExceeded}

	if _, err := seedRooms(context.Background(), cfg, repo); err == nil {
		t.Fatalf("expected error to propagate")
	}
}
