package thermal

import (
	"testing"
	"time"

	"hvacctl/internal/config"
	"hvacctl/internal/dispatch"
	"hvacctl/internal/logger"
	"hvacctl/internal/models"
)

func testConfig() config.Config {
	return config.Config{
		K:         1,
		Tick:      time.Second,
		Slice:     120 * time.Second,
		Ambient:   20,
		Recovery:  0.5,
		Hyst:      1.0,
		RangeCool: [2]float64{18, 25},
		RangeHeat: [2]float64{25, 30},
		Rate:      map[string]float64{"LOW": 1.0 / 3, "MID": 0.5, "HIGH": 1.0},
		Delta:     map[string]float64{"LOW": 1.0 / 3, "MID": 0.5, "HIGH": 1.0},
		Prio:      map[string]int{"LOW": 1, "MID": 2, "HIGH": 3},
	}
}

func newTestSimulator(rooms map[string]*models.RoomState) (*Simulator, *dispatch.Dispatcher) {
	cfg := testConfig()
	d := dispatch.New(cfg, rooms, nil)
	log := logger.Get(logger.ErrorLevel)
	return New(cfg, rooms, d, log), d
}

func TestTick_IdleRoomDriftsToAmbient(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {RoomID: "101", Status: models.StatusIdle, CurrentTemp: 30, IsOn: false},
	}
	sim, _ := newTestSimulator(rooms)

	sim.tick(60) // 1 minute

	if rooms["101"].CurrentTemp != 29.5 {
		t.Fatalf("expected drift to 29.5, got %v", rooms["101"].CurrentTemp)
	}
}

func TestTick_ServingRoomCoolsAndAccruesFee(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {
			RoomID: "101", IsOn: true, Mode: models.ModeCool, FanSpeed: models.FanHigh,
			TargetTemp: 20, CurrentTemp: 25, Status: models.StatusServing,
		},
	}
	sim, _ := newTestSimulator(rooms)

	sim.tick(60) // 1 minute at HIGH: delta 1.0/min, rate 1.0/min

	room := rooms["101"]
	if room.CurrentTemp != 24 {
		t.Fatalf("expected CurrentTemp=24, got %v", room.CurrentTemp)
	}
	if room.Fee != 1.0 || room.TotalFee != 1.0 {
		t.Fatalf("expected Fee=TotalFee=1.0, got fee=%v total=%v", room.Fee, room.TotalFee)
	}
}

func TestTick_ServingRoomClampsAtTarget(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {
			RoomID: "101", IsOn: true, Mode: models.ModeCool, FanSpeed: models.FanHigh,
			TargetTemp: 20, CurrentTemp: 20.5, Status: models.StatusServing,
		},
	}
	sim, _ := newTestSimulator(rooms)

	sim.tick(60)

	if rooms["101"].CurrentTemp != 20 {
		t.Fatalf("expected clamp at target 20, got %v", rooms["101"].CurrentTemp)
	}
}

func TestTick_IdleRoomBeyondHysteresisRequestsService(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {
			RoomID: "101", IsOn: true, Mode: models.ModeCool, FanSpeed: models.FanLow,
			TargetTemp: 20, CurrentTemp: 21.5, Status: models.StatusIdle,
		},
	}
	sim, d := newTestSimulator(rooms)

	sim.tick(1)

	st, _ := d.Snapshot("101")
	if st.Status != models.StatusServing {
		t.Fatalf("expected room to start serving once past hysteresis, got %v", st.Status)
	}
}

func TestTick_ServingRoomWithinBandReleases(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {
			RoomID: "101", IsOn: true, Mode: models.ModeCool, FanSpeed: models.FanLow,
			TargetTemp: 20, CurrentTemp: 20, Status: models.StatusServing,
		},
	}
	sim, d := newTestSimulator(rooms)

	sim.tick(1)

	st, _ := d.Snapshot("101")
	if st.Status != models.StatusIdle {
		t.Fatalf("expected room to release once at/under target, got %v", st.Status)
	}
}

func TestTick_PoweredOffServingRoomReleasesAndDrifts(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"101": {
			RoomID: "101", IsOn: false, Mode: models.ModeCool, FanSpeed: models.FanLow,
			TargetTemp: 20, CurrentTemp: 22, Status: models.StatusServing,
		},
	}
	sim, d := newTestSimulator(rooms)

	sim.tick(1)

	st, _ := d.Snapshot("101")
	if st.Status != models.StatusIdle {
		t.Fatalf("expected powered-off room to be released to IDLE, got %v", st.Status)
	}
}

func TestTick_UnknownRoomDoesNotAbortPass(t *testing.T) {
	rooms := map[string]*models.RoomState{
		"good": {RoomID: "good", IsOn: false, Status: models.StatusIdle, CurrentTemp: 30},
	}
	sim, _ := newTestSimulator(rooms)

	// A room removed between enumeration and WithRoom (or any id not
	// known to the dispatcher) must not stop the rest of the pass from
	// being processed.
	sim.tickRoomSafe("ghost", 60)
	sim.tickRoomSafe("good", 60)

	if rooms["good"].CurrentTemp != 29.5 {
		t.Fatalf("expected good room to still be processed, got %v", rooms["good"].CurrentTemp)
	}
}
