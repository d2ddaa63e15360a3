// Package dispatch implements the capacity-bounded scheduler described
// in the controller's design: a priority-preemption and round-robin
// time-slice policy that assigns "serving" slots to rooms requesting
// HVAC service.
package dispatch

import (
	"sort"
	"sync"

	"hvacctl/internal/config"
	"hvacctl/internal/models"
)

// Sink receives scheduling events for logging; nil is a valid Sink
// (events are simply dropped). Kept narrow so the dispatcher does not
// need to know about persistence or the event log's storage shape.
type Sink interface {
	Emit(roomID, eventType, description string, metadata map[string]any)
}

type noopSink struct{}

func (noopSink) Emit(string, string, string, map[string]any) {}

// Dispatcher owns the serving set S and waiting queue W described by
// the design, plus the scheduling fields of every known room. Exactly
// one Dispatcher instance exists per process (owned by the
// supervisor); all mutation happens under mu.
type Dispatcher struct {
	mu sync.Mutex

	cfg   config.Config
	rooms map[string]*models.RoomState

	serving []string // ordered set S, membership mirrors room.Status == SERVING
	waiting *waitQueue

	sink Sink
}

// New builds a Dispatcher over an already-populated room set. Rooms
// whose persisted Status is SERVING or WAITING are reconstructed into
// S or W respectively, so a fresh instance survives process restarts
// without re-running the admission policy from scratch.
func New(cfg config.Config, rooms map[string]*models.RoomState, sink Sink) *Dispatcher {
	if sink == nil {
		sink = noopSink{}
	}
	d := &Dispatcher{
		cfg:     cfg,
		rooms:   rooms,
		serving: nil,
		waiting: newWaitQueue(),
		sink:    sink,
	}
	d.reconstruct()
	return d
}

// reconstruct rebuilds S and W from each room's persisted Status. It
// assumes the persisted data itself does not exceed capacity; if it
// does (e.g. config K was lowered across a restart), the overflow is
// moved to W on the next Tick rather than during construction, keeping
// this a pure read of existing fields.
func (d *Dispatcher) reconstruct() {
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		room := d.rooms[id]
		switch room.Status {
		case models.StatusServing:
			d.serving = append(d.serving, id)
		case models.StatusWaiting:
			d.waiting.push(id, d.prio(room.FanSpeed), room.WaitRemaining)
		}
	}
}

func (d *Dispatcher) prio(speed models.FanSpeed) int {
	return d.cfg.Prio[string(speed)]
}

// Request records that room_id wants service now. Unknown rooms are a
// silent no-op. Already-serving rooms are a no-op. Already-waiting
// rooms are removed from W and re-entered through the full admission
// decision (their priority may have changed), which resets their slice
// clock intentionally.
func (d *Dispatcher) Request(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return
	}
	switch room.Status {
	case models.StatusServing:
		return
	case models.StatusWaiting:
		d.waiting.remove(roomID)
	}
	d.admit(room)
}

// admit runs the scheduling decision for a room that is not currently
// in S or W (either brand new, or just pulled out of W for
// re-evaluation).
func (d *Dispatcher) admit(room *models.RoomState) {
	pStar := d.prio(room.FanSpeed)

	if len(d.serving) < d.cfg.K {
		d.enterServing(room, nil)
		return
	}

	pMin, _ := d.minServingPriority()

	switch {
	case pStar > pMin:
		victimID := d.selectPreemptionVictim(pMin)
		d.preempt(victimID, room)
	case pStar == pMin:
		d.waiting.push(room.RoomID, pStar, models.Slice(d.cfg.Slice.Seconds()))
		room.Status = models.StatusWaiting
		room.WaitRemaining = models.Slice(d.cfg.Slice.Seconds())
	default: // pStar < pMin
		d.waiting.push(room.RoomID, pStar, models.Indefinite())
		room.Status = models.StatusWaiting
		room.WaitRemaining = models.Indefinite()
	}
}

// minServingPriority returns the lowest priority currently in S.
func (d *Dispatcher) minServingPriority() (int, string) {
	minPrio := int(^uint(0) >> 1)
	minRoom := ""
	for _, id := range d.serving {
		p := d.prio(d.rooms[id].FanSpeed)
		if p < minPrio {
			minPrio = p
			minRoom = id
		}
	}
	return minPrio, minRoom
}

// selectPreemptionVictim picks, among serving rooms at the given
// (lowest) priority, the one with the largest service_time.
func (d *Dispatcher) selectPreemptionVictim(atPrio int) string {
	best := ""
	bestServiceTime := -1.0
	for _, id := range d.serving {
		room := d.rooms[id]
		if d.prio(room.FanSpeed) != atPrio {
			continue
		}
		if room.ServiceTime > bestServiceTime {
			bestServiceTime = room.ServiceTime
			best = id
		}
	}
	return best
}

// preempt moves victimID out of S into W (indefinite wait) and admits
// newRoom into the freed slot.
func (d *Dispatcher) preempt(victimID string, newRoom *models.RoomState) {
	d.removeFromServing(victimID)
	victim := d.rooms[victimID]
	victim.Status = models.StatusWaiting
	victim.ServiceTime = 0
	victim.WaitRemaining = models.Indefinite()
	d.waiting.push(victimID, d.prio(victim.FanSpeed), models.Indefinite())
	d.sink.Emit(victimID, "PREEMPTED", "preempted by higher-priority request", map[string]any{
		"by_room": newRoom.RoomID,
	})

	d.enterServing(newRoom, nil)
}

func (d *Dispatcher) enterServing(room *models.RoomState, _ any) {
	room.Status = models.StatusServing
	room.ServiceTime = 0
	room.WaitRemaining = models.WaitRemaining{}
	d.serving = append(d.serving, room.RoomID)
}

func (d *Dispatcher) removeFromServing(roomID string) {
	for i, id := range d.serving {
		if id == roomID {
			d.serving = append(d.serving[:i], d.serving[i+1:]...)
			return
		}
	}
}

// Release records that room_id no longer wants service. Serving rooms
// free their slot and trigger slot-free promotion; waiting rooms are
// simply dropped from W; idle rooms are a no-op. In every case the
// room's scheduling fields are reset and status becomes IDLE.
func (d *Dispatcher) Release(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return
	}

	switch room.Status {
	case models.StatusServing:
		d.removeFromServing(roomID)
		d.resetToIdle(room)
		d.promote()
	case models.StatusWaiting:
		d.waiting.remove(roomID)
		d.resetToIdle(room)
	default:
		d.resetToIdle(room)
	}
}

func (d *Dispatcher) resetToIdle(room *models.RoomState) {
	room.Status = models.StatusIdle
	room.ServiceTime = 0
	room.WaitRemaining = models.WaitRemaining{}
}

// promote moves the best waiter (highest priority, ties to smallest
// wait_remaining) into a just-freed serving slot, if W is non-empty.
func (d *Dispatcher) promote() {
	item, ok := d.waiting.popBest()
	if !ok {
		return
	}
	room := d.rooms[item.roomID]
	d.enterServing(room, nil)
	d.sink.Emit(room.RoomID, "PROMOTED", "promoted from waiting queue", nil)
}

// Tick must be called periodically with the elapsed seconds dt. Any
// serving overflow beyond K left by reconstruct is first moved to W.
// Then, per the ordering guarantee: (1) advance timers for serving
// rooms, (2) advance timers for waiting rooms, (3) process time-slice
// expirations.
func (d *Dispatcher) Tick(dtSeconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Overflow victims are chosen like priority preemption victims and
	// wait indefinitely.
	for len(d.serving) > d.cfg.K {
		pMin, _ := d.minServingPriority()
		victimID := d.selectPreemptionVictim(pMin)
		d.removeFromServing(victimID)
		victim := d.rooms[victimID]
		victim.Status = models.StatusWaiting
		victim.ServiceTime = 0
		victim.WaitRemaining = models.Indefinite()
		d.waiting.push(victimID, d.prio(victim.FanSpeed), models.Indefinite())
	}

	for _, id := range d.serving {
		d.rooms[id].ServiceTime += dtSeconds
	}

	for _, id := range d.waiting.all() {
		item, _ := d.waiting.get(id)
		next := item.wait.Tick(dtSeconds)
		d.waiting.updateWait(id, next)
		d.rooms[id].WaitRemaining = next
	}

	d.processSliceExpirations()
}

// processSliceExpirations handles every waiter whose slice clock has
// reached zero: find a same-priority serving victim with the largest
// service_time and swap them. A waiter with no eligible victim keeps
// wait_remaining at 0 and is re-attempted on the next tick.
func (d *Dispatcher) processSliceExpirations() {
	for _, id := range d.waiting.all() {
		item, ok := d.waiting.get(id)
		if !ok || !item.wait.Expired() {
			continue
		}
		victimID := d.selectPreemptionVictim(item.prio)
		if victimID == "" {
			continue
		}

		waiterRoom := d.rooms[id]
		victimRoom := d.rooms[victimID]

		d.removeFromServing(victimID)
		d.waiting.remove(id)

		victimRoom.Status = models.StatusWaiting
		victimRoom.ServiceTime = 0
		victimRoom.WaitRemaining = models.Slice(d.cfg.Slice.Seconds())
		d.waiting.push(victimID, d.prio(victimRoom.FanSpeed), models.Slice(d.cfg.Slice.Seconds()))

		d.enterServing(waiterRoom, nil)
		d.sink.Emit(victimID, "PREEMPTED", "time-slice expired, swapped with waiting room", map[string]any{
			"by_room": id,
		})
	}
}

// Snapshot returns a copy of the room's current state, or false if
// unknown. Used by read paths (HTTP handlers, the websocket feed) that
// must not hold the dispatcher's lock while serializing.
func (d *Dispatcher) Snapshot(roomID string) (models.RoomState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return models.RoomState{}, false
	}
	return *room, true
}

// SnapshotAll returns a copy of every room's current state, ordered by
// room id for deterministic output.
func (d *Dispatcher) SnapshotAll() []models.RoomState {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.RoomState, 0, len(ids))
	for _, id := range ids {
		out = append(out, *d.rooms[id])
	}
	return out
}

// WithRoom runs fn with the dispatcher's lock held and a pointer to
// the room's live state, for callers that need to mutate setpoint
// fields (is_on, mode, fan_speed, target_temp, fee) atomically with
// respect to the dispatcher's own scheduling fields. fn must not call
// back into the Dispatcher. Returns false if the room is unknown.
func (d *Dispatcher) WithRoom(roomID string, fn func(*models.RoomState)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	fn(room)
	return true
}

// Config returns the dispatcher's static configuration.
func (d *Dispatcher) Config() config.Config {
	return d.cfg
}
