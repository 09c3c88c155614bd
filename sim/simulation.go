package sim

import (
	"sort"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/event"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/heap"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/statehash"
)

// Simulation is a reference implementation of lockstep.Simulation: enough
// state (six kind-separated heaps plus a master PRNG) to let the
// scheduler, event codec, and state hash exercise real entities end to
// end, without committing to actual game rules.
type Simulation struct {
	heaps  map[handle.Kind]*heap.Heap[Entity]
	kinds  []handle.Kind
	random *Random
}

// NewSimulation builds a simulation with one heap per entity kind, sized
// from DefaultCapacities, and a master PRNG seeded identically to every
// other peer's (the seed is distributed in GAME_START).
func NewSimulation(seed1, seed2, initRounds int) *Simulation {
	s := &Simulation{
		heaps:  make(map[handle.Kind]*heap.Heap[Entity], len(DefaultCapacities)),
		random: NewRandom(seed1, seed2, initRounds),
	}
	for kind, capacity := range DefaultCapacities {
		s.heaps[kind] = heap.New[Entity](kind, capacity)
		s.kinds = append(s.kinds, kind)
	}
	// Fold order must be identical on every peer; map iteration order
	// isn't, so sort once at construction.
	sort.Slice(s.kinds, func(i, j int) bool { return s.kinds[i] < s.kinds[j] })
	return s
}

// NewEntity allocates a fresh entity of the given kind and returns its
// target handle.
func (s *Simulation) NewEntity(kind handle.Kind) (handle.Handle, error) {
	h, ok := s.heaps[kind]
	if !ok {
		return handle.None, heap.ErrFull
	}
	return h.Allocate()
}

// Resolve looks up the live entity a handle refers to.
func (s *Simulation) Resolve(h handle.Handle) (Entity, bool) {
	target, ok := s.heaps[h.Kind()]
	if !ok {
		return Entity{}, false
	}
	return target.Get(h)
}

// ExecuteFrame applies every event queued for a frame, in the order the
// scheduler already sorted them (ascending origin peer, §4.E). It
// satisfies lockstep.Simulation.
func (s *Simulation) ExecuteFrame(events []event.Event) {
	for _, ev := range events {
		s.ExecuteEvent(ev)
	}
}

// ExecuteEvent mutates simulation state for one event. Every branch uses
// only integer arithmetic over values already present in the event and
// the entity it targets, so replaying the same event stream against the
// same initial state always produces the same result (§4.D).
func (s *Simulation) ExecuteEvent(ev event.Event) {
	switch p := ev.Payload.(type) {
	case event.DestructPayload:
		s.destructTarget(ev.Header.OriginPeer)
	case event.MegamissionPayload:
		s.applyMegamission(p)
	case event.IdlePayload:
		s.setMission(p.Target, 0)
	case event.ScatterPayload:
		s.setMission(p.Target, 1)
	case event.DeployPayload:
		s.setMission(p.Target, 2)
	case event.RepairPayload:
		s.repair(p.Target)
	case event.SellPayload:
		s.kill(p.Target)
	case event.PrimaryPayload:
		s.setMission(p.Target, 3)
	case event.PlacePayload:
		s.place(p)
	case event.AnimationPayload:
		s.place(event.PlacePayload{KindTag: uint8(handle.KindAnimation), TypeID: p.Owner, Cell: p.Coord})
	default:
		// Lobby/session/diagnostic events (OPTIONS, GAMESPEED, MESSAGE,
		// FRAMESYNC, ...) carry no per-entity simulation effect.
	}
}

func (s *Simulation) heapFor(kindTag uint8) *heap.Heap[Entity] {
	return s.heaps[handle.Kind(kindTag)]
}

func (s *Simulation) place(p event.PlacePayload) {
	h := s.heapFor(p.KindTag)
	if h == nil {
		return
	}
	hdl, err := h.Allocate()
	if err != nil {
		log.Warn("place failed", log.With("kind", p.KindTag), log.Err(err))
		return
	}
	idx := hdl.Index()
	_ = h.Set(idx, Entity{
		X:       int32(p.Cell % 0x10000),
		Y:       int32(p.Cell / 0x10000),
		Health:  256,
		Faction: p.TypeID,
	})
}

func (s *Simulation) setMission(target handle.Handle, mission uint8) {
	if target.IsNone() {
		return
	}
	h, ok := s.heaps[target.Kind()]
	if !ok {
		return
	}
	e, ok := h.Get(target)
	if !ok {
		return
	}
	e.Mission = mission
	_ = h.Set(target.Index(), e)
}

func (s *Simulation) repair(target handle.Handle) {
	if target.IsNone() {
		return
	}
	h, ok := s.heaps[target.Kind()]
	if !ok {
		return
	}
	e, ok := h.Get(target)
	if !ok {
		return
	}
	if e.Health < 256 {
		e.Health += 16
		if e.Health > 256 {
			e.Health = 256
		}
	}
	_ = h.Set(target.Index(), e)
}

func (s *Simulation) kill(target handle.Handle) {
	if target.IsNone() {
		return
	}
	h, ok := s.heaps[target.Kind()]
	if !ok {
		return
	}
	if _, ok := h.Get(target); !ok {
		return
	}
	_ = h.Free(target.Index())
}

// destructTarget removes every live entity belonging to the origin
// peer's faction: DESTRUCT is the surrender/self-destruct event (§4.C),
// not a targeted command, so it has no payload to name a single target.
func (s *Simulation) destructTarget(originPeer uint8) {
	for _, kind := range s.kinds {
		h := s.heaps[kind]
		for _, idx := range h.ActiveIndices() {
			e, ok := h.GetByIndex(idx)
			if ok && e.Faction == originPeer {
				_ = h.Free(idx)
			}
		}
	}
}

func (s *Simulation) applyMegamission(p event.MegamissionPayload) {
	s.setMission(p.Target, p.Mission)
	if !p.AttackTarget.IsNone() {
		s.damage(p.AttackTarget, 32)
	}
}

func (s *Simulation) damage(target handle.Handle, amount uint16) {
	if target.IsNone() {
		return
	}
	h, ok := s.heaps[target.Kind()]
	if !ok {
		return
	}
	e, ok := h.Get(target)
	if !ok {
		return
	}
	if amount >= e.Health {
		_ = h.Free(target.Index())
		return
	}
	e.Health -= amount
	_ = h.Set(target.Index(), e)
}

// StateHash folds every live entity, in ascending (kind, index) order,
// plus the master PRNG's current seed, into a single CRC-32 (§4.D). Two
// simulations that executed the same event stream from the same initial
// state always produce the same value here; the frame argument is not
// itself folded in since the hash is already keyed by frame via the
// scheduler's SYNC_CHECK exchange and its per-frame hash log.
func (s *Simulation) StateHash(frame uint32) uint32 {
	folder := statehash.NewFolder()
	for _, kind := range s.kinds {
		// Animation slots are purely cosmetic (§4.D, event.AnimationPayload's
		// own doc comment) and must never affect whether peers agree.
		if kind == handle.KindAnimation {
			continue
		}
		h := s.heaps[kind]
		h.IterActive(func(index int, e Entity) {
			folder.FoldEntity(index, e.X, e.Y, e.Health, e.Faction)
		})
	}
	folder.FoldSeed(s.random.Seed())
	return folder.Sum()
}
