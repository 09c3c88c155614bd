package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/event"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/heap"
)

func TestNewEntityAndResolve(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	h, err := s.NewEntity(handle.KindInfantry)
	require.NoError(t, err)
	assert.Equal(t, handle.KindInfantry, h.Kind())

	e, ok := s.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, Entity{}, e)
}

func TestResolveUnknownHandleFails(t *testing.T) {
	s := NewSimulation(1, 2, 4)
	_, ok := s.Resolve(handle.Encode(handle.KindVehicle, 0, 7))
	assert.False(t, ok)
}

func TestPlaceEventAllocatesEntity(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	ev := event.New(0, 1, event.NewMeta(1, 2), event.PlacePayload{
		KindTag: uint8(handle.KindVehicle),
		TypeID:  3,
		Cell:    0x00020001,
	})
	s.ExecuteEvent(ev)

	h := s.heaps[handle.KindVehicle]
	require.Equal(t, 1, h.Count())

	e, ok := h.GetByIndex(0)
	require.True(t, ok)
	assert.Equal(t, int32(1), e.X)
	assert.Equal(t, int32(2), e.Y)
	assert.Equal(t, uint16(256), e.Health)
	assert.Equal(t, uint8(3), e.Faction)
}

func TestMegamissionDamagesAttackTarget(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	target, err := s.NewEntity(handle.KindInfantry)
	require.NoError(t, err)
	_ = s.heaps[handle.KindInfantry].Set(target.Index(), Entity{Health: 100})

	mover, err := s.NewEntity(handle.KindVehicle)
	require.NoError(t, err)

	ev := event.New(0, 1, event.NewMeta(0, 0), event.MegamissionPayload{
		Target:       mover,
		AttackTarget: target,
		Mission:      5,
		Destination:  0,
	})
	s.ExecuteEvent(ev)

	e, ok := s.Resolve(target)
	require.True(t, ok)
	assert.Equal(t, uint16(68), e.Health)

	mv, ok := s.Resolve(mover)
	require.True(t, ok)
	assert.Equal(t, uint8(5), mv.Mission)
}

func TestMegamissionLethalDamageFreesTarget(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	target, err := s.NewEntity(handle.KindInfantry)
	require.NoError(t, err)
	_ = s.heaps[handle.KindInfantry].Set(target.Index(), Entity{Health: 10})

	ev := event.New(0, 1, event.NewMeta(0, 0), event.MegamissionPayload{
		AttackTarget: target,
		Mission:      1,
	})
	s.ExecuteEvent(ev)

	_, ok := s.Resolve(target)
	assert.False(t, ok)
}

func TestRepairClampsAtMaxHealth(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	target, err := s.NewEntity(handle.KindVehicle)
	require.NoError(t, err)
	_ = s.heaps[handle.KindVehicle].Set(target.Index(), Entity{Health: 250})

	ev := event.New(0, 1, event.NewMeta(0, 0), event.RepairPayload{Target: target})
	s.ExecuteEvent(ev)

	e, ok := s.Resolve(target)
	require.True(t, ok)
	assert.Equal(t, uint16(256), e.Health)
}

func TestSellFreesEntity(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	target, err := s.NewEntity(handle.KindBuilding)
	require.NoError(t, err)

	ev := event.New(0, 1, event.NewMeta(0, 0), event.SellPayload{Target: target})
	s.ExecuteEvent(ev)

	_, ok := s.Resolve(target)
	assert.False(t, ok)
}

func TestDestructFreesOnlyMatchingFaction(t *testing.T) {
	s := NewSimulation(1, 2, 4)

	mine, err := s.NewEntity(handle.KindInfantry)
	require.NoError(t, err)
	_ = s.heaps[handle.KindInfantry].Set(mine.Index(), Entity{Faction: 4})

	theirs, err := s.NewEntity(handle.KindInfantry)
	require.NoError(t, err)
	_ = s.heaps[handle.KindInfantry].Set(theirs.Index(), Entity{Faction: 9})

	ev := event.New(0, 4, event.NewMeta(0, 4), event.DestructPayload{})
	s.ExecuteEvent(ev)

	_, ok := s.Resolve(mine)
	assert.False(t, ok)
	_, ok = s.Resolve(theirs)
	assert.True(t, ok)
}

func TestExecuteFrameAppliesEventsInOrder(t *testing.T) {
	s := NewSimulation(1, 2, 4)
	h, err := s.NewEntity(handle.KindVehicle)
	require.NoError(t, err)

	events := []event.Event{
		event.New(0, 1, event.NewMeta(0, 0), event.IdlePayload{Target: h}),
		event.New(0, 1, event.NewMeta(0, 0), event.ScatterPayload{Target: h}),
		event.New(0, 1, event.NewMeta(0, 0), event.DeployPayload{Target: h}),
	}
	s.ExecuteFrame(events)

	e, ok := s.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, uint8(2), e.Mission)
}

func TestStateHashIsDeterministicAcrossIdenticalSimulations(t *testing.T) {
	s1 := NewSimulation(11, 22, 3)
	s2 := NewSimulation(11, 22, 3)

	events := []event.Event{
		event.New(0, 1, event.NewMeta(0, 0), event.PlacePayload{KindTag: uint8(handle.KindInfantry), TypeID: 1, Cell: 5}),
		event.New(0, 2, event.NewMeta(0, 0), event.PlacePayload{KindTag: uint8(handle.KindVehicle), TypeID: 2, Cell: 9}),
	}
	s1.ExecuteFrame(events)
	s2.ExecuteFrame(events)

	assert.Equal(t, s1.StateHash(0), s2.StateHash(0))
}

func TestStateHashDivergesOnDifferentHistory(t *testing.T) {
	s1 := NewSimulation(11, 22, 3)
	s2 := NewSimulation(11, 22, 3)

	s1.ExecuteFrame([]event.Event{
		event.New(0, 1, event.NewMeta(0, 0), event.PlacePayload{KindTag: uint8(handle.KindInfantry), TypeID: 1, Cell: 5}),
	})
	s2.ExecuteFrame([]event.Event{
		event.New(0, 1, event.NewMeta(0, 0), event.PlacePayload{KindTag: uint8(handle.KindInfantry), TypeID: 9, Cell: 5}),
	})

	assert.NotEqual(t, s1.StateHash(0), s2.StateHash(0))
}

func TestNewEntityFailsWhenHeapFull(t *testing.T) {
	s := NewSimulation(1, 2, 0)
	capacity := DefaultCapacities[handle.KindAircraft]
	for i := 0; i < capacity; i++ {
		_, err := s.NewEntity(handle.KindAircraft)
		require.NoError(t, err)
	}
	_, err := s.NewEntity(handle.KindAircraft)
	assert.ErrorIs(t, err, heap.ErrFull)
}
