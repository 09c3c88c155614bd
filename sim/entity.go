package sim

import "github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"

// Entity is the minimal per-kind state every heap stores: enough to
// exercise the state hash's canonical position/health/faction
// projection (§4.D), without committing to full game rules the core
// spec never specifies.
type Entity struct {
	X, Y    int32
	Health  uint16
	Faction uint8
	Mission uint8
}

// DefaultCapacities gives each entity kind a fixed heap size (§3). These
// are reference values for the sample simulation; a real game would size
// them from the scenario.
var DefaultCapacities = map[handle.Kind]int{
	handle.KindInfantry: 500,
	handle.KindVehicle:  300,
	handle.KindAircraft: 100,
	handle.KindBullet:   1000,
	handle.KindAnimation: 200,
	handle.KindBuilding: 200,
}
