package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"
)

// S1: an EMPTY event at frame 0, peer 0, meta 0 encodes to seven zero
// bytes and nothing else.
func TestScenarioS1EmptyEvent(t *testing.T) {
	e := New(0, 0, 0, EmptyPayload{})
	got := Encode(e)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0}, got)

	decoded, next, err := Decode(got, 0)
	require.NoError(t, err)
	assert.Equal(t, len(got), next)
	assert.Equal(t, e, decoded)
}

// S2: a MEGAMISSION event at frame 100, origin peer 2, meta 0x12,
// target handle 0x01020304, mission 5, attack target none, destination
// 0x11121314 encodes to 20 bytes with the fields at their documented
// byte offsets.
func TestScenarioS2MegamissionEvent(t *testing.T) {
	payload := MegamissionPayload{
		Target:       handle.Handle(0x01020304),
		Mission:      5,
		AttackTarget: handle.None,
		Destination:  0x11121314,
	}
	e := New(100, 2, NewMeta(1, 2), payload)
	got := Encode(e)

	require.Len(t, got, 20)
	assert.Equal(t, byte(KindMegamission), got[0], "byte[0] must be the MEGAMISSION kind tag")
	assert.Equal(t, byte(2), got[0], "MEGAMISSION must be kind value 2")
	assert.Equal(t, uint32(100), e.Header.Frame)
	assert.Equal(t, byte(2), got[5], "byte[5] is the origin peer")
	assert.Equal(t, byte(0x12), got[6], "byte[6] is the packed meta byte")
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, got[7:11], "whom/target handle, little-endian")
	assert.Equal(t, byte(5), got[11], "mission id")
	assert.Equal(t, []byte{0, 0, 0, 0}, got[12:16], "attack target is none")
	assert.Equal(t, []byte{0x14, 0x13, 0x12, 0x11}, got[16:20], "destination, little-endian")

	decoded, next, err := Decode(got, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, next)
	assert.Equal(t, e, decoded)
}

func TestEncodeDecodeRoundTripAllKinds(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
	}{
		{"empty", EmptyPayload{}},
		{"destruct", DestructPayload{}},
		{"exit", ExitPayload{}},
		{"ally", AllyPayload{HouseID: 7}},
		{"megamission", MegamissionPayload{
			Target:       handle.Encode(handle.KindVehicle, 1, 5),
			Mission:      3,
			AttackTarget: handle.Encode(handle.KindInfantry, 2, 9),
			Destination:  12345,
		}},
		{"idle", IdlePayload{Target: handle.Encode(handle.KindInfantry, 0, 1)}},
		{"scatter", ScatterPayload{Target: handle.Encode(handle.KindInfantry, 0, 2)}},
		{"deploy", DeployPayload{Target: handle.Encode(handle.KindVehicle, 0, 3)}},
		{"repair", RepairPayload{Target: handle.Encode(handle.KindVehicle, 0, 4)}},
		{"sell", SellPayload{Target: handle.Encode(handle.KindBuilding, 0, 5)}},
		{"primary", PrimaryPayload{Target: handle.Encode(handle.KindVehicle, 0, 6)}},
		{"place", PlacePayload{KindTag: 1, TypeID: 9, Cell: 4096}},
		{"options", OptionsPayload{Flags: 0xDEADBEEF}},
		{"gamespeed", GamespeedPayload{Speed: 4}},
		{"produce", ProducePayload{KindTag: 1, TypeID: 2}},
		{"suspend", SuspendPayload{KindTag: 1, TypeID: 2}},
		{"abandon", AbandonPayload{KindTag: 1, TypeID: 2}},
		{"special_place", SpecialPlacePayload{SpecialID: 7, Cell: 88}},
		{"animation", AnimationPayload{AnimType: 2, Owner: 1, Coord: 500, VisibilityMask: 0xFF00FF00}},
		{"special", SpecialPayload{Value: 777}},
		{"framesync", FramesyncPayload{CRC: 0xCAFEBABE, CommandCount: 3, Delay: 2}},
		{"frameinfo", FrameinfoPayload{CRC: 0x12345678, CommandCount: 1, Delay: 0}},
		{"message", NewMessagePayload("gl hf")},
		{"response_time", ResponseTimePayload{Delay: 9}},
		{"archive", ArchivePayload{A: handle.Encode(handle.KindBullet, 0, 1), B: handle.Encode(handle.KindAnimation, 0, 2)}},
		{"timing", TimingPayload{DesiredFrameRate: 30, MaxAhead: 10}},
		{"process_time", ProcessTimePayload{AvgTicks: 512}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := New(42, 3, NewMeta(5, 6), c.payload)
			encoded := Encode(e)
			assert.Equal(t, headerSize+payloadLen(c.payload.Kind()), len(encoded))

			decoded, next, err := Decode(encoded, 0)
			require.NoError(t, err)
			assert.Equal(t, len(encoded), next)
			assert.Equal(t, e, decoded)
		})
	}
}

func TestMessagePayloadRoundTrip(t *testing.T) {
	p := NewMessagePayload("gg")
	assert.Equal(t, "gg", p.String())

	long := "this is exactly over forty characters long!!!"
	p2 := NewMessagePayload(long)
	assert.LessOrEqual(t, len(p2.String()), 40)
}

func TestDecodeTruncatedEvent(t *testing.T) {
	e := New(1, 0, 0, MegamissionPayload{Destination: 99})
	encoded := Encode(e)

	_, _, err := Decode(encoded[:10], 0)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = Decode(encoded[:headerSize-1], 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUnknownKind(t *testing.T) {
	data := make([]byte, headerSize)
	data[0] = byte(kindCount) + 10

	_, _, err := Decode(data, 0)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeBackToBackEvents(t *testing.T) {
	first := Encode(New(1, 0, 0, IdlePayload{Target: handle.Encode(handle.KindInfantry, 0, 1)}))
	second := Encode(New(2, 1, 0, GamespeedPayload{Speed: 6}))
	third := Encode(New(3, 1, 0, EmptyPayload{}))

	stream := append(append(append([]byte{}, first...), second...), third...)

	e1, off1, err := Decode(stream, 0)
	require.NoError(t, err)
	assert.Equal(t, KindIdle, e1.Header.Kind)

	e2, off2, err := Decode(stream, off1)
	require.NoError(t, err)
	assert.Equal(t, KindGamespeed, e2.Header.Kind)

	e3, off3, err := Decode(stream, off2)
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, e3.Header.Kind)
	assert.Equal(t, len(stream), off3)
}

func TestFrameMaskedToLow27Bits(t *testing.T) {
	e := New(1<<27+5, 0, 0, EmptyPayload{})
	assert.Equal(t, uint32(5), e.Header.Frame)
}
