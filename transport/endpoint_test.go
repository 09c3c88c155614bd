package transport

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/protocol"
)

func TestDecodeBufferedFramesHandlesPartialData(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	e := NewEndpoint(1, server, nil, nil)

	payload, err := protocol.Encode(protocol.Packet{Kind: protocol.KindPing})
	require.NoError(t, err)
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)

	// Feed only the length prefix first: no complete frame yet.
	e.readBuf = append(e.readBuf, frame[:lengthPrefixSize]...)
	packets, err := e.decodeBufferedFrames()
	require.NoError(t, err)
	assert.Empty(t, packets)

	// Now the rest arrives.
	e.readBuf = append(e.readBuf, frame[lengthPrefixSize:]...)
	packets, err = e.decodeBufferedFrames()
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.Equal(t, protocol.KindPing, packets[0].Kind)
}

func TestOversizedFrameRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	e := NewEndpoint(1, server, nil, nil)

	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	e.readBuf = append(e.readBuf, prefix[:]...)

	_, err := e.decodeBufferedFrames()
	assert.ErrorIs(t, err, ErrOversizedFrame)
}

func TestBackToBackFramesDecodeInOrder(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	e := NewEndpoint(1, server, nil, nil)

	first, _ := protocol.Encode(protocol.Packet{Kind: protocol.KindPing})
	second, _ := protocol.Encode(protocol.Packet{Kind: protocol.KindPong})

	for _, payload := range [][]byte{first, second} {
		frame := make([]byte, lengthPrefixSize+len(payload))
		binary.BigEndian.PutUint32(frame, uint32(len(payload)))
		copy(frame[lengthPrefixSize:], payload)
		e.readBuf = append(e.readBuf, frame...)
	}

	packets, err := e.decodeBufferedFrames()
	require.NoError(t, err)
	require.Len(t, packets, 2)
	assert.Equal(t, protocol.KindPing, packets[0].Kind)
	assert.Equal(t, protocol.KindPong, packets[1].Kind)
}

func TestSendReceiveRoundTripOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverEndpoint := NewEndpoint(1, server, nil, nil)
	clientEndpoint := NewEndpoint(2, client, nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- clientEndpoint.SendReliable(protocol.Packet{Kind: protocol.KindWelcome, Payload: []byte{3, 4}})
	}()

	var packets []protocol.Packet
	deadline := time.Now().Add(2 * time.Second)
	for len(packets) == 0 && time.Now().Before(deadline) {
		got, err := serverEndpoint.PollReliable()
		require.NoError(t, err)
		packets = append(packets, got...)
	}
	require.NoError(t, <-done)
	require.Len(t, packets, 1)
	assert.Equal(t, protocol.KindWelcome, packets[0].Kind)
	assert.Equal(t, []byte{3, 4}, packets[0].Payload)
}

func TestIdleForTracksLastReceived(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	e := NewEndpoint(1, server, nil, nil)
	e.lastReceived = time.Now().Add(-5 * time.Second)

	assert.GreaterOrEqual(t, e.IdleFor(time.Now()), 5*time.Second)
}
