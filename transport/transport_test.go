package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/protocol"
)

func TestTimeoutDurationConversion(t *testing.T) {
	tr := New(nil, 30, 90)
	assert.Equal(t, 3*time.Second, tr.timeoutDuration())

	zeroRate := New(nil, 0, 90)
	assert.Equal(t, time.Duration(0), zeroRate.timeoutDuration())
}

func TestBroadcastSendsToEveryEndpoint(t *testing.T) {
	clientA, serverA := net.Pipe()
	clientB, serverB := net.Pipe()
	defer clientA.Close()
	defer serverA.Close()
	defer clientB.Close()
	defer serverB.Close()

	tr := New(nil, 30, 90)
	tr.AddEndpoint(NewEndpoint(1, serverA, nil, nil))
	tr.AddEndpoint(NewEndpoint(2, serverB, nil, nil))

	received := make(chan []byte, 2)
	readAll := func(conn net.Conn) {
		buf := make([]byte, 256)
		n, err := conn.Read(buf)
		if err == nil {
			received <- append([]byte(nil), buf[:n]...)
		}
	}
	go readAll(clientA)
	go readAll(clientB)

	tr.Broadcast(protocol.Packet{Kind: protocol.KindGameStart})

	first := <-received
	second := <-received
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
}

func TestAddRemoveEndpoint(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	tr := New(nil, 30, 90)
	ep := NewEndpoint(9, server, nil, nil)
	tr.AddEndpoint(ep)
	require.Contains(t, tr.endpoints, 9)

	tr.RemoveEndpoint(9)
	assert.NotContains(t, tr.endpoints, 9)
}
