package main

import (
	"fmt"
	"net"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/protocol"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/session"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/transport"
)

type serveCommand struct {
	Addr     string `short:"a" long:"addr" description:"Address to listen on" default:":7777"`
	Scenario string `short:"s" long:"scenario" description:"Scenario identifier announced to peers" default:"skirmish"`
	MaxPeers int    `long:"max-peers" description:"Close new connections once the roster reaches this size" default:"4"`
}

func (c *serveCommand) Execute(args []string) error {
	useVerboseLogging()

	listener, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer listener.Close()

	sess := session.New(session.NewID(time.Now()), 0, c.Scenario, session.DefaultOptions())
	tr := transport.New(listener, 30, 90)

	fmt.Printf("hosting session %d on %s, scenario=%q\n", sess.ID(), c.Addr, c.Scenario)

	for {
		c.acceptHandshakes(sess, tr)

		result, err := tr.Poll()
		if err != nil {
			log.Error("poll failed", log.Err(err))
			continue
		}
		for _, msg := range result.Messages {
			c.handleMessage(sess, tr, msg)
		}
		for _, ev := range result.Events {
			log.PeerEvicted(ev.PeerID, string(ev.Reason))
			_ = sess.RemovePeer(ev.PeerID)
		}

		if len(sess.Roster()) >= c.MaxPeers && sess.AllReady() {
			fmt.Println("lobby full and ready, starting game")
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (c *serveCommand) acceptHandshakes(sess *session.Session, tr *transport.Transport) {
	for _, conn := range tr.TakePendingConns() {
		if len(sess.Roster()) >= c.MaxPeers {
			_ = conn.Close()
			continue
		}
		peerID := c.nextFreePeerID(sess)
		if err := sess.AddPeer(session.Peer{ID: peerID, Name: fmt.Sprintf("peer-%d", peerID)}); err != nil {
			log.Warn("add peer failed", log.Peer(peerID), log.Err(err))
			_ = conn.Close()
			continue
		}
		ep := transport.NewEndpoint(peerID, conn, nil, nil)
		tr.AddEndpoint(ep)
		welcome := protocol.WelcomePayload{AssignedPeerID: uint8(peerID), PeerCount: uint8(len(sess.Roster()))}
		if err := ep.SendReliable(protocol.Packet{Kind: protocol.KindWelcome, Payload: protocol.EncodeWelcome(welcome)}); err != nil {
			log.Warn("welcome send failed", log.Peer(peerID), log.Err(err))
		}
	}
}

// nextFreePeerID picks the lowest peer id not currently held by a
// connected peer, reusing ids freed by earlier RemovePeer calls. A plain
// len(roster)+1 count would collide with an id still held once peers
// have churned.
func (c *serveCommand) nextFreePeerID(sess *session.Session) int {
	taken := make(map[int]bool, len(sess.Roster()))
	for _, p := range sess.Roster() {
		taken[p.ID] = true
	}
	for id := 1; ; id++ {
		if !taken[id] {
			return id
		}
	}
}

func (c *serveCommand) handleMessage(sess *session.Session, tr *transport.Transport, msg transport.ReceivedPacket) {
	sess.Touch(msg.PeerID, time.Now())
	switch msg.Packet.Kind {
	case protocol.KindPlayerReady:
		ready, err := protocol.DecodePlayerReady(msg.Packet.Payload)
		if err != nil {
			log.Warn("bad player-ready payload", log.Peer(msg.PeerID), log.Err(err))
			return
		}
		if err := sess.SetReady(msg.PeerID, ready.Ready); err != nil {
			log.Warn("set ready failed", log.Peer(msg.PeerID), log.Err(err))
		}
	case protocol.KindPing:
		// Heartbeat, no response required on the reliable channel.
	default:
		log.Debug("unhandled lobby packet", log.Peer(msg.PeerID), log.With("kind", msg.Packet.Kind.String()))
	}
}

func addServeCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("serve",
		"Host a lockstep session",
		"Listens for peer connections, assigns each new connection a peer id\n"+
			"by sending WELCOME (no HELLO is read),\n"+
			"and tracks lobby readiness until every slot is full and ready.",
		&serveCommand{})
	if err != nil {
		panic(err)
	}
}
