package main

import (
	"encoding/hex"
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/event"
)

type codecCommand struct {
	Args struct {
		Hex string `positional-arg-name:"hex" description:"Hex-encoded back-to-back event records to decode"`
	} `positional-args:"yes"`
}

func (c *codecCommand) Execute(args []string) error {
	useVerboseLogging()

	raw, err := hex.DecodeString(c.Args.Hex)
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}

	offset := 0
	count := 0
	for offset < len(raw) {
		ev, next, err := event.Decode(raw, offset)
		if err != nil {
			return fmt.Errorf("decode failed at byte %d: %w", offset, err)
		}
		fmt.Printf("event %d: kind=%s frame=%d peer=%d meta=%#02x payload=%+v\n",
			count, ev.Header.Kind, ev.Header.Frame, ev.Header.OriginPeer, uint8(ev.Header.Meta), ev.Payload)
		offset = next
		count++
	}
	fmt.Printf("decoded %d event(s), %d byte(s)\n", count, len(raw))
	return nil
}

func addCodecCommand(parser *flags.Parser) {
	_, err := parser.AddCommand("codec",
		"Decode a hex-encoded event stream",
		"Decodes a back-to-back hex-encoded sequence of event records, printing\n"+
			"each event's header and payload. Useful for inspecting the event\n"+
			"stream carried in a FRAME_DATA packet's events field.",
		&codecCommand{})
	if err != nil {
		panic(err)
	}
}
