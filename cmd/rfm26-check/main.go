// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// rfm26-check verifies that an RFM26 module is wired up correctly: it resets and boots the chip,
// reads its part number, and replays the configuration table.
package main

import (
	"flag"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vison-lu/rf-module-test/internal/board"
	"github.com/vison-lu/rf-module-test/si446x"
)

func main() {
	conf := board.Default
	conf.Flags(flag.CommandLine)
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	opts := si446x.RadioOpts{}
	if *debug {
		log.SetLevel(log.DebugLevel)
		opts.Logger = log.Debugf
	}
	radio, err := board.Open(conf, opts)
	if err != nil {
		log.Fatalf("Cannot open radio: %s", err)
	}
	defer radio.Close()

	log.Printf("Checking rfm26...")
	t0 := time.Now()
	if err := radio.PowerUp(); err != nil {
		log.Errorf("  power-up failed: %s", err)
		return
	}
	log.Printf("  power-up OK (%.1fms)", time.Since(t0).Seconds()*1000)

	pi, err := radio.PartInfo()
	if err != nil {
		log.Errorf("  cannot read part info: %s", err)
		return
	}
	if pi.Part&0xFFF0 == 0x4460 {
		log.Printf("  found si%04x rev %#x rom %d: OK!", pi.Part, pi.ChipRev, pi.ROMID)
	} else {
		log.Warnf("  oops, got part %#x instead of 0x446x", pi.Part)
	}

	t0 = time.Now()
	if err := radio.Replay(si446x.DefaultConfig); err != nil {
		log.Errorf("  configuration replay failed: %s", err)
		return
	}
	log.Printf("  configuration replay OK (%.1fms)", time.Since(t0).Seconds()*1000)
}
