// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// rfm26-test is a sender/receiver for two RFM26 modules. In tx mode it sends a frame every
// couple of seconds, in rx mode it prints every frame it receives.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vison-lu/rf-module-test/internal/board"
	"github.com/vison-lu/rf-module-test/si446x"
	"github.com/vison-lu/rf-module-test/thread"
	"github.com/vison-lu/rf-module-test/varint"
	"periph.io/x/conn/v3/gpio"
)

const defaultMessage = "HopeRF RFM COBRFM26-S"

func main() {
	conf := board.Default
	conf.Flags(flag.CommandLine)
	mode := flag.String("mode", "pin", "tx, rx, or pin to read the mode pin (low: tx)")
	modePin := flag.String("modepin", "GPIO27", "mode pin name")
	band := flag.Int("band", 868, "frequency band in Mhz: 315, 434, 868, or 915")
	power := flag.Int("power", 17, "output power in dBm: 11, 14, 17, or 20")
	interval := flag.Duration("interval", 2*time.Second, "interval between transmissions")
	poll := flag.Duration("poll", time.Millisecond, "receive polling interval")
	seq := flag.Bool("seq", false, "send varint sequence numbers instead of the text message")
	rt := flag.Bool("rt", false, "poll from a realtime thread")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	opts := si446x.RadioOpts{Band: si446x.Band(*band), Power: si446x.Power(*power)}
	if *debug {
		log.SetLevel(log.DebugLevel)
		opts.Logger = log.Debugf
	}

	radio, err := board.Open(conf, opts)
	if err != nil {
		log.Fatalf("Cannot open radio: %s", err)
	}
	defer radio.Close()

	tx := *mode == "tx"
	switch *mode {
	case "tx", "rx":
	case "pin":
		pin, err := radio.Input(*modePin)
		if err != nil {
			log.Fatalf("Cannot open mode pin: %s", err)
		}
		tx = pin.Read() == gpio.Low
	default:
		log.Fatalf("Invalid mode %q", *mode)
	}

	if *rt {
		if err := thread.Realtime(); err != nil {
			log.Warnf("Cannot switch to realtime priority: %s", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	if tx {
		err = transmit(radio.Radio, *interval, *seq, sig)
	} else {
		err = receive(radio.Radio, *poll, sig)
	}
	if err != nil {
		radio.Close()
		log.Fatal(err)
	}
}

// nextFrame returns the frame to send as packet number n.
func nextFrame(n int, seq bool, start time.Time) si446x.Frame {
	var f si446x.Frame
	if seq {
		varint.Put(f[:], n, int(time.Since(start)/time.Millisecond))
	} else {
		copy(f[:], defaultMessage)
	}
	return f
}

func transmit(radio *si446x.Radio, interval time.Duration, seq bool, sig <-chan os.Signal) error {
	log.Printf("Initializing transmitter...")
	t0 := time.Now()
	if err := radio.EnterTx(); err != nil {
		return fmt.Errorf("cannot bring radio up: %s", err)
	}
	log.Printf("Ready (%.1fms)", time.Since(t0).Seconds()*1000)

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for n := 0; ; n++ {
		f := nextFrame(n, seq, t0)
		if err := radio.Send(f); err != nil {
			return fmt.Errorf("send failed: %s", err)
		}
		log.WithField("frame", fmt.Sprintf("%x", f[:])).Infof("%d packet sent", n)
		select {
		case <-tick.C:
		case <-sig:
			log.Printf("Bye...")
			return nil
		}
	}
}

func receive(radio *si446x.Radio, poll time.Duration, sig <-chan os.Signal) error {
	log.Printf("Initializing receiver...")
	t0 := time.Now()
	if err := radio.EnterRx(); err != nil {
		return fmt.Errorf("cannot bring radio up: %s", err)
	}
	log.Printf("Ready (%.1fms), receiving packets...", time.Since(t0).Seconds()*1000)

	tick := time.NewTicker(poll)
	defer tick.Stop()
	for n := 0; ; {
		f, ok, err := radio.TryReceive()
		if err != nil {
			return fmt.Errorf("receive failed: %s", err)
		}
		if ok {
			log.WithField("seq", varint.Decode(f[:])).Infof("%d packet received: %q", n, string(f[:]))
			n++
			continue
		}
		select {
		case <-tick.C:
		case <-sig:
			log.Printf("Bye...")
			return nil
		}
	}
}
