// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// rfm26-gateway connects an RFM26 radio to an MQTT broker. Received frames are published as
// JSON to <prefix>/rx and optionally recorded in redis, frames published to <prefix>/tx are
// transmitted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vison-lu/rf-module-test/internal/board"
	"github.com/vison-lu/rf-module-test/si446x"
	"github.com/vison-lu/rf-module-test/thread"
)

func main() {
	conf, err := loadConfig(os.Args[1:])
	if err == flag.ErrHelp {
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Configuration error: %s", err)
	}

	opts := si446x.RadioOpts{Band: si446x.Band(conf.Band), Power: si446x.Power(conf.Power)}
	if conf.Debug {
		log.SetLevel(log.DebugLevel)
		opts.Logger = log.Debugf
	}

	mq, err := newMQ(conf.MQTT)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT broker: %s", err)
	}
	defer mq.Close()

	gw := &gateway{
		pub:    mq,
		txChan: make(chan TxFrame, 10),
		poll:   conf.Poll,
		txHold: conf.TxHold,
		sleep:  time.Sleep,
	}
	if conf.Redis.Addr != "" {
		st, err := newStore(conf.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %s", err)
		}
		defer st.Close()
		gw.rec = st
	}
	if err := mq.SubscribeTx(gw.txChan); err != nil {
		log.Fatalf("Failed to subscribe: %s", err)
	}

	log.Printf("Opening radio")
	radio, err := board.Open(conf.Radio, opts)
	if err != nil {
		log.Fatalf("Cannot open radio: %s", err)
	}
	defer radio.Close()
	gw.radio = radio.Radio

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if conf.Realtime {
		if err := thread.Realtime(); err != nil {
			log.Warnf("Cannot switch to realtime priority: %s", err)
		}
	}
	log.Printf("Gateway is ready")
	if err := gw.run(ctx); err != nil {
		log.Errorf("Exiting due to error: %s", err)
	}
}
