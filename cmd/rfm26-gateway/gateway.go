// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"context"
	"fmt"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"github.com/vison-lu/rf-module-test/si446x"
	"github.com/vison-lu/rf-module-test/varint"
)

// RxFrame is the structure published to MQTT for frames received on the radio.
type RxFrame struct {
	Frame []byte    `json:"frame"`          // the 21 bytes of the frame
	Text  string    `json:"text,omitempty"` // the frame as text if it is printable
	Ints  []int     `json:"ints,omitempty"` // varint decoding of the frame
	Count int64     `json:"count,omitempty"`
	At    time.Time `json:"at"` // time the frame was picked up
}

// TxFrame is the payload expected via MQTT for frames to be transmitted. Either Frame or Text
// is used, both are padded with zeros to the frame size.
type TxFrame struct {
	Frame []byte `json:"frame"`
	Text  string `json:"text"`
}

// frame returns the frame to transmit.
func (tx TxFrame) frame() (si446x.Frame, error) {
	var f si446x.Frame
	data := tx.Frame
	if len(data) == 0 {
		data = []byte(tx.Text)
	}
	if len(data) > len(f) {
		return f, fmt.Errorf("frame of %d bytes too long", len(data))
	}
	copy(f[:], data)
	return f, nil
}

// radio is the part of *si446x.Radio the gateway uses.
type radio interface {
	EnterRx() error
	TryReceive() (si446x.Frame, bool, error)
	Send(f si446x.Frame) error
	ChangeToRxMode(length uint16) error
}

type publisher interface {
	Publish(suffix string, payload interface{}) error
}

type recorder interface {
	Record(ctx context.Context, rx *RxFrame) (int64, error)
}

// gateway moves frames between the radio and MQTT. A single goroutine owns the radio: it polls
// for received frames and interleaves transmissions of frames arriving on txChan.
type gateway struct {
	radio  radio
	pub    publisher
	rec    recorder // may be nil
	txChan chan TxFrame
	poll   time.Duration
	txHold time.Duration
	sleep  func(time.Duration)
}

// run brings the radio up and gateways until ctx is cancelled. A driver error causes the radio
// to be brought up again from scratch.
func (gw *gateway) run(ctx context.Context) error {
	if err := gw.radio.EnterRx(); err != nil {
		return err
	}
	tick := time.NewTicker(gw.poll)
	defer tick.Stop()
	for {
		err := gw.receive(ctx)
		if err == nil {
			select {
			case <-ctx.Done():
				return nil
			case tx := <-gw.txChan:
				err = gw.transmit(tx)
			case <-tick.C:
			}
		}
		if err != nil {
			log.Errorf("Radio error: %s, restarting", err)
			if err := gw.radio.EnterRx(); err != nil {
				return err
			}
		}
	}
}

// receive publishes all frames the radio has received.
func (gw *gateway) receive(ctx context.Context) error {
	for {
		f, ok, err := gw.radio.TryReceive()
		if err != nil || !ok {
			return err
		}
		rx := newRxFrame(f)
		if gw.rec != nil {
			if rx.Count, err = gw.rec.Record(ctx, rx); err != nil {
				log.Warnf("Cannot record frame: %s", err)
			}
		}
		log.WithField("count", rx.Count).Infof("RX %x", rx.Frame)
		if err := gw.pub.Publish("rx", rx); err != nil {
			log.Warnf("Cannot publish frame: %s", err)
		}
	}
}

// transmit sends a frame and switches back to receiving once it has had time to go out.
func (gw *gateway) transmit(tx TxFrame) error {
	f, err := tx.frame()
	if err != nil {
		log.Warnf("Dropping frame: %s", err)
		return nil
	}
	log.Infof("TX %x", f[:])
	if err := gw.radio.Send(f); err != nil {
		return err
	}
	gw.sleep(gw.txHold)
	return gw.radio.ChangeToRxMode(si446x.FrameLen)
}

func newRxFrame(f si446x.Frame) *RxFrame {
	rx := &RxFrame{Frame: append([]byte(nil), f[:]...), At: time.Now()}
	if text, ok := printable(f[:]); ok {
		rx.Text = text
	} else {
		rx.Ints = varint.Decode(f[:])
	}
	return rx
}

// printable returns the frame as text, ignoring zero padding, if all of it is printable.
func printable(b []byte) (string, bool) {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	if n == 0 {
		return "", false
	}
	for _, c := range b[:n] {
		if c >= 0x80 || !unicode.IsPrint(rune(c)) {
			return "", false
		}
	}
	return string(b[:n]), true
}
