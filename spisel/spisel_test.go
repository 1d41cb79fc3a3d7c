// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package spisel

import (
	"sync"
	"testing"

	"github.com/vison-lu/rf-module-test/si446x"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

var _ si446x.Bus = (*Conn)(nil)

// fakeSPI records the bytes written and which select pins were low at the time. It answers
// every byte with 0xFF.
type fakeSPI struct {
	mu   sync.Mutex
	pins []*gpiotest.Pin
	w    []byte
	bad  int // transfers made with other than exactly one pin selected
}

func (f *fakeSPI) String() string                 { return "fakeSPI" }
func (f *fakeSPI) Duplex() conn.Duplex            { return conn.Full }
func (f *fakeSPI) TxPackets(p []spi.Packet) error { return nil }

func (f *fakeSPI) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	low := 0
	for _, p := range f.pins {
		if p.Read() == gpio.Low {
			low++
		}
	}
	if low != 1 {
		f.bad++
	}
	f.w = append(f.w, w...)
	for i := range r {
		r[i] = 0xFF
	}
	return nil
}

func newPins(n int) []*gpiotest.Pin {
	pins := make([]*gpiotest.Pin, n)
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: "CS", Num: i, L: gpio.Low}
	}
	return pins
}

func TestSelect(t *testing.T) {
	pins := newPins(1)
	f := &fakeSPI{pins: pins}
	c, err := New(f, pins[0])
	if err != nil {
		t.Fatal(err)
	}
	if pins[0].L != gpio.High {
		t.Fatalf("New did not deselect the device")
	}
	if _, err := c.Transfer(1); err != ErrNotSelected {
		t.Fatalf("Transfer without Select: got %v", err)
	}
	if err := c.Deselect(); err != ErrNotSelected {
		t.Fatalf("Deselect without Select: got %v", err)
	}

	if err := c.Select(); err != nil {
		t.Fatal(err)
	}
	for _, b := range []byte{0x44, 0x00, 0x00} {
		v, err := c.Transfer(b)
		if err != nil || v != 0xFF {
			t.Fatalf("Transfer(%#x) = %#x, %v", b, v, err)
		}
		if pins[0].L != gpio.Low {
			t.Fatalf("select dropped during transaction")
		}
	}
	if err := c.Deselect(); err != nil {
		t.Fatal(err)
	}
	if pins[0].L != gpio.High || f.bad != 0 || len(f.w) != 3 {
		t.Fatalf("pin %v, %d bad transfers, %d bytes", pins[0].L, f.bad, len(f.w))
	}
}

func TestShared(t *testing.T) {
	pins := newPins(3)
	f := &fakeSPI{pins: pins}
	cc, err := NewShared(f, pins[0], pins[1], pins[2])
	if err != nil {
		t.Fatal(err)
	}
	const rounds = 200
	var wg sync.WaitGroup
	for i, c := range cc {
		wg.Add(1)
		go func(i int, c *Conn) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if err := c.Select(); err != nil {
					t.Error(err)
					return
				}
				c.Transfer(byte(i))
				c.Transfer(byte(j))
				if err := c.Deselect(); err != nil {
					t.Error(err)
					return
				}
			}
		}(i, c)
	}
	wg.Wait()
	if f.bad != 0 {
		t.Fatalf("%d transfers with other than one device selected", f.bad)
	}
	if len(f.w) != 2*rounds*len(cc) {
		t.Fatalf("got %d bytes", len(f.w))
	}
	// Each transaction's two bytes must be adjacent.
	for i := 0; i < len(f.w); i += 2 {
		if f.w[i] > 2 {
			t.Fatalf("transactions interleaved at byte %d", i)
		}
	}
}

type rstPin struct{}

func (rstPin) Out(gpio.Level) error { return nil }

func TestRadio(t *testing.T) {
	pins := newPins(1)
	f := &fakeSPI{pins: pins}
	c, err := New(f, pins[0])
	if err != nil {
		t.Fatal(err)
	}
	intr := &gpiotest.Pin{N: "nIRQ", L: gpio.High}
	r, err := si446x.New(c, intr, rstPin{}, si446x.RadioOpts{Logger: t.Logf})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SendCommand(si446x.CMD_FIFO_INFO, si446x.FIFO_RESET_BOTH); err != nil {
		t.Fatal(err)
	}
	if err := r.WaitCTS(); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x15, 0x03, 0x44, 0x00}
	if string(f.w) != string(want) {
		t.Fatalf("got % x, expected % x", f.w, want)
	}
	if f.bad != 0 || pins[0].L != gpio.High {
		t.Fatalf("select not handled: %d bad, pin %v", f.bad, pins[0].L)
	}
}
