// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// The spisel package drives a device's chip select from a gpio pin instead of the SPI
// controller.
//
// Command-based chips such as the Si446x need their select line held across several
// transfers: a command is written, the chip's clear-to-send byte is read, and only then is the
// response clocked out, all within one selection. The Linux spidev driver toggles CS around
// each Tx, so the SPI port is opened with spi.NoCS and a Conn asserts the pin itself between
// Select and Deselect.
//
// Several devices can share one SPI bus, each with its own select pin. Their Conns then share a
// mutex which is held from Select to Deselect so transactions of different devices cannot
// interleave. A limitation is that the speed and mode are shared by all devices on the bus.
package spisel

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Conn is one device on an SPI bus with a gpio chip select. It implements si446x.Bus.
type Conn struct {
	mu       *sync.Mutex // held from Select to Deselect, shared by devices on the same bus
	spi.Conn             // the underlying SPI bus, opened with spi.NoCS
	csPin    gpio.PinOut // active low chip select of this device
	selected bool
}

// ErrNotSelected is returned by Transfer and Deselect if the device has not been selected.
var ErrNotSelected = errors.New("spisel: device not selected")

// New returns a Conn for a single device on the bus. The select pin is driven high.
func New(conn spi.Conn, csPin gpio.PinOut) (*Conn, error) {
	cc, err := NewShared(conn, csPin)
	if err != nil {
		return nil, err
	}
	return cc[0], nil
}

// NewShared returns one Conn per select pin, all on the same bus and sharing one mutex. All
// select pins are driven high.
func NewShared(conn spi.Conn, csPins ...gpio.PinOut) ([]*Conn, error) {
	mu := &sync.Mutex{}
	cc := make([]*Conn, len(csPins))
	for i, p := range csPins {
		if err := p.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("spisel: cannot drive %s: %v", p, err)
		}
		cc[i] = &Conn{mu: mu, Conn: conn, csPin: p}
	}
	return cc, nil
}

// Open opens the named SPI port in mode 0 without hardware chip select and returns a Conn
// using the named gpio pin as select. The returned closer closes the port.
func Open(port, csPin string, speed physic.Frequency) (*Conn, spi.PortCloser, error) {
	pin := gpioreg.ByName(csPin)
	if pin == nil {
		return nil, nil, fmt.Errorf("spisel: cannot find pin %s", csPin)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, nil, err
	}
	conn, err := p.Connect(speed, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	c, err := New(conn, pin)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return c, p, nil
}

// Select takes the bus and asserts the chip select.
func (c *Conn) Select() error {
	c.mu.Lock()
	if err := c.csPin.Out(gpio.Low); err != nil {
		c.csPin.Out(gpio.High)
		c.mu.Unlock()
		return err
	}
	c.selected = true
	return nil
}

// Transfer clocks one byte out and returns the byte clocked in at the same time.
func (c *Conn) Transfer(b byte) (byte, error) {
	if !c.selected {
		return 0, ErrNotSelected
	}
	w := [1]byte{b}
	var r [1]byte
	if err := c.Conn.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// Tx performs a full-duplex transfer within the current selection.
func (c *Conn) Tx(w, r []byte) error {
	if !c.selected {
		return ErrNotSelected
	}
	return c.Conn.Tx(w, r)
}

// Deselect releases the chip select and the bus. The bus is released even if driving the pin
// fails.
func (c *Conn) Deselect() error {
	if !c.selected {
		return ErrNotSelected
	}
	c.selected = false
	err := c.csPin.Out(gpio.High)
	c.mu.Unlock()
	return err
}

// Close is a no-op, the port is closed by whoever opened it.
func (c *Conn) Close() error { return nil }
