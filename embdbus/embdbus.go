// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The embdbus package lets the si446x driver run on top of the embd library instead of periph.
//
// embd's SPI bus toggles the controller's chip select around every transfer, which does not
// work for a chip that needs to stay selected across a command and its response. The Bus here
// uses a separate embd digital pin as chip select and clocks single bytes through the SPI bus.
package embdbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kidoman/embd"
	"periph.io/x/conn/v3/gpio"
)

// ByteTransferer is the part of embd.SPIBus the Bus uses.
type ByteTransferer interface {
	TransferAndReceiveByte(data byte) (byte, error)
}

// DigitalPin is the part of embd.DigitalPin the adapters use.
type DigitalPin interface {
	SetDirection(dir embd.Direction) error
	Read() (int, error)
	Write(val int) error
}

var errNotSelected = errors.New("embdbus: device not selected")

// Bus implements si446x.Bus with an embd SPI bus and a digital pin as chip select.
type Bus struct {
	mu       sync.Mutex
	spi      ByteTransferer
	cs       DigitalPin
	selected bool
}

// New returns a Bus and deselects the device.
func New(spi ByteTransferer, cs DigitalPin) (*Bus, error) {
	if err := cs.SetDirection(embd.Out); err != nil {
		return nil, fmt.Errorf("embdbus: chip select: %v", err)
	}
	if err := cs.Write(embd.High); err != nil {
		return nil, fmt.Errorf("embdbus: chip select: %v", err)
	}
	return &Bus{spi: spi, cs: cs}, nil
}

// Open initializes embd's SPI and GPIO drivers and returns a Bus on the given SPI channel
// with the named pin as chip select. The SPI bus runs in mode 0 with 8-bit words.
func Open(channel byte, speed int, csPin string) (*Bus, error) {
	if err := embd.InitGPIO(); err != nil {
		return nil, err
	}
	if err := embd.InitSPI(); err != nil {
		return nil, err
	}
	cs, err := embd.NewDigitalPin(csPin)
	if err != nil {
		return nil, fmt.Errorf("embdbus: pin %s: %v", csPin, err)
	}
	return New(embd.NewSPIBus(embd.SPIMode0, channel, speed, 8, 0), cs)
}

// Select asserts the chip select.
func (b *Bus) Select() error {
	b.mu.Lock()
	if err := b.cs.Write(embd.Low); err != nil {
		b.mu.Unlock()
		return err
	}
	b.selected = true
	return nil
}

// Transfer exchanges one byte.
func (b *Bus) Transfer(v byte) (byte, error) {
	if !b.selected {
		return 0, errNotSelected
	}
	return b.spi.TransferAndReceiveByte(v)
}

// Deselect releases the chip select.
func (b *Bus) Deselect() error {
	if !b.selected {
		return errNotSelected
	}
	b.selected = false
	err := b.cs.Write(embd.High)
	b.mu.Unlock()
	return err
}

// Pin adapts an embd digital pin to the periph level-based interface the si446x driver uses
// for its nIRQ and SDN lines.
type Pin struct {
	p   DigitalPin
	dir embd.Direction
	set bool // dir has been applied
}

// NewPin returns a Pin, the direction is set on first use.
func NewPin(p DigitalPin) *Pin { return &Pin{p: p} }

// OpenPin opens the named embd pin. embd.InitGPIO must have been called.
func OpenPin(name string) (*Pin, error) {
	p, err := embd.NewDigitalPin(name)
	if err != nil {
		return nil, fmt.Errorf("embdbus: pin %s: %v", name, err)
	}
	return NewPin(p), nil
}

func (p *Pin) direction(dir embd.Direction) error {
	if p.set && p.dir == dir {
		return nil
	}
	if err := p.p.SetDirection(dir); err != nil {
		return err
	}
	p.dir, p.set = dir, true
	return nil
}

// Read returns the pin level. Read errors are reported as High, which is the idle level of
// the active-low lines this is used for.
func (p *Pin) Read() gpio.Level {
	if err := p.direction(embd.In); err != nil {
		return gpio.High
	}
	v, err := p.p.Read()
	if err != nil {
		return gpio.High
	}
	return v == embd.High
}

// Out drives the pin.
func (p *Pin) Out(l gpio.Level) error {
	if err := p.direction(embd.Out); err != nil {
		return err
	}
	v := embd.Low
	if l == gpio.High {
		v = embd.High
	}
	return p.p.Write(v)
}
