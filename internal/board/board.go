// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// Package board opens an RFM26 radio wired to the host's SPI bus and gpio pins, using either
// periph or embd for the hardware access. It is shared by the commands.
package board

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/chip"
	_ "github.com/kidoman/embd/host/rpi"
	"github.com/vison-lu/rf-module-test/embdbus"
	"github.com/vison-lu/rf-module-test/si446x"
	"github.com/vison-lu/rf-module-test/spisel"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Config describes how a radio is wired to the host.
type Config struct {
	Backend string `json:"backend"` // periph or embd
	SPI     string `json:"spi"`     // periph: SPI port name, embd: SPI channel number
	Speed   int    `json:"speed"`   // SPI clock in Hz
	CS      string `json:"cs"`      // chip select (nSEL) pin
	IRQ     string `json:"irq"`     // nIRQ pin
	SDN     string `json:"sdn"`     // shutdown pin
}

// Default is the wiring of an RFM26 on a Raspberry Pi: SPI0 with the chip select moved to
// GPIO8 under software control, nIRQ on GPIO25 and SDN on GPIO24.
var Default = Config{
	Backend: "periph",
	Speed:   1000000,
	CS:      "GPIO8",
	IRQ:     "GPIO25",
	SDN:     "GPIO24",
}

// Flags registers flags for each field of c, using the current values as defaults.
func (c *Config) Flags(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend, "backend", c.Backend, "hardware access library: periph or embd")
	fs.StringVar(&c.SPI, "spi", c.SPI, "SPI port name (periph) or channel number (embd)")
	fs.IntVar(&c.Speed, "speed", c.Speed, "SPI clock in Hz")
	fs.StringVar(&c.CS, "cs", c.CS, "chip select pin name")
	fs.StringVar(&c.IRQ, "irq", c.IRQ, "nIRQ pin name")
	fs.StringVar(&c.SDN, "sdn", c.SDN, "SDN (reset) pin name")
}

func (c *Config) check() error {
	switch c.Backend {
	case "periph", "embd":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.CS == "" || c.IRQ == "" || c.SDN == "" {
		return fmt.Errorf("cs, irq and sdn pins must all be specified")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("invalid SPI speed %d", c.Speed)
	}
	return nil
}

// Radio is a radio together with the hardware resources it holds.
type Radio struct {
	*si446x.Radio
	conf  Config
	close func() error
}

// Open initializes the hardware library and returns the radio. The chip is held in reset
// until EnterRx or EnterTx is called.
func Open(c Config, opts si446x.RadioOpts) (*Radio, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.Backend == "embd" {
		return openEmbd(c, opts)
	}
	return openPeriph(c, opts)
}

func openPeriph(c Config, opts si446x.RadioOpts) (*Radio, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	irq := gpioreg.ByName(c.IRQ)
	if irq == nil {
		return nil, fmt.Errorf("cannot open pin %s", c.IRQ)
	}
	if err := irq.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	sdn := gpioreg.ByName(c.SDN)
	if sdn == nil {
		return nil, fmt.Errorf("cannot open pin %s", c.SDN)
	}
	bus, port, err := spisel.Open(c.SPI, c.CS, physic.Frequency(c.Speed)*physic.Hertz)
	if err != nil {
		return nil, err
	}
	r, err := si446x.New(bus, irq, sdn, opts)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &Radio{Radio: r, conf: c, close: port.Close}, nil
}

func openEmbd(c Config, opts si446x.RadioOpts) (*Radio, error) {
	ch := 0
	if c.SPI != "" {
		var err error
		if ch, err = strconv.Atoi(c.SPI); err != nil || ch < 0 || ch > 255 {
			return nil, fmt.Errorf("invalid SPI channel %q", c.SPI)
		}
	}
	bus, err := embdbus.Open(byte(ch), c.Speed, c.CS)
	if err != nil {
		return nil, err
	}
	closeAll := func() error {
		embd.CloseSPI()
		return embd.CloseGPIO()
	}
	irq, err := embdbus.OpenPin(c.IRQ)
	if err != nil {
		closeAll()
		return nil, err
	}
	sdn, err := embdbus.OpenPin(c.SDN)
	if err != nil {
		closeAll()
		return nil, err
	}
	r, err := si446x.New(bus, irq, sdn, opts)
	if err != nil {
		closeAll()
		return nil, err
	}
	return &Radio{Radio: r, conf: c, close: closeAll}, nil
}

// Input opens another pin of the board as an input with pull-up, e.g. a jumper selecting the
// mode of operation. It must be called after Open.
func (r *Radio) Input(name string) (si446x.IntrPin, error) {
	if r.conf.Backend == "embd" {
		p, err := embdbus.OpenPin(name)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("cannot open pin %s", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return p, nil
}

// Close puts the chip to sleep and releases the hardware.
func (r *Radio) Close() error {
	r.Radio.Sleep()
	return r.close()
}
