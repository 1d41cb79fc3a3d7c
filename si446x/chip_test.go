// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// fakeChip simulates the SPI side of an Si446x well enough to exercise the driver. It records
// every transaction (the bytes sent while selected) and answers READ_CMD_BUFF polls with busy
// or ready according to its settings.
type fakeChip struct {
	t          *testing.T
	selected   bool
	cur        []byte   // bytes sent in the current transaction
	ctsOK      bool     // current poll answered ready
	txns       [][]byte // completed transactions
	polls      int      // READ_CMD_BUFF transactions
	busy       int      // busy answers to give before the next ready
	busyPerCmd int      // busy answers to give after each command
	neverReady bool     // never answer ready
	readyCmds  int      // if >0, go permanently busy after this many commands
	resp       []byte   // response to the last command
	txFifo     []byte
	rxFifo     []byte
	intr       *gpiotest.Pin // nIRQ, driven by the chip
	loopback   bool          // START_TX moves the TX FIFO into the RX FIFO and raises nIRQ
	failAt     int           // if >0, the failAt-th Transfer fails
	transfers  int
}

func newFakeChip(t *testing.T) *fakeChip {
	return &fakeChip{t: t, intr: &gpiotest.Pin{N: "nIRQ", L: gpio.High}}
}

func (c *fakeChip) Select() error {
	if c.selected {
		c.t.Errorf("chip selected twice")
	}
	c.selected = true
	c.cur = nil
	c.ctsOK = false
	return nil
}

func (c *fakeChip) Transfer(b byte) (byte, error) {
	if !c.selected {
		c.t.Errorf("transfer of %#x while chip is not selected", b)
	}
	c.transfers++
	if c.failAt > 0 && c.transfers == c.failAt {
		return 0, errors.New("wire fell off")
	}
	pos := len(c.cur)
	c.cur = append(c.cur, b)
	if pos == 0 {
		return 0, nil
	}
	switch c.cur[0] {
	case CMD_READ_CMD_BUFF:
		if pos == 1 {
			if c.neverReady || c.busy > 0 {
				if c.busy > 0 {
					c.busy--
				}
				return 0x00, nil
			}
			c.ctsOK = true
			return ctsReady, nil
		}
		if c.ctsOK && pos-2 < len(c.resp) {
			return c.resp[pos-2], nil
		}
	case CMD_READ_RX_FIFO:
		if pos-1 < len(c.rxFifo) {
			return c.rxFifo[pos-1], nil
		}
	}
	return 0, nil
}

func (c *fakeChip) Deselect() error {
	if !c.selected {
		c.t.Errorf("chip deselected twice")
	}
	c.selected = false
	txn := c.cur
	c.txns = append(c.txns, txn)
	if len(txn) == 0 {
		return nil
	}
	switch txn[0] {
	case CMD_READ_CMD_BUFF:
		c.polls++
	case CMD_WRITE_TX_FIFO:
		c.txFifo = append(c.txFifo, txn[1:]...)
	case CMD_READ_RX_FIFO:
		n := len(txn) - 1
		if n > len(c.rxFifo) {
			n = len(c.rxFifo)
		}
		c.rxFifo = c.rxFifo[n:]
	default:
		c.execute(txn)
	}
	return nil
}

// execute simulates the effect of a command.
func (c *fakeChip) execute(cmd []byte) {
	c.resp = nil
	c.busy = c.busyPerCmd
	switch cmd[0] {
	case CMD_GET_INT_STAT:
		c.resp = []byte{0x00, 0x00, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00}
		c.intr.L = gpio.High
	case CMD_PART_INFO:
		c.resp = []byte{0x11, 0x44, 0x63, 0x00, 0x86, 0x00, 0x00, 0x03}
	case CMD_FIFO_INFO:
		if cmd[1]&FIFO_RESET_TX != 0 {
			c.txFifo = nil
		}
		if cmd[1]&FIFO_RESET_RX != 0 {
			c.rxFifo = nil
		}
	case CMD_START_TX:
		if c.loopback {
			l := int(cmd[3])<<8 | int(cmd[4])
			c.rxFifo = append([]byte{}, c.txFifo[:l]...)
			c.txFifo = c.txFifo[l:]
			c.intr.L = gpio.Low
		}
	}
	if c.readyCmds > 0 && len(c.commands()) >= c.readyCmds {
		c.neverReady = true
	}
}

// commands returns all transactions other than CTS polls.
func (c *fakeChip) commands() [][]byte {
	var cmds [][]byte
	for _, txn := range c.txns {
		if len(txn) > 0 && txn[0] != CMD_READ_CMD_BUFF {
			cmds = append(cmds, txn)
		}
	}
	return cmds
}

// reset forgets the recorded transactions.
func (c *fakeChip) reset() {
	c.txns = nil
	c.polls = 0
}

// resetPin records the levels driven onto the SDN line.
type resetPin struct {
	levels []gpio.Level
}

func (p *resetPin) Out(l gpio.Level) error {
	p.levels = append(p.levels, l)
	return nil
}

// newTestRadio returns a Radio on a fake chip. Delays are recorded instead of waited for.
func newTestRadio(t *testing.T, opts RadioOpts) (*Radio, *fakeChip, *resetPin, *[]time.Duration) {
	chip := newFakeChip(t)
	rst := &resetPin{}
	delays := &[]time.Duration{}
	opts.Delay = func(d time.Duration) { *delays = append(*delays, d) }
	if opts.Logger == nil {
		opts.Logger = t.Logf
	}
	r, err := New(chip, chip.intr, rst, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, chip, rst, delays
}

// checkCommands compares the commands a chip has seen with the expected ones.
func checkCommands(t *testing.T, got [][]byte, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d commands %s, expected %d %s", len(got), dump(got), len(want), dump(want))
	}
	for i := range got {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("command %d is % x, expected % x", i, got[i], want[i])
		}
	}
}

func dump(cmds [][]byte) string {
	s := "["
	for i, c := range cmds {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("% x", c)
	}
	return s + "]"
}
