// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import (
	"errors"
	"fmt"
)

// Bus is the byte-level connection to the radio. Transfer exchanges one byte full-duplex while
// the chip is selected, Select and Deselect drive the chip's nSEL line. Implementations must
// not select or deselect on their own: a command transaction spans many Transfer calls.
type Bus interface {
	Transfer(b byte) (byte, error)
	Select() error
	Deselect() error
}

// MaxCommandLen is the size of the chip's command buffer.
const MaxCommandLen = 16

// FifoSize is the capacity of each of the chip's TX and RX FIFOs.
const FifoSize = 64

var (
	// ErrTimeout is returned when the chip does not signal clear-to-send within the retry
	// ceiling. It is passed up unchanged by every layer of the driver.
	ErrTimeout = errors.New("si446x: timeout waiting for CTS")
	// ErrCommandTooLong is returned for commands that do not fit the chip's command buffer.
	ErrCommandTooLong = errors.New("si446x: command longer than 16 bytes")
	// ErrFifoOverflow is returned for FIFO accesses larger than the FIFO.
	ErrFifoOverflow = errors.New("si446x: FIFO access larger than 64 bytes")
)

// BusError reports a failure of the underlying transport.
type BusError struct {
	Op  string // select, transfer, or deselect
	Err error
}

func (e *BusError) Error() string { return fmt.Sprintf("si446x: bus %s: %v", e.Op, e.Err) }

func (e *BusError) Unwrap() error { return e.Err }

// txn runs fn with the chip selected. The chip is always deselected afterwards, also when fn
// fails, and a deselect failure is reported only if fn succeeded.
func (r *Radio) txn(fn func() error) (err error) {
	if err := r.bus.Select(); err != nil {
		return &BusError{"select", err}
	}
	defer func() {
		if e := r.bus.Deselect(); e != nil && err == nil {
			err = &BusError{"deselect", e}
		}
	}()
	return fn()
}

// write sends bytes to the chip, ignoring what comes back.
func (r *Radio) write(data []byte) error {
	for _, b := range data {
		if _, err := r.bus.Transfer(b); err != nil {
			return &BusError{"transfer", err}
		}
	}
	return nil
}

// read clocks dummy bytes out to the chip and stores the bytes it returns.
func (r *Radio) read(buf []byte) error {
	for i := range buf {
		v, err := r.bus.Transfer(0)
		if err != nil {
			return &BusError{"transfer", err}
		}
		buf[i] = v
	}
	return nil
}

// SendCommand sends an API command, i.e. an opcode followed by its arguments. No response is
// read and the chip may still be processing the command when SendCommand returns, callers
// that need completion must call WaitCTS.
func (r *Radio) SendCommand(cmd ...byte) error {
	if len(cmd) > MaxCommandLen {
		return ErrCommandTooLong
	}
	return r.txn(func() error { return r.write(cmd) })
}

// poll performs one READ_CMD_BUFF transaction and reports whether the chip is ready. When it is,
// the len(resp) response bytes that follow the CTS byte are read in the same transaction.
func (r *Radio) poll(resp []byte) (bool, error) {
	ready := false
	err := r.txn(func() error {
		if _, err := r.bus.Transfer(CMD_READ_CMD_BUFF); err != nil {
			return &BusError{"transfer", err}
		}
		cts, err := r.bus.Transfer(0)
		if err != nil {
			return &BusError{"transfer", err}
		}
		if cts != ctsReady {
			return nil
		}
		ready = true
		return r.read(resp)
	})
	return ready, err
}

// WaitCTS polls the chip until it signals clear-to-send. It gives up with ErrTimeout after
// exactly CTSRetries polls. There is no backoff, each poll costs one bus round trip.
func (r *Radio) WaitCTS() error {
	return r.GetResponse(nil)
}

// GetResponse waits for clear-to-send and then reads len(buf) response bytes into buf while the
// chip is still selected. ErrTimeout from the handshake is returned unchanged.
func (r *Radio) GetResponse(buf []byte) error {
	for i := 0; i < r.ctsRetries; i++ {
		ready, err := r.poll(buf)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
	return ErrTimeout
}

// ReadRxFifo reads len(buf) bytes out of the RX FIFO. FIFO access is always available and does
// not involve the CTS handshake.
func (r *Radio) ReadRxFifo(buf []byte) error {
	if len(buf) > FifoSize {
		return ErrFifoOverflow
	}
	return r.txn(func() error {
		if _, err := r.bus.Transfer(CMD_READ_RX_FIFO); err != nil {
			return &BusError{"transfer", err}
		}
		return r.read(buf)
	})
}

// WriteTxFifo appends data to the TX FIFO, without CTS handshake.
func (r *Radio) WriteTxFifo(data []byte) error {
	if len(data) > FifoSize {
		return ErrFifoOverflow
	}
	return r.txn(func() error {
		if _, err := r.bus.Transfer(CMD_WRITE_TX_FIFO); err != nil {
			return &BusError{"transfer", err}
		}
		return r.write(data)
	})
}
