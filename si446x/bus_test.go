// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import (
	"bytes"
	"errors"
	"testing"
)

func TestWaitCTSAfterNPolls(t *testing.T) {
	for _, n := range []int{1, 2, 7, 50} {
		r, chip, _, _ := newTestRadio(t, RadioOpts{CTSRetries: 50})
		chip.busy = n - 1
		if err := r.WaitCTS(); err != nil {
			t.Fatalf("ready on poll %d: unexpected error %v", n, err)
		}
		if chip.polls != n {
			t.Fatalf("ready on poll %d: got %d polls", n, chip.polls)
		}
		if chip.selected {
			t.Fatalf("chip left selected")
		}
	}
}

func TestWaitCTSTimeout(t *testing.T) {
	for _, ceiling := range []int{1, 50, 0} {
		r, chip, _, _ := newTestRadio(t, RadioOpts{CTSRetries: ceiling})
		chip.neverReady = true
		err := r.WaitCTS()
		if err != ErrTimeout {
			t.Fatalf("ceiling %d: got error %v, expected ErrTimeout", ceiling, err)
		}
		want := ceiling
		if want == 0 {
			want = DefaultCTSRetries
		}
		if chip.polls != want {
			t.Fatalf("ceiling %d: got %d polls, expected %d", ceiling, chip.polls, want)
		}
		for _, txn := range chip.txns {
			if !bytes.Equal(txn, []byte{CMD_READ_CMD_BUFF, 0}) {
				t.Fatalf("poll transaction is % x", txn)
			}
		}
	}
}

func TestGetResponseReadsWhileSelected(t *testing.T) {
	r, chip, _, _ := newTestRadio(t, RadioOpts{})
	chip.busyPerCmd = 3
	if err := r.SendCommand(CMD_PART_INFO); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	var resp [8]byte
	if err := r.GetResponse(resp[:]); err != nil {
		t.Fatalf("GetResponse: %v", err)
	}
	if !bytes.Equal(resp[:], chip.resp) {
		t.Fatalf("got response % x, expected % x", resp, chip.resp)
	}
	// 1 command, 3 busy polls, 1 poll with the response in the same transaction.
	if len(chip.txns) != 5 || chip.polls != 4 {
		t.Fatalf("got transactions %s", dump(chip.txns))
	}
	if l := len(chip.txns[4]); l != 2+8 {
		t.Fatalf("response transaction has %d bytes, expected 10", l)
	}
}

func TestGetResponseTimeout(t *testing.T) {
	r, chip, _, _ := newTestRadio(t, RadioOpts{CTSRetries: 10})
	chip.neverReady = true
	resp := []byte{1, 2, 3}
	if err := r.GetResponse(resp); err != ErrTimeout {
		t.Fatalf("got %v, expected ErrTimeout", err)
	}
	if !bytes.Equal(resp, []byte{1, 2, 3}) {
		t.Fatalf("response buffer was modified: % x", resp)
	}
}

func TestSendCommand(t *testing.T) {
	r, chip, _, _ := newTestRadio(t, RadioOpts{})
	if err := r.SendCommand(CMD_FIFO_INFO, FIFO_RESET_BOTH); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	checkCommands(t, chip.txns, []byte{CMD_FIFO_INFO, FIFO_RESET_BOTH})
	if chip.polls != 0 {
		t.Fatalf("SendCommand waited for CTS")
	}

	long := make([]byte, MaxCommandLen+1)
	if err := r.SendCommand(long...); err != ErrCommandTooLong {
		t.Fatalf("got %v, expected ErrCommandTooLong", err)
	}
}

func TestFifoAccess(t *testing.T) {
	r, chip, _, _ := newTestRadio(t, RadioOpts{})
	chip.neverReady = true // FIFO access must not poll CTS
	if err := r.WriteTxFifo([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteTxFifo: %v", err)
	}
	chip.rxFifo = []byte{9, 8, 7, 6}
	buf := make([]byte, 3)
	if err := r.ReadRxFifo(buf); err != nil {
		t.Fatalf("ReadRxFifo: %v", err)
	}
	if !bytes.Equal(buf, []byte{9, 8, 7}) {
		t.Fatalf("read % x from RX FIFO", buf)
	}
	checkCommands(t, chip.txns,
		[]byte{CMD_WRITE_TX_FIFO, 1, 2, 3},
		[]byte{CMD_READ_RX_FIFO, 0, 0, 0})
	if !bytes.Equal(chip.txFifo, []byte{1, 2, 3}) {
		t.Fatalf("TX FIFO holds % x", chip.txFifo)
	}

	if err := r.WriteTxFifo(make([]byte, FifoSize+1)); err != ErrFifoOverflow {
		t.Fatalf("got %v, expected ErrFifoOverflow", err)
	}
}

func TestBusErrorDeselects(t *testing.T) {
	for n := 1; n <= 3; n++ {
		r, chip, _, _ := newTestRadio(t, RadioOpts{})
		chip.failAt = n
		err := r.SendCommand(CMD_START_TX, 0, 0x30, 0, 21)
		var be *BusError
		if !errors.As(err, &be) || be.Op != "transfer" {
			t.Fatalf("transfer %d failing: got %v, expected a transfer BusError", n, err)
		}
		if chip.selected {
			t.Fatalf("transfer %d failing: chip left selected", n)
		}
	}

	r, chip, _, _ := newTestRadio(t, RadioOpts{})
	chip.failAt = 2 // the CTS byte
	if err := r.WaitCTS(); err == nil || err == ErrTimeout {
		t.Fatalf("got %v, expected a BusError", err)
	}
	if chip.selected {
		t.Fatalf("chip left selected after failed poll")
	}
}
