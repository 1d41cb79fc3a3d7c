// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import "periph.io/x/conn/v3/gpio"

// FrameLen is the fixed length of a frame on the air. There is no length byte, the chip's CRC
// is handled by the chip.
const FrameLen = 21

// Frame is the payload of one packet.
type Frame [FrameLen]byte

// armRx starts a reception of one frame. After a valid or an invalid packet the chip goes to the
// ready state, after a preamble timeout it stays in RX.
func (r *Radio) armRx() error {
	return r.StartRx(0, 0, FrameLen, StateNoChange, StateReady, StateReady)
}

// pending reports whether nIRQ is asserted.
func (r *Radio) pending() bool { return r.intrPin.Read() == gpio.Low }

// TryReceive returns a frame if one has been received. It never waits: if nIRQ is not asserted
// it returns false straight away. Otherwise it reads the frame out of the RX FIFO, empties the
// FIFO, clears the interrupt and re-arms the receiver so the next frame can come in while the
// caller handles this one.
func (r *Radio) TryReceive() (Frame, bool, error) {
	var f Frame
	if !r.pending() {
		return f, false, nil
	}
	r.rxBuf = Frame{}
	if err := r.ReadRxFifo(r.rxBuf[:]); err != nil {
		return f, false, err
	}
	if err := r.ResetRxFifo(); err != nil {
		return f, false, err
	}
	if err := r.ClearInterrupts(); err != nil {
		return f, false, err
	}
	if err := r.armRx(); err != nil {
		return f, false, err
	}
	f = r.rxBuf
	return f, true, nil
}

// Send transmits a frame. It puts the chip into standby, loads the frame into the TX FIFO and
// starts the transmission, after which the chip returns to the ready state by itself. It does
// not wait for the frame to be sent: with EnterTx's interrupt setup nIRQ goes low once it has.
func (r *Radio) Send(f Frame) error {
	if err := r.Standby(); err != nil {
		return err
	}
	if err := r.WriteTxFifo(f[:]); err != nil {
		return err
	}
	if err := r.WaitCTS(); err != nil {
		return err
	}
	// Rev B1A parts can have a stale interrupt pending at this point which keeps the packet
	// from going out. Only clear it if nIRQ actually shows one.
	if r.pending() {
		if err := r.ClearInterrupts(); err != nil {
			return err
		}
	}
	return r.StartTx(0, TxImmediateToReady, FrameLen)
}
