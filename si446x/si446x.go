// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The si446x package interfaces with a HopeRF RFM26 radio connected to an SPI bus.
//
// The RFM26 modules use a Silicon Labs Si4463 transceiver and this package should work with
// other modules built around the Si446x family. Unlike register-based radios such as the
// sx1231, the Si446x is driven through an API: the host sends a command (an opcode followed by
// arguments) and then polls the chip's command buffer until it signals clear-to-send (CTS)
// before it reads a response or issues the next command. Every operation in this package is
// built on that handshake.
//
// The driver is polled, not interrupt driven. The chip's nIRQ line is read as a plain level:
// it is low while an enabled interrupt is pending. TryReceive checks it and returns at once if
// nothing arrived. Packets are fixed at 21 bytes and the chip is configured to check the CRC
// itself, so the driver only ever sees valid frames.
//
// Bring-up is all or nothing. EnterRx and EnterTx reset the chip, replay the configuration
// table and set up the packet handler; any CTS timeout aborts the sequence and leaves the chip
// in an unknown state from which a fresh EnterRx or EnterTx recovers because it starts with a
// reset pulse. The driver never retries on its own.
//
// A Radio is not concurrency safe and assumes it is the only user of the chip. The driver does
// not track the chip's current mode: calling EnterRx while a transmission is in flight is not
// supported.
package si446x

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// IntrPin is the radio's nIRQ line. It is active low. A periph gpio.PinIn satisfies it.
type IntrPin interface {
	Read() gpio.Level
}

// ResetPin is the radio's SDN (shutdown) line, high holds the chip in reset. A periph
// gpio.PinOut satisfies it.
type ResetPin interface {
	Out(l gpio.Level) error
}

// DefaultCTSRetries is the number of CTS polls after which the driver gives up. At a 1Mhz SPI
// clock one poll takes about 20us, so this allows the chip 100ms, more than the slowest
// command (POWER_UP) needs.
const DefaultCTSRetries = 5000

const defaultXOTune = 0x5D // crystal cap bank trim for the RFM26

// Radio represents a Silicon Labs Si446x radio as used in HopeRF's RFM26 modules.
type Radio struct {
	// configuration
	bus        Bus                 // SPI transport with explicit chip select
	intrPin    IntrPin             // nIRQ, low when an interrupt is pending
	resetPin   ResetPin            // SDN
	config     Table               // configuration table replayed on bring-up
	band       Band                // frequency band
	freq       [8]byte             // frequency settings from FreqTable
	power      Power               // output power
	pa         [2]byte             // PA settings from PowerTable
	xoTune     byte                // crystal trim
	ctsRetries int                 // CTS polls before timing out
	delay      func(time.Duration) // wait used for the reset pulse
	log        LogPrintf           // function to use for logging
	// state
	rxBuf [FrameLen]byte // staging for frames read from the RX FIFO
}

// RadioOpts contains options used when initializing a Radio.
type RadioOpts struct {
	Config     Table               // configuration table, DefaultConfig if nil
	Band       Band                // frequency band, must exist in FreqTable, 868Mhz if zero
	Power      Power               // output power in dBm, must exist in PowerTable, 17dBm if zero
	XOTune     byte                // crystal cap bank trim, 0x5D if zero
	CTSRetries int                 // CTS polls before giving up, DefaultCTSRetries if zero
	Delay      func(time.Duration) // function used to time the reset pulse, Wait if nil
	Logger     LogPrintf           // function to use for logging
}

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// PartInfo is the chip identification returned by the PART_INFO command.
type PartInfo struct {
	ChipRev  byte
	Part     uint16 // e.g. 0x4463
	PBuild   byte
	ID       uint16
	Customer byte
	ROMID    byte
}

// New returns a Radio for the chip on the given bus. The reset pin is driven low so the chip can
// run, but the chip is not touched otherwise: call EnterRx or EnterTx to bring it up.
func New(bus Bus, intr IntrPin, reset ResetPin, opts RadioOpts) (*Radio, error) {
	r := &Radio{
		bus: bus, intrPin: intr, resetPin: reset,
		config:     opts.Config,
		band:       opts.Band,
		power:      opts.Power,
		xoTune:     opts.XOTune,
		ctsRetries: opts.CTSRetries,
		delay:      opts.Delay,
		log:        func(format string, v ...interface{}) {},
	}
	if opts.Logger != nil {
		r.log = func(format string, v ...interface{}) {
			opts.Logger("si446x: "+format, v...)
		}
	}
	if r.config == nil {
		r.config = DefaultConfig
	}
	if r.band == 0 {
		r.band = Band868
	}
	if r.power == 0 {
		r.power = 17
	}
	if r.xoTune == 0 {
		r.xoTune = defaultXOTune
	}
	if r.ctsRetries <= 0 {
		r.ctsRetries = DefaultCTSRetries
	}
	if r.delay == nil {
		r.delay = Wait
	}

	var found bool
	if r.freq, found = FreqTable[r.band]; !found {
		return nil, fmt.Errorf("si446x: no frequency settings for band %dMhz", r.band)
	}
	if r.pa, found = PowerTable[r.power]; !found {
		return nil, fmt.Errorf("si446x: no PA settings for %ddBm", r.power)
	}
	if _, err := r.config.Commands(); err != nil {
		return nil, err
	}

	if err := reset.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("si446x: cannot drive reset pin: %v", err)
	}
	return r, nil
}

// SetLogger sets a logging function, nil may be used to disable logging, which is the default.
func (r *Radio) SetLogger(l LogPrintf) {
	if l != nil {
		r.log = l
	} else {
		r.log = func(format string, v ...interface{}) {}
	}
}

// command sends a command and waits for the chip to have processed it.
func (r *Radio) command(cmd ...byte) error {
	if err := r.SendCommand(cmd...); err != nil {
		return err
	}
	return r.WaitCTS()
}

// setProperty writes consecutive properties of one group starting at offset.
func (r *Radio) setProperty(group, offset byte, data ...byte) error {
	if len(data) > MaxCommandLen-4 {
		return ErrCommandTooLong
	}
	var buf [MaxCommandLen]byte
	cmd := append(buf[:0], CMD_SET_PROPERTY, group, byte(len(data)), offset)
	return r.command(append(cmd, data...)...)
}

// PowerUp pulses the reset line, boots the chip, and clears all pending interrupts.
func (r *Radio) PowerUp() error {
	if err := r.resetPin.Out(gpio.High); err != nil {
		return fmt.Errorf("si446x: cannot drive reset pin: %v", err)
	}
	r.delay(resetPulse)
	if err := r.resetPin.Out(gpio.Low); err != nil {
		return fmt.Errorf("si446x: cannot drive reset pin: %v", err)
	}
	r.delay(resetSettle)
	// Boot the main application image, crystal oscillator.
	if err := r.command(CMD_POWER_UP, 0x01, 0x00); err != nil {
		return err
	}
	return r.ClearInterrupts()
}

// ClearInterrupts reads the interrupt status with all clear flags set, which clears every
// pending interrupt and releases nIRQ. The status itself is discarded.
func (r *Radio) ClearInterrupts() error {
	if err := r.SendCommand(CMD_GET_INT_STAT, 0, 0, 0); err != nil {
		return err
	}
	var status [8]byte
	return r.GetResponse(status[:])
}

// SetFrequency programs the synthesizer using settings from FreqTable.
func (r *Radio) SetFrequency(params [8]byte) error {
	if err := r.setProperty(PROP_MODEM, MODEM_IF_FREQ, params[0:3]...); err != nil {
		return err
	}
	if err := r.setProperty(PROP_MODEM, MODEM_CLKGEN_BAND, params[3]); err != nil {
		return err
	}
	return r.setProperty(PROP_FREQ_CONTROL, FREQ_CONTROL_INTE, params[4:8]...)
}

// SetPower programs the PA using settings from PowerTable.
func (r *Radio) SetPower(params [2]byte) error {
	return r.setProperty(PROP_PA, PA_PWR_LVL, params[:]...)
}

// SetInterrupts writes the four INT_CTL enable properties.
func (r *Radio) SetInterrupts(enable, ph, modem, chip byte) error {
	return r.setProperty(PROP_INT_CTL, INT_CTL_ENABLE, enable, ph, modem, chip)
}

// StartTx starts transmitting length bytes from the TX FIFO. The condition's upper nibble is
// the state to enter when done.
func (r *Radio) StartTx(channel, condition byte, length uint16) error {
	return r.command(CMD_START_TX, channel, condition, byte(length>>8), byte(length))
}

// StartRx arms the receiver for a packet of length bytes. The three states tell the chip where
// to go on preamble timeout, after a valid packet, and after an invalid one (e.g. bad CRC): the
// chip performs those transitions itself.
func (r *Radio) StartRx(channel, condition byte, length uint16, onTimeout, onValid, onInvalid State) error {
	return r.command(CMD_START_RX, channel, condition, byte(length>>8), byte(length),
		byte(onTimeout), byte(onValid), byte(onInvalid))
}

// ResetTxFifo empties the TX FIFO.
func (r *Radio) ResetTxFifo() error { return r.command(CMD_FIFO_INFO, FIFO_RESET_TX) }

// ResetRxFifo empties the RX FIFO.
func (r *Radio) ResetRxFifo() error { return r.command(CMD_FIFO_INFO, FIFO_RESET_RX) }

// ResetFifos empties both FIFOs.
func (r *Radio) ResetFifos() error { return r.command(CMD_FIFO_INFO, FIFO_RESET_BOTH) }

// Sleep puts the chip to sleep. The chip is not ready for commands until the next SPI access
// wakes it, so this does not wait for CTS.
func (r *Radio) Sleep() error { return r.SendCommand(CMD_CHANGE_STATE, byte(StateSleep)) }

// Standby puts the chip into standby, which is sleep with the wake-up timer off.
func (r *Radio) Standby() error { return r.SendCommand(CMD_CHANGE_STATE, byte(StateSleep)) }

// WakeUp moves the chip from sleep to SPI active.
func (r *Radio) WakeUp() error { return r.command(CMD_CHANGE_STATE, byte(StateSPIActive)) }

// PartInfo reads the chip identification.
func (r *Radio) PartInfo() (PartInfo, error) {
	if err := r.SendCommand(CMD_PART_INFO); err != nil {
		return PartInfo{}, err
	}
	var b [8]byte
	if err := r.GetResponse(b[:]); err != nil {
		return PartInfo{}, err
	}
	return PartInfo{
		ChipRev:  b[0],
		Part:     uint16(b[1])<<8 | uint16(b[2]),
		PBuild:   b[3],
		ID:       uint16(b[4])<<8 | uint16(b[5]),
		Customer: b[6],
		ROMID:    b[7],
	}, nil
}

// Configure performs the bring-up common to receive and transmit: reset and power-up, replay
// of the configuration table, frequency and power, fast-response registers, preamble, sync
// word, bit order, GPIO functions and crystal trim, and finally empty FIFOs with no interrupt
// pending. It stops at the first error.
func (r *Radio) Configure() error {
	steps := []func() error{
		r.PowerUp,
		func() error { return r.Replay(r.config) },
		func() error { return r.SetFrequency(r.freq) },
		func() error { return r.SetPower(r.pa) },
		// FRR A: PH pending, B: modem pending, C: latched RSSI, D: off.
		func() error { return r.setProperty(PROP_FRR_CTL, FRR_CTL_A_MODE, 0x04, 0x06, 0x0A, 0x00) },
		// 8 bytes of TX preamble.
		func() error { return r.setProperty(PROP_PREAMBLE, PREAMBLE_TX_LENGTH, 0x08) },
		// 8 bits RX preamble detection threshold.
		func() error { return r.setProperty(PROP_PREAMBLE, PREAMBLE_CONFIG_STD1, 0x08) },
		// 1010 pattern, length in bytes.
		func() error { return r.setProperty(PROP_PREAMBLE, PREAMBLE_CONFIG, 0x31) },
		// 2-byte sync word 0x2D 0xD4, the chip sends the LSB first.
		func() error { return r.setProperty(PROP_SYNC, SYNC_CONFIG, 0x01, 0xB4, 0x2B) },
		// Payload MSB first.
		func() error { return r.setProperty(PROP_PKT, PKT_CONFIG1, 0x00) },
		// GPIO0: RX state, GPIO1: RX data, GPIO2: TX state, GPIO3: RX data clock.
		func() error { return r.command(CMD_GPIO_PIN_CFG, 0x21, 20, 0x20, 17) },
		func() error { return r.setProperty(PROP_GLOBAL, GLOBAL_XO_TUNE, r.xoTune) },
		r.ResetFifos,
		r.ClearInterrupts,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	r.log("configured for %dMhz, %ddBm", r.band, r.power)
	return nil
}

// EnterRx brings the chip up from scratch and arms the receiver for frames. Only the
// packet-received interrupt is enabled, so nIRQ going low means a frame is waiting.
func (r *Radio) EnterRx() error {
	if err := r.Configure(); err != nil {
		return err
	}
	if err := r.SetInterrupts(0x01, PH_PACKET_RX, 0x00, 0x00); err != nil {
		return err
	}
	if err := r.ClearInterrupts(); err != nil {
		return err
	}
	if err := r.ResetRxFifo(); err != nil {
		return err
	}
	if err := r.armRx(); err != nil {
		return err
	}
	r.log("receiver armed")
	return nil
}

// EnterTx brings the chip up from scratch for transmitting frames. Only the packet-sent
// interrupt is enabled, so nIRQ going low means a frame has been sent.
func (r *Radio) EnterTx() error {
	if err := r.Configure(); err != nil {
		return err
	}
	if err := r.SetInterrupts(0x01, PH_PACKET_SENT, 0x00, 0x00); err != nil {
		return err
	}
	if err := r.ClearInterrupts(); err != nil {
		return err
	}
	if err := r.ResetTxFifo(); err != nil {
		return err
	}
	r.log("transmitter ready")
	return nil
}

// ChangeToRxMode re-arms the receiver of a chip that has already been brought up, for instance
// after a transmission, without going through a full EnterRx.
func (r *Radio) ChangeToRxMode(length uint16) error {
	if err := r.SetInterrupts(0x01, PH_PACKET_RX, 0x00, 0x00); err != nil {
		return err
	}
	if err := r.ClearInterrupts(); err != nil {
		return err
	}
	return r.StartRx(0, 0, length, StateNoChange, StateReady, StateReady)
}

// EnterTestRx brings the chip up and leaves it receiving frames without any state transition
// after a packet, for sensitivity measurements.
func (r *Radio) EnterTestRx() error {
	if err := r.Configure(); err != nil {
		return err
	}
	if err := r.ClearInterrupts(); err != nil {
		return err
	}
	return r.StartRx(0, 0, FrameLen, StateNoChange, StateNoChange, StateNoChange)
}

// CarrierTest switches the modem to an unmodulated carrier and starts transmitting it
// continuously.
func (r *Radio) CarrierTest() error {
	if err := r.ClearInterrupts(); err != nil {
		return err
	}
	if err := r.setProperty(PROP_MODEM, MODEM_MOD_TYPE, 0x00); err != nil {
		return err
	}
	return r.StartTx(0, 0, 0)
}

// EnterTestTx brings the chip up and starts a continuous carrier.
func (r *Radio) EnterTestTx() error {
	if err := r.Configure(); err != nil {
		return err
	}
	return r.CarrierTest()
}

// ReadRSSI is meant to return the latched RSSI of the last packet but is not implemented: the
// modem status read has never been enabled on the RFM26 and the function always returns 0xFF.
func (r *Radio) ReadRSSI() byte {
	// TODO: read the latched RSSI via GET_MODEM_STATUS (response byte 3) once it has been
	// validated on hardware.
	return 0xFF
}
