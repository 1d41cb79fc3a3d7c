// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

// API command opcodes.
const (
	CMD_POWER_UP      = 0x02
	CMD_PART_INFO     = 0x01
	CMD_SET_PROPERTY  = 0x11
	CMD_GPIO_PIN_CFG  = 0x13
	CMD_FIFO_INFO     = 0x15
	CMD_GET_INT_STAT  = 0x20
	CMD_GET_MODEM_ST  = 0x22
	CMD_START_TX      = 0x31
	CMD_START_RX      = 0x32
	CMD_CHANGE_STATE  = 0x34
	CMD_READ_CMD_BUFF = 0x44
	CMD_WRITE_TX_FIFO = 0x66
	CMD_READ_RX_FIFO  = 0x77
)

// Property groups.
const (
	PROP_GLOBAL       = 0x00
	PROP_INT_CTL      = 0x01
	PROP_FRR_CTL      = 0x02
	PROP_PREAMBLE     = 0x10
	PROP_SYNC         = 0x11
	PROP_PKT          = 0x12
	PROP_MODEM        = 0x20
	PROP_MODEM_CHFLT  = 0x21
	PROP_PA           = 0x22
	PROP_SYNTH        = 0x23
	PROP_MATCH        = 0x30
	PROP_FREQ_CONTROL = 0x40
)

// Properties within their groups that the driver writes directly.
const (
	GLOBAL_XO_TUNE       = 0x00
	INT_CTL_ENABLE       = 0x00
	FRR_CTL_A_MODE       = 0x00
	PREAMBLE_TX_LENGTH   = 0x00
	PREAMBLE_CONFIG_STD1 = 0x01
	PREAMBLE_CONFIG      = 0x04
	SYNC_CONFIG          = 0x00
	PKT_CONFIG1          = 0x06
	MODEM_MOD_TYPE       = 0x00
	MODEM_IF_FREQ        = 0x1B
	MODEM_CLKGEN_BAND    = 0x51
	PA_PWR_LVL           = 0x01
	FREQ_CONTROL_INTE    = 0x00
)

// FIFO_INFO reset sub-codes.
const (
	FIFO_RESET_TX   = 0x01
	FIFO_RESET_RX   = 0x02
	FIFO_RESET_BOTH = FIFO_RESET_TX | FIFO_RESET_RX
)

// INT_CTL_PH bits.
const (
	PH_PACKET_SENT = 0x20
	PH_PACKET_RX   = 0x10
)

// CTS value returned by READ_CMD_BUFF once the chip is ready.
const ctsReady = 0xFF

// State is a chip operating state as used by CHANGE_STATE and as next-state argument to
// START_TX/START_RX.
type State byte

const (
	StateNoChange  State = 0
	StateSleep     State = 1 // sleep, or standby when the wake-up timer is off
	StateSPIActive State = 2
	StateReady     State = 3
	StateTxTune    State = 5
	StateRxTune    State = 6
	StateTx        State = 7
	StateRx        State = 8
)

// TxImmediateToReady is the START_TX condition used for frames: start right away and go to the
// ready state once the packet is out.
const TxImmediateToReady = byte(StateReady) << 4
