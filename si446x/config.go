// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

// DefaultConfig is the configuration table for the RFM26 module produced by the vendor's
// configuration tool (WDS3): 2.4kbps FSK, +/-35kHz deviation, 150kHz RX bandwidth, 2-byte sync
// word, 8-byte preamble. The values are opaque to the driver. The table starts with its own
// POWER_UP (with TCXO settings) and ends with the synthesizer settings for the default band,
// which SetFrequency overrides during bring-up.
var DefaultConfig = MustTable(
	Cmd(CMD_POWER_UP, 0x01, 0x01, 0x01, 0xC9, 0xC3, 0x80),
	Cmd(CMD_GPIO_PIN_CFG, 0x5C, 0x53, 0x5B, 0x51, 0x00, 0x00),
	Property{PROP_GLOBAL, 0x00, []byte{0x3F}}.Command(),
	Property{PROP_GLOBAL, 0x03, []byte{0x40}}.Command(),
	Property{PROP_INT_CTL, 0x00, []byte{0x01, 0x30}}.Command(),
	Property{PROP_FRR_CTL, 0x00, []byte{0x00, 0x00, 0x00, 0x00}}.Command(),
	Property{PROP_PREAMBLE, 0x00, []byte{0x08, 0x14, 0x00, 0x0F, 0x31, 0x00, 0x00, 0x00, 0x00}}.Command(),
	Property{PROP_SYNC, 0x00, []byte{0x01, 0xB4, 0x2B, 0x00, 0x00}}.Command(),
	Property{PROP_PKT, 0x00, []byte{0x80}}.Command(),
	Property{PROP_PKT, 0x06, []byte{0x02}}.Command(),
	Property{PROP_PKT, 0x08, []byte{0x00, 0x00, 0x00}}.Command(),
	Property{PROP_PKT, 0x0D, []byte{0x00, 0x40, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}}.Command(),
	Property{PROP_PKT, 0x19, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}}.Command(),
	Property{PROP_MODEM, 0x00, []byte{0x02, 0x00, 0x07, 0x00, 0x09, 0x60, 0x00, 0x2D, 0xC6, 0xC0, 0x00, 0x04}}.Command(),
	Property{PROP_MODEM, 0x0C, []byte{0xC7}}.Command(),
	Property{PROP_MODEM, 0x18, []byte{0x01, 0x80, 0x08, 0x03, 0xC0, 0x00, 0x12, 0x10}}.Command(),
	Property{PROP_MODEM, 0x22, []byte{0x04, 0x12, 0x00, 0x7D, 0xD4, 0x00, 0x3F, 0x02, 0xC2}}.Command(),
	Property{PROP_MODEM, 0x2C, []byte{0x04, 0x36, 0x80, 0x01, 0x75, 0x0B, 0x80}}.Command(),
	Property{PROP_MODEM, 0x35, []byte{0xE2}}.Command(),
	Property{PROP_MODEM, 0x38, []byte{0x11, 0xE4, 0xE4, 0x00, 0x02, 0x74, 0xAA, 0x00, 0x2B}}.Command(),
	Property{PROP_MODEM, 0x42, []byte{0xA4, 0x02, 0xD6, 0x81, 0x05, 0xEA, 0x01, 0x80, 0xFF, 0x0C, 0x00}}.Command(),
	Property{PROP_MODEM, 0x4E, []byte{0x40}}.Command(),
	Property{PROP_MODEM, 0x51, []byte{0x08}}.Command(),
	Property{PROP_MODEM_CHFLT, 0x00, []byte{0xFF, 0xBA, 0x0F, 0x51, 0xCF, 0xA9, 0xC9, 0xFC, 0x1B, 0x1E, 0x0F, 0x01}}.Command(),
	Property{PROP_MODEM_CHFLT, 0x0C, []byte{0xFC, 0xFD, 0x15, 0xFF, 0x00, 0x0F, 0xFF, 0xBA, 0x0F, 0x51, 0xCF, 0xA9}}.Command(),
	Property{PROP_MODEM_CHFLT, 0x18, []byte{0xC9, 0xFC, 0x1B, 0x1E, 0x0F, 0x01, 0xFC, 0xFD, 0x15, 0xFF, 0x00, 0x0F}}.Command(),
	Property{PROP_PA, 0x00, []byte{0x08, 0x7F, 0x00, 0x0E}}.Command(),
	Property{PROP_SYNTH, 0x00, []byte{0x2C, 0x0E, 0x0B, 0x04, 0x0C, 0x73, 0x03}}.Command(),
	Property{PROP_MATCH, 0x00, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}}.Command(),
	Property{PROP_FREQ_CONTROL, 0x00, []byte{0x3C, 0x08, 0x00, 0x00, 0x00, 0x00, 0x20, 0xFF}}.Command(),
)

// Band selects one of the frequency bands the RFM26 modules are built for.
type Band int

const (
	Band315 Band = 315
	Band434 Band = 434
	Band868 Band = 868
	Band915 Band = 915
)

// FreqTable holds the frequency settings for each band: 3 bytes of MODEM_IF_FREQ, 1 byte of
// MODEM_CLKGEN_BAND, and 4 bytes of FREQ_CONTROL_INTE/FRAC. The table can be extended by the
// client.
var FreqTable = map[Band][8]byte{
	Band315: {0x03, 0x40, 0x00, 0x0B, 0x3E, 0x08, 0x00, 0x00},
	Band434: {0x03, 0x80, 0x00, 0x0A, 0x38, 0x0E, 0xEE, 0xEE},
	Band868: {0x03, 0xC0, 0x00, 0x08, 0x38, 0x0E, 0xEE, 0xEE},
	Band915: {0x03, 0xC0, 0x00, 0x08, 0x3C, 0x08, 0x00, 0x00},
}

// Power selects an output power level in dBm.
type Power int

// PowerTable holds the PA_PWR_LVL and PA_BIAS_CLKDUTY values for each supported power level.
var PowerTable = map[Power][2]byte{
	20: {0x7F, 0x00},
	17: {0x30, 0x00},
	14: {0x20, 0x00},
	11: {0x16, 0x00},
}
