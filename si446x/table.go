// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package si446x

import (
	"errors"
	"fmt"
)

// Command is an API command: the opcode followed by its arguments.
type Command []byte

// Cmd assembles a command from an opcode and its arguments.
func Cmd(opcode byte, args ...byte) Command {
	return append(Command{opcode}, args...)
}

// Property describes a SET_PROPERTY write of consecutive properties in one group, starting at
// Offset.
type Property struct {
	Group  byte
	Offset byte
	Data   []byte
}

// Command encodes the property write. The property count is taken from len(Data) so it always
// matches the number of data bytes.
func (p Property) Command() Command {
	return append(Command{CMD_SET_PROPERTY, p.Group, byte(len(p.Data)), p.Offset}, p.Data...)
}

// Table is a configuration table as produced by the chip vendor's configuration tool: a
// sequence of records, each a length byte followed by that many command bytes, terminated by
// a record with length 0.
type Table []byte

// ErrBadTable is returned for a configuration table whose records don't line up.
var ErrBadTable = errors.New("si446x: malformed configuration table")

// BuildTable encodes commands into a Table. Each command must be 1..16 bytes and property
// writes must carry as many data bytes as their count says, this way a table built here can
// never desynchronize the replay.
func BuildTable(cmds ...Command) (Table, error) {
	n := 1
	for _, c := range cmds {
		n += len(c) + 1
	}
	t := make(Table, 0, n)
	for i, c := range cmds {
		if len(c) == 0 || len(c) > MaxCommandLen {
			return nil, fmt.Errorf("si446x: table record %d has invalid length %d", i, len(c))
		}
		if c[0] == CMD_SET_PROPERTY && (len(c) < 4 || int(c[2]) != len(c)-4) {
			return nil, fmt.Errorf("si446x: table record %d: property count does not match data", i)
		}
		t = append(t, byte(len(c)))
		t = append(t, c...)
	}
	return append(t, 0), nil
}

// MustTable is like BuildTable but panics on error. It is meant for tables defined at package
// level.
func MustTable(cmds ...Command) Table {
	t, err := BuildTable(cmds...)
	if err != nil {
		panic(err)
	}
	return t
}

// Next returns the record at cursor and the cursor of the following record. At the terminator
// it returns a nil command and done set.
func (t Table) Next(cursor int) (cmd Command, next int, done bool, err error) {
	if cursor < 0 || cursor >= len(t) {
		return nil, cursor, false, ErrBadTable
	}
	l := int(t[cursor])
	if l == 0 {
		return nil, cursor, true, nil
	}
	next = cursor + l + 1
	if next > len(t) {
		return nil, cursor, false, ErrBadTable
	}
	return Command(t[cursor+1 : next]), next, false, nil
}

// Commands decodes the table back into its records.
func (t Table) Commands() ([]Command, error) {
	var cmds []Command
	for cursor := 0; ; {
		cmd, next, done, err := t.Next(cursor)
		if err != nil {
			return nil, err
		}
		if done {
			return cmds, nil
		}
		cmds = append(cmds, cmd)
		cursor = next
	}
}

// Replay sends every record of the table to the chip, waiting for CTS after each one. It stops
// at the first error: later records assume the earlier ones took effect. There is no resuming,
// a failed replay has to be redone from the start, preferably after a fresh PowerUp.
func (r *Radio) Replay(t Table) error {
	_, err := r.replay(t)
	return err
}

// replay returns the cursor at which it stopped, which is the terminator's offset on success.
func (r *Radio) replay(t Table) (int, error) {
	cursor := 0
	for {
		cmd, next, done, err := t.Next(cursor)
		if err != nil || done {
			return cursor, err
		}
		if err := r.SendCommand(cmd...); err != nil {
			return cursor, err
		}
		if err := r.WaitCTS(); err != nil {
			r.log("configuration record at %d (%#x) got no CTS", cursor, cmd[0])
			return cursor, err
		}
		cursor = next
	}
}
