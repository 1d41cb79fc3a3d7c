// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// The varint package packs signed integers into the fixed-size payload of a radio frame.
//
// Each value is zig-zag encoded and written big-endian 7 bits per byte, the last byte of a value
// has its top bit set. A zero byte carries no bits, so a frame padded with zeros decodes to the
// values that were put into it.
//
// Reference: http://jeelabs.org/article/1620c/
package varint

import "errors"

// ErrOverflow is returned by Put if the values do not fit the buffer.
var ErrOverflow = errors.New("varint: values do not fit buffer")

// Append appends the encoding of v to dst.
func Append(dst []byte, v int) []byte {
	if v == 0 {
		return append(dst, 0x80)
	}
	u := uint64(v << 1)
	if v < 0 {
		u = ^u
	}
	var tmp [10]byte
	i := len(tmp)
	for ; u != 0; u >>= 7 {
		i--
		tmp[i] = byte(u & 0x7f)
	}
	tmp[len(tmp)-1] |= 0x80
	return append(dst, tmp[i:]...)
}

// Encode encodes an array of signed ints into a buffer of varint bytes.
func Encode(arr []int) []byte {
	res := []byte{}
	for _, v := range arr {
		res = Append(res, v)
	}
	return res
}

// Put encodes vals into the start of buf, zeroes the rest, and returns the number of bytes used.
func Put(buf []byte, vals ...int) (int, error) {
	var tmp [10]byte
	n := 0
	for _, v := range vals {
		enc := Append(tmp[:0], v)
		if n+len(enc) > len(buf) {
			return 0, ErrOverflow
		}
		n += copy(buf[n:], enc)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return n, nil
}

// Decode decodes a buffer of varint bytes into an array of signed ints. A trailing value with no
// final byte is dropped.
func Decode(buf []byte) []int {
	res := []int{}
	var u uint64
	for _, b := range buf {
		u = u<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			continue
		}
		if u&1 == 0 {
			res = append(res, int(u>>1))
		} else {
			res = append(res, int(^(u >> 1)))
		}
		u = 0
	}
	return res
}
