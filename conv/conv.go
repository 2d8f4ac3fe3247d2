// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conv converts DRM controller register data between 32-bit words
// and their textual encodings (hexadecimal, binary digits, base64, ASCII).
package conv // import "github.com/Accelize/drm-sub002/conv"

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	hexDigitsPerWord = 8
	binDigitsPerWord = 32
	bytesPerWord     = 4
)

// HexToWords decodes a hexadecimal string made of 8 digits per word.
// Both lower and upper case digits are accepted.
func HexToWords(s string) ([]uint32, error) {
	if len(s)%hexDigitsPerWord != 0 {
		return nil, fmt.Errorf(
			"conv: invalid hex string length %d (not a multiple of %d)",
			len(s), hexDigitsPerWord,
		)
	}
	ws := make([]uint32, len(s)/hexDigitsPerWord)
	for i := range ws {
		beg := i * hexDigitsPerWord
		v, err := strconv.ParseUint(s[beg:beg+hexDigitsPerWord], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("conv: could not decode hex word %d: %w", i, err)
		}
		ws[i] = uint32(v)
	}
	return ws, nil
}

// WordsToHex encodes words as upper-case hexadecimal, 8 digits per word.
func WordsToHex(ws []uint32) string {
	var o strings.Builder
	o.Grow(len(ws) * hexDigitsPerWord)
	for _, w := range ws {
		fmt.Fprintf(&o, "%08X", w)
	}
	return o.String()
}

// WordsToVersion decodes a version register value into "major.minor.bug".
func WordsToVersion(w uint32) string {
	return fmt.Sprintf("%d.%d.%d", (w>>16)&0xff, (w>>8)&0xff, w&0xff)
}

// VersionToWord is the inverse of WordsToVersion.
func VersionToWord(major, minor, bug uint8) uint32 {
	return uint32(major)<<16 | uint32(minor)<<8 | uint32(bug)
}

// BinToWords decodes a string of binary digits, 32 digits per word.
func BinToWords(s string) ([]uint32, error) {
	if len(s)%binDigitsPerWord != 0 {
		return nil, fmt.Errorf(
			"conv: invalid binary string length %d (not a multiple of %d)",
			len(s), binDigitsPerWord,
		)
	}
	ws := make([]uint32, len(s)/binDigitsPerWord)
	for i := range ws {
		beg := i * binDigitsPerWord
		v, err := strconv.ParseUint(s[beg:beg+binDigitsPerWord], 2, 32)
		if err != nil {
			return nil, fmt.Errorf("conv: could not decode binary word %d: %w", i, err)
		}
		ws[i] = uint32(v)
	}
	return ws, nil
}

// WordsToBin encodes words as binary digits, 32 digits per word, MSB first.
func WordsToBin(ws []uint32) string {
	var o strings.Builder
	o.Grow(len(ws) * binDigitsPerWord)
	for _, w := range ws {
		fmt.Fprintf(&o, "%032b", w)
	}
	return o.String()
}

// ASCIIToWords packs p into big-endian words.
// The last partial group is zero padded: callers must keep len(p) around
// to recover the original buffer with WordsToASCII.
func ASCIIToWords(p []byte) []uint32 {
	n := (len(p) + bytesPerWord - 1) / bytesPerWord
	ws := make([]uint32, n)
	var buf [bytesPerWord]byte
	for i := range ws {
		buf = [bytesPerWord]byte{}
		copy(buf[:], p[i*bytesPerWord:])
		ws[i] = binary.BigEndian.Uint32(buf[:])
	}
	return ws
}

// WordsToASCII unpacks big-endian words and returns the first n bytes.
// A negative n or an n larger than 4*len(ws) returns all the bytes.
func WordsToASCII(ws []uint32, n int) []byte {
	p := wordsToBytes(ws)
	if n < 0 || n > len(p) {
		return p
	}
	return p[:n]
}

// WordsToBase64 encodes the big-endian bytes of ws with the standard
// base64 alphabet and '=' padding.
func WordsToBase64(ws []uint32) string {
	return base64.StdEncoding.EncodeToString(wordsToBytes(ws))
}

// Base64ToWords decodes a standard base64 string into big-endian words.
//
// Decoding stops silently at the first character outside of the base64
// alphabet, or at the first '='.
// A trailing partial group of k symbols is zero filled and yields k-1 bytes.
// The decoded bytes are zero padded up to a whole number of words.
func Base64ToWords(s string) []uint32 {
	var (
		raw  = make([]byte, 0, len(s)*3/4+3)
		grp  [4]byte
		ngrp int
	)
loop:
	for i := 0; i < len(s); i++ {
		v := b64Index(s[i])
		if v < 0 {
			break loop
		}
		grp[ngrp] = byte(v)
		ngrp++
		if ngrp == len(grp) {
			raw = append(raw, b64Group(grp)...)
			ngrp = 0
		}
	}
	if ngrp > 1 {
		for i := ngrp; i < len(grp); i++ {
			grp[i] = 0
		}
		raw = append(raw, b64Group(grp)[:ngrp-1]...)
	}
	return ASCIIToWords(raw)
}

func b64Group(g [4]byte) []byte {
	return []byte{
		g[0]<<2 | g[1]>>4,
		g[1]<<4 | g[2]>>2,
		g[2]<<6 | g[3],
	}
}

func b64Index(c byte) int {
	switch {
	case 'A' <= c && c <= 'Z':
		return int(c - 'A')
	case 'a' <= c && c <= 'z':
		return int(c-'a') + 26
	case '0' <= c && c <= '9':
		return int(c-'0') + 52
	case c == '+':
		return 62
	case c == '/':
		return 63
	}
	return -1
}

func wordsToBytes(ws []uint32) []byte {
	p := make([]byte, len(ws)*bytesPerWord)
	for i, w := range ws {
		binary.BigEndian.PutUint32(p[i*bytesPerWord:], w)
	}
	return p
}
