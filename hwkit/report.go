// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"fmt"
	"io"
	"strings"

	"github.com/Accelize/drm-sub002/conv"
)

const (
	nameWidth = 36
	indent    = "  "
)

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func hexWord(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// binWord renders v as 32 binary digits, grouped by nibbles.
func binWord(v uint32) string {
	var (
		raw = conv.WordsToBin([]uint32{v})
		o   strings.Builder
	)
	for i := 0; i < len(raw); i += 4 {
		if i > 0 {
			o.WriteByte('_')
		}
		o.WriteString(raw[i : i+4])
	}
	return o.String()
}

func hexByte(v uint8) string {
	return fmt.Sprintf("0x%02X", v)
}

// renderException builds the text of an error: a header line, the
// expected/actual status and error blocks when present, and a footer.
func renderException(header string, st *StatusCheck, ec *ErrorCheck, footer string) string {
	o := new(strings.Builder)
	o.WriteString(header)
	if st != nil {
		fmt.Fprintf(o, "\n%sstatus register:", indent)
		fmt.Fprintf(o,
			"\n%s%s%s (bit %d, mask 0x%X): expected=%d, actual=%d",
			indent, indent, st.Name, st.Bit, st.Mask, st.Expected, st.Actual,
		)
	}
	if ec != nil {
		fmt.Fprintf(o, "\n%serror register:", indent)
		fmt.Fprintf(o,
			"\n%s%s%s (byte %d, mask 0xFF): expected=%s (%s), actual=%s (%s)",
			indent, indent, ec.Name, ec.Lane,
			hexByte(ec.Expected), ErrorByteMessage(ec.Expected),
			hexByte(ec.Actual), ErrorByteMessage(ec.Actual),
		)
	}
	if footer != "" {
		for _, line := range strings.Split(footer, "\n") {
			fmt.Fprintf(o, "\n%s%s", indent, line)
		}
	}
	return o.String()
}

// reportWriter latches the first write error; later writes are no-ops.
type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) printf(format string, args ...interface{}) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

func (rw *reportWriter) section(title string) {
	rw.printf("\n=== %s ===\n", title)
}

func (rw *reportWriter) register(name string, v uint32) {
	rw.printf("%s%s %s %s\n", indent, padRight(name, nameWidth), hexWord(v), binWord(v))
}

func (rw *reportWriter) field(name string, v interface{}) {
	rw.printf("%s%s %v\n", indent, padRight(name, nameWidth), v)
}

func (rw *reportWriter) words(name string, ws []uint32) {
	if len(ws) == 0 {
		rw.field(name, "(empty)")
		return
	}
	for i, w := range ws {
		rw.register(fmt.Sprintf("%s[%d]", name, i), w)
	}
}

func (rw *reportWriter) text(msg string) {
	rw.printf("%s%s\n", indent, msg)
}
