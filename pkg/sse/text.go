package sse

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns arbitrary byte chunks into UTF-8 text. An incomplete
// multi-byte sequence at the end of a chunk is held back until the next chunk
// completes it; invalid bytes decode to U+FFFD.
type textDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

func newTextDecoder() *textDecoder {
	return &textDecoder{
		t:   unicode.UTF8.NewDecoder(),
		dst: make([]byte, 4096),
	}
}

func (d *textDecoder) decode(p []byte, atEOF bool) string {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
		d.pending = nil
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		if errors.Is(err, transform.ErrShortDst) {
			continue
		}
		if errors.Is(err, transform.ErrShortSrc) {
			d.pending = append([]byte(nil), src...)
		}
		break
	}
	return out.String()
}

// flush decodes whatever is still held back, replacing it with U+FFFD.
func (d *textDecoder) flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	return d.decode(nil, true)
}

type lineState int

const (
	accumulatingLine lineState = iota
	haveCompleteLine
)

// lineAssembler splits decoded text into '\n' terminated lines.
type lineAssembler struct {
	state lineState
	buf   bytes.Buffer
}

func (a *lineAssembler) write(text string) {
	a.buf.WriteString(text)
}

// next returns the next complete line without its terminator. When no
// complete line is buffered the assembler stays in accumulatingLine.
func (a *lineAssembler) next() (string, bool) {
	idx := bytes.IndexByte(a.buf.Bytes(), '\n')
	if idx < 0 {
		a.state = accumulatingLine
		return "", false
	}
	a.state = haveCompleteLine
	line := a.buf.Next(idx + 1)
	return string(line[:idx]), true
}

// remainder drains the unterminated tail.
func (a *lineAssembler) remainder() string {
	rest := a.buf.String()
	a.buf.Reset()
	a.state = accumulatingLine
	return rest
}

// heldLine keeps the payload of a data line whose JSON did not parse, so the
// next line can be joined to it and retried.
type heldLine struct {
	payload string
	limit   int
}

func (h *heldLine) active() bool {
	return h.payload != ""
}

func (h *heldLine) hold(payload string) bool {
	if len(payload) > h.limit {
		h.payload = ""
		return false
	}
	h.payload = payload
	return true
}

func (h *heldLine) join(continuation string) string {
	return h.payload + continuation
}

func (h *heldLine) reset() {
	h.payload = ""
}
