// Package sse decodes OpenAI-style chat completion event streams into
// ordered content deltas.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	DefaultChunkSize = 4096
	// MaxHeldBytes caps a malformed line kept for re-buffering.
	MaxHeldBytes = 1 << 20
)

type Decoder struct {
	chunkSize int
	maxHeld   int
}

type Option func(*Decoder)

func WithChunkSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

func WithMaxHeldBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxHeld = n
		}
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		chunkSize: DefaultChunkSize,
		maxHeld:   MaxHeldBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads r until the [DONE] sentinel or end of input and reports
// deltas to sink. The returned error is the one handed to sink.OnError, nil
// when the stream completed and sink.OnDone was called.
func (d *Decoder) Decode(ctx context.Context, r io.Reader, sink Sink) error {
	s := &stream{
		sink: sink,
		text: newTextDecoder(),
		held: heldLine{limit: d.maxHeld},
	}

	buf := make([]byte, d.chunkSize)
	for !s.finished {
		if err := ctx.Err(); err != nil {
			return s.fail(&StreamError{Kind: KindCanceled, Partial: s.delivered > 0, Err: err})
		}

		n, err := r.Read(buf)
		if n > 0 {
			s.bytesRead += n
			s.consume(s.text.decode(buf[:n], false))
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.fail(&StreamError{Kind: KindCanceled, Partial: s.delivered > 0, Err: ctxErr})
		}
		if s.bytesRead == 0 {
			return s.fail(&StreamError{Kind: KindTransport, Err: err})
		}
		return s.fail(&StreamError{Kind: KindInterrupted, Partial: s.delivered > 0, Err: err})
	}

	if !s.finished {
		s.flush()
	}
	sink.OnDone()
	return nil
}

// Decode runs a default Decoder.
func Decode(ctx context.Context, r io.Reader, sink Sink) error {
	return NewDecoder().Decode(ctx, r, sink)
}

// Collect decodes r and returns the concatenated deltas.
func Collect(ctx context.Context, r io.Reader) (string, error) {
	var sb strings.Builder
	err := Decode(ctx, r, SinkFuncs{Delta: func(text string) { sb.WriteString(text) }})
	return sb.String(), err
}

type stream struct {
	sink      Sink
	text      *textDecoder
	lines     lineAssembler
	held      heldLine
	finished  bool
	bytesRead int
	delivered int
}

func (s *stream) consume(text string) {
	s.lines.write(text)
	for !s.finished {
		line, ok := s.lines.next()
		if !ok {
			return
		}
		s.handleLine(line)
	}
}

// flush runs the best-effort pass over what is left once the source is
// exhausted. Anything still malformed is dropped.
func (s *stream) flush() {
	s.consume(s.text.flush())
	if s.finished {
		return
	}
	if rest := s.lines.remainder(); rest != "" {
		for _, line := range strings.Split(rest, "\n") {
			if s.finished {
				break
			}
			s.handleLine(line)
		}
	}
	s.held.reset()
}

func (s *stream) handleLine(line string) {
	line = strings.TrimSuffix(line, "\r")

	if s.held.active() {
		if !isEventLine(line) {
			candidate := s.held.join(line)
			if content, ok := parseDelta(candidate); ok {
				s.held.reset()
				s.emit(content)
				return
			}
			s.held.hold(candidate)
			return
		}
		// A fresh event line means the held payload will never complete.
		s.held.reset()
	}

	if line == "" || strings.HasPrefix(line, ":") {
		return
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return
	}

	payload := line[len(dataPrefix):]
	if strings.TrimSpace(payload) == doneSentinel {
		s.finished = true
		return
	}

	content, ok := parseDelta(payload)
	if !ok {
		s.held.hold(payload)
		return
	}
	s.emit(content)
}

func (s *stream) emit(content string) {
	if content == "" {
		return
	}
	s.delivered++
	s.sink.OnDelta(content)
}

func (s *stream) fail(err *StreamError) error {
	s.sink.OnError(err)
	return err
}

func isEventLine(line string) bool {
	return line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, dataPrefix)
}

type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// parseDelta reports ok=false only when payload is not valid JSON. Valid JSON
// without choices[0].delta.content yields an empty delta.
func parseDelta(payload string) (string, bool) {
	raw := []byte(payload)
	if !json.Valid(raw) {
		return "", false
	}
	var chunk chunkPayload
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return "", true
	}
	if len(chunk.Choices) == 0 {
		return "", true
	}
	return chunk.Choices[0].Delta.Content, true
}
