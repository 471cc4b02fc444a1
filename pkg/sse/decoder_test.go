package sse

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns exactly one queued chunk per Read call.
type chunkReader struct {
	chunks [][]byte
	err    error
	reads  int
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	c := r.chunks[0]
	n := copy(p, c)
	if n < len(c) {
		r.chunks[0] = c[n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

type recorder struct {
	deltas []string
	done   int
	errs   []error
}

func (r *recorder) OnDelta(text string) { r.deltas = append(r.deltas, text) }
func (r *recorder) OnDone()             { r.done++ }
func (r *recorder) OnError(err error)   { r.errs = append(r.errs, err) }

func (r *recorder) text() string { return strings.Join(r.deltas, "") }

func deltaLine(content string) string {
	return `data: {"choices":[{"delta":{"content":` + quote(content) + `}}]}` + "\n"
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func decodeChunks(t *testing.T, chunks ...string) *recorder {
	t.Helper()
	rec := &recorder{}
	err := NewDecoder().Decode(context.Background(), newChunkReader(chunks...), rec)
	require.NoError(t, err)
	return rec
}

func TestDecodeReassemblesDeltaSplitAcrossChunks(t *testing.T) {
	rec := decodeChunks(t,
		`data: {"choices":[{"delta":{"content":"Hel`,
		`lo"}}]}`+"\n",
		"data: [DONE]\n",
	)

	assert.Equal(t, []string{"Hello"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, rec.errs)
}

func TestDecodeIsIndependentOfChunkBoundaries(t *testing.T) {
	contents := []string{"Hola, ", "auditoría ", "número 3 ", "✓ 世界 🎉", " \"quoted\"", "\\ end"}
	var sb strings.Builder
	sb.WriteString(": keep-alive\n\n")
	for i, c := range contents {
		sb.WriteString(deltaLine(c))
		if i%2 == 0 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("data: [DONE]\n")
	full := sb.String()

	want := decodeChunks(t, full)
	require.Equal(t, contents, want.deltas)

	for split := 1; split < len(full); split++ {
		got := decodeChunks(t, full[:split], full[split:])
		require.Equal(t, want.deltas, got.deltas, "split at byte %d", split)
		require.Equal(t, 1, got.done)
	}

	bytewise := make([]string, 0, len(full))
	for i := 0; i < len(full); i++ {
		bytewise = append(bytewise, full[i:i+1])
	}
	got := decodeChunks(t, bytewise...)
	assert.Equal(t, want.deltas, got.deltas)
	assert.Equal(t, 1, got.done)
}

func TestDecodeStopsAtDoneSentinel(t *testing.T) {
	r := newChunkReader(
		deltaLine("before")+"data: [DONE]\n"+deltaLine("same chunk"),
		deltaLine("next chunk"),
	)
	rec := &recorder{}

	err := NewDecoder().Decode(context.Background(), r, rec)

	require.NoError(t, err)
	assert.Equal(t, []string{"before"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
	assert.Equal(t, 1, r.reads, "no read after the sentinel")
}

func TestDecodeSkipsNonDataLines(t *testing.T) {
	rec := decodeChunks(t,
		": comment\r\n",
		"\r\n",
		"event: message\n",
		`data:{"choices":[{"delta":{"content":"no space"}}]}`+"\n",
		"id: 7\n",
		`data: {"choices":[{"delta":{"content":"crlf"}}]}`+"\r\n",
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`+"\n",
		`data: {"choices":[]}`+"\n",
		`data: {"choices":"not an array"}`+"\n",
		"data:  [DONE]  \n",
	)

	assert.Equal(t, []string{"crlf"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
}

func TestDecodeRecoversLineSplitByStrayNewline(t *testing.T) {
	rec := decodeChunks(t,
		`data: {"choices":[{"delta":{"content":"Hi `+"\n",
		`there"}}]}`+"\n",
		deltaLine("!"),
		"data: [DONE]\n",
	)

	assert.Equal(t, []string{"Hi there", "!"}, rec.deltas)
	assert.Empty(t, rec.errs)
}

func TestDecodeDropsMalformedLineWhenNextEventArrives(t *testing.T) {
	rec := decodeChunks(t,
		"data: {not valid json\n",
		deltaLine("ok"),
		"data: [DONE]\n",
	)

	assert.Equal(t, []string{"ok"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, rec.errs)
}

func TestDecodeHeldLineIsBounded(t *testing.T) {
	rec := &recorder{}
	err := NewDecoder(WithMaxHeldBytes(16)).Decode(context.Background(), newChunkReader(
		`data: {"choices":[{"delta":{"content":"way too long for the register`+"\n",
		`"}}]}`+"\n",
		deltaLine("after"),
	), rec)

	require.NoError(t, err)
	assert.Equal(t, []string{"after"}, rec.deltas)
}

func TestDecodeFlushesUnterminatedTail(t *testing.T) {
	rec := decodeChunks(t,
		deltaLine("a"),
		`data: {"choices":[{"delta":{"content":"tail"}}]}`,
	)

	assert.Equal(t, []string{"a", "tail"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
}

func TestDecodeDiscardsMalformedTail(t *testing.T) {
	rec := decodeChunks(t,
		deltaLine("a"),
		`data: {"choices":[{"delta":{"content":"tru`,
	)

	assert.Equal(t, []string{"a"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, rec.errs)
}

func TestDecodeCompletesWithoutSentinel(t *testing.T) {
	rec := decodeChunks(t, deltaLine("x"), deltaLine("y"))

	assert.Equal(t, []string{"x", "y"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
}

func TestDecodeReplacesInvalidUTF8(t *testing.T) {
	// "é" is 0xC3 0xA9; a lone 0xC3 before a quote is invalid.
	rec := decodeChunks(t,
		"data: {\"choices\":[{\"delta\":{\"content\":\"caf\xc3",
		"\xa9 \xff\"}}]}\n",
	)

	assert.Equal(t, []string{"café �"}, rec.deltas)
}

func TestDecodeReportsInterruptedStream(t *testing.T) {
	r := newChunkReader(deltaLine("partial"))
	r.err = errors.New("connection reset")
	rec := &recorder{}

	err := NewDecoder().Decode(context.Background(), r, rec)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, []string{"partial"}, rec.deltas)
	assert.Zero(t, rec.done)
	require.Len(t, rec.errs, 1)

	var streamErr *StreamError
	require.ErrorAs(t, rec.errs[0], &streamErr)
	assert.True(t, streamErr.Partial)
	assert.Equal(t, MessageInterrupted, streamErr.Message())
}

func TestDecodeReportsTransportErrorBeforeFirstByte(t *testing.T) {
	r := newChunkReader()
	r.err = errors.New("dial tcp: refused")
	rec := &recorder{}

	err := NewDecoder().Decode(context.Background(), r, rec)

	assert.ErrorIs(t, err, ErrTransport)
	assert.Empty(t, rec.deltas)
	assert.Zero(t, rec.done)
	assert.Len(t, rec.errs, 1)
}

func TestDecodeHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}

	err := NewDecoder().Decode(ctx, newChunkReader(deltaLine("never")), rec)

	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.deltas)
	assert.Zero(t, rec.done)
}

func TestDecodeWithChunkSize(t *testing.T) {
	assert.Equal(t, DefaultChunkSize, NewDecoder(WithChunkSize(0)).chunkSize)

	stream := deltaLine("número ") + deltaLine("✓ 世界") + "data: [DONE]\n"
	rec := &recorder{}
	err := NewDecoder(WithChunkSize(1)).Decode(context.Background(), strings.NewReader(stream), rec)

	require.NoError(t, err)
	assert.Equal(t, []string{"número ", "✓ 世界"}, rec.deltas)
	assert.Equal(t, 1, rec.done)
}

func TestCollect(t *testing.T) {
	text, err := Collect(context.Background(), strings.NewReader(deltaLine("one ")+deltaLine("two")+"data: [DONE]\n"))

	require.NoError(t, err)
	assert.Equal(t, "one two", text)
}
