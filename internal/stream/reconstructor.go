// Package stream reconstructs model output from an arbitrarily-chunked
// byte stream. Chunk boundaries may fall inside a multi-byte UTF-8
// sequence or inside a JSON object; the Reconstructor buffers across both
// and emits strictly append-only text deltas. The same implementation
// backs every transport (direct provider calls and the HTTP relay).
package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Extractor pulls the text delta and terminal flag out of one complete
// top-level JSON object. A returned error counts as a parse error and is
// never fatal to the stream.
type Extractor func(obj []byte) (text string, done bool, err error)

// Result summarizes a finished stream.
type Result struct {
	Text        string
	TotalLength int
	ParseErrors int
	Elapsed     time.Duration
}

// Reconstructor is the per-request parsing state. It must not be shared
// across concurrent requests: one in-flight stream, one Reconstructor.
type Reconstructor struct {
	onDelta func(string)
	extract Extractor

	pending  []byte // trailing bytes of an incomplete UTF-8 sequence
	buf      []byte // decoded but not yet consumed text
	acc      strings.Builder
	emitted  int
	parseErr int
	finished bool
	started  time.Time
}

// New builds a Reconstructor emitting deltas to onDelta (may be nil) and
// extracting content with extract (defaults to ExtractGemini).
func New(onDelta func(string), extract Extractor) *Reconstructor {
	if extract == nil {
		extract = ExtractGemini
	}
	return &Reconstructor{
		onDelta: onDelta,
		extract: extract,
		started: time.Now(),
	}
}

// Finished reports whether a terminal signal was seen.
func (r *Reconstructor) Finished() bool { return r.finished }

// Text returns everything accumulated so far.
func (r *Reconstructor) Text() string { return r.acc.String() }

// Write feeds one transport chunk through the decoder and the object
// scanner. Safe to call with any chunking, including splits inside a
// multi-byte character or a JSON object.
func (r *Reconstructor) Write(p []byte) {
	if len(p) == 0 || r.finished {
		return
	}
	b := make([]byte, 0, len(r.pending)+len(p))
	b = append(b, r.pending...)
	b = append(b, p...)

	keep := incompleteSuffix(b)
	r.pending = append(r.pending[:0], b[len(b)-keep:]...)
	r.buf = append(r.buf, b[:len(b)-keep]...)

	r.scan()
}

// Flush ends the stream: any irrecoverable trailing bytes are dropped and
// the totals are returned. The Reconstructor holds no buffers afterwards.
func (r *Reconstructor) Flush() Result {
	r.pending = nil
	r.buf = nil
	return Result{
		Text:        r.acc.String(),
		TotalLength: r.acc.Len(),
		ParseErrors: r.parseErr,
		Elapsed:     time.Since(r.started),
	}
}

// scan repeatedly extracts complete top-level {...} spans from the buffer.
func (r *Reconstructor) scan() {
	for !r.finished {
		start := bytes.IndexByte(r.buf, '{')
		if start < 0 {
			// Nothing before a '{' can ever become part of an object.
			r.buf = r.buf[:0]
			return
		}
		rel, ok := matchObject(r.buf[start:])
		if !ok {
			// Incomplete object: keep it, drop the noise before it.
			if start > 0 {
				r.buf = append(r.buf[:0], r.buf[start:]...)
			}
			return
		}
		end := start + rel // index of the matching '}'

		text, done, err := r.extract(r.buf[start : end+1])
		if err != nil {
			// Malformed fragment: skip this '{' only and rescan, so a
			// later valid object is still found.
			r.parseErr++
			r.buf = append(r.buf[:0], r.buf[start+1:]...)
			continue
		}

		if text != "" {
			r.acc.WriteString(text)
			if r.acc.Len() > r.emitted {
				s := r.acc.String()
				delta := s[r.emitted:]
				r.emitted = r.acc.Len()
				if r.onDelta != nil {
					r.onDelta(delta)
				}
			}
		}

		r.buf = append(r.buf[:0], r.buf[end+1:]...)
		if done {
			r.finished = true
		}
	}
}

// matchObject scans b (which starts at '{') tracking brace depth, string
// state and escapes. Returns the index of the matching '}' or ok=false if
// the object is still incomplete.
func matchObject(b []byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// incompleteSuffix returns how many trailing bytes of b form the start of
// an unfinished UTF-8 sequence and must be held for the next chunk.
func incompleteSuffix(b []byte) int {
	n := len(b)
	for i := 1; i <= 4 && i <= n; i++ {
		c := b[n-i]
		if c < 0x80 {
			return 0 // ASCII: sequence complete
		}
		if c >= 0xC0 { // leading byte of a multi-byte sequence
			need := 2
			switch {
			case c >= 0xF0:
				need = 4
			case c >= 0xE0:
				need = 3
			}
			if need > i {
				return i
			}
			return 0
		}
		// continuation byte: keep walking back
	}
	return 0
}

// geminiChunk is the provider response shape consumed by ExtractGemini.
type geminiChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// ExtractGemini reads candidates[0].content.parts[].text and the finish
// reason. An object without candidates is a valid no-op.
func ExtractGemini(obj []byte) (string, bool, error) {
	var chunk geminiChunk
	if err := json.Unmarshal(obj, &chunk); err != nil {
		return "", false, err
	}
	if len(chunk.Candidates) == 0 {
		return "", false, nil
	}
	cand := chunk.Candidates[0]
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), cand.FinishReason != "", nil
}
