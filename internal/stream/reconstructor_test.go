package stream

import (
	"strings"
	"testing"
)

func geminiFrame(text, finish string) string {
	f := `data: {"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}`
	if finish != "" {
		f += `,"finishReason":"` + finish + `"`
	}
	f += `}]}` + "\n\n"
	return f
}

func sampleStream() string {
	return geminiFrame("你好", "") +
		geminiFrame("，世界", "") +
		geminiFrame("！", "STOP")
}

func TestSingleChunk(t *testing.T) {
	var deltas []string
	r := New(func(d string) { deltas = append(deltas, d) }, nil)
	r.Write([]byte(sampleStream()))
	res := r.Flush()

	if res.Text != "你好，世界！" {
		t.Fatalf("text = %q", res.Text)
	}
	if strings.Join(deltas, "") != res.Text {
		t.Fatalf("deltas %q do not concatenate to %q", deltas, res.Text)
	}
	if res.ParseErrors != 0 {
		t.Fatalf("parse errors = %d", res.ParseErrors)
	}
	if !r.Finished() {
		t.Fatal("finish reason not recognized")
	}
}

func TestChunkBoundaryIndependence(t *testing.T) {
	full := []byte(sampleStream())
	var want string
	{
		r := New(nil, nil)
		r.Write(full)
		want = r.Flush().Text
	}

	// Every possible two-chunk split, including splits inside multi-byte
	// characters and inside JSON objects.
	for i := 0; i <= len(full); i++ {
		r := New(nil, nil)
		r.Write(full[:i])
		r.Write(full[i:])
		if got := r.Flush().Text; got != want {
			t.Fatalf("split at %d: text = %q, want %q", i, got, want)
		}
	}

	// Byte-at-a-time.
	r := New(nil, nil)
	for i := range full {
		r.Write(full[i : i+1])
	}
	if got := r.Flush().Text; got != want {
		t.Fatalf("byte-at-a-time text = %q, want %q", got, want)
	}
}

func TestDeltasAppendOnly(t *testing.T) {
	full := []byte(sampleStream())
	var acc string
	r := New(func(d string) { acc += d }, nil)
	for i := 0; i < len(full); i += 7 {
		end := i + 7
		if end > len(full) {
			end = len(full)
		}
		r.Write(full[i:end])
		if !strings.HasPrefix(r.Text(), acc) {
			t.Fatalf("emitted %q is not a prefix of accumulated %q", acc, r.Text())
		}
	}
	if acc != r.Flush().Text {
		t.Fatalf("deltas %q != accumulated text", acc)
	}
}

func TestMalformedFragmentResilience(t *testing.T) {
	payload := geminiFrame("前", "") +
		"data: {broken json, braces match}\n\n" +
		geminiFrame("后", "STOP")

	var deltas []string
	r := New(func(d string) { deltas = append(deltas, d) }, nil)
	r.Write([]byte(payload))
	res := r.Flush()

	if res.Text != "前后" {
		t.Fatalf("text = %q, want 前后", res.Text)
	}
	if res.ParseErrors == 0 {
		t.Fatal("malformed fragment was not counted")
	}
	if len(deltas) != 2 || deltas[0] != "前" || deltas[1] != "后" {
		t.Fatalf("deltas = %q", deltas)
	}
}

func TestBracesAndEscapesInsideStrings(t *testing.T) {
	frame := `{"candidates":[{"content":{"parts":[{"text":"a{b}\"c"}]},"finishReason":"STOP"}]}`
	r := New(nil, nil)
	r.Write([]byte(frame))
	if got := r.Flush().Text; got != `a{b}"c` {
		t.Fatalf("text = %q", got)
	}
}

func TestEmptyTextObjectIsNoOp(t *testing.T) {
	calls := 0
	r := New(func(string) { calls++ }, nil)
	r.Write([]byte(`{"candidates":[]}{"usageMetadata":{"totalTokenCount":3}}`))
	res := r.Flush()
	if calls != 0 || res.Text != "" || res.ParseErrors != 0 {
		t.Fatalf("calls=%d text=%q errs=%d", calls, res.Text, res.ParseErrors)
	}
}

func TestNoProcessingAfterFinish(t *testing.T) {
	r := New(nil, nil)
	r.Write([]byte(geminiFrame("完", "STOP")))
	r.Write([]byte(geminiFrame("多余", "")))
	if got := r.Flush().Text; got != "完" {
		t.Fatalf("text after finish = %q, want 完", got)
	}
}

func TestDanglingMultibyteDroppedOnFlush(t *testing.T) {
	full := []byte(geminiFrame("好", ""))
	r := New(nil, nil)
	// Feed everything except the last byte of a trailing multi-byte char.
	r.Write(full)
	r.Write([]byte("\xe4\xbd")) // first two bytes of 你
	res := r.Flush()
	if res.Text != "好" {
		t.Fatalf("text = %q, want 好", res.Text)
	}
}

func TestIncompleteSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"abc", 0},
		{"你好", 0},
		{"abc\xe4", 1},
		{"abc\xe4\xbd", 2},
		{"abc\xf0\x9f\x98", 3},
		{"\xe4\xbd\xa0", 0},
	}
	for _, tc := range cases {
		if got := incompleteSuffix([]byte(tc.in)); got != tc.want {
			t.Fatalf("incompleteSuffix(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
