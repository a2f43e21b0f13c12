package staticserve

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rickb777/expect"
)

func TestParseRangeNoHeader(t *testing.T) {
	br, err := parseRange("", 100)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.Any(br.requested).ToBe(t, false)
	expect.Number(int(br.start)).ToBe(t, 0)
	expect.Number(int(br.end)).ToBe(t, 99)
}

func TestParseRangeExplicit(t *testing.T) {
	br, err := parseRange("bytes=10-20", 100)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.Any(br.requested).ToBe(t, true)
	expect.Number(int(br.start)).ToBe(t, 10)
	expect.Number(int(br.end)).ToBe(t, 20)
}

// TestParseRangeEndZeroFallsBackToSize documents the preserved open
// question: an explicit end of 0 is treated the same as an absent end,
// not as a one-byte range.
func TestParseRangeEndZeroFallsBackToSize(t *testing.T) {
	br, err := parseRange("bytes=5-0", 100)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.Number(int(br.start)).ToBe(t, 5)
	expect.Number(int(br.end)).ToBe(t, 99)
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	_, err := parseRange("bytes=0-200", 100)
	expect.Error(err).ToHaveOccurred(t)
}

// TestParseRangeStartPastEndOfFile covers scenario S4: an open-ended
// start beyond size must be rejected even though its computed end
// falls back to size-1, not to something >= size.
func TestParseRangeStartPastEndOfFile(t *testing.T) {
	_, err := parseRange("bytes=5000000-", 1000000)
	expect.Error(err).ToHaveOccurred(t)
	if !errors.Is(err, ErrNotSatisfiable) {
		t.Fatalf("got %v, want ErrNotSatisfiable", err)
	}
}

// TestUnsatisfiableContentRangeUsesLastValidOffset covers spec.md
// §4.6's literal numbers for S4: the 416 Content-Range header reports
// size-1, the file's last valid byte offset, not size itself.
func TestUnsatisfiableContentRangeUsesLastValidOffset(t *testing.T) {
	expect.String(unsatisfiableContentRange(1000000)).ToBe(t, "bytes */999999")
}

func TestParseRangeOnlyRecognizesBytesPrefix(t *testing.T) {
	br, err := parseRange("items=0-10", 100)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.Any(br.requested).ToBe(t, false)
}

func TestStreamPumpRunKnownTotal(t *testing.T) {
	var sink bytes.Buffer
	wp := &recordingWriterPort{written: &sink}
	pump := &streamPump{ctx: context.Background(), wp: wp}

	src := strings.NewReader("hello world")
	err := pump.runKnownTotal(src, 11)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(sink.String()).ToBe(t, "hello world")
}

func TestStreamPumpAbortsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sink bytes.Buffer
	pump := &streamPump{ctx: ctx, wp: &recordingWriterPort{written: &sink}}

	err := pump.runKnownTotal(strings.NewReader("data"), 4)
	if err != ErrAborted {
		t.Fatalf("got %v, want ErrAborted", err)
	}
}

// TestStreamPumpBackpressure drives the genuine pause/resume path: the
// throttled writer accepts only a handful of bytes per tryEnd call and
// resolves onWritable from a background goroutine, exercising the
// suffix-slicing retry arithmetic that a synchronous httpWriterPort
// never needs to use.
func TestStreamPumpBackpressure(t *testing.T) {
	tw := &throttledWriterPort{capacity: 8}
	pump := &streamPump{ctx: context.Background(), wp: tw}

	payload := strings.Repeat("x", 40)
	err := pump.runKnownTotal(strings.NewReader(payload), int64(len(payload)))
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.Number(tw.total.Len()).ToBe(t, len(payload))
}

// recordingWriterPort is a synchronous writerPort test double that
// always accepts, used where backpressure itself is not under test.
type recordingWriterPort struct {
	written *bytes.Buffer
	offset  int64
}

func (r *recordingWriterPort) writeStatus(int)            {}
func (r *recordingWriterPort) writeHeader(string, string) {}
func (r *recordingWriterPort) cork(fn func())             { fn() }
func (r *recordingWriterPort) write(chunk []byte) bool {
	r.written.Write(chunk)
	r.offset += int64(len(chunk))
	return true
}
func (r *recordingWriterPort) tryEnd(chunk []byte, total int64) (ok, done bool) {
	r.write(chunk)
	return true, r.offset >= total
}
func (r *recordingWriterPort) getWriteOffset() int64 { return r.offset }
func (r *recordingWriterPort) end()                  {}

// throttledWriterPort only accepts up to capacity bytes per tryEnd
// call; the remainder is accepted asynchronously, one onWritable
// notification at a time, from a background goroutine, forcing
// streamPump.retryUntilWritable through its real suffix-slicing path.
type throttledWriterPort struct {
	mu       sync.Mutex
	total    bytes.Buffer
	capacity int
}

func (tw *throttledWriterPort) writeStatus(int)            {}
func (tw *throttledWriterPort) writeHeader(string, string) {}
func (tw *throttledWriterPort) cork(fn func())             { fn() }
func (tw *throttledWriterPort) end()                       {}

func (tw *throttledWriterPort) write(chunk []byte) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.total.Write(chunk)
	return true
}

func (tw *throttledWriterPort) getWriteOffset() int64 {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return int64(tw.total.Len())
}

func (tw *throttledWriterPort) tryEnd(chunk []byte, total int64) (ok, done bool) {
	tw.mu.Lock()
	accept := len(chunk)
	if accept > tw.capacity {
		accept = tw.capacity
	}
	tw.total.Write(chunk[:accept])
	offset := int64(tw.total.Len())
	tw.mu.Unlock()

	if accept < len(chunk) {
		return false, false
	}
	return true, offset >= total
}

func (tw *throttledWriterPort) onWritable(cb func(offset int64) bool) {
	go func() {
		for {
			if cb(tw.getWriteOffset()) {
				return
			}
		}
	}()
}
