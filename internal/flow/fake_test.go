package flow

import (
	"context"
	"encoding/json"
	"sync"
)

const testPhoto = "data:image/png;base64,iVBORw0KGgo="

var testConfig = Config{APIKey: "test-key"}

// fakeModel is a ModelClient that records calls and returns canned output.
type fakeModel struct {
	mu        sync.Mutex
	calls     []GenerateRequest
	output    json.RawMessage
	err       error
	stream    *Stream
	streamErr error
}

func (f *fakeModel) Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.output, f.err
}

func (f *fakeModel) GenerateStream(ctx context.Context, req GenerateRequest) (*Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.stream, f.streamErr
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeModel) lastCall() GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// step is one scripted element of a fake stream.
type step struct {
	chunk Chunk
	err   error
}

func text(s string) step          { return step{chunk: TextChunk(s)} }
func errChunk(err error) step     { return step{chunk: Chunk{Err: err}} }
func iterationErr(err error) step { return step{err: err} }
func unknownChunk() step          { return step{} }

// probe records how far a scripted stream was consumed.
type probe struct {
	consumed  int
	responded bool
}

func scriptedStream(responseErr error, steps ...step) (*Stream, *probe) {
	p := &probe{}
	stream := &Stream{
		Chunks: func(yield func(Chunk, error) bool) {
			for _, st := range steps {
				p.consumed++
				if !yield(st.chunk, st.err) {
					return
				}
			}
		},
		Response: func(ctx context.Context) error {
			p.responded = true
			return responseErr
		},
	}
	return stream, p
}

func newTestService(model *fakeModel) *Service {
	return NewService(model)
}
