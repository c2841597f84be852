package voice

import (
	"context"
	"sync"
)

var (
	_ Recognizer  = (*Recorder)(nil)
	_ Synthesizer = (*Recorder)(nil)
)

// Recorder is a scriptable in-memory Recognizer and Synthesizer for headless
// use. Emit, Fail and End drive the registered sink as a browser would.
type Recorder struct {
	mu        sync.Mutex
	supported bool
	startErr  error
	sink      Sink
	starts    int
	stops     int
	spoken    []string
	cancels   int
}

// NewRecorder creates a recorder; supported controls Recognizer.Supported.
func NewRecorder(supported bool) *Recorder {
	return &Recorder{supported: supported}
}

// FailNextStart makes the next Start call return err.
func (r *Recorder) FailNextStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

func (r *Recorder) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

func (r *Recorder) Start(_ context.Context, _ string, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.supported {
		return ErrUnsupported
	}
	if err := r.startErr; err != nil {
		r.startErr = nil
		return err
	}
	r.sink = sink
	r.starts++
	return nil
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = nil
	r.stops++
	return nil
}

func (r *Recorder) Speak(_ context.Context, phrase, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, phrase)
	return nil
}

func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

// Emit delivers a finalized utterance to the active sink, if any.
func (r *Recorder) Emit(text string) {
	if s := r.activeSink(); s != nil {
		s.OnUtterance(text)
	}
}

// Fail delivers a recognition error to the active sink, if any.
func (r *Recorder) Fail(err error) {
	if s := r.activeSink(); s != nil {
		s.OnError(err)
	}
}

// End signals that the recognizer stopped on its own.
func (r *Recorder) End() {
	if s := r.activeSink(); s != nil {
		s.OnEnd()
	}
}

// Spoken returns every phrase passed to Speak.
func (r *Recorder) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

// Starts returns the number of successful Start calls.
func (r *Recorder) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns the number of Stop calls.
func (r *Recorder) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Cancels returns the number of Cancel calls.
func (r *Recorder) Cancels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancels
}

func (r *Recorder) activeSink() Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}
