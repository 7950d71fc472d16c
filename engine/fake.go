package engine

import (
	"fmt"
	"sync"
	"time"

	"peeches/log"
	"peeches/transcript"
)

const DefaultInterval = 700 * time.Millisecond

// DefaultScript is what the fake engine says, one line per tick, with
// silence between sentences.
var DefaultScript = []Line{
	{"Good evening everyone", "大家晚上好"},
	{"Good evening everyone and welcome", "大家晚上好，欢迎"},
	{"Good evening everyone and welcome to the show", "大家晚上好，欢迎收看节目"},
	{transcript.EngineBlankMarker, ""},
	{"Tonight we talk about", "今晚我们谈论"},
	{"Tonight we talk about streaming speech", "今晚我们谈论流式语音"},
	{"Tonight we talk about streaming speech recognition", "今晚我们谈论流式语音识别"},
	{transcript.EngineBlankMarker, ""},
	{"The model runs", "模型运行"},
	{"The model runs entirely on your machine", "模型完全在你的机器上运行"},
	{transcript.EngineBlankMarker, ""},
}

// Fake plays a script on a ticker instead of listening to audio.
type Fake struct {
	Emit     func(transcript.Event)
	Ready    func() bool
	Script   []Line
	Interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

func NewFake(emit func(transcript.Event), ready func() bool) *Fake {
	return &Fake{Emit: emit, Ready: ready, Script: DefaultScript, Interval: DefaultInterval}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) StartRecording() (bool, error) {
	log.Info("start_recording")
	if f.Ready != nil && !f.Ready() {
		return false, nil
	}
	if len(f.Script) == 0 {
		return false, fmt.Errorf("fake engine: empty script")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop != nil {
		return true, nil
	}
	f.emit(transcript.Waiting())

	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	f.stop = make(chan struct{})
	f.stopped = make(chan struct{})
	go f.play(f.Script, interval, f.stop, f.stopped)
	return true, nil
}

func (f *Fake) play(script []Line, interval time.Duration, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		line := script[i%len(script)]
		f.emit(FromRaw(line.Original, line.Translated))
	}
}

// StopRecording halts playback and emits the paused pair.
func (f *Fake) StopRecording() error {
	log.Info("stop_recording")
	f.mu.Lock()
	stop, stopped := f.stop, f.stopped
	f.stop, f.stopped = nil, nil
	f.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}
	f.emit(transcript.Paused())
	return nil
}

func (f *Fake) Recording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop != nil
}

func (f *Fake) emit(ev transcript.Event) {
	if f.Emit != nil {
		f.Emit(ev)
	}
}
