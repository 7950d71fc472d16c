// Package overlay is the view session: it routes transcript events through
// the normalizer, sampler and scroll-follow machine, drives asset
// reconciliation and downloads, and owns the UI state. All methods must run
// on the session's loop.
package overlay

import (
	"context"
	"time"

	"peeches/assets"
	"peeches/bus"
	"peeches/engine"
	"peeches/history"
	"peeches/log"
	"peeches/loop"
	"peeches/state"
	"peeches/transcript"
)

type Config struct {
	SamplePeriod int
	Follow       history.FollowConfig
	Settle       time.Duration
}

func DefaultConfig() Config {
	return Config{
		SamplePeriod: history.DefaultPeriod,
		Follow:       history.DefaultFollowConfig(),
		Settle:       assets.DefaultSettle,
	}
}

// KV is the persisted store as the session uses it.
type KV interface {
	assets.Store
	state.KV
}

type Deps struct {
	Loop       loop.Loop
	Bus        *bus.Bus
	Store      KV
	Registry   *assets.Registry // nil means a fresh default catalog
	Verifier   assets.Verifier
	Downloader assets.Downloader
	Recorder   engine.Recorder
}

type Session struct {
	loop     loop.Loop
	bus      *bus.Bus
	kv       KV
	recorder engine.Recorder

	sampler    *history.Sampler
	history    history.Log
	follow     *history.Follow
	registry   *assets.Registry
	reconciler *assets.Reconciler
	tracker    *assets.Tracker

	ui       state.UI
	sub      *bus.Subscription
	scrollTo func(int)
	onChange func()

	reconciled int

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func New(cfg Config, deps Deps) *Session {
	reg := deps.Registry
	if reg == nil {
		reg = assets.NewRegistry(nil)
	}
	persisted := assets.NewPersisted(deps.Store)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		loop:     deps.Loop,
		bus:      deps.Bus,
		kv:       deps.Store,
		recorder: deps.Recorder,
		sampler:  history.NewSampler(cfg.SamplePeriod),
		registry: reg,
		reconciler: &assets.Reconciler{
			Registry:  reg,
			Verifier:  deps.Verifier,
			Persisted: persisted,
		},
		tracker: assets.NewTracker(assets.TrackerConfig{
			Registry:   reg,
			Persisted:  persisted,
			Source:     bus.ProgressSource{Bus: deps.Bus},
			Downloader: deps.Downloader,
			Loop:       deps.Loop,
			Settle:     cfg.Settle,
		}),
		ctx:    ctx,
		cancel: cancel,
	}
	s.follow = history.NewFollow(deps.Loop, cfg.Follow, func(i int) {
		if s.scrollTo != nil {
			s.scrollTo(i)
		}
	})
	s.follow.OnChange(s.changed)
	// Repaint once the registry transition that fired the hook is done.
	reg.OnChange(func(assets.Descriptor) { s.loop.Post(s.changed) })
	return s
}

// OnChange registers the repaint hook.
func (s *Session) OnChange(fn func()) { s.onChange = fn }

// OnScrollTo registers how the view centers a history entry.
func (s *Session) OnScrollTo(fn func(index int)) { s.scrollTo = fn }

func (s *Session) Registry() *assets.Registry { return s.registry }

// Start subscribes to the transcript stream, restores persisted flags and
// runs the startup reconciliation.
func (s *Session) Start() error {
	sub, err := bus.Subscribe(s.bus, bus.Transcript, func(ev transcript.Event) {
		s.loop.Post(func() { s.onTranscript(ev) })
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.restore()
	s.Reconcile()
	return nil
}

// restore reads the persisted flags off the loop and applies them on it.
// Flags already changed in the meantime are left alone.
func (s *Session) restore() {
	base := s.ui
	var restored state.UI
	s.loop.Go(func() error {
		var err error
		restored, err = state.Restore(s.ctx, s.kv, base)
		return err
	}, func(err error) {
		if err != nil {
			log.Warnf("restore ui flags: %v", err)
			return
		}
		if s.closed {
			return
		}
		if s.ui.Pinned == base.Pinned {
			s.ui = state.Reduce(s.ui, state.SetPinned{On: restored.Pinned})
		}
		if s.ui.HistoryOpen == base.HistoryOpen {
			s.ui = state.Reduce(s.ui, state.SetHistoryOpen{On: restored.HistoryOpen})
		}
		s.changed()
	})
}

func (s *Session) onTranscript(ev transcript.Event) {
	if s.closed {
		return
	}
	s.ui = state.Reduce(s.ui, state.SetLive{Event: ev})
	if transcript.Normalize(ev) {
		if e, ok := s.sampler.Accept(ev); ok {
			n := s.history.Append(e)
			log.HistoryCommit(e.ID, e.OriginalText, e.TranslatedText)
			s.follow.OnEntry(n)
		}
	}
	s.changed()
}

// Dispatch applies a UI action, persists pin and history flags that changed
// and reconciles assets when settings open.
func (s *Session) Dispatch(a state.Action) {
	prev := s.ui
	s.ui = state.Reduce(prev, a)
	if s.ui == prev {
		return
	}
	if s.ui.SettingsOpen && !prev.SettingsOpen {
		s.Reconcile()
	}
	if prev.Pinned != s.ui.Pinned || prev.HistoryOpen != s.ui.HistoryOpen {
		next := s.ui
		s.loop.Go(func() error {
			return state.Save(s.ctx, s.kv, prev, next)
		}, func(err error) {
			if err != nil {
				log.Warnf("save ui flags: %v", err)
			}
		})
	}
	s.changed()
}

// ToggleRecording stops a running recording and clears the live line, or
// starts one. An engine that is not ready sends the user to settings.
func (s *Session) ToggleRecording() {
	if s.ui.Recording {
		if err := s.recorder.StopRecording(); err != nil {
			log.Errorf("stop recording: %v", err)
		}
		s.Dispatch(state.ClearLive{})
		s.Dispatch(state.SetRecording{On: false})
		return
	}
	ok, err := s.recorder.StartRecording()
	if err != nil {
		log.Errorf("start recording: %v", err)
		return
	}
	if !ok {
		s.Dispatch(state.SetSettingsOpen{On: true})
		return
	}
	s.Dispatch(state.SetRecording{On: true})
}

// Reconcile scans the store and model directory off the loop, then applies
// the result on it so a download in flight keeps its state.
func (s *Session) Reconcile() {
	var sc assets.Scan
	s.loop.Go(func() error {
		sc = s.reconciler.Scan(s.ctx)
		return nil
	}, func(error) {
		if s.closed {
			return
		}
		_, save := s.reconciler.Apply(sc)
		if save != nil {
			s.loop.Go(func() error {
				s.reconciler.Save(s.ctx, save)
				return nil
			}, func(error) {})
		}
		s.reconciled++
		s.changed()
	})
}

// Reconciled reports whether at least one reconciliation has finished.
func (s *Session) Reconciled() bool { return s.reconciled > 0 }

func (s *Session) Download(fileName string) error {
	return s.tracker.StartDownload(fileName)
}

// Scroll reports a user scroll of the history view.
func (s *Session) Scroll(vp history.Viewport) {
	s.follow.OnScroll(vp)
}

func (s *Session) ClearHistory() {
	s.history.Clear()
	s.follow.Reset()
	s.changed()
}

// Close releases subscriptions and timers and stops a running recording.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.ui.Recording {
		if err := s.recorder.StopRecording(); err != nil {
			log.Errorf("stop recording: %v", err)
		}
	}
	if s.sub != nil {
		s.sub.Close()
	}
	s.tracker.Close()
	s.follow.Stop()
	s.cancel()
	log.SessionEnd(s.sampler.Count(), s.history.Len())
}

func (s *Session) changed() {
	if s.onChange != nil && !s.closed {
		s.onChange()
	}
}
