package assets

import (
	"context"
	"fmt"
	"time"

	"peeches/log"
	"peeches/loop"
)

const DefaultSettle = 100 * time.Millisecond

// Progress is one download progress record. Only FileName and Progress drive
// state; the byte counts are informational.
type Progress struct {
	FileName   string  `json:"fileName"`
	Progress   float64 `json:"progress"`
	TotalSize  int64   `json:"total_size"`
	Downloaded int64   `json:"downloaded"`
}

type Subscription interface {
	Close() error
}

// ProgressSource delivers progress records, possibly on other goroutines.
type ProgressSource interface {
	SubscribeProgress(fn func(Progress)) (Subscription, error)
}

// Downloader starts fetching url into the model directory. Completion is
// observed through the progress source, not through the return value.
type Downloader interface {
	Download(ctx context.Context, url, fileName string) error
}

type TrackerConfig struct {
	Registry   *Registry
	Persisted  *Persisted
	Source     ProgressSource
	Downloader Downloader
	Loop       loop.Loop
	Settle     time.Duration
}

// Tracker drives downloads and keeps one shared progress subscription open
// while anything is downloading. Except for the progress callback, all
// methods must run on the loop.
type Tracker struct {
	reg        *Registry
	persisted  *Persisted
	source     ProgressSource
	downloader Downloader
	loop       loop.Loop
	settleFor  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	sub    Subscription
	settle map[string]*loop.Debouncer
	closed bool
}

func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		reg:        cfg.Registry,
		persisted:  cfg.Persisted,
		source:     cfg.Source,
		downloader: cfg.Downloader,
		loop:       cfg.Loop,
		settleFor:  cfg.Settle,
		ctx:        ctx,
		cancel:     cancel,
		settle:     make(map[string]*loop.Debouncer),
	}
}

// StartDownload marks the asset downloading and invokes the downloader.
func (t *Tracker) StartDownload(fileName string) error {
	d, ok := t.reg.Get(fileName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, fileName)
	}
	if t.closed {
		return fmt.Errorf("start %s: tracker closed", fileName)
	}
	if d.Status.IsActive() {
		return nil
	}

	if err := t.subscribe(); err != nil {
		t.fail(fileName, err)
		return err
	}
	t.reg.Merge(fileName, StatusPatch(StatusDownloading, 0, ""))

	url := d.URL
	t.loop.Go(func() error {
		return t.downloader.Download(t.ctx, url, fileName)
	}, func(err error) {
		if err != nil {
			t.fail(fileName, err)
		}
	})
	return nil
}

// Subscribed reports whether the shared progress subscription is open.
func (t *Tracker) Subscribed() bool {
	return t.sub != nil
}

// Close drops the subscription and pending settle timers.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	for _, d := range t.settle {
		d.Stop()
	}
	t.cancel()
	t.unsubscribe()
}

func (t *Tracker) subscribe() error {
	if t.sub != nil {
		return nil
	}
	sub, err := t.source.SubscribeProgress(func(p Progress) {
		t.loop.Post(func() { t.onProgress(p) })
	})
	if err != nil {
		return fmt.Errorf("subscribe progress: %w", err)
	}
	t.sub = sub
	return nil
}

func (t *Tracker) unsubscribe() {
	if t.sub == nil {
		return
	}
	if err := t.sub.Close(); err != nil {
		log.Warnf("close progress subscription: %v", err)
	}
	t.sub = nil
}

func (t *Tracker) releaseIfIdle() {
	if !t.reg.AnyDownloading() {
		t.unsubscribe()
	}
}

func (t *Tracker) fail(fileName string, err error) {
	log.Errorf("download %s: %v", fileName, err)
	st, msg := StatusError, DownloadFailedMessage
	t.reg.Merge(fileName, Patch{Status: &st, Error: &msg})
	log.DownloadDone(fileName, st.String(), false)
	t.releaseIfIdle()
}

func (t *Tracker) onProgress(p Progress) {
	if t.closed {
		return
	}
	d, ok := t.reg.Get(p.FileName)
	if !ok {
		log.Debugf("progress for unknown asset %q ignored", p.FileName)
		return
	}
	// Late or duplicate records, including a second 100, land here.
	if !d.Status.IsActive() {
		return
	}
	log.DownloadProgress(p.FileName, p.Progress)

	if p.Progress < 100 {
		t.reg.Merge(p.FileName, ProgressPatch(p.Progress))
		return
	}
	t.reg.Merge(p.FileName, StatusPatch(StatusCompleted, 100, ""))
	t.settleTimer(p.FileName).Reset(t.settleFor, func() { t.persist(p.FileName) })
}

func (t *Tracker) settleTimer(fileName string) *loop.Debouncer {
	d, ok := t.settle[fileName]
	if !ok {
		d = loop.NewDebouncer(t.loop)
		t.settle[fileName] = d
	}
	return d
}

func (t *Tracker) persist(fileName string) {
	d, ok := t.reg.Get(fileName)
	if !ok {
		return
	}
	t.loop.Go(func() error {
		return t.persisted.Put(t.ctx, d)
	}, func(err error) {
		if err != nil {
			log.Warnf("persist %s: %v", fileName, err)
		}
		log.DownloadDone(fileName, d.Status.String(), err == nil)
		if !t.closed {
			t.releaseIfIdle()
		}
	})
}
