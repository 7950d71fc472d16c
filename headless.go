package main

import (
	"context"
	"fmt"
	"io"

	"peeches/assets"
	"peeches/log"
	"peeches/loop"
	"peeches/overlay"
)

// headless drives a session without a terminal: committed history is
// printed to out and recording starts once the required models are ready.
type headless struct {
	session  *overlay.Session
	out      io.Writer
	errOut   io.Writer
	download bool

	printed   int
	started   bool
	warned    bool
	requested map[string]bool
	reported  map[string]bool
}

func newHeadless(s *overlay.Session, out, errOut io.Writer, download bool) *headless {
	return &headless{
		session:   s,
		out:       out,
		errOut:    errOut,
		download:  download,
		requested: make(map[string]bool),
		reported:  make(map[string]bool),
	}
}

// changed is the session's repaint hook.
func (h *headless) changed() {
	snap := h.session.Snapshot()
	if len(snap.History) < h.printed {
		h.printed = 0
	}
	for _, e := range snap.History[h.printed:] {
		fmt.Fprintf(h.out, "%s\n%s\n\n", e.OriginalText, e.TranslatedText)
	}
	h.printed = len(snap.History)

	if h.started || !h.session.Reconciled() {
		return
	}
	if h.session.Registry().AllCompleted(assets.TranscribeModel, assets.TranslateModel) {
		h.started = true
		h.session.ToggleRecording()
		return
	}
	h.fetchMissing(snap.Assets)
}

func (h *headless) fetchMissing(all []assets.Descriptor) {
	if !h.download {
		if !h.warned {
			h.warned = true
			fmt.Fprintln(h.errOut, "models are missing: rerun with -download or fetch them from the TUI")
		}
		return
	}
	for _, a := range all {
		if a.FileName != assets.TranscribeModel && a.FileName != assets.TranslateModel {
			continue
		}
		switch {
		case a.Status == assets.StatusError && h.requested[a.FileName]:
			if !h.reported[a.FileName] {
				h.reported[a.FileName] = true
				fmt.Fprintf(h.errOut, "download %s failed: %s\n", a.FileName, a.Error)
			}
		case a.Status == assets.StatusCompleted, a.Status.IsActive(), h.requested[a.FileName]:
		default:
			h.requested[a.FileName] = true
			fmt.Fprintf(h.errOut, "downloading %s\n", a.Name)
			if err := h.session.Download(a.FileName); err != nil {
				log.Errorf("download %s: %v", a.FileName, err)
			}
		}
	}
}

// runHeadless runs the session on r until ctx is done.
func runHeadless(ctx context.Context, r *loop.Runner, h *headless) error {
	go r.Run(context.Background())
	defer func() {
		r.Stop()
		<-r.Done()
	}()

	started := make(chan error, 1)
	r.Post(func() {
		h.session.OnChange(h.changed)
		started <- h.session.Start()
	})
	if err := <-started; err != nil {
		return err
	}

	<-ctx.Done()
	closed := make(chan struct{})
	r.Post(func() {
		h.session.Close()
		close(closed)
	})
	<-closed
	return nil
}
