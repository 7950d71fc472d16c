package modeldir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"peeches/assets"
	"peeches/log"
)

const DefaultThrottle = 200 * time.Millisecond

// Downloader fetches model files over HTTP into Dir and reports progress
// through Publish. The final record is always a 100.
type Downloader struct {
	Dir      string
	Client   *http.Client
	Publish  func(assets.Progress)
	Throttle time.Duration

	now func() time.Time
}

func (d *Downloader) Download(ctx context.Context, url, fileName string) error {
	path := filepath.Join(d.Dir, fileName)
	if ok, _ := regularFile(path); ok {
		log.Infof("model already exists: %s", path)
		d.publish(assets.Progress{FileName: fileName, Progress: 100})
		return nil
	}
	log.Infof("download model %s to %s", fileName, path)

	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(d.Dir, "."+fileName+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("download %s: %w", fileName, err)
	}
	resp, err := d.client().Do(req)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("download %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tmpFile.Close()
		return fmt.Errorf("download %s: %s", fileName, resp.Status)
	}

	pr := &progressReader{
		r:        resp.Body,
		fileName: fileName,
		total:    resp.ContentLength,
		every:    d.throttle(),
		now:      d.clock(),
		emit:     d.publish,
	}
	pr.last = pr.now()
	if _, err := io.Copy(tmpFile, pr); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install %s: %w", fileName, err)
	}

	d.publish(assets.Progress{FileName: fileName, Progress: 100, TotalSize: pr.total, Downloaded: pr.read})
	return nil
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *Downloader) throttle() time.Duration {
	if d.Throttle > 0 {
		return d.Throttle
	}
	return DefaultThrottle
}

func (d *Downloader) clock() func() time.Time {
	if d.now != nil {
		return d.now
	}
	return time.Now
}

func (d *Downloader) publish(p assets.Progress) {
	if d.Publish != nil {
		d.Publish(p)
	}
}

// progressReader emits at most one record per interval. Nothing is emitted
// when the server did not send a length.
type progressReader struct {
	r        io.Reader
	fileName string
	total    int64
	read     int64
	every    time.Duration
	last     time.Time
	now      func() time.Time
	emit     func(assets.Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total <= 0 || n == 0 {
		return n, err
	}
	if t := p.now(); t.Sub(p.last) >= p.every {
		p.last = t
		pct := float64(p.read) / float64(p.total) * 100
		if pct >= 100 {
			// The final 100 is sent only after the file is in place.
			pct = 99.9
		}
		p.emit(assets.Progress{FileName: p.fileName, Progress: pct, TotalSize: p.total, Downloaded: p.read})
	}
	return n, err
}
