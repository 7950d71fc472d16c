package assets

import (
	"testing"
)

func TestDefaultCatalogSeed(t *testing.T) {
	r := NewRegistry(nil)
	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(Snapshot()) = %d, want 2", len(snap))
	}
	if snap[0].FileName != TranscribeModel || snap[1].FileName != TranslateModel {
		t.Fatalf("unexpected order: %s, %s", snap[0].FileName, snap[1].FileName)
	}
	for _, d := range snap {
		if d.Status != StatusIdle || d.Progress != 0 || d.URL == "" || d.Name == "" {
			t.Errorf("bad seed descriptor %+v", d)
		}
	}
}

func TestDefaultCatalogIsFresh(t *testing.T) {
	c := DefaultCatalog()
	d := c[TranscribeModel]
	d.Status = StatusCompleted
	c[TranscribeModel] = d
	if DefaultCatalog()[TranscribeModel].Status != StatusIdle {
		t.Fatal("DefaultCatalog shares state between calls")
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry(nil)
	d, _ := r.Get(TranscribeModel)
	d.Status = StatusError
	if got, _ := r.Get(TranscribeModel); got.Status != StatusIdle {
		t.Fatal("mutating a fetched descriptor changed the registry")
	}
}

func TestRegistryMerge(t *testing.T) {
	r := NewRegistry(nil)
	var seen []Descriptor
	r.OnChange(func(d Descriptor) { seen = append(seen, d) })

	if !r.Merge(TranscribeModel, ProgressPatch(42)) {
		t.Fatal("Merge on known asset returned false")
	}
	d, _ := r.Get(TranscribeModel)
	if d.Progress != 42 || d.Status != StatusIdle || d.Name != "转录模型" {
		t.Fatalf("partial merge clobbered fields: %+v", d)
	}
	if r.Merge("nope.bin", ProgressPatch(1)) {
		t.Fatal("Merge on unknown asset returned true")
	}
	if _, ok := r.Get("nope.bin"); ok {
		t.Fatal("Merge created an unknown asset")
	}
	if len(seen) != 1 || seen[0].Progress != 42 {
		t.Fatalf("OnChange saw %+v", seen)
	}
}

func TestRegistryStatusHelpers(t *testing.T) {
	r := NewRegistry(nil)
	if r.AnyDownloading() {
		t.Fatal("fresh registry downloading")
	}
	r.Merge(TranslateModel, StatusPatch(StatusDownloading, 0, ""))
	if !r.AnyDownloading() {
		t.Fatal("AnyDownloading() = false")
	}
	r.Merge(TranscribeModel, StatusPatch(StatusCompleted, 100, ""))
	if r.AllCompleted(TranscribeModel, TranslateModel) {
		t.Fatal("AllCompleted with one downloading")
	}
	r.Merge(TranslateModel, StatusPatch(StatusCompleted, 100, ""))
	if !r.AllCompleted(TranscribeModel, TranslateModel) {
		t.Fatal("AllCompleted() = false")
	}
	if r.AllCompleted("missing.bin") {
		t.Fatal("AllCompleted true for unknown asset")
	}
}

func TestRegistrySnapshotOrdersExtrasByName(t *testing.T) {
	r := NewRegistry(nil)
	r.Set("b.bin", Descriptor{Status: StatusIdle})
	r.Set("a.bin", Descriptor{Status: StatusIdle})
	snap := r.Snapshot()
	if len(snap) != 4 || snap[2].FileName != "a.bin" || snap[3].FileName != "b.bin" {
		t.Fatalf("unexpected snapshot order %+v", snap)
	}
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		s                Status
		active, terminal bool
	}{
		{StatusIdle, false, false},
		{StatusDownloading, true, false},
		{StatusCompleted, false, true},
		{StatusError, false, true},
	}
	for _, tt := range tests {
		if tt.s.IsActive() != tt.active || tt.s.IsTerminal() != tt.terminal {
			t.Errorf("%s: active=%v terminal=%v", tt.s, tt.s.IsActive(), tt.s.IsTerminal())
		}
	}
}
