package assets

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func newReconciler(st *memStore, v *fakeVerifier) (*Reconciler, *Registry) {
	reg := NewRegistry(nil)
	return &Reconciler{Registry: reg, Verifier: v, Persisted: NewPersisted(st)}, reg
}

func TestReconcilePromotesExistingFile(t *testing.T) {
	st := newMemStore()
	r, reg := newReconciler(st, &fakeVerifier{exists: map[string]bool{TranscribeModel: true}})

	r.Reconcile(context.Background())

	d, _ := reg.Get(TranscribeModel)
	if d.Status != StatusCompleted || d.Progress != 100 {
		t.Fatalf("registry = %+v, want completed/100", d)
	}
	saved, ok := st.decoded()
	if !ok {
		t.Fatal("corrected set was not persisted")
	}
	if got := saved[TranscribeModel]; got.Status != StatusCompleted || got.Progress != 100 {
		t.Fatalf("persisted = %+v", got)
	}
	if saved[TranslateModel].Status != StatusIdle {
		t.Fatalf("untouched asset persisted as %+v", saved[TranslateModel])
	}
}

func TestReconcileDemotesMissingFile(t *testing.T) {
	st := newMemStore()
	stored := DefaultCatalog()
	d := stored[TranslateModel]
	d.Status, d.Progress, d.Error = StatusCompleted, 100, "stale"
	stored[TranslateModel] = d
	st.seed(stored)

	r, reg := newReconciler(st, &fakeVerifier{})
	r.Reconcile(context.Background())

	got, _ := reg.Get(TranslateModel)
	if got.Status != StatusIdle || got.Progress != 0 || got.Error != "" {
		t.Fatalf("registry = %+v, want idle/0/no error", got)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	st := newMemStore()
	v := &fakeVerifier{exists: map[string]bool{TranscribeModel: true}}
	r, _ := newReconciler(st, v)

	first := r.Reconcile(context.Background())
	if st.writes != 1 {
		t.Fatalf("first run writes = %d, want 1", st.writes)
	}
	second := r.Reconcile(context.Background())
	if st.writes != 1 {
		t.Fatalf("second run wrote again (writes = %d)", st.writes)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs disagree:\n%+v\n%+v", first, second)
	}
}

func TestReconcileNoCorrectionNoWrite(t *testing.T) {
	st := newMemStore()
	r, reg := newReconciler(st, &fakeVerifier{})
	r.Reconcile(context.Background())
	if st.writes != 0 {
		t.Fatalf("writes = %d, want 0", st.writes)
	}
	if len(reg.Snapshot()) != 2 {
		t.Fatal("registry not published")
	}
}

func TestReconcileVerifyFailureKeepsPersisted(t *testing.T) {
	st := newMemStore()
	stored := DefaultCatalog()
	d := stored[TranscribeModel]
	d.Status, d.Progress = StatusCompleted, 100
	stored[TranscribeModel] = d
	st.seed(stored)

	r, reg := newReconciler(st, &fakeVerifier{err: errors.New("disk gone")})
	r.Reconcile(context.Background())

	got, _ := reg.Get(TranscribeModel)
	if got.Status != StatusCompleted {
		t.Fatalf("verification failure corrected state: %+v", got)
	}
	if st.writes != 0 {
		t.Fatalf("writes = %d after verify failure", st.writes)
	}
}

func TestReconcileStoreReadFailureSkipsWrite(t *testing.T) {
	st := newMemStore()
	st.getErr = errors.New("locked")
	r, reg := newReconciler(st, &fakeVerifier{exists: map[string]bool{TranscribeModel: true}})
	r.Reconcile(context.Background())

	got, _ := reg.Get(TranscribeModel)
	if got.Status != StatusCompleted {
		t.Fatalf("correction not published: %+v", got)
	}
	if st.writes != 0 {
		t.Fatal("wrote over a store that could not be read")
	}
}

func TestReconcileStoreWriteFailureStillPublishes(t *testing.T) {
	st := newMemStore()
	st.setErr = errors.New("read-only")
	r, reg := newReconciler(st, &fakeVerifier{exists: map[string]bool{TranslateModel: true}})
	r.Reconcile(context.Background())
	if got, _ := reg.Get(TranslateModel); got.Status != StatusCompleted {
		t.Fatalf("registry = %+v", got)
	}
}

func TestReconcileOverlayIsPerField(t *testing.T) {
	st := newMemStore()
	st.data[PersistKey] = []byte(`{"ggml-base-q5_1.bin":{"status":"error","error":"下载失败，请重试"}}`)
	r, reg := newReconciler(st, &fakeVerifier{})
	r.Reconcile(context.Background())

	got, _ := reg.Get(TranscribeModel)
	if got.Status != StatusError || got.Error != DownloadFailedMessage {
		t.Fatalf("persisted fields lost: %+v", got)
	}
	if got.URL != DefaultCatalog()[TranscribeModel].URL || got.Name != "转录模型" {
		t.Fatalf("catalog fields lost: %+v", got)
	}
}

func TestOverlayKeepsUnknownRecords(t *testing.T) {
	raw, _ := json.Marshal(Descriptor{Name: "extra", Status: StatusCompleted, Progress: 100})
	out := Overlay(DefaultCatalog(), Records{"extra.bin": raw, TranslateModel: []byte(`not json`)})
	if d, ok := out["extra.bin"]; !ok || d.FileName != "extra.bin" || d.Status != StatusCompleted {
		t.Fatalf("extra record = %+v, %v", d, ok)
	}
	if out[TranslateModel].Status != StatusIdle {
		t.Fatal("undecodable record overwrote the catalog entry")
	}
}

func TestPersistedPutMergesIntoStoredSet(t *testing.T) {
	st := newMemStore()
	st.data[PersistKey] = []byte(`{"other.bin":{"fileName":"other.bin","status":"idle"}}`)
	p := NewPersisted(st)

	d := DefaultCatalog()[TranscribeModel]
	d.Status, d.Progress = StatusCompleted, 100
	if err := p.Put(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	recs, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := recs["other.bin"]; !ok {
		t.Fatal("Put dropped an existing record")
	}
	if _, ok := recs[TranscribeModel]; !ok {
		t.Fatal("Put did not add the record")
	}
}

func TestPersistedLoadAbsent(t *testing.T) {
	recs, err := NewPersisted(newMemStore()).Load(context.Background())
	if err != nil || len(recs) != 0 {
		t.Fatalf("Load() = %v, %v; want empty", recs, err)
	}
}
