package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	miniredis "github.com/alicebob/miniredis/v2"
)

// exercise runs the contract every backend must meet.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "models"); err != nil || ok {
		t.Fatalf("Get(absent) = ok %v, err %v", ok, err)
	}
	if err := s.Set(ctx, "models", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "models")
	if err != nil || !ok || string(got) != `{"a":1}` {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
	if err := s.Set(ctx, "models", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _, _ := s.Get(ctx, "models"); string(got) != `{"a":2}` {
		t.Fatalf("after overwrite Get = %q", got)
	}
	if err := s.Set(ctx, "isPinned", []byte(`true`)); err != nil {
		t.Fatalf("Set second key: %v", err)
	}
	if got, _, _ := s.Get(ctx, "isPinned"); string(got) != "true" {
		t.Fatalf("second key = %q", got)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exercise(t, s)
	s.Close()
	if _, _, err := s.Get(context.Background(), "models"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close err = %v, want ErrClosed", err)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	s, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
	s.Close()
	if err := s.Set(context.Background(), "x", []byte(`1`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close err = %v, want ErrClosed", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := reopened.Get(context.Background(), "models")
	if err != nil || !ok || string(got) != `{"a":2}` {
		t.Fatalf("after reopen Get = %q, %v, %v", got, ok, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestFileRejectsNonJSON(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(context.Background(), "models", []byte("{broken")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if _, ok, _ := s.Get(context.Background(), "models"); ok {
		t.Fatal("invalid value was stored")
	}
}

func TestFileCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	os.WriteFile(path, []byte("not json"), 0644)
	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFileEmptyPath(t *testing.T) {
	if _, err := OpenFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedis(RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	exercise(t, s)

	raw, err := mr.Get("test:models")
	if err != nil || raw != `{"a":2}` {
		t.Fatalf("raw key = %q, %v", raw, err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, _, err := s.Get(context.Background(), "models"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close err = %v, want ErrClosed", err)
	}
}

func TestRedisDefaultPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	s, err := NewRedis(RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Set(context.Background(), "models", []byte(`{}`))
	if !mr.Exists(defaultRedisPrefix + "models") {
		t.Fatal("default prefix not applied")
	}
}

func TestRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedis(RedisConfig{Addr: addr}); err == nil {
		t.Fatal("expected ping failure")
	}
	if _, err := NewRedis(RedisConfig{}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestPrefs(t *testing.T) {
	app := test.NewApp()
	s := NewPrefs(app.Preferences(), "peeches.")
	exercise(t, s)
	if got := app.Preferences().String("peeches.models"); got != `{"a":2}` {
		t.Fatalf("preference value = %q", got)
	}
	s.Close()
	if err := s.Set(context.Background(), "models", []byte(`{}`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close err = %v", err)
	}
}

func TestFactory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	tests := []struct {
		name    string
		cfg     Config
		deps    Dependencies
		wantErr bool
	}{
		{"default file", Config{Path: filepath.Join(t.TempDir(), DefaultFileName)}, Dependencies{}, false},
		{"memory", Config{Driver: DriverMemory}, Dependencies{}, false},
		{"redis", Config{Driver: DriverRedis, Redis: RedisConfig{Addr: mr.Addr()}}, Dependencies{}, false},
		{"prefs", Config{Driver: DriverPrefs}, Dependencies{Prefs: test.NewApp().Preferences()}, false},
		{"prefs without handle", Config{Driver: DriverPrefs}, Dependencies{}, true},
		{"unknown", Config{Driver: "etcd"}, Dependencies{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, tt.deps)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() err = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
