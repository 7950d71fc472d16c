package doctor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunReportsEachCheck(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), &out, []Check{
		{Name: "good", Run: func(context.Context) (string, error) { return "fine", nil }},
		{Name: "bad", Run: func(context.Context) (string, error) { return "", errors.New("broken") }},
	})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	for _, want := range []string{"[1/2] good", "PASS: fine", "[2/2] bad", "FAIL: broken", "Some checks failed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunAllPass(t *testing.T) {
	var out bytes.Buffer
	code := Run(context.Background(), &out, []Check{
		{Name: "ok", Run: func(ctx context.Context) (string, error) {
			if _, ok := ctx.Deadline(); !ok {
				return "", errors.New("no deadline")
			}
			return "ok", nil
		}},
	})
	if code != 0 || !strings.Contains(out.String(), "All checks passed!") {
		t.Fatalf("code = %d, output:\n%s", code, out.String())
	}
}

func TestWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	if _, err := Writable("dir", dir).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("probe file left behind: %v", entries)
	}
}

type verifier map[string]bool

func (v verifier) Verify(_ context.Context, names []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, n := range names {
		out[n] = v[n]
	}
	return out, nil
}

func TestModels(t *testing.T) {
	c := Models(verifier{"a.bin": true}, "a.bin", "b.bin")
	_, err := c.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "b.bin") || strings.Contains(err.Error(), "a.bin") {
		t.Fatalf("err = %v, want only b.bin missing", err)
	}
	if _, err := Models(verifier{"a.bin": true}, "a.bin").Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

type kv struct {
	data map[string][]byte
	err  error
}

func (s kv) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.data[key]
	return v, ok, s.err
}

func (s kv) Set(context.Context, string, []byte) error { return nil }

func TestStore(t *testing.T) {
	detail, err := Store("memory", kv{}).Run(context.Background())
	if err != nil || !strings.Contains(detail, "no saved models") {
		t.Fatalf("detail = %q, err = %v", detail, err)
	}
	detail, err = Store("memory", kv{data: map[string][]byte{"models": []byte("{}")}}).Run(context.Background())
	if err != nil || !strings.Contains(detail, "saved models found") {
		t.Fatalf("detail = %q, err = %v", detail, err)
	}
	if _, err := Store("redis", kv{err: errors.New("refused")}).Run(context.Background()); err == nil {
		t.Fatal("store error not reported")
	}
}
