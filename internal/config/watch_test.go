package config

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "move_amount: 20\n")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	got := make(chan *LoadResult, 8)
	w, err := Watch(path, logger, func(res *LoadResult, err error) {
		if err != nil {
			return
		}
		select {
		case got <- res:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Stop()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case res := <-got:
			if res.Config.MoveAmount == 40 {
				return
			}
		case <-tick.C:
			if err := os.WriteFile(path, []byte("move_amount: 40\n"), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
		case <-deadline:
			t.Fatalf("no reload observed")
		}
	}
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "")
	w, err := Watch(path, nil, func(*LoadResult, error) {})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
