package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestFileSinkRollsIntoSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjack.log")
	sink, err := openFileSink(path, 64, 2)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	defer sink.Close()

	for _, line := range []string{"deal g1", "settle g1", "deal g2", "settle g2"} {
		if _, err := sink.Write([]byte(line + strings.Repeat(".", 40-len(line)) + "\n")); err != nil {
			t.Fatalf("write %q: %v", line, err)
		}
	}

	if got := readFile(t, path); !strings.HasPrefix(got, "settle g2") || len(got) > 64 {
		t.Fatalf("current segment = %q", got)
	}
	if got := readFile(t, path+".1"); !strings.HasPrefix(got, "deal g2") {
		t.Fatalf("segment 1 = %q", got)
	}
	if got := readFile(t, path+".2"); !strings.HasPrefix(got, "settle g1") {
		t.Fatalf("segment 2 = %q", got)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("segment 3 should not exist, stat err = %v", err)
	}
}

func TestFileSinkTruncatesWithoutSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjack.log")
	sink, err := openFileSink(path, 1024, 0)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	defer sink.Close()

	chunk := []byte(strings.Repeat("x", 400) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := sink.Write(chunk); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() > 1024 {
		t.Fatalf("log size = %d, want <= 1024", info.Size())
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Fatalf("truncate mode left a segment, stat err = %v", err)
	}
}

func TestFileSinkResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjack.log")
	if err := os.WriteFile(path, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sink, err := openFileSink(path, 1024, 1)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	if sink.written != int64(len("earlier run\n")) {
		t.Fatalf("written = %d", sink.written)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := sink.Write([]byte("after close\n")); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if got := readFile(t, path); got != "earlier run\nafter close\n" {
		t.Fatalf("file = %q", got)
	}
	_ = sink.Close()
}
