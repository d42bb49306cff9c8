package podcast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJanitorRelease(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.mp3")
	b := touch(t, dir, "b.mp4")

	j := NewJanitor(zerolog.Nop())
	j.Register(a)
	j.Register(b)
	j.Release()

	for _, path := range []string{a, b} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s to be deleted", path)
		}
	}
}

func TestJanitorReleaseIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.mp3")

	j := NewJanitor(zerolog.Nop())
	j.Register(a)
	j.Release()
	// Second release must be a no-op, not a double delete attempt.
	j.Release()
}

func TestJanitorMissingFileIsNoOp(t *testing.T) {
	j := NewJanitor(zerolog.Nop())
	j.Register("/does/not/exist.mp4")
	j.Release()
}

func TestJanitorIndependentFailures(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, dir, "b.mp4")

	j := NewJanitor(zerolog.Nop())
	j.Register(filepath.Join(dir, "missing.mp3"))
	j.Register(b)
	j.Release()

	if _, err := os.Stat(b); !os.IsNotExist(err) {
		t.Error("a missing earlier path must not block later deletions")
	}
}

func TestJanitorScheduleFiresOnce(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.mp3")

	j := NewJanitor(zerolog.Nop())
	j.Register(a)
	j.Schedule(10 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(a); os.IsNotExist(err) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatal("scheduled release did not fire")
	}

	// A second schedule after release stays a no-op.
	j.Schedule(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
}

func TestJanitorLateRegistration(t *testing.T) {
	dir := t.TempDir()
	j := NewJanitor(zerolog.Nop())
	j.Release()

	late := touch(t, dir, "late.mp4")
	j.Register(late)

	if _, err := os.Stat(late); !os.IsNotExist(err) {
		t.Error("registration after release must delete immediately, not leak")
	}
}
