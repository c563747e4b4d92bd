package credential

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"gitkey.dev/gitkey/internal/process"
)

// DefaultShredPasses is the number of random overwrite passes
const DefaultShredPasses = 3

// Shredder overwrites a file several times and then unlinks it
type Shredder interface {
	Shred(ctx context.Context, path string) error
}

// NewShredder returns a shredder backed by the shred(1) utility when it is on
// PATH, and the in-process overwrite otherwise.
func NewShredder(runner process.Runner, passes int) Shredder {
	if passes <= 0 {
		passes = DefaultShredPasses
	}
	if _, err := exec.LookPath("shred"); err == nil && runner != nil {
		return &CommandShredder{runner: runner, passes: passes}
	}
	return NewOverwriteShredder(passes)
}

// CommandShredder runs `shred -n <passes> -f -u <path>`
type CommandShredder struct {
	runner process.Runner
	passes int
}

// NewCommandShredder creates a CommandShredder
func NewCommandShredder(runner process.Runner, passes int) *CommandShredder {
	return &CommandShredder{runner: runner, passes: passes}
}

// Shred implements Shredder
func (s *CommandShredder) Shred(ctx context.Context, path string) error {
	_, err := s.runner.Run(ctx, process.Command{
		Name:     "shred",
		Args:     []string{"-n", strconv.Itoa(s.passes), "-f", "-u", path},
		Progress: io.Discard,
	})
	return err
}

// OverwriteShredder overwrites the file in place with random data, then zeros,
// syncing after every pass, and finally removes it.
type OverwriteShredder struct {
	passes int
}

// NewOverwriteShredder creates an OverwriteShredder
func NewOverwriteShredder(passes int) *OverwriteShredder {
	if passes <= 0 {
		passes = DefaultShredPasses
	}
	return &OverwriteShredder{passes: passes}
}

// Shred implements Shredder
func (s *OverwriteShredder) Shred(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	// Key files are read-only; like shred -f, allow writing first.
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	size := info.Size()
	for pass := 0; pass <= s.passes; pass++ {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}
		src := io.Reader(rand.Reader)
		if pass == s.passes {
			src = zeroReader{}
		}
		if err := overwrite(f, src, size); err != nil {
			_ = f.Close()
			return fmt.Errorf("overwrite pass %d: %w", pass+1, err)
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

func overwrite(f *os.File, src io.Reader, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.CopyN(f, src, size); err != nil {
		return err
	}
	return f.Sync()
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
