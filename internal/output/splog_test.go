package output_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gitkey.dev/gitkey/internal/output"
)

func TestSplog(t *testing.T) {
	t.Parallel()

	t.Run("writes formatted messages", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		s := output.NewSplogWithWriter(&buf, false)

		s.Info("cloned %s", "repo")
		s.Info("100% literal")
		s.Warn("careful")
		s.Error("broken %d", 2)
		s.Tip("try again")

		out := buf.String()
		require.Contains(t, out, "cloned repo\n")
		require.Contains(t, out, "100% literal\n")
		require.Contains(t, out, "careful\n")
		require.Contains(t, out, "broken 2\n")
		require.Contains(t, out, "try again\n")
	})

	t.Run("debug is gated", func(t *testing.T) {
		t.Parallel()
		var quietBuf, debugBuf bytes.Buffer
		output.NewSplogWithWriter(&quietBuf, false).Debug("hidden")
		output.NewSplogWithWriter(&debugBuf, true).Debug("shown")

		require.Empty(t, quietBuf.String())
		require.Equal(t, "shown\n", debugBuf.String())
	})

	t.Run("quiet suppresses the console", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		s := output.NewSplogWithWriter(&buf, true)
		s.SetQuiet(true)
		require.True(t, s.IsQuiet())

		s.Info("nope")
		s.Page("nope")
		_, err := output.NewProgressWriter(s).Write([]byte("remote: counting objects\n"))
		require.NoError(t, err)
		require.Empty(t, buf.String())
	})
}

func TestSplogWithLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "gitkey.log")
	s, err := output.NewSplogWithConfig(path, false)
	require.NoError(t, err)
	s.SetQuiet(true)

	s.Debug("debug detail")
	s.Info("operation finished")
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "debug detail")
	require.Contains(t, string(data), "operation finished")
	require.Contains(t, string(data), "level=DEBUG")
}

func TestSimpleStepProgress(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := output.NewSplogWithWriter(&buf, true)
	p := output.NewStepProgress(s, false)

	p.Begin("tag")
	p.End("tag", nil)
	p.Begin("push")
	p.End("push", errors.New("rejected"))
	p.Complete()

	require.Equal(t, "  ⋯ tag...\n  ✓ tag\n  ⋯ push...\n  ✗ push failed: rejected\n", buf.String())
}
