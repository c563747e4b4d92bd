package actions_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"gitkey.dev/gitkey/internal/credential"
	"gitkey.dev/gitkey/internal/gitconfig"
	"gitkey.dev/gitkey/internal/output"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/runtime"
	"gitkey.dev/gitkey/internal/session"
)

// scriptRunner records commands and answers them from a script keyed by the
// first git argument
type scriptRunner struct {
	mu      sync.Mutex
	cmds    []process.Command
	replies map[string]func(process.Command) (*process.Result, error)
}

func newScriptRunner() *scriptRunner {
	r := &scriptRunner{replies: map[string]func(process.Command) (*process.Result, error){}}
	r.on("--version", func(process.Command) (*process.Result, error) {
		return &process.Result{Stdout: "git version 2.43.0\n"}, nil
	})
	return r
}

func (r *scriptRunner) on(sub string, fn func(process.Command) (*process.Result, error)) {
	r.replies[sub] = fn
}

func (r *scriptRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()

	if len(cmd.Args) > 0 {
		if fn, ok := r.replies[cmd.Args[0]]; ok {
			return fn(cmd)
		}
	}
	return &process.Result{}, nil
}

// argv returns each recorded command as "name arg arg..."
func (r *scriptRunner) argv() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cmds))
	for _, c := range r.cmds {
		out = append(out, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return out
}

// envRunner adds fixed variables to every command, isolating git from the
// developer's own configuration
type envRunner struct {
	runner process.Runner
	env    map[string]string
}

func (r *envRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	env := make(map[string]string, len(r.env)+len(cmd.Env))
	for k, v := range r.env {
		env[k] = v
	}
	for k, v := range cmd.Env {
		env[k] = v
	}
	cmd.Env = env
	return r.runner.Run(ctx, cmd)
}

type testContext struct {
	*runtime.Context
	log    *bytes.Buffer
	keyDir string
}

func newTestContext(t *testing.T, runner process.Runner, mode session.ConfigMode, gitEnv map[string]string) *testContext {
	t.Helper()
	log := &bytes.Buffer{}
	splog := output.NewSplogWithWriter(log, true)
	keyDir := t.TempDir()
	guard := session.NewGuard(session.Options{
		Materializer: credential.NewMaterializer(keyDir, credential.NewOverwriteShredder(1)),
		Scope:        gitconfig.NewScope(runner, gitEnv),
		Splog:        splog,
		Mode:         mode,
	})
	return &testContext{
		Context: runtime.NewContext(context.Background(), splog, runner, guard),
		log:     log,
		keyDir:  keyDir,
	}
}

// initRepo creates an empty repository without needing the git binary
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}
