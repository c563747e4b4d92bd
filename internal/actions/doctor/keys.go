package doctor

import (
	"os"
	goruntime "runtime"

	"gitkey.dev/gitkey/internal/credential"
	"gitkey.dev/gitkey/internal/runtime"
)

// probeKey is written and destroyed to prove the key directory works
const probeKey = "gitkey doctor probe"

// checkKeyDir writes a throwaway key file, verifies its permissions and
// reports key files left behind by earlier runs
func checkKeyDir(ctx *runtime.Context, r *report, opts Options) {
	m := credential.NewMaterializer(opts.KeyDir, credential.NewOverwriteShredder(1))

	h, err := m.Materialize(ctx.Context, probeKey, false)
	if err != nil {
		r.fail("cannot write key files: %v", err)
		return
	}
	if goruntime.GOOS != "windows" {
		if info, err := os.Stat(h.Path); err == nil && info.Mode().Perm() != credential.KeyFileMode {
			r.fail("key files are created with mode %v instead of %v", info.Mode().Perm(), credential.KeyFileMode)
		}
	}
	if err := m.Destroy(ctx.Context, h); err != nil {
		r.fail("cannot destroy key files: %v", err)
		return
	}
	r.ok("key files can be written and destroyed in %s", dirOrTemp(opts.KeyDir))

	leftovers, err := m.Leftovers()
	if err != nil {
		r.fail("cannot list key files: %v", err)
		return
	}
	for _, path := range leftovers {
		if !opts.Fix {
			r.warn("key file %s is still on disk", path)
			continue
		}
		if err := m.DestroyPath(ctx.Context, path); err != nil {
			r.fail("failed to destroy %s: %v", path, err)
			continue
		}
		r.warn("destroyed leftover key file %s", path)
	}
}

func dirOrTemp(dir string) string {
	if dir == "" {
		return os.TempDir()
	}
	return dir
}
