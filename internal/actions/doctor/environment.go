package doctor

import (
	"io"
	goruntime "runtime"

	"golang.org/x/mod/semver"

	"gitkey.dev/gitkey/internal/actions"
	"gitkey.dev/gitkey/internal/process"
	"gitkey.dev/gitkey/internal/runtime"
)

// checkEnvironment checks git and the ssh tools gitkey shells out to
func checkEnvironment(ctx *runtime.Context, r *report, lookPath func(string) (string, error)) {
	res, err := ctx.Runner.Run(ctx.Context, process.Command{
		Name:     "git",
		Args:     []string{"--version"},
		Progress: io.Discard,
	})
	if err != nil {
		r.fail("git is not installed or not in PATH")
	} else if version, err := actions.ParseGitVersion(res.Stdout); err != nil {
		r.fail("could not determine git version: %v", err)
	} else if semver.Compare("v"+version, "v"+actions.MinimumGitVersion) < 0 {
		r.fail("git %s is too old; %s or newer is needed for core.sshCommand", version, actions.MinimumGitVersion)
	} else {
		r.ok("git %s", version)
	}

	if _, err := lookPath("ssh"); err != nil {
		r.fail("ssh is not installed or not in PATH")
	} else {
		r.ok("ssh")
	}

	if goruntime.GOOS != "windows" {
		for _, bin := range []string{"ssh-agent", "ssh-add"} {
			if _, err := lookPath(bin); err != nil {
				r.warn("%s is not in PATH; keys will not be loaded into an agent", bin)
			} else {
				r.ok("%s", bin)
			}
		}
	}

	if _, err := lookPath("shred"); err != nil {
		r.ok("key files are overwritten in-process (shred not found)")
	} else {
		r.ok("key files are destroyed with shred")
	}
}
