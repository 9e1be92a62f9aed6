package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const levelTrace = slog.Level(-8)

// force kill git & child process this long after sending it sigterm
// (when ctx is cancelled/timed out)
const waitDelay = 5 * time.Second

// CommandError is returned when git could not be started or exited with
// non-zero status.
type CommandError struct {
	Args   []string
	Dir    string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("Run(git %s): err:%v { stdout: %q, stderr: %q }",
		redactArgs(e.Args), e.Err, e.Stdout, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns exit code of the git process or -1 if it didn't exit
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Git runs git commands.
type Git struct {
	exe     string
	envs    []string
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Git)

// WithExecutable sets path of the git binary. By default git is
// looked up in PATH.
func WithExecutable(path string) Option {
	return func(g *Git) { g.exe = path }
}

// WithEnv adds envs to the environment inherited from the current process.
func WithEnv(envs ...string) Option {
	return func(g *Git) { g.envs = append(g.envs, envs...) }
}

// WithTimeout bounds every git invocation, 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Git) { g.timeout = d }
}

// New returns Git which uses given logger to report command output.
func New(log *slog.Logger, opts ...Option) *Git {
	if log == nil {
		log = slog.Default()
	}
	g := &Git{
		exe: exec.Command("git").String(),
		log: log,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Clone clones remote into dst.
// remote and dst are never read as options even if they start with '-'.
func (g *Git) Clone(ctx context.Context, remote, dst string) error {
	_, err := g.run(ctx, "", "clone", "--", remote, dst)
	return err
}

// IsInsideWorkTree returns true if path is inside a git working tree.
// any failure running or parsing output of the command is reported as false.
func (g *Git) IsInsideWorkTree(ctx context.Context, path string) bool {
	out, err := g.run(ctx, path, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	ok, err := strconv.ParseBool(out)
	if err != nil {
		g.log.Debug("unable to parse rev-parse output", "path", path, "out", out, "err", err)
		return false
	}
	return ok
}

// RemoteURL returns the url of the named remote. An empty string is returned
// if the remote is not configured.
func (g *Git) RemoteURL(ctx context.Context, name, path string) (string, error) {
	out, err := g.run(ctx, path, "config", "--get", "remote."+name+".url")
	if err != nil {
		// config exits with 1 if the key is not set
		var cErr *CommandError
		if errors.As(err, &cErr) && cErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Init creates an empty repository at path.
func (g *Git) Init(ctx context.Context, path string) error {
	_, err := g.run(ctx, path, "init", "-q")
	return err
}

// AddRemote adds remote with given name and url to repository at path.
func (g *Git) AddRemote(ctx context.Context, name, url, path string) error {
	_, err := g.run(ctx, path, "remote", "add", name, url)
	return err
}

// Status returns output of git status.
func (g *Git) Status(ctx context.Context, path string) (string, error) {
	return g.run(ctx, path, "status")
}

// Log returns output of git log.
func (g *Git) Log(ctx context.Context, path string) (string, error) {
	return g.run(ctx, path, "log")
}

// run runs git command with given arguments on given CWD
func (g *Git) run(ctx context.Context, cwd string, args ...string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmdStr := g.exe + " " + redactArgs(args)
	g.log.Log(ctx, levelTrace, "running command", "cwd", cwd, "cmd", cmdStr)

	cmd := exec.CommandContext(ctx, g.exe, args...)
	cmd.WaitDelay = waitDelay
	if cwd != "" {
		cmd.Dir = cwd
	}
	outbuf := bytes.NewBuffer(nil)
	errbuf := bytes.NewBuffer(nil)
	cmd.Stdout = outbuf
	cmd.Stderr = errbuf

	if len(g.envs) > 0 {
		cmd.Env = append(os.Environ(), g.envs...)
	}

	start := time.Now()
	err := cmd.Run()
	runTime := time.Since(start)

	stdout := strings.TrimSpace(outbuf.String())
	stderr := strings.TrimSpace(errbuf.String())
	if ctx.Err() == context.DeadlineExceeded {
		err = ctx.Err()
	}
	g.logOutput(ctx, cmdStr, stdout, stderr, err)

	if err != nil {
		return "", &CommandError{Args: args, Dir: cwd, Stdout: stdout, Stderr: stderr, Err: err}
	}
	g.log.Log(ctx, levelTrace, "command result", "stdout", stdout, "stderr", stderr, "time", runTime)

	return stdout, nil
}

func (g *Git) logOutput(ctx context.Context, cmdStr, stdout, stderr string, err error) {
	switch {
	case err != nil:
		g.log.WarnContext(ctx, "git command failed", "cmd", cmdStr, "stderr", stderr, "err", err)
	case stderr != "":
		g.log.WarnContext(ctx, "git command output", "cmd", cmdStr, "stderr", stderr)
	}
	if err == nil && stdout != "" {
		g.log.InfoContext(ctx, "git command output", "cmd", cmdStr, "stdout", stdout)
	}
}

// redactArgs joins args masking passwords of any urls
func redactArgs(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if !strings.Contains(a, "://") {
			continue
		}
		if u, err := url.Parse(a); err == nil {
			out[i] = u.Redacted()
		}
	}
	return strings.Join(out, " ")
}
