package repository

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pitoniak32/git-repo/giturl"
	"github.com/pitoniak32/git-repo/internal/utils"
)

const defaultRemote = "origin"

// Git is the subset of git commands needed to clone and inspect
// repositories. it's satisfied by *gitcmd.Git.
type Git interface {
	Clone(ctx context.Context, remote, dst string) error
	IsInsideWorkTree(ctx context.Context, path string) bool
	RemoteURL(ctx context.Context, name, path string) (string, error)
}

// Repository is a local git repository.
type Repository struct {
	path   string
	remote string
}

// Path returns absolute, symlink free path of the repository
func (r *Repository) Path() string { return r.path }

// Remote returns url of the 'origin' remote or empty string if not set
func (r *Repository) Remote() string { return r.remote }

// Name returns base name of the repository dir
func (r *Repository) Name() string { return filepath.Base(r.path) }

// Manager clones and opens repositories.
type Manager struct {
	git          Git
	log          *slog.Logger
	concurrency  int
	cloneTimeout time.Duration
}

// NewManager returns Manager which uses given git to run commands.
func NewManager(git Git, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		git:         git,
		log:         log,
		concurrency: defaultConcurrency,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Clone clones remote into dst. dst is created if it doesn't exist.
// ErrAlreadyExists is returned if dst is already inside a git working tree.
// Clone panics if dst contains '~', callers must expand it first.
func (m *Manager) Clone(ctx context.Context, remote, dst string) (*Repository, error) {
	mustNotHaveHomeShorthand(dst)
	return m.clone(ctx, remote, dst, false)
}

// CloneForce removes dst and all its content before cloning remote into it.
// CloneForce panics if dst contains '~', callers must expand it first.
func (m *Manager) CloneForce(ctx context.Context, remote, dst string) (*Repository, error) {
	mustNotHaveHomeShorthand(dst)
	return m.clone(ctx, remote, dst, true)
}

// Open returns Repository for the existing working tree at path.
// ErrNotARepository is returned if path is not inside a git working tree.
// Open panics if path contains '~', callers must expand it first.
func (m *Manager) Open(ctx context.Context, path string) (*Repository, error) {
	mustNotHaveHomeShorthand(path)

	abs, err := canonicalize(path)
	if err != nil {
		return nil, err
	}
	if !m.git.IsInsideWorkTree(ctx, abs) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}

	remote, err := m.git.RemoteURL(ctx, defaultRemote, abs)
	if err != nil {
		return nil, fmt.Errorf("unable to read remote url of %s err:%w", abs, err)
	}
	return &Repository{path: abs, remote: remote}, nil
}

func (m *Manager) clone(ctx context.Context, remote, dst string, force bool) (*Repository, error) {
	start := time.Now()
	label := repoLabel(remote, dst)

	repo, err := m.doClone(ctx, remote, dst, force)

	recordGitClone(label, err == nil, start)
	return repo, err
}

func (m *Manager) doClone(ctx context.Context, remote, dst string, force bool) (*Repository, error) {
	if force {
		if err := utils.ReCreate(dst); err != nil {
			return nil, &PathError{Op: "re-create", Path: dst, Err: err}
		}
	} else if err := utils.MkdirAll(dst); err != nil {
		return nil, &PathError{Op: "create", Path: dst, Err: err}
	}

	path, err := canonicalize(dst)
	if err != nil {
		return nil, err
	}

	if !force {
		if m.git.IsInsideWorkTree(ctx, path) {
			return nil, fmt.Errorf("%w: %s is inside a git working tree", ErrAlreadyExists, path)
		}
		// git refuses to clone into non empty dir
		if empty, err := utils.DirIsEmpty(path); err != nil || !empty {
			if err == nil {
				err = ErrNotEmpty
			}
			return nil, &CloneError{Remote: remote, Path: path, Err: err}
		}
	}

	m.log.Debug("cloning repository", "remote", redact(remote), "path", path, "force", force)

	if err := m.git.Clone(ctx, remote, path); err != nil {
		return nil, &CloneError{Remote: remote, Path: path, Err: err}
	}

	return m.Open(ctx, path)
}

// canonicalize returns absolute path with all symlinks resolved
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &PathError{Op: "expand", Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &PathError{Op: "expand", Path: path, Err: err}
	}
	return resolved, nil
}

func mustNotHaveHomeShorthand(path string) {
	if utils.HasHomeShorthand(path) {
		panic(fmt.Sprintf("path %q contains '~', it must be expanded by the caller", path))
	}
}

func repoLabel(remote, dst string) string {
	if u, err := giturl.Parse(remote); err == nil {
		return u.FullName
	}
	return filepath.Base(dst)
}
