package repopool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/pitoniak32/git-repo/giturl"
	"github.com/pitoniak32/git-repo/internal/lock"
	"github.com/pitoniak32/git-repo/repository"
)

var (
	ErrExist     = errors.New("repo already exist")
	ErrNotExist  = errors.New("repo does not exist")
	ErrNotCloned = errors.New("repo is not cloned yet")
)

type entry struct {
	conf RepositoryConfig
	url  *giturl.URL
	repo *repository.Repository
}

// RepoPool represents the collection of cloned repositories.
// A RepoPool is safe for concurrent use by multiple goroutines.
type RepoPool struct {
	cloning lock.Mutex
	lock    lock.RWMutex
	log     *slog.Logger
	mgr     *repository.Manager
	entries []*entry
}

// New will create repository pool based on given config.
// Remote repo will not be cloned until CloneAll() is called
func New(conf Config, git repository.Git, log *slog.Logger) (*RepoPool, error) {
	if err := conf.ValidateAndApplyDefaults(); err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}

	rp := &RepoPool{
		log: log,
		mgr: repository.NewManager(git, log,
			repository.WithConcurrency(conf.Defaults.Concurrency),
			repository.WithCloneTimeout(conf.Defaults.CloneTimeout),
		),
	}

	for _, repoConf := range conf.Repositories {
		if err := rp.AddRepository(repoConf); err != nil {
			return nil, err
		}
	}

	return rp, nil
}

// AddRepository will add given repository to repoPool.
// Remote repo will not be cloned until CloneAll() is called
func (rp *RepoPool) AddRepository(repoConf RepositoryConfig) error {
	if err := repoConf.validate(); err != nil {
		return err
	}
	// validated above
	gURL, _ := giturl.Parse(repoConf.Remote)

	rp.lock.Lock()
	defer rp.lock.Unlock()

	if rp.find(gURL) != nil {
		return fmt.Errorf("%w: %s", ErrExist, gURL.Redacted())
	}

	rp.entries = append(rp.entries, &entry{conf: repoConf, url: gURL})
	return nil
}

// RemoveRepository will remove given repository from the repoPool.
// local clone of the repository is not removed.
func (rp *RepoPool) RemoveRepository(remote string) error {
	gURL, err := giturl.Parse(remote)
	if err != nil {
		return err
	}

	rp.lock.Lock()
	defer rp.lock.Unlock()

	for i, e := range rp.entries {
		if e.url.Equals(gURL) {
			rp.log.Info("removing repository", "remote", e.url.Redacted())
			rp.entries = slices.Delete(rp.entries, i, i+1)
			return nil
		}
	}
	return ErrNotExist
}

// CloneAll clones all repositories which are not cloned yet.
// If the destination already contains a clone of the same remote it is
// opened instead and the result carries the opened repository.
// Results are in the same order as the repositories were added.
// Only one CloneAll runs at a time.
func (rp *RepoPool) CloneAll(ctx context.Context) []repository.CloneResult {
	rp.cloning.Lock()
	defer rp.cloning.Unlock()

	rp.lock.RLock()
	entries := slices.Clone(rp.entries)
	results := make([]repository.CloneResult, len(entries))
	var pending []int
	for i, e := range entries {
		results[i] = repository.CloneResult{Remote: e.conf.Remote, Repo: e.repo}
		if e.repo == nil {
			pending = append(pending, i)
		}
	}
	rp.lock.RUnlock()

	targets := make([]repository.Target, len(pending))
	for j, i := range pending {
		e := entries[i]
		targets[j] = repository.Target{Remote: e.conf.Remote, Root: e.conf.Root, Force: e.conf.Force}
	}

	for j, res := range rp.mgr.CloneTargets(ctx, targets) {
		i := pending[j]
		if errors.Is(res.Err, repository.ErrAlreadyExists) {
			if repo := rp.openExisting(ctx, entries[i]); repo != nil {
				res.Repo, res.Err = repo, nil
			}
		}
		results[i] = res
	}

	rp.lock.Lock()
	defer rp.lock.Unlock()

	for _, i := range pending {
		if results[i].Err == nil {
			entries[i].repo = results[i].Repo
		}
	}

	return results
}

// openExisting returns repository at the entry's destination if its origin
// is the entry's remote
func (rp *RepoPool) openExisting(ctx context.Context, e *entry) *repository.Repository {
	dst := filepath.Join(e.conf.Root, e.url.Name)

	repo, err := rp.mgr.Open(ctx, dst)
	if err != nil {
		rp.log.Debug("unable to open existing repository", "path", dst, "err", err)
		return nil
	}
	if same, err := giturl.SameRawURL(repo.Remote(), e.conf.Remote); err != nil || !same {
		rp.log.Warn("existing repository has different remote", "path", repo.Path(), "remote", e.url.Redacted())
		return nil
	}
	rp.log.Info("using existing repository", "path", repo.Path(), "remote", e.url.Redacted())
	return repo
}

// Repository will return Repository object based on given remote URL
func (rp *RepoPool) Repository(remote string) (*repository.Repository, error) {
	gitURL, err := giturl.Parse(remote)
	if err != nil {
		return nil, err
	}

	rp.lock.RLock()
	defer rp.lock.RUnlock()

	e := rp.find(gitURL)
	if e == nil {
		return nil, ErrNotExist
	}
	if e.repo == nil {
		return nil, ErrNotCloned
	}
	return e.repo, nil
}

// Repositories returns all cloned repositories
func (rp *RepoPool) Repositories() []*repository.Repository {
	rp.lock.RLock()
	defer rp.lock.RUnlock()

	var repos []*repository.Repository
	for _, e := range rp.entries {
		if e.repo != nil {
			repos = append(repos, e.repo)
		}
	}
	return repos
}

// RepositoriesRemote returns remote URLs of all the repositories
func (rp *RepoPool) RepositoriesRemote() []string {
	rp.lock.RLock()
	defer rp.lock.RUnlock()

	var urls []string
	for _, e := range rp.entries {
		urls = append(urls, e.conf.Remote)
	}
	return urls
}

// find must be called with lock held
func (rp *RepoPool) find(gURL *giturl.URL) *entry {
	for _, e := range rp.entries {
		if e.url.Equals(gURL) {
			return e
		}
	}
	return nil
}
