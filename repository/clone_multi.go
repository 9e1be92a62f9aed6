package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pitoniak32/git-repo/giturl"
	"golang.org/x/sync/errgroup"
)

// Target is a remote to clone into Root/<repository name>.
type Target struct {
	Remote string
	Root   string
	// Force re-creates the destination before cloning
	Force bool
}

// CloneResult is the outcome of cloning a single remote of a batch.
// either Repo or Err is set.
type CloneResult struct {
	Remote string
	Repo   *Repository
	Err    error
}

// CloneMulti clones every remote into root/<repository name>.
// returned results are in the same order as remotes and a failure of one
// remote never affects the others. Remotes which can't be parsed or use a
// scheme git can't clone over get an *InvalidRemoteError.
// CloneMulti panics if root contains '~', callers must expand it first.
func (m *Manager) CloneMulti(ctx context.Context, remotes []string, root string) []CloneResult {
	mustNotHaveHomeShorthand(root)

	targets := make([]Target, len(remotes))
	for i, r := range remotes {
		targets[i] = Target{Remote: r, Root: root}
	}
	return m.CloneTargets(ctx, targets)
}

// CloneTargets is like CloneMulti but each target carries its own root
// and force flag. Targets resolving to the same destination are cloned
// one after another in input order, so only the first one can succeed
// unless forced.
func (m *Manager) CloneTargets(ctx context.Context, targets []Target) []CloneResult {
	for _, t := range targets {
		mustNotHaveHomeShorthand(t.Root)
	}

	results := make([]CloneResult, len(targets))

	// destination -> index of targets
	groups := map[string][]int{}
	var order []string

	for i, t := range targets {
		results[i].Remote = t.Remote

		gURL, err := giturl.Parse(t.Remote)
		if err != nil {
			results[i].Err = &InvalidRemoteError{Remote: t.Remote, Err: err}
			continue
		}
		if !gURL.Scheme.Transportable() {
			results[i].Err = &InvalidRemoteError{
				Remote: t.Remote,
				Err:    fmt.Errorf("%w: %s", ErrUnsupportedScheme, gURL.Scheme),
			}
			continue
		}

		dst := filepath.Join(t.Root, gURL.Name)
		if _, ok := groups[dst]; !ok {
			order = append(order, dst)
		}
		groups[dst] = append(groups[dst], i)
	}

	// g only bounds the number of concurrent clones. items report failures
	// through results and must not cancel each other, so WithContext is not
	// used and every Go func returns nil.
	var g errgroup.Group
	g.SetLimit(m.concurrency)

	for _, dst := range order {
		g.Go(func() error {
			for _, i := range groups[dst] {
				results[i].Repo, results[i].Err = m.cloneTarget(ctx, targets[i], dst)
			}
			return nil
		})
	}
	// always nil, see above
	_ = g.Wait()

	return results
}

func (m *Manager) cloneTarget(ctx context.Context, t Target, dst string) (*Repository, error) {
	if m.cloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cloneTimeout)
		defer cancel()
	}

	log := m.log.With("remote", redact(t.Remote), "path", dst)

	repo, err := m.clone(ctx, t.Remote, dst, t.Force)
	if err != nil {
		log.Error("unable to clone repository", "err", err)
		return nil, err
	}
	log.Info("repository cloned")
	return repo, nil
}
