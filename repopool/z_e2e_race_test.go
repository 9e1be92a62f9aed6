//go:build deadlock_test

package repopool

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func Test_repo_pool_detect_race(t *testing.T) {
	testTmpDir := mustTmpDir(t)
	defer os.RemoveAll(testTmpDir)

	root := filepath.Join(testTmpDir, "root")

	var remotes []string
	for i := 0; i < 5; i++ {
		upstream := filepath.Join(testTmpDir, "upstream", fmt.Sprintf("repo%d", i))
		mustInitRepo(t, upstream, "file", t.Name())
		remotes = append(remotes, "file://"+upstream)
	}

	conf := Config{Defaults: DefaultConfig{Root: root, Concurrency: 3}}
	for _, r := range remotes[:3] {
		conf.Repositories = append(conf.Repositories, RepositoryConfig{Remote: r})
	}

	rp, err := New(conf, testGit(), testLog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wg := &sync.WaitGroup{}
	// all following assertions will always be true
	// this test is about testing deadlocks and detecting race conditions
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, res := range rp.CloneAll(txtCtx) {
				if res.Err != nil {
					t.Error("unable to clone", "err", res.Err)
				}
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			rp.Repositories()
			rp.RepositoriesRemote()
			rp.Repository(remotes[0])
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, r := range remotes[3:] {
			if err := rp.AddRepository(RepositoryConfig{Remote: r, Root: root}); err != nil {
				t.Error("unable to add repository", "err", err)
			}
		}
	}()

	wg.Wait()

	if results := rp.CloneAll(txtCtx); len(results) != 5 {
		t.Errorf("expected 5 results got %d", len(results))
	}
	if got := len(rp.Repositories()); got != 5 {
		t.Errorf("expected 5 repositories got %d", got)
	}
}
