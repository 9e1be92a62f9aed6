package repopool

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pitoniak32/git-repo/giturl"
	"github.com/pitoniak32/git-repo/internal/utils"
)

// Config is the configuration to create repoPool
type Config struct {
	// default config for all the repositories if not set
	Defaults DefaultConfig `yaml:"defaults"`
	// List of cloned repositories.
	Repositories []RepositoryConfig `yaml:"repositories"`
}

// DefaultConfig is the default config for repositories if not set at repo level
type DefaultConfig struct {
	// Root is the absolute path to the root dir where all repositories
	// directories will be created if not specified in repo config
	Root string `yaml:"root"`

	// CloneTimeout represents the time allowed for a single repository clone
	// 0 means no timeout
	CloneTimeout time.Duration `yaml:"clone_timeout"`

	// Concurrency is number of repositories cloned in parallel, default 1
	Concurrency int `yaml:"concurrency"`
}

// RepositoryConfig represents the config of a single cloned repository
type RepositoryConfig struct {
	// git URL of the remote repo to clone
	Remote string `yaml:"remote"`

	// Root is the absolute path to the root dir where repo dir
	// will be created, repo dir name is the repository name
	Root string `yaml:"root"`

	// Force will remove existing repo dir before cloning
	Force bool `yaml:"force"`
}

// validateDefaults will verify default config
func (rpc *Config) validateDefaults() error {
	dc := rpc.Defaults

	var errs []error

	if dc.Root != "" {
		if err := validateRoot(dc.Root); err != nil {
			errs = append(errs, err)
		}
	}

	if dc.CloneTimeout < 0 {
		errs = append(errs, fmt.Errorf("provided clone timeout (%s) must not be negative", dc.CloneTimeout))
	}

	if dc.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("provided concurrency (%d) must not be negative", dc.Concurrency))
	}

	return errors.Join(errs...)
}

// applyDefaults will add given default config to repository config if where needed
func (rpc *Config) applyDefaults() {
	for i := range rpc.Repositories {
		repo := &rpc.Repositories[i]
		if repo.Root == "" {
			repo.Root = rpc.Defaults.Root
		}
	}
}

// validateRepositories will verify repository config, defaults must be
// applied first
func (rpc *Config) validateRepositories() error {
	var errs []error

	for _, repo := range rpc.Repositories {
		if err := repo.validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (repo RepositoryConfig) validate() error {
	gURL, err := giturl.Parse(repo.Remote)
	if err != nil {
		return err
	}
	if !gURL.Scheme.Transportable() {
		return fmt.Errorf("remote '%s' uses '%s' scheme which is not supported", gURL.Redacted(), gURL.Scheme)
	}
	if repo.Root == "" {
		return fmt.Errorf("repository '%s' root is not set and there is no default root", gURL.Redacted())
	}
	return validateRoot(repo.Root)
}

func validateRoot(root string) error {
	if utils.HasHomeShorthand(root) {
		return fmt.Errorf("repository root '%s' must not contain '~'", root)
	}
	if !filepath.IsAbs(root) {
		return fmt.Errorf("repository root '%s' must be absolute", root)
	}
	return nil
}

// ValidateAndApplyDefaults will validate defaults and repositories and apply defaults
func (conf *Config) ValidateAndApplyDefaults() error {
	if err := conf.validateDefaults(); err != nil {
		return err
	}

	conf.applyDefaults()

	return conf.validateRepositories()
}
