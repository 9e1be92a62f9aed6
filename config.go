package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/pitoniak32/git-repo/giturl"
	"github.com/pitoniak32/git-repo/repopool"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

const (
	defaultCloneTimeout = 5 * time.Minute
)

var (
	configSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "git_repo_config_last_reload_successful",
		Help: "Whether the last configuration reload attempt was successful.",
	})
	configSuccessTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "git_repo_config_last_reload_success_timestamp_seconds",
		Help: "Timestamp of the last successful configuration reload.",
	})
)

// WatchConfig polls the config file every interval and reloads if modified
func WatchConfig(ctx context.Context, path string, watchConfig bool, interval time.Duration, onChange func(*repopool.Config) bool) {
	var lastModTime time.Time
	var success bool

	for {
		lastModTime, success = loadConfig(path, lastModTime, onChange)
		if success {
			configSuccess.Set(1)
			configSuccessTime.SetToCurrentTime()
		} else {
			configSuccess.Set(0)
		}

		if !watchConfig {
			return
		}

		t := time.NewTimer(interval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

func loadConfig(path string, lastModTime time.Time, onChange func(*repopool.Config) bool) (time.Time, bool) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		logger.Error("Error checking config file", "err", err)
		return lastModTime, false
	}

	modTime := fileInfo.ModTime()
	if modTime.Equal(lastModTime) {
		return lastModTime, true
	}

	logger.Info("reloading config file...", "path", path)

	newConfig, err := parseConfigFile(path)
	if err != nil {
		logger.Error("failed to reload config", "err", err)
		return lastModTime, false
	}
	return modTime, onChange(newConfig)
}

// ensureConfig will do the diff between current repoPool state and new config
// and based on that diff it will add/remove repositories
func ensureConfig(repoPool *repopool.RepoPool, newConfig *repopool.Config) bool {
	success := true

	applyCloneDefaults(newConfig)

	// validate and apply defaults to new config before compare
	if err := newConfig.ValidateAndApplyDefaults(); err != nil {
		logger.Error("failed to validate new config", "err", err)
		return false
	}

	newRepos, removedRepos := diffRepositories(repoPool, newConfig)
	for _, repo := range removedRepos {
		if err := repoPool.RemoveRepository(repo); err != nil {
			logger.Error("failed to remove repository", "remote", redact(repo), "err", err)
			success = false
		}
	}
	for _, repo := range newRepos {
		if err := repoPool.AddRepository(repo); err != nil {
			logger.Error("failed to add new repository", "remote", redact(repo.Remote), "err", err)
			success = false
		}
	}

	return success
}

func applyCloneDefaults(conf *repopool.Config) {
	if conf.Defaults.Concurrency == 0 {
		conf.Defaults.Concurrency = defaultConcurrency
	}

	if conf.Defaults.CloneTimeout == 0 {
		conf.Defaults.CloneTimeout = defaultCloneTimeout
	}
}

func parseConfigFile(path string) (*repopool.Config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = validateConfig(yamlFile)
	if err != nil {
		return nil, err
	}

	conf := &repopool.Config{}
	err = yaml.Unmarshal(yamlFile, conf)
	if err != nil {
		return nil, err
	}

	return conf, nil
}

func validateConfig(yamlData []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return err
	}

	// defaults and repositories sections are mandatory
	if _, ok := raw["defaults"]; !ok {
		return fmt.Errorf("defaults config section is missing")
	}

	if _, ok := raw["repositories"]; !ok {
		return fmt.Errorf("repositories config section is missing")
	}

	// check config sections for unexpected keys
	allowedRepoPoolConfig := getAllowedKeys(repopool.Config{})
	if key := findUnexpectedKey(raw, allowedRepoPoolConfig); key != "" {
		return fmt.Errorf("unexpected key: .%v", key)
	}

	// check "defaults" section, it can be left empty
	if raw["defaults"] != nil {
		defaultsMap, ok := raw["defaults"].(map[string]interface{})
		if !ok {
			return fmt.Errorf("defaults section is not valid")
		}
		allowedDefaults := getAllowedKeys(repopool.DefaultConfig{})

		if key := findUnexpectedKey(defaultsMap, allowedDefaults); key != "" {
			return fmt.Errorf("unexpected key: .defaults.%v", key)
		}
	}

	// check each repository in "repositories" section
	repos, ok := raw["repositories"].([]interface{})
	if !ok && raw["repositories"] != nil {
		return fmt.Errorf("repositories config section is not valid")
	}

	allowedRepoKeys := getAllowedKeys(repopool.RepositoryConfig{})
	for _, repoInterface := range repos {
		repoMap, ok := repoInterface.(map[string]interface{})
		if !ok {
			return fmt.Errorf("repositories config section is not valid")
		}

		if key := findUnexpectedKey(repoMap, allowedRepoKeys); key != "" {
			return fmt.Errorf("unexpected key: .repositories[%v].%v", repoMap["remote"], key)
		}
	}

	return nil
}

// getAllowedKeys retrieves a list of allowed keys from the specified struct
func getAllowedKeys(config interface{}) []string {
	var allowedKeys []string
	val := reflect.ValueOf(config)
	typ := reflect.TypeOf(config)

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		yamlTag, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if yamlTag != "" && yamlTag != "-" {
			allowedKeys = append(allowedKeys, yamlTag)
		}
	}
	return allowedKeys
}

func findUnexpectedKey(raw map[string]interface{}, allowedKeys []string) string {
	for key := range raw {
		if !slices.Contains(allowedKeys, key) {
			return key
		}
	}

	return ""
}

// diffRepositories will do the diff between current state and new config and
// return new repositories config and list of remote url which are not found in config
func diffRepositories(repoPool *repopool.RepoPool, newConfig *repopool.Config) (
	newRepos []repopool.RepositoryConfig,
	removedRepos []string,
) {
	for _, newRepo := range newConfig.Repositories {
		if _, err := repoPool.Repository(newRepo.Remote); errors.Is(err, repopool.ErrNotExist) {
			newRepos = append(newRepos, newRepo)
		}
	}

	for _, currentRepoURL := range repoPool.RepositoriesRemote() {
		var found bool
		for _, newRepo := range newConfig.Repositories {
			if same, _ := giturl.SameRawURL(currentRepoURL, newRepo.Remote); same {
				found = true
				break
			}
		}
		if !found {
			removedRepos = append(removedRepos, currentRepoURL)
		}
	}

	return
}
