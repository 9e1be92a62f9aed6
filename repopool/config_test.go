package repopool

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestRepoPoolConfig_validateDefaults(t *testing.T) {
	type args struct {
		dc DefaultConfig
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{"empty", args{dc: DefaultConfig{}}, false},
		{"valid", args{dc: DefaultConfig{"/root", time.Minute, 4}}, false},
		{"invalid_root", args{dc: DefaultConfig{"root", time.Minute, 4}}, true},
		{"home_root", args{dc: DefaultConfig{"~/root", time.Minute, 4}}, true},
		{"invalid_timeout", args{dc: DefaultConfig{"/root", -time.Minute, 4}}, true},
		{"invalid_concurrency", args{dc: DefaultConfig{"/root", time.Minute, -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{Defaults: tt.args.dc}
			if err := config.validateDefaults(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepoPoolConfig_applyDefaults(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   Config
	}{
		{
			"1",
			Config{},
			Config{},
		},
		{"all_def",
			Config{
				Defaults: DefaultConfig{"/root", time.Minute, 2},
				Repositories: []RepositoryConfig{
					{Remote: "user@host.xz:path/to/repo1.git"},
					{Remote: "user@host.xz:path/to/repo2.git", Force: true},
					{Remote: "user@host.xz:path/to/repo3.git", Root: "/another-root"},
				},
			},
			Config{
				Defaults: DefaultConfig{"/root", time.Minute, 2},
				Repositories: []RepositoryConfig{
					{Remote: "user@host.xz:path/to/repo1.git", Root: "/root"},
					{Remote: "user@host.xz:path/to/repo2.git", Root: "/root", Force: true},
					{Remote: "user@host.xz:path/to/repo3.git", Root: "/another-root"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.applyDefaults()
			if diff := cmp.Diff(tt.want, tt.config); diff != "" {
				t.Errorf("applyDefaults() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepoPoolConfig_ValidateAndApplyDefaults(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid",
			Config{
				Defaults: DefaultConfig{Root: "/root"},
				Repositories: []RepositoryConfig{
					{Remote: "user@host.xz:path/to/repo1.git"},
					{Remote: "https://host.xz/path/to/repo2.git", Root: "/other"},
				},
			},
			false,
		},
		{"no_root",
			Config{Repositories: []RepositoryConfig{{Remote: "user@host.xz:path/to/repo1.git"}}},
			true,
		},
		{"relative_repo_root",
			Config{Repositories: []RepositoryConfig{{Remote: "user@host.xz:path/to/repo1.git", Root: "repos"}}},
			true,
		},
		{"invalid_remote",
			Config{
				Defaults:     DefaultConfig{Root: "/root"},
				Repositories: []RepositoryConfig{{Remote: "not a url"}},
			},
			true,
		},
		{"unsupported_scheme",
			Config{
				Defaults:     DefaultConfig{Root: "/root"},
				Repositories: []RepositoryConfig{{Remote: "ftp://host.xz/path/to/repo.git"}},
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.ValidateAndApplyDefaults(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndApplyDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepoPoolConfig_yaml(t *testing.T) {
	config := `
defaults:
  root: /root
  clone_timeout: 2m
  concurrency: 3
repositories:
  - remote: git@github.com:acme/widgets.git
  - remote: https://github.com/acme/gadgets.git
    root: /other
    force: true
`
	want := Config{
		Defaults: DefaultConfig{Root: "/root", CloneTimeout: 2 * time.Minute, Concurrency: 3},
		Repositories: []RepositoryConfig{
			{Remote: "git@github.com:acme/widgets.git"},
			{Remote: "https://github.com/acme/gadgets.git", Root: "/other", Force: true},
		},
	}

	got := Config{}
	if err := yaml.Unmarshal([]byte(config), &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("yaml.Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}
