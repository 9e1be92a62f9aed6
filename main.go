package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pitoniak32/git-repo/gitcmd"
	"github.com/pitoniak32/git-repo/giturl"
	"github.com/pitoniak32/git-repo/internal/utils"
	"github.com/pitoniak32/git-repo/repopool"
	"github.com/pitoniak32/git-repo/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const defaultConcurrency = 4

var (
	loggerLevel = new(slog.LevelVar)
	logger      *slog.Logger

	levelStrings = map[string]slog.Level{
		"trace": slog.Level(-8),
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	registry = prometheus.NewRegistry()

	errCloneFailed = errors.New("one or more repositories failed to clone")
)

func init() {
	loggerLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: loggerLevel,
	}))

	repository.EnableMetrics("", registry)
	registry.MustRegister(configSuccess, configSuccessTime)
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
			Usage:   "Log level",
		},
		&cli.DurationFlag{
			Name:    "git-timeout",
			Sources: cli.EnvVars("GIT_REPO_GIT_TIMEOUT"),
			Value:   10 * time.Minute,
			Usage:   "Timeout of a single git command, 0 means no timeout.",
		},
		&cli.StringFlag{
			Name:    "metrics-textfile",
			Sources: cli.EnvVars("GIT_REPO_METRICS_TEXTFILE"),
			Usage:   "Path of the file to write metrics to in the prometheus text format on exit.",
		},
	}
}

// app holds dependencies shared by all commands
type app struct {
	git *gitcmd.Git
	out io.Writer
}

func newApp(out io.Writer) *cli.Command {
	a := &app{out: out}

	return &cli.Command{
		Name:  "git-repo",
		Usage: "git-repo clones and inspects git repositories.",
		Flags: globalFlags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// set log level according to argument
			if v, ok := levelStrings[strings.ToLower(c.String("log-level"))]; ok {
				loggerLevel.Set(v)
			}

			// path to resolve credential helpers
			gitENV := []string{fmt.Sprintf("PATH=%s", os.Getenv("PATH"))}

			a.git = gitcmd.New(logger.With("logger", "git"),
				gitcmd.WithEnv(gitENV...),
				gitcmd.WithTimeout(c.Duration("git-timeout")),
			)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if path := c.String("metrics-textfile"); path != "" {
				if err := prometheus.WriteToTextfile(path, registry); err != nil {
					return fmt.Errorf("unable to write metrics err:%w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "clone",
				Usage:     "Clone a remote repository into destination dir.",
				ArgsUsage: "<remote> <destination>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Remove destination and all its content before cloning.",
					},
				},
				Action: a.clone,
			},
			{
				Name:      "clone-multi",
				Usage:     "Clone remote repositories into <root>/<repository name>.",
				ArgsUsage: "<remote>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "root",
						Required: true,
						Usage:    "Dir where repositories will be cloned.",
					},
					&cli.DurationFlag{
						Name:  "clone-timeout",
						Usage: "Timeout of a single repository clone, 0 means no timeout.",
					},
				},
				Action: a.cloneMulti,
			},
			{
				Name:  "sync",
				Usage: "Clone all repositories listed in the config file.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Sources: cli.EnvVars("GIT_REPO_CONFIG"),
						Value:   "/etc/git-repo/config.yaml",
						Usage:   "Absolute path to the config file.",
					},
					&cli.BoolFlag{
						Name:  "watch-config",
						Usage: "Keep running and clone repositories added to the config file.",
					},
					&cli.DurationFlag{
						Name:  "watch-interval",
						Value: time.Minute,
						Usage: "Interval between config file checks.",
					},
				},
				Action: a.sync,
			},
			{
				Name:      "inspect",
				Usage:     "Print path and origin of an existing repository.",
				ArgsUsage: "<path>",
				Action:    a.inspect,
			},
			{
				Name:      "status",
				Usage:     "Print git status of an existing repository.",
				ArgsUsage: "<path>",
				Action:    a.status,
			},
			{
				Name:      "log",
				Usage:     "Print git log of an existing repository.",
				ArgsUsage: "<path>",
				Action:    a.log,
			},
			{
				Name:      "parse",
				Usage:     "Print parsed remote url.",
				ArgsUsage: "<remote>",
				Action:    a.parse,
			},
		},
	}
}

func (a *app) manager(opts ...repository.Option) *repository.Manager {
	return repository.NewManager(a.git, logger.With("logger", "git-repo"), opts...)
}

func (a *app) clone(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected <remote> and <destination> arguments")
	}
	dst, err := expandHome(c.Args().Get(1))
	if err != nil {
		return err
	}

	mgr := a.manager()
	var repo *repository.Repository
	if c.Bool("force") {
		repo, err = mgr.CloneForce(ctx, c.Args().Get(0), dst)
	} else {
		repo, err = mgr.Clone(ctx, c.Args().Get(0), dst)
	}
	if err != nil {
		return err
	}

	a.printRepo(repo)
	return nil
}

func (a *app) cloneMulti(ctx context.Context, c *cli.Command) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one <remote> argument is required")
	}
	root, err := expandHome(c.String("root"))
	if err != nil {
		return err
	}

	mgr := a.manager(
		repository.WithConcurrency(defaultConcurrency),
		repository.WithCloneTimeout(c.Duration("clone-timeout")),
	)
	return a.printResults(mgr.CloneMulti(ctx, c.Args().Slice(), root))
}

func (a *app) sync(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := c.String("config")
	watch := c.Bool("watch-config")

	var repos *repopool.RepoPool
	var syncErr error

	WatchConfig(ctx, path, watch, c.Duration("watch-interval"), func(newConfig *repopool.Config) bool {
		if repos == nil {
			applyCloneDefaults(newConfig)
			rp, err := repopool.New(*newConfig, a.git, logger.With("logger", "repo-pool"))
			if err != nil {
				logger.Error("could not create repository pool", "err", err)
				syncErr = err
				return false
			}
			repos = rp
		} else if !ensureConfig(repos, newConfig) {
			return false
		}

		syncErr = a.printResults(repos.CloneAll(ctx))
		return syncErr == nil
	})

	if watch {
		logger.Info("Shutting down")
		return nil
	}
	if repos == nil && syncErr == nil {
		return fmt.Errorf("unable to load config file %s", path)
	}
	return syncErr
}

func (a *app) inspect(ctx context.Context, c *cli.Command) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	repo, err := a.manager().Open(ctx, path)
	if err != nil {
		return err
	}
	a.printRepo(repo)
	return nil
}

func (a *app) status(ctx context.Context, c *cli.Command) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	out, err := a.git.Status(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, out)
	return nil
}

func (a *app) log(ctx context.Context, c *cli.Command) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	out, err := a.git.Log(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, out)
	return nil
}

func (a *app) parse(_ context.Context, c *cli.Command) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected <remote> argument")
	}
	gURL, err := giturl.Parse(c.Args().First())
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(gURL)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, string(out))
	return nil
}

func (a *app) printRepo(repo *repository.Repository) {
	fmt.Fprintf(a.out, "%s\t%s\n", repo.Path(), repo.Remote())
}

// printResults prints all successful clones and returns errCloneFailed
// if any clone failed
func (a *app) printResults(results []repository.CloneResult) error {
	var failed bool
	for _, res := range results {
		if res.Err != nil {
			failed = true
			logger.Error("clone failed", "remote", redact(res.Remote), "err", res.Err)
			continue
		}
		a.printRepo(res.Repo)
	}
	if failed {
		return errCloneFailed
	}
	return nil
}

func pathArg(c *cli.Command) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected <path> argument")
	}
	return expandHome(c.Args().First())
}

// expandHome replaces leading '~' with current user's home dir.
// any other '~' is rejected as library panics on it
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to expand '~' err:%w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if utils.HasHomeShorthand(path) {
		return "", fmt.Errorf("path %q must not contain '~' other than a leading '~/'", path)
	}
	return path, nil
}

func redact(remote string) string {
	if u, err := giturl.Parse(remote); err == nil {
		return u.Redacted()
	}
	return remote
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		logger.Error("failed to run app", "err", err)
		os.Exit(1)
	}
}
