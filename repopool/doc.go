// Package repopool clones a configured set of remote repositories.
//
// # Usages
//
// please see examples below
//
// # Configuration:
//
//	defaults:
//	  root: /var/lib/repos
//	  clone_timeout: 5m
//	  concurrency: 4
//	repositories:
//	  - remote: git@github.com:acme/widgets.git
//	  - remote: https://github.com/acme/gadgets.git
//	    root: /var/lib/other
//	    force: true
//
// # Logging:
//
// package takes slog reference for logging and prints logs up to 'trace' level
//
// Example:
//
//	loggerLevel  = new(slog.LevelVar)
//	levelStrings = map[string]slog.Level{
//		"trace": slog.Level(-8),
//		"debug": slog.LevelDebug,
//		"info":  slog.LevelInfo,
//		"warn":  slog.LevelWarn,
//		"error": slog.LevelError,
//	}
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: loggerLevel,
//	}))
//	loggerLevel.Set(levelStrings["trace"])
//
//	repos, err := repopool.New(conf, gitcmd.New(logger), logger.With("logger", "git-repo"))
//	if err != nil {
//		panic(err)
//	}
package repopool
