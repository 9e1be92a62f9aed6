// Package repository clones remote repositories and inspects existing local
// ones by running the git executable.
//
// A single remote can be cloned into a destination directory with
// [Manager.Clone] or, after wiping the destination, with [Manager.CloneForce].
// [Manager.CloneMulti] clones many remotes into <root>/<repository name>, each
// remote is independent and its outcome is reported in its own [CloneResult].
//
// Paths given to the Manager must not contain '~', the Manager panics if they
// do. Callers must expand the home dir themselves.
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
//	mgr := repository.NewManager(gitcmd.New(logger), logger, repository.WithConcurrency(4))
//
//	for _, res := range mgr.CloneMulti(ctx, remotes, "/var/lib/repos") {
//		if res.Err != nil {
//			logger.Error("clone failed", "remote", res.Remote, "err", res.Err)
//		}
//	}
package repository
