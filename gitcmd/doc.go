/*
Package gitcmd runs the external git executable and returns its trimmed
output.

Every invocation captures both stdout and stderr. Successful commands with
output are logged at info level, failed commands or commands writing to
stderr are logged at warn level. The command line and its run time are logged
at trace level (-8).

	git := gitcmd.New(slog.Default(), gitcmd.WithTimeout(5*time.Minute))

	if err := git.Clone(ctx, "https://github.com/acme/widgets.git", "/tmp/widgets"); err != nil {
		return err
	}
	status, err := git.Status(ctx, "/tmp/widgets")
*/
package gitcmd
