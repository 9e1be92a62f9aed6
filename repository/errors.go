package repository

import (
	"errors"
	"fmt"

	"github.com/pitoniak32/git-repo/giturl"
)

var (
	// ErrAlreadyExists is returned when the clone destination is already
	// inside a git working tree.
	ErrAlreadyExists = errors.New("destination already exists")

	// ErrNotEmpty is wrapped by CloneError when the destination has
	// content but is not a git working tree.
	ErrNotEmpty = errors.New("destination is not empty")

	// ErrNotARepository is returned by Open when the path is not inside
	// a git working tree.
	ErrNotARepository = errors.New("not a git repository")

	// ErrInvalidRemote is matched by errors of batch items whose remote
	// can't be parsed or is not cloneable.
	ErrInvalidRemote = errors.New("invalid remote url")

	// ErrUnsupportedScheme is returned for remotes git can't clone over.
	ErrUnsupportedScheme = errors.New("scheme is not supported by git")
)

// CloneError is returned when git failed to clone the remote.
type CloneError struct {
	Remote string
	Path   string
	Err    error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("unable to clone %q into %q err:%v", redact(e.Remote), e.Path, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// PathError is returned when a path can't be created or canonicalized.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unable to %s path %q err:%v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// InvalidRemoteError is the result of a batch item whose remote was
// rejected before cloning. It matches both ErrInvalidRemote and the cause.
type InvalidRemoteError struct {
	Remote string
	Err    error
}

func (e *InvalidRemoteError) Error() string {
	return fmt.Sprintf("%s %q err:%v", ErrInvalidRemote, redact(e.Remote), e.Err)
}

func (e *InvalidRemoteError) Unwrap() []error { return []error{ErrInvalidRemote, e.Err} }

func redact(remote string) string {
	if u, err := giturl.Parse(remote); err == nil {
		return u.Redacted()
	}
	return remote
}
