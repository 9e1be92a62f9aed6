// Package giturl parses different git url syntax
package giturl

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrEmpty            = errors.New("remote url is empty")
	ErrInvalidCharacter = errors.New("remote url contains control characters")
	ErrLeadingDash      = errors.New("remote url must not start with '-'")
	ErrUnknownScheme    = errors.New("unknown scheme")
	ErrInvalidHost      = errors.New("invalid host")
	ErrInvalidPort      = errors.New("invalid port")
	ErrNoPath           = errors.New("remote url has no path segment")
	ErrInvalidName      = errors.New("repository name is invalid")
)

// ParseError is returned by Parse when the given string can't be
// decomposed into a URL.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse remote url %q err:%s", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// URL represents parsed git url
type URL struct {
	Host         string `yaml:"host,omitempty"`         // host without port, empty for local paths
	Name         string `yaml:"name"`                   // repository name without .git suffix
	Owner        string `yaml:"owner,omitempty"`        // path segment before the name
	Organization string `yaml:"organization,omitempty"` // path segments before the owner
	FullName     string `yaml:"full_name"`              // [organization/]owner/name or just name
	Scheme       Scheme `yaml:"scheme"`
	User         string `yaml:"user,omitempty"`
	Token        string `yaml:"-"`              // password part of userinfo
	Port         int    `yaml:"port,omitempty"` // 0 if not set
	Path         string `yaml:"path"`           // path as written in the url
	GitSuffix    bool   `yaml:"git_suffix"`     // name had a ".git" suffix
	SchemePrefix bool   `yaml:"scheme_prefix"`  // url started with "<scheme>://"

	raw string
}

// NormaliseURL will return normalised url
func NormaliseURL(rawURL string) string {
	nURL := strings.TrimSpace(rawURL)
	nURL = strings.TrimRight(nURL, "/")

	return nURL
}

// Parse parses a raw url into a URL structure.
// valid git urls are...
//   - <scheme>://[user[:token]@]host.xz[:port]/path/to/repo.git
//     where scheme is one of file, ftp, ftps, git, git+ssh, http, https or ssh
//   - [user@]host.xz:path/to/repo.git
//   - /path/to/repo.git, ./repo, ../path/to/repo
//   - host.xz/path/to/repo.git
func Parse(rawURL string) (*URL, error) {
	raw := NormaliseURL(rawURL)

	gURL, err := parse(raw)
	if err != nil {
		return nil, &ParseError{URL: rawURL, Err: err}
	}
	gURL.raw = raw
	return gURL, nil
}

func parse(raw string) (*URL, error) {
	if raw == "" {
		return nil, ErrEmpty
	}
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return nil, ErrInvalidCharacter
	}
	// git would read it as an option
	if strings.HasPrefix(raw, "-") {
		return nil, ErrLeadingDash
	}

	switch {
	case strings.Contains(raw, "://"):
		return parseSchemeURL(raw)
	case IsSCPURL(raw):
		return parseSCPURL(trimQuery(raw))
	default:
		return parseSchemelessURL(trimQuery(raw))
	}
}

// trimQuery drops query string and fragment of urls not handled by net/url
func trimQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "/")
}

func parseSchemeURL(raw string) (*URL, error) {
	token := raw[:strings.Index(raw, "://")]
	scheme, err := ParseScheme(token)
	if err != nil || scheme == SchemeUnspecified {
		return nil, fmt.Errorf("%w %q", ErrUnknownScheme, token)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	gURL := &URL{
		Scheme:       scheme,
		Host:         u.Hostname(),
		Path:         u.Path,
		SchemePrefix: true,
	}
	if u.User != nil {
		gURL.User = u.User.Username()
		gURL.Token, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w %q", ErrInvalidPort, p)
		}
		gURL.Port = port
	}
	if gURL.Host == "" && scheme != SchemeFile {
		return nil, ErrInvalidHost
	}

	if err := gURL.setName(splitPath(u.Path, "/"), scheme != SchemeFile); err != nil {
		return nil, err
	}
	return gURL, nil
}

func parseSCPURL(raw string) (*URL, error) {
	colon := strings.Index(raw, ":")
	userHost, path := raw[:colon], raw[colon+1:]

	gURL := &URL{Scheme: SchemeGitSSH, Path: path}
	if at := strings.LastIndex(userHost, "@"); at >= 0 {
		gURL.User = userHost[:at]
		userHost = userHost[at+1:]
	}
	if !validHost(userHost) {
		return nil, fmt.Errorf("%w %q", ErrInvalidHost, userHost)
	}
	gURL.Host = userHost

	// scp syntax can't carry a port, "host:22:path" is a mistake
	if strings.Contains(path, ":") {
		return nil, fmt.Errorf("%w in scp-like url", ErrInvalidPort)
	}

	segments := splitPath(path, "/")
	// azure devops ssh urls are versioned: ssh.dev.azure.com:v3/org/project/repo
	if strings.HasSuffix(gURL.Host, "dev.azure.com") && len(segments) > 1 && segments[0] == "v3" {
		segments = segments[1:]
	}
	if err := gURL.setName(segments, true); err != nil {
		return nil, err
	}
	return gURL, nil
}

func parseSchemelessURL(raw string) (*URL, error) {
	if isLocalPath(raw) {
		gURL := &URL{Scheme: SchemeFile, Path: raw}
		if err := gURL.setName(splitPath(raw, `/\`), false); err != nil {
			return nil, err
		}
		return gURL, nil
	}

	if !strings.Contains(raw, "/") {
		return nil, ErrNoPath
	}

	host, path, _ := strings.Cut(raw, "/")
	// "host.xz/owner/repo", anything else is a relative local path
	if !strings.Contains(host, ".") || !validHost(host) {
		gURL := &URL{Scheme: SchemeFile, Path: raw}
		if err := gURL.setName(splitPath(raw, "/"), false); err != nil {
			return nil, err
		}
		return gURL, nil
	}

	gURL := &URL{Scheme: SchemeUnspecified, Host: host, Path: path}
	if err := gURL.setName(splitPath(path, "/"), true); err != nil {
		return nil, err
	}
	return gURL, nil
}

// setName derives name, owner, organization and full name from the
// path segments.
func (gURL *URL) setName(segments []string, withOwner bool) error {
	if len(segments) == 0 {
		return ErrNoPath
	}

	name := segments[len(segments)-1]
	if strings.HasSuffix(name, ".git") {
		gURL.GitSuffix = true
		name = strings.TrimSuffix(name, ".git")
	}
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w %q", ErrInvalidName, segments[len(segments)-1])
	}
	gURL.Name = name
	gURL.FullName = name

	if !withOwner {
		return nil
	}

	rest := segments[:len(segments)-1]
	// azure devops: org/project/_git/repo
	if len(rest) > 0 && rest[len(rest)-1] == "_git" {
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		return nil
	}
	gURL.Owner = rest[len(rest)-1]
	gURL.Organization = strings.Join(rest[:len(rest)-1], "/")

	gURL.FullName = gURL.Owner + "/" + name
	if gURL.Organization != "" {
		gURL.FullName = gURL.Organization + "/" + gURL.FullName
	}
	return nil
}

// Redacted returns the url as given to Parse with the token masked,
// it's safe to log.
func (gURL *URL) Redacted() string {
	if gURL.Token == "" || !gURL.SchemePrefix {
		return gURL.raw
	}

	// token is masked as written, it may be percent-encoded
	prefix, rest, _ := strings.Cut(gURL.raw, "://")
	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}
	authority := rest[:end]
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return gURL.raw
	}
	user, _, ok := strings.Cut(authority[:at], ":")
	if !ok {
		return gURL.raw
	}
	return prefix + "://" + user + ":xxxxx" + authority[at:] + rest[end:]
}

// Equals returns whether or not the two parsed git URLs are equivalent.
// git URLs can be represented in multiple schemes so if host, port and full
// name of URLs are same then those URLs are for the same remote repository
// local paths have no host so their paths are compared instead
func (gURL *URL) Equals(rURL *URL) bool {
	if gURL.Host == "" && rURL.Host == "" {
		return trimRepoPath(gURL.Path) == trimRepoPath(rURL.Path)
	}
	return strings.EqualFold(gURL.Host, rURL.Host) &&
		gURL.Port == rURL.Port &&
		strings.EqualFold(gURL.FullName, rURL.FullName)
}

// SameRawURL returns whether or not the two remote URL strings are equivalent
func SameRawURL(lRepo, rRepo string) (bool, error) {
	lURL, err := Parse(lRepo)
	if err != nil {
		return false, err
	}
	rURL, err := Parse(rRepo)
	if err != nil {
		return false, err
	}

	return lURL.Equals(rURL), nil
}

// IsSCPURL returns true if supplied URL is scp-like syntax
// ie [user@]host.xz:path/to/repo.git
func IsSCPURL(rawURL string) bool {
	if strings.Contains(rawURL, "://") || strings.Contains(rawURL, `\`) {
		return false
	}
	colon := strings.Index(rawURL, ":")
	if colon < 0 || colon == len(rawURL)-1 {
		return false
	}
	userHost := rawURL[:colon]
	if strings.Contains(userHost, "/") {
		return false
	}
	if strings.Contains(userHost, "@") {
		return true
	}
	// a single letter is a windows drive, "c:foo"
	return len(userHost) > 1
}

func isLocalPath(raw string) bool {
	return strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") ||
		strings.Contains(raw, `\`)
}

func validHost(host string) bool {
	if host == "" || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") || strings.HasPrefix(host, "-") {
		return false
	}
	for _, r := range host {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func trimRepoPath(path string) string {
	return strings.TrimSuffix(strings.TrimRight(path, `/\`), ".git")
}

func splitPath(path, seps string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}
