package giturl

import "fmt"

// Scheme is the transport of a remote url.
type Scheme int

const (
	SchemeUnspecified Scheme = iota
	SchemeFile
	SchemeFtp
	SchemeFtps
	SchemeGit
	SchemeGitSSH
	SchemeHTTP
	SchemeHTTPS
	SchemeSSH
)

// schemeTokens is the single source of truth for scheme <-> token mapping.
// tokens are matched case-sensitively.
var schemeTokens = []struct {
	scheme Scheme
	token  string
}{
	{SchemeFile, "file"},
	{SchemeFtp, "ftp"},
	{SchemeFtps, "ftps"},
	{SchemeGit, "git"},
	{SchemeGitSSH, "git+ssh"},
	{SchemeHTTP, "http"},
	{SchemeHTTPS, "https"},
	{SchemeSSH, "ssh"},
	{SchemeUnspecified, "unspecified"},
}

// Schemes returns all known schemes.
func Schemes() []Scheme {
	s := make([]Scheme, 0, len(schemeTokens))
	for _, st := range schemeTokens {
		s = append(s, st.scheme)
	}
	return s
}

// ParseScheme returns the scheme for the given token.
func ParseScheme(token string) (Scheme, error) {
	for _, st := range schemeTokens {
		if st.token == token {
			return st.scheme, nil
		}
	}
	return SchemeUnspecified, fmt.Errorf("%w %q", ErrUnknownScheme, token)
}

func (s Scheme) String() string {
	for _, st := range schemeTokens {
		if st.scheme == s {
			return st.token
		}
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// Transportable returns true if git can clone over the scheme.
func (s Scheme) Transportable() bool {
	switch s {
	case SchemeFile, SchemeGit, SchemeGitSSH, SchemeHTTP, SchemeHTTPS, SchemeSSH:
		return true
	}
	return false
}

func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scheme) UnmarshalText(text []byte) error {
	scheme, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = scheme
	return nil
}
