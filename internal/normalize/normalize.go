// Package normalize canonicalizes keys before they reach the cache, so that
// spellings a reader would consider equal are counted as duplicates.
package normalize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Modes accepted by New.
const (
	ModeNone  = "none"
	ModeUpper = "upper"
	ModeFold  = "fold"
	ModeURL   = "url"
)

// ErrUnknownMode is returned by New for a mode it does not know.
var ErrUnknownMode = errors.New("unknown normalize mode")

// Func maps a raw key to its canonical form. Every Func is safe for
// concurrent use.
type Func func(string) string

// New returns the Func for mode. The empty mode is ModeNone.
func New(mode string) (Func, error) {
	switch strings.ToLower(mode) {
	case "", ModeNone:
		return None, nil
	case ModeUpper:
		return Upper, nil
	case ModeFold:
		return Fold, nil
	case ModeURL:
		return URL, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// None returns s unchanged.
func None(s string) string { return s }

// Upper trims s, composes it to NFC and upper-cases it.
//
// A cases.Caser keeps state between calls, so each call builds its own.
func Upper(s string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
}

// Fold trims s, composes it to NFC and applies Unicode case folding, which
// also maps forms like "ß" to "ss".
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// URL canonicalizes an absolute URL: lower-case scheme and host, IDNA ASCII
// host, no fragment, no default port and no lone trailing slash. Anything
// that is not an absolute URL with a host is only trimmed and composed.
func URL(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}

	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "/" {
		u.Path = ""
		u.RawPath = ""
	}
	return u.String()
}

func isDefaultPort(scheme, port string) bool {
	switch scheme {
	case "http", "ws":
		return port == "80"
	case "https", "wss":
		return port == "443"
	case "ftp":
		return port == "21"
	}
	return false
}
