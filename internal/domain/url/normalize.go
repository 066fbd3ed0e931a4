// Package url resolves address-bar input into navigable URLs.
package url

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyInput is returned for blank address-bar input.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidInput is returned when input cannot be read as a URL.
	ErrInvalidInput = errors.New("input is not a valid url")
)

// knownSchemes are accepted without a "//" authority marker.
var knownSchemes = map[string]bool{
	"about":       true,
	"chrome":      true,
	"data":        true,
	"devtools":    true,
	"file":        true,
	"ftp":         true,
	"http":        true,
	"https":       true,
	"javascript":  true,
	"mailto":      true,
	"view-source": true,
}

// FromUserInput reads loosely typed input as a URL, the way an address bar does.
//
//	"openai.com"          → https://openai.com
//	"www.example.com/a b" → https://www.example.com/a%20b
//	"ftp.example.org"     → ftp://ftp.example.org
//	"/tmp/page.html"      → file:///tmp/page.html
//	"http://x.org"        → http://x.org
//
// Scheme-less input always gets an authority, so single words parse too;
// callers decide whether such a result is worth navigating to.
func FromUserInput(input string) (*url.URL, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}
	if hasControlChars(trimmed) {
		return nil, ErrInvalidInput
	}

	if path, ok := localPath(trimmed); ok {
		return &url.URL{Scheme: "file", Path: path}, nil
	}

	if scheme, ok := explicitScheme(trimmed); ok {
		return parseWithScheme(trimmed, scheme)
	}

	scheme := "https"
	if strings.HasPrefix(strings.ToLower(trimmed), "ftp.") {
		scheme = "ftp"
	}

	authority, rest := splitAuthority(trimmed)
	if authority == "" {
		return nil, ErrInvalidInput
	}

	u := &url.URL{Scheme: scheme, Host: authority}
	if rest == "" {
		return u, nil
	}

	ref, err := url.Parse(escapeSpaces(rest))
	if err != nil {
		return nil, ErrInvalidInput
	}
	u.Path = ref.Path
	u.RawPath = ref.RawPath
	u.RawQuery = ref.RawQuery
	u.Fragment = ref.Fragment
	return u, nil
}

func parseWithScheme(input, scheme string) (*url.URL, error) {
	u, err := url.Parse(input)
	if err != nil {
		u, err = url.Parse(escapeSpaces(input))
		if err != nil {
			return nil, ErrInvalidInput
		}
	}
	if (scheme == "http" || scheme == "https" || scheme == "ftp") && u.Host == "" {
		return nil, ErrInvalidInput
	}
	return u, nil
}

// explicitScheme returns the lower-cased scheme when input starts with a
// known scheme, or with any syntactically valid scheme followed by "//".
func explicitScheme(input string) (string, bool) {
	idx := strings.Index(input, ":")
	if idx <= 0 {
		return "", false
	}
	scheme := strings.ToLower(input[:idx])
	for i, r := range scheme {
		isAlpha := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isAlpha {
			return "", false
		}
		if !isAlpha && !isDigit && r != '+' && r != '-' && r != '.' {
			return "", false
		}
	}
	if knownSchemes[scheme] || strings.HasPrefix(input[idx+1:], "//") {
		return scheme, true
	}
	return "", false
}

func localPath(input string) (string, bool) {
	switch {
	case strings.HasPrefix(input, "/"):
		return filepath.Clean(input), true
	case strings.HasPrefix(input, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		return filepath.Join(home, input[2:]), true
	}
	return "", false
}

func splitAuthority(input string) (authority, rest string) {
	idx := strings.IndexAny(input, "/?#")
	if idx < 0 {
		return input, ""
	}
	return input[:idx], input[idx:]
}

func escapeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
