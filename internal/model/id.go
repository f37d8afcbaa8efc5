package model

import (
	"fmt"
	"regexp"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// slugAlphabet keeps generated IDs safe for git branch names, filesystem
// paths, and tmux window names alike.
const (
	slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	slugIDLen    = 6
	slugMaxLen   = 48
)

var (
	slugRegex    = regexp.MustCompile(`^[0-9a-z]{6}(-[0-9a-z]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^0-9a-z]+`)
)

// GenerateSlug produces a unique task slug of the form <id>-<title-words>,
// e.g. "x4k2m9-fix-login-flow". The random prefix guarantees uniqueness;
// the title suffix keeps worktree paths and window names readable.
func GenerateSlug(title string) (string, error) {
	id, err := nanoid.Generate(slugAlphabet, slugIDLen)
	if err != nil {
		return "", fmt.Errorf("nanoid: %w", err)
	}

	suffix := slugify(title)
	if suffix == "" {
		return id, nil
	}
	slug := id + "-" + suffix
	if len(slug) > slugMaxLen {
		slug = strings.TrimRight(slug[:slugMaxLen], "-")
	}
	return slug, nil
}

// ValidateSlug reports whether s is a well-formed task slug.
func ValidateSlug(s string) bool {
	return slugRegex.MatchString(s)
}

func slugify(title string) string {
	s := strings.ToLower(title)
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
