// Package segment implements the naming-convention transforms applied to raw
// path segment names before they are joined into a URL path.
//
// Transforms are pure and idempotent: applying the same format twice yields
// the same string. Structural validation rejects only empty names; reserved
// URL characters are left for the renderer to percent-encode, never dropped.
package segment

import (
	"errors"
	"strings"
	"unicode"
)

// Format selects a naming convention for literal path segments.
type Format string

const (
	Camel     Format = "camel"
	Pascal    Format = "pascal"
	Snake     Format = "snake"
	Kebab     Format = "kebab"
	Constant  Format = "constant"
	Flat      Format = "flat"
	Unchanged Format = "unchanged"
)

// ErrEmpty is returned for structurally empty segment names.
var ErrEmpty = errors.New("segment name is empty")

// Formatter transforms raw segment names under a default format with
// per-name overrides. The zero value formats with Unchanged and no overrides.
type Formatter struct {
	Format Format
	// KnownPaths maps an exact raw name to its final rendering, bypassing
	// the convention transform entirely.
	KnownPaths map[string]string
}

// Transform converts a raw name to its canonical form under the formatter's
// convention. Known-path overrides win over the convention.
func (f Formatter) Transform(raw string) (string, error) {
	return f.TransformAs(raw, f.Format)
}

// TransformAs converts a raw name under an explicit format, still honoring
// known-path overrides.
func (f Formatter) TransformAs(raw string, format Format) (string, error) {
	if raw == "" {
		return "", ErrEmpty
	}
	if mapped, ok := f.KnownPaths[raw]; ok {
		return mapped, nil
	}
	switch format {
	case Camel:
		return camelCase(raw), nil
	case Pascal:
		return pascalCase(raw), nil
	case Snake:
		return snakeCase(raw), nil
	case Constant:
		return constantCase(raw), nil
	case Flat:
		return flatCase(raw), nil
	case Unchanged:
		return raw, nil
	case Kebab:
		return kebabCase(raw), nil
	default:
		// Unknown formats fall back to kebab, the original library default.
		return kebabCase(raw), nil
	}
}

// Valid reports whether the format is one of the supported conventions.
func (f Format) Valid() bool {
	switch f {
	case Camel, Pascal, Snake, Kebab, Constant, Flat, Unchanged:
		return true
	}
	return false
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteString(upperFirst(p))
	}
	return b.String()
}

func pascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(upperFirst(p))
	}
	return b.String()
}

func snakeCase(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", "_"))
}

func kebabCase(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", "-"))
}

func constantCase(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

func flatCase(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// upperFirst uppercases the first rune only. Unlike a full capitalize it
// leaves the remainder untouched, which keeps transforms idempotent.
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
