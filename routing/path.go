package routing

import (
	"strings"

	"github.com/ZacxDev/hotel-site/variants"
)

// DefaultLocale is the single active locale. The locale is carried through
// parsing and decisions but nothing branches on it yet.
const DefaultLocale = "de"

// KeySet is the set of recognized variant keys. *variants.Manifest
// implements it.
type KeySet interface {
	Has(key string) bool
	DefaultKey() variants.VariantKey
}

// ParsedPath describes a request path in terms of variant, locale and slug.
type ParsedPath struct {
	Version           string
	Locale            string
	SlugSegments      []string
	SlugPath          string
	IsAliasPath       bool
	ResolvedFromAlias string
}

// Segments splits pathname into its non-empty segments.
func Segments(pathname string) []string {
	if !strings.HasPrefix(pathname, "/") {
		pathname = "/" + pathname
	}
	parts := strings.Split(pathname, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// ParsePathname parses pathname with the default locale. It never fails:
// anything unrecognized is treated as a slug of the default variant.
func ParsePathname(pathname string, keys KeySet, aliases variants.AliasMap) ParsedPath {
	return ParseSegments(Segments(pathname), keys, aliases)
}

// ParseSegments parses an already split path. An alias in the first
// segment wins over a variant key of the same name.
func ParseSegments(segments []string, keys KeySet, aliases variants.AliasMap) ParsedPath {
	return parseSegments(segments, keys, aliases, DefaultLocale)
}

func parseSegments(segments []string, keys KeySet, aliases variants.AliasMap, locale string) ParsedPath {
	parsed := ParsedPath{
		Version: variants.DefaultVersion,
		Locale:  locale,
	}
	idx := 0

	if len(segments) > 0 {
		first := segments[0]
		if key, ok := aliases.Lookup(first); ok {
			parsed.Version = string(key)
			if keys != nil && key == keys.DefaultKey() {
				parsed.Version = variants.DefaultVersion
			}
			parsed.IsAliasPath = true
			parsed.ResolvedFromAlias = first
			idx = 1
		} else if keys != nil && keys.Has(first) {
			parsed.Version = first
			idx = 1
		}
	}

	parsed.SlugSegments = append([]string{}, segments[idx:]...)
	parsed.SlugPath = "/" + strings.Join(parsed.SlugSegments, "/")
	return parsed
}

// FormatPathname builds the path of slugPath under version. The default
// version is unprefixed.
func FormatPathname(version, slugPath string) string {
	prefix := ""
	if version != variants.DefaultVersion && version != "" {
		prefix = "/" + version
	}
	return joinPath(prefix, slugPath)
}

// FormatPathnameWithAlias builds the path of slugPath under alias.
func FormatPathnameWithAlias(alias, slugPath string) string {
	return joinPath("/"+alias, slugPath)
}

func joinPath(prefix, slugPath string) string {
	slug := "/" + strings.Join(Segments(slugPath), "/")
	if slug == "/" {
		slug = ""
	}
	if out := prefix + slug; out != "" {
		return out
	}
	return "/"
}
