package routing

import (
	"strings"

	"github.com/ZacxDev/hotel-site/variants"
)

// CanonicalPath returns the SEO canonical path of a parsed request. A
// variant that declares an alias is canonical under that alias; the default
// variant and global pages stay unprefixed.
func (r *Registry) CanonicalPath(parsed ParsedPath, keys KeySet, aliases variants.AliasMap) string {
	version := parsed.Version
	if keys != nil && version == string(keys.DefaultKey()) {
		version = variants.DefaultVersion
	}
	if version == variants.DefaultVersion {
		return FormatPathname(variants.DefaultVersion, parsed.SlugPath)
	}
	if alias, ok := variants.AliasForVariant(variants.VariantKey(version), aliases); ok {
		return FormatPathnameWithAlias(alias, parsed.SlugPath)
	}
	return FormatPathname(version, parsed.SlugPath)
}

// HomePath returns the canonical home path of a variant key.
func (r *Registry) HomePath(key variants.VariantKey, keys KeySet, aliases variants.AliasMap) string {
	return r.CanonicalPath(ParsedPath{Version: string(key), SlugPath: "/"}, keys, aliases)
}

// CanonicalURL joins origin and a canonical path.
func CanonicalURL(origin, canonicalPath string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/") + canonicalPath
}
