package routing

import (
	"sort"
	"strings"

	"github.com/ZacxDev/hotel-site/variants"
)

// Page is a logical page the site can render.
type Page string

const (
	PageHome     Page = "home"
	PageThankYou Page = "thank-you"
	PagePrivacy  Page = "privacy"
)

type DecisionType string

const (
	DecisionRender   DecisionType = "render"
	DecisionRedirect DecisionType = "redirect"
)

// RouteDecision is the outcome for a request. A nil decision means not found.
type RouteDecision struct {
	Type    DecisionType
	Page    Page
	Version string
	Locale  string
	To      string
}

// RouteInput is what DecideRoute needs from a parsed path.
type RouteInput struct {
	Version  string
	Locale   string
	SlugPath string
}

// GlobalRoutes holds the fixed, unversioned page paths per locale.
type GlobalRoutes map[string]map[Page]string

// DefaultGlobalRoutes are used when the site manifest configures none.
var DefaultGlobalRoutes = GlobalRoutes{
	"de": {PageThankYou: "/danke", PagePrivacy: "/datenschutz"},
	"en": {PageThankYou: "/thank-you", PagePrivacy: "/privacy-settings"},
}

// Registry decides which page a parsed path renders.
type Registry struct {
	locale string
	global GlobalRoutes
}

// NewRegistry builds a registry for locale. Empty arguments fall back to
// DefaultLocale and DefaultGlobalRoutes.
func NewRegistry(locale string, global GlobalRoutes) *Registry {
	if locale = strings.TrimSpace(locale); locale == "" {
		locale = DefaultLocale
	}
	if len(global) == 0 {
		global = DefaultGlobalRoutes
	}
	normalized := make(GlobalRoutes, len(global))
	for loc, pages := range global {
		normalized[loc] = make(map[Page]string, len(pages))
		for page, p := range pages {
			normalized[loc][page] = FormatPathname(variants.DefaultVersion, p)
		}
	}
	return &Registry{locale: locale, global: normalized}
}

var defaultRegistry = NewRegistry(DefaultLocale, DefaultGlobalRoutes)

func (r *Registry) Locale() string { return r.locale }

// GlobalPath returns the fixed path of page in locale.
func (r *Registry) GlobalPath(locale string, page Page) (string, bool) {
	p, ok := r.global[locale][page]
	return p, ok
}

// GlobalPages lists the global pages configured for locale, ordered by path.
func (r *Registry) GlobalPages(locale string) []Page {
	pages := make([]Page, 0, len(r.global[locale]))
	for page := range r.global[locale] {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool {
		return r.global[locale][pages[i]] < r.global[locale][pages[j]]
	})
	return pages
}

// ReservedSegments lists the first path segment of every global route in
// every locale, sorted. A variant alias must not take any of them.
func (r *Registry) ReservedSegments() []string {
	seen := map[string]bool{}
	for _, pages := range r.global {
		for _, p := range pages {
			if segments := Segments(p); len(segments) > 0 {
				seen[segments[0]] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for segment := range seen {
		out = append(out, segment)
	}
	sort.Strings(out)
	return out
}

// Parse parses pathname in the registry's locale.
func (r *Registry) Parse(pathname string, keys KeySet, aliases variants.AliasMap) ParsedPath {
	return parseSegments(Segments(pathname), keys, aliases, r.locale)
}

// DecideRoute decides with the default registry.
func DecideRoute(in RouteInput) *RouteDecision {
	return defaultRegistry.Decide(in)
}

// Decide maps a route input to a decision. Global routes only exist
// unversioned; the home page renders at the requested version.
func (r *Registry) Decide(in RouteInput) *RouteDecision {
	slug := FormatPathname(variants.DefaultVersion, in.SlugPath)

	for page, p := range r.global[in.Locale] {
		if p != slug {
			continue
		}
		if in.Version != variants.DefaultVersion {
			return nil
		}
		return &RouteDecision{
			Type:    DecisionRender,
			Page:    page,
			Version: variants.DefaultVersion,
			Locale:  in.Locale,
		}
	}

	if slug == "/" {
		return &RouteDecision{
			Type:    DecisionRender,
			Page:    PageHome,
			Version: in.Version,
			Locale:  in.Locale,
		}
	}
	return nil
}

// Resolve parses pathname and decides the route. Requests that would render
// but use a non-canonical form (extra slashes, an explicit default variant
// prefix) are redirected to the formatted path.
func (r *Registry) Resolve(pathname string, keys KeySet, aliases variants.AliasMap) (*RouteDecision, ParsedPath) {
	parsed := r.Parse(pathname, keys, aliases)
	if keys != nil && parsed.Version == string(keys.DefaultKey()) {
		parsed.Version = variants.DefaultVersion
	}

	decision := r.Decide(RouteInput{
		Version:  parsed.Version,
		Locale:   parsed.Locale,
		SlugPath: parsed.SlugPath,
	})
	if decision == nil {
		return nil, parsed
	}

	var canonicalForm string
	if parsed.IsAliasPath {
		canonicalForm = FormatPathnameWithAlias(parsed.ResolvedFromAlias, parsed.SlugPath)
	} else {
		canonicalForm = FormatPathname(parsed.Version, parsed.SlugPath)
	}
	if canonicalForm != requestForm(pathname) {
		return &RouteDecision{
			Type:    DecisionRedirect,
			To:      canonicalForm,
			Version: decision.Version,
			Locale:  decision.Locale,
		}, parsed
	}
	return decision, parsed
}

func requestForm(pathname string) string {
	if !strings.HasPrefix(pathname, "/") {
		return "/" + pathname
	}
	return pathname
}
