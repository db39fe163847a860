package config

// config/yaml.go

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/hotel-site/routing"
	"github.com/ZacxDev/hotel-site/variants"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

const SiteManifestFile = "site.yaml"

type JavascriptTarget struct {
	Source string `yaml:"source"`
	OutDir string `yaml:"out_dir"`
}

type Translation struct {
	Code       string `yaml:"code"`
	Source     string `yaml:"source"`
	SourceType string `yaml:"source_type"`
}

// Templates names the plush layouts used by the page renderer, relative to
// the templates directory.
type Templates struct {
	Layout      string `yaml:"layout"`
	Home        string `yaml:"home"`
	Page        string `yaml:"page"`
	NotFound    string `yaml:"not_found"`
	ServerError string `yaml:"server_error"`
	SectionsDir string `yaml:"sections_dir"`
}

type SiteManifest struct {
	Name              string                       `yaml:"name"`
	Origin            string                       `yaml:"origin"`
	Locale            string                       `yaml:"locale"`
	DefaultVariant    string                       `yaml:"default_variant"`
	ContentDir        string                       `yaml:"content_dir"`
	GeneratedDir      string                       `yaml:"generated_dir"`
	TemplatesDir      string                       `yaml:"templates_dir"`
	PagesDir          string                       `yaml:"pages_dir"`
	StaticDir         string                       `yaml:"static_dir"`
	PublicDir         string                       `yaml:"public_dir"`
	Templates         Templates                    `yaml:"templates"`
	GlobalRoutes      map[string]map[string]string `yaml:"global_routes"`
	JavascriptTargets map[string]JavascriptTarget  `yaml:"javascript"`
	Translations      []Translation                `yaml:"translations"`
}

// LoadSiteManifest reads site.yaml from root and fills in defaults.
func LoadSiteManifest(root string) (*SiteManifest, error) {
	name := filepath.Join(root, SiteManifestFile)
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}

	var manifest SiteManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parse %s", name)
	}
	manifest.applyDefaults()
	if err := manifest.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return &manifest, nil
}

func (m *SiteManifest) applyDefaults() {
	setDefault(&m.Locale, routing.DefaultLocale)
	setDefault(&m.DefaultVariant, variants.DefaultVersion)
	setDefault(&m.ContentDir, "content/variants")
	setDefault(&m.GeneratedDir, "generated")
	setDefault(&m.TemplatesDir, "templates")
	setDefault(&m.PagesDir, "pages")
	setDefault(&m.StaticDir, "static")
	setDefault(&m.PublicDir, "public")
	setDefault(&m.Templates.Layout, "layouts/base.plush.html")
	setDefault(&m.Templates.Home, "home.plush.html")
	setDefault(&m.Templates.Page, "page.plush.html")
	setDefault(&m.Templates.NotFound, "404.plush.html")
	setDefault(&m.Templates.ServerError, "500.plush.html")
	setDefault(&m.Templates.SectionsDir, "sections")
	m.Origin = strings.TrimRight(m.Origin, "/")
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func (m SiteManifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Origin, validation.Required, is.URL),
		validation.Field(&m.Locale, validation.Required, validation.By(validLocale)),
		validation.Field(&m.DefaultVariant, validation.Required),
		validation.Field(&m.GlobalRoutes, validation.By(validGlobalRoutes)),
		validation.Field(&m.Translations, validation.Each(validation.By(validTranslation))),
	)
}

func validLocale(value any) error {
	s, _ := value.(string)
	if _, err := language.Parse(s); err != nil {
		return validation.NewError("site.locale_invalid", "must be a BCP 47 language tag")
	}
	return nil
}

func validGlobalRoutes(value any) error {
	routes, _ := value.(map[string]map[string]string)
	for locale, pages := range routes {
		if err := validLocale(locale); err != nil {
			return err
		}
		for page := range pages {
			switch routing.Page(page) {
			case routing.PageThankYou, routing.PagePrivacy:
			default:
				return validation.NewError("site.global_route_unknown", "unknown global page "+page)
			}
		}
	}
	return nil
}

func validTranslation(value any) error {
	t, _ := value.(Translation)
	return validation.ValidateStruct(&t,
		validation.Field(&t.Code, validation.Required, validation.By(validLocale)),
		validation.Field(&t.Source, validation.Required),
		validation.Field(&t.SourceType, validation.In("", "YAML")),
	)
}

// Path resolves a manifest-relative path against root.
func (m *SiteManifest) Path(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// RouteTable converts the configured global routes for the router. An
// empty table yields the built-in defaults.
func (m *SiteManifest) RouteTable() routing.GlobalRoutes {
	if len(m.GlobalRoutes) == 0 {
		return nil
	}
	table := make(routing.GlobalRoutes, len(m.GlobalRoutes))
	for locale, pages := range m.GlobalRoutes {
		table[locale] = make(map[routing.Page]string, len(pages))
		for page, path := range pages {
			table[locale][routing.Page(page)] = path
		}
	}
	return table
}

// Registry builds the route registry for the manifest's locale and global
// routes.
func (m *SiteManifest) Registry() *routing.Registry {
	return routing.NewRegistry(m.Locale, m.RouteTable())
}

// GenerateOptions returns the manifest generation settings for the site at
// root.
func (m *SiteManifest) GenerateOptions(root string) variants.GenerateOptions {
	return variants.GenerateOptions{
		Root:            root,
		ContentDir:      m.ContentDir,
		GeneratedDir:    m.GeneratedDir,
		DefaultKey:      variants.VariantKey(m.DefaultVariant),
		ReservedAliases: m.Registry().ReservedSegments(),
	}
}

// LoadTranslations reads the translation files listed in the manifest,
// keyed by language code.
func LoadTranslations(root string, list []Translation) (map[string]map[string]string, error) {
	translations := make(map[string]map[string]string, len(list))
	for _, t := range list {
		name := filepath.Join(root, filepath.FromSlash(t.Source))
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrapf(err, "read translations %s", name)
		}

		var entries map[string]string
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrapf(err, "parse translations %s", name)
		}
		translations[t.Code] = entries
	}
	return translations, nil
}
