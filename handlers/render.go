package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/hotel-site/routing"
	"github.com/ZacxDev/hotel-site/variants"
	"github.com/adrg/frontmatter"
	"github.com/gobuffalo/plush"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// pageMeta is the frontmatter of a global page document.
type pageMeta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

func (s *Site) baseContext(r *http.Request, locale string) *plush.Context {
	ctx := plush.NewContext()

	// Add translation helper
	ctx.Set("text", func(key string) string {
		if t, ok := s.Translations[locale][key]; ok {
			return t
		}
		return key
	})

	ctx.Set("lang", locale)
	ctx.Set("supportedLangs", s.supportedLangs())
	ctx.Set("siteName", s.Manifest.Name)
	ctx.Set("title", s.Manifest.Name)
	ctx.Set("description", "")
	ctx.Set("canonical", "")
	ctx.Set("currentPath", r.URL.Path)
	ctx.Set("script", func(name string) string {
		return s.Scripts[name]
	})

	privacy, _ := s.Registry.GlobalPath(locale, routing.PagePrivacy)
	ctx.Set("privacyPath", privacy)

	ctx.Set("enquiryPath", EnquiryFormPath)
	ctx.Set("startsWith", strings.HasPrefix)
	ctx.Set("markdown", func(s string) template.HTML {
		return template.HTML(renderMarkdown([]byte(s)))
	})

	return ctx
}

func (s *Site) renderPage(r *http.Request, decision *routing.RouteDecision, parsed routing.ParsedPath, aliases variants.AliasMap) (string, error) {
	ctx := s.baseContext(r, decision.Locale)
	canonicalPath := s.Registry.CanonicalPath(parsed, s.Resolver.Manifest(), aliases)
	ctx.Set("canonical", routing.CanonicalURL(s.Manifest.Origin, canonicalPath))
	ctx.Set("version", decision.Version)
	ctx.Set("page", string(decision.Page))

	var (
		body string
		err  error
	)
	switch decision.Page {
	case routing.PageHome:
		body, err = s.renderHome(r, ctx, decision.Version)
	default:
		body, err = s.renderGlobalPage(ctx, decision.Page, decision.Locale)
	}
	if err != nil {
		return "", err
	}

	ctx.Set("yield", template.HTML(body))
	return s.renderPlushTemplate(s.Manifest.Templates.Layout, ctx)
}

// renderHome renders the enabled sections of a variant in order. Any
// section failure fails the whole page.
func (s *Site) renderHome(r *http.Request, ctx *plush.Context, version string) (string, error) {
	pc, err := s.Resolver.GetContents(r.Context(), version)
	if err != nil {
		return "", err
	}

	ctx.Set("content", pc.Contents)
	ctx.Set("variantKey", string(pc.Key))
	ctx.Set("enquiryStatus", enquiryStatus(r.URL.Query().Get(enquiryStatusParam)))
	ctx.Set("offersEndpoint", "/api/offers?version="+url.QueryEscape(s.Resolver.VersionForKey(pc.Key)))
	if pc.Contents.Hero.Title != "" {
		ctx.Set("title", pc.Contents.Hero.Title)
	}
	ctx.Set("description", pc.Contents.Hero.Subtitle)

	var sections strings.Builder
	for _, assignment := range pc.SectionVariants.Enabled() {
		ctx.Set("section", pc.Contents.Section(assignment.Section))
		ctx.Set("sectionName", string(assignment.Section))
		ctx.Set("sectionVariant", assignment.Variant)

		source := filepath.Join(s.Manifest.Templates.SectionsDir, string(assignment.Section), assignment.Variant+".plush.html")
		html, err := s.renderPlushTemplate(source, ctx)
		if err != nil {
			return "", errors.Wrapf(err, "section %s/%s", assignment.Section, assignment.Variant)
		}
		sections.WriteString(html)
	}
	ctx.Set("sections", template.HTML(sections.String()))

	return s.renderPlushTemplate(s.Manifest.Templates.Home, ctx)
}

func (s *Site) renderGlobalPage(ctx *plush.Context, page routing.Page, locale string) (string, error) {
	source := filepath.Join(s.path(s.Manifest.PagesDir), fmt.Sprintf("%s.%s.md", page, locale))
	raw, err := os.ReadFile(source)
	if err != nil {
		return "", errors.WithStack(err)
	}

	var meta pageMeta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return "", errors.Wrapf(err, "parse frontmatter of %s", source)
	}
	if meta.Title == "" {
		meta.Title = cases.Title(language.Make(locale)).String(strings.ReplaceAll(string(page), "-", " "))
	}

	ctx.Set("title", meta.Title)
	ctx.Set("description", meta.Description)
	ctx.Set("body", template.HTML(renderMarkdown(body)))
	return s.renderPlushTemplate(s.Manifest.Templates.Page, ctx)
}

func (s *Site) renderPlushTemplate(source string, ctx *plush.Context) (string, error) {
	name := filepath.Join(s.path(s.Manifest.TemplatesDir), source)
	content, err := os.ReadFile(name)
	if err != nil {
		return "", errors.WithStack(err)
	}

	tmpl, err := plush.Parse(string(content))
	if err != nil {
		return "", errors.Wrapf(err, "parse %s", name)
	}

	html, err := tmpl.Exec(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "execute %s", name)
	}
	return html, nil
}

func renderMarkdown(md []byte) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	return string(markdown.ToHTML(md, p, nil))
}
