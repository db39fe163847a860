package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/content"
	"github.com/ZacxDev/hotel-site/integrations"
	"github.com/ZacxDev/hotel-site/routing"
	"github.com/ZacxDev/hotel-site/variants"
)

var testTemplates = map[string]string{
	"templates/layouts/base.plush.html":      `<html><head><title><%= title %></title><link rel="canonical" href="<%= canonical %>"><%= for (l) in supportedLangs { %><link rel="alternate" hreflang="<%= l %>"><% } %></head><body><nav><a href="/datenschutz"<%= if (startsWith(currentPath, "/datenschutz")) { %> class="active"<% } %>>Datenschutz</a></nav><%= yield %></body></html>`,
	"templates/sections/enquiry/v1.plush.html": `<form method="post" action="<%= enquiryPath %>"><%= if (enquiryStatus != "") { %><p class="enquiry-<%= enquiryStatus %>"></p><% } %></form>`,
	"templates/home.plush.html":              `<main data-variant="<%= variantKey %>"><%= sections %></main>`,
	"templates/page.plush.html":              `<article><%= body %></article>`,
	"templates/404.plush.html":               `<p>Seite nicht gefunden</p>`,
	"templates/500.plush.html":               `<p>Interner Fehler</p>`,
	"templates/sections/hero/v1.plush.html":  `<h1 class="hero-v1"><%= section.Title %></h1>`,
	"templates/sections/hero/v2.plush.html":  `<h1 class="hero-v2"><%= section.Title %></h1>`,
	"templates/sections/about/v1.plush.html": `<div class="about"><%= markdown(section.Text) %></div>`,
	"templates/sections/faqs/v1.plush.html":  `<section class="faqs"><%= text("faq_heading") %></section>`,
	"pages/thank-you.de.md":                  "---\ntitle: Vielen Dank\n---\n# Danke für Ihre Anfrage\n",
	"pages/privacy.de.md":                    "Wir schützen Ihre Daten.\n",
}

func bundle(t *testing.T, heroTitle, alias string, sections []map[string]any, filters map[string]any) []byte {
	t.Helper()
	contents := map[string]any{}
	for _, s := range content.Sections {
		contents[string(s)] = map[string]any{"title": string(s)}
	}
	contents["hero"] = map[string]any{"title": heroTitle}
	contents["about"] = map[string]any{"title": "Über uns", "text": "Familiengeführt seit **1952**."}

	doc := map[string]any{"content": contents, "sectionVariants": sections}
	if alias != "" {
		doc["routeConfig"] = map[string]any{"pathAlias": alias}
	}
	if filters != nil {
		doc["filters"] = filters
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func loader(data []byte) variants.Loader {
	return func(context.Context) ([]byte, error) { return data, nil }
}

type siteOption func(*Site)

func newTestSite(t *testing.T, opts ...siteOption) (*Site, *mux.Router) {
	t.Helper()
	root := t.TempDir()
	for name, body := range testTemplates {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	manifest := &config.SiteManifest{
		Name:           "Hotel Alpenblick",
		Origin:         "https://alpenblick.example",
		Locale:         "de",
		DefaultVariant: "v1",
		TemplatesDir:   "templates",
		PagesDir:       "pages",
		StaticDir:      "static",
		Templates: config.Templates{
			Layout:      "layouts/base.plush.html",
			Home:        "home.plush.html",
			Page:        "page.plush.html",
			NotFound:    "404.plush.html",
			ServerError: "500.plush.html",
			SectionsDir: "sections",
		},
	}

	m, err := variants.NewManifest("v1", map[variants.VariantKey]variants.Loader{
		"v1": loader(bundle(t, "Willkommen", "", []map[string]any{{"hero": "v1"}, {"about": "v1"}, {"faqs": "v1"}, {"enquiry": "v1"}}, nil)),
		"v2": loader(bundle(t, "Frühling", "spring-summer", []map[string]any{{"faqs": false}, {"hero": "v2"}}, map[string]any{"titleContains": []string{"wellness"}})),
		"v3": loader(bundle(t, "Ohne Template", "", []map[string]any{{"hero": "v9"}}, nil)),
		"v4": loader([]byte(`{"content":{},"sectionVariants":[{"notASection":"v1"}]}`)),
	})
	if err != nil {
		t.Fatalf("NewManifest: %v", err)
	}

	site := &Site{
		Root:         root,
		Manifest:     manifest,
		Resolver:     variants.NewResolver(m, nil),
		Translations: map[string]map[string]string{"de": {"faq_heading": "Häufige Fragen"}},
	}
	for _, opt := range opts {
		opt(site)
	}
	router, err := SetupRouter(site)
	if err != nil {
		t.Fatalf("SetupRouter: %v", err)
	}
	return site, router
}

func serve(router http.Handler, method, target string, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPageHandler(t *testing.T) {
	_, router := newTestSite(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		contains   []string
		excludes   []string
		location   string
	}{
		{
			name:       "default home renders sections in order",
			path:       "/",
			wantStatus: http.StatusOK,
			contains: []string{
				`<title>Willkommen</title>`,
				`href="https://alpenblick.example/"`,
				`<main data-variant="v1"><h1 class="hero-v1">Willkommen</h1><div class="about"><p>Familiengeführt seit <strong>1952</strong>.</p>`,
				`<section class="faqs">Häufige Fragen</section>`,
				`<link rel="alternate" hreflang="de">`,
				`<form method="post" action="/anfrage"></form>`,
			},
			excludes: []string{`class="active"`},
		},
		{
			name:       "enquiry outcome is shown on the home page",
			path:       "/?enquiry=invalid",
			wantStatus: http.StatusOK,
			contains:   []string{`<p class="enquiry-invalid"></p>`},
		},
		{
			name:       "unknown enquiry outcome is ignored",
			path:       "/?enquiry=bogus",
			wantStatus: http.StatusOK,
			excludes:   []string{`class="enquiry-`},
		},
		{
			name:       "alias home",
			path:       "/spring-summer",
			wantStatus: http.StatusOK,
			contains:   []string{`class="hero-v2"`, `href="https://alpenblick.example/spring-summer"`},
			excludes:   []string{`class="faqs"`},
		},
		{
			name:       "raw key home uses alias as canonical",
			path:       "/v2",
			wantStatus: http.StatusOK,
			contains:   []string{`class="hero-v2"`, `href="https://alpenblick.example/spring-summer"`},
		},
		{
			name:       "global page",
			path:       "/danke",
			wantStatus: http.StatusOK,
			contains:   []string{`<title>Vielen Dank</title>`, `Danke für Ihre Anfrage</h1>`, `href="https://alpenblick.example/danke"`},
		},
		{
			name:       "global page title falls back to page name",
			path:       "/datenschutz",
			wantStatus: http.StatusOK,
			contains:   []string{`<title>Privacy</title>`, `Wir schützen Ihre Daten.`, `<a href="/datenschutz" class="active">`},
		},
		{
			name:       "global page under variant is not found",
			path:       "/v2/danke",
			wantStatus: http.StatusNotFound,
			contains:   []string{`Seite nicht gefunden`},
		},
		{
			name:       "unknown slug",
			path:       "/zimmer",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "trailing slash redirects",
			path:       "/spring-summer/?utm=x",
			wantStatus: http.StatusPermanentRedirect,
			location:   "/spring-summer?utm=x",
		},
		{
			name:       "explicit default prefix redirects",
			path:       "/v1",
			wantStatus: http.StatusPermanentRedirect,
			location:   "/",
		},
		{
			name:       "missing section template is a server error",
			path:       "/v3",
			wantStatus: http.StatusInternalServerError,
			contains:   []string{`Interner Fehler`},
			excludes:   []string{`Ohne Template`},
		},
		{
			name:       "invalid bundle is a server error",
			path:       "/v4",
			wantStatus: http.StatusInternalServerError,
			contains:   []string{`Interner Fehler`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, "", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			body := rec.Body.String()
			for _, want := range tt.contains {
				if !strings.Contains(body, want) {
					t.Errorf("expected body to contain %q, got %s", want, body)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(body, unwanted) {
					t.Errorf("expected body not to contain %q", unwanted)
				}
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Fatalf("expected redirect to %q, got %q", tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestSitemapAndRobots(t *testing.T) {
	site, router := newTestSite(t)

	paths, err := site.SitePaths(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("SitePaths: %v", err)
	}
	want := []string{"/", "/spring-summer", "/v3", "/v4", "/danke", "/datenschutz"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("SitePaths mismatch (-want +got):\n%s", diff)
	}

	rec := serve(router, http.MethodGet, "/sitemap.xml", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<loc>https://alpenblick.example/spring-summer</loc>") {
		t.Fatalf("unexpected sitemap %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/robots.txt", "", nil)
	if !strings.Contains(rec.Body.String(), "Sitemap: https://alpenblick.example/sitemap.xml") {
		t.Fatalf("unexpected robots.txt %s", rec.Body.String())
	}
}

func TestOffersHandler(t *testing.T) {
	offers := integrations.StaticOffers{
		{ID: "a", Title: "Wellness Tage", ValidFrom: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Title: "Skipass Special"},
	}
	_, router := newTestSite(t, func(s *Site) { s.Offers = offers })

	tests := []struct {
		query       string
		wantVersion string
		wantIDs     []string
	}{
		{query: "?version=v2", wantVersion: "v2", wantIDs: []string{"a"}},
		{query: "", wantVersion: "v1", wantIDs: []string{"a", "b"}},
		{query: "?version=unknown", wantVersion: "v1", wantIDs: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/api/offers"+tt.query, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp offersResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			var ids []string
			for _, o := range resp.Offers {
				ids = append(ids, o.ID)
			}
			if resp.Version != tt.wantVersion {
				t.Fatalf("expected version %q, got %q", tt.wantVersion, resp.Version)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Fatalf("offers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type leadSink struct{ leads []integrations.Lead }

func (l *leadSink) SubmitLead(_ context.Context, lead integrations.Lead) error {
	l.leads = append(l.leads, lead)
	return nil
}

func TestEnquiryHandler(t *testing.T) {
	sink := &leadSink{}
	_, router := newTestSite(t, func(s *Site) {
		s.APIKey = "secret"
		s.Enquiries = integrations.NewEnquiryService(sink, nil, "", nil)
	})

	valid := `{"name":"Anna Muster","email":"anna@example.com","arrival":"2025-07-01","departure":"2025-07-04","adults":2,"consent":true}`
	withKey := http.Header{APIKeyHeader: {"secret"}, "Content-Type": {"application/json"}}

	tests := []struct {
		name       string
		body       string
		header     http.Header
		wantStatus int
	}{
		{name: "missing key", body: valid, header: nil, wantStatus: http.StatusUnauthorized},
		{name: "wrong key", body: valid, header: http.Header{APIKeyHeader: {"nope"}}, wantStatus: http.StatusUnauthorized},
		{name: "malformed", body: `{"name":`, header: withKey, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"name":"x","admin":true}`, header: withKey, wantStatus: http.StatusBadRequest},
		{name: "invalid", body: `{"name":"Anna","email":"nope","arrival":"2025-07-01","departure":"2025-07-04","adults":2,"consent":true}`, header: withKey, wantStatus: http.StatusUnprocessableEntity},
		{name: "accepted", body: valid, header: withKey, wantStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/api/enquiry", tt.body, tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	if len(sink.leads) != 1 {
		t.Fatalf("expected exactly one lead, got %d", len(sink.leads))
	}
	rec := serve(router, http.MethodPost, "/api/enquiry", valid, withKey)
	var resp enquiryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Redirect != "/danke" || resp.ID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEnquiryFormHandler(t *testing.T) {
	sink := &leadSink{}
	_, router := newTestSite(t, func(s *Site) {
		s.Enquiries = integrations.NewEnquiryService(sink, nil, "", nil)
	})
	formHeader := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}

	valid := url.Values{
		"name":      {"Anna Muster"},
		"email":     {"anna@example.com"},
		"arrival":   {"2025-07-01"},
		"departure": {"2025-07-04"},
		"adults":    {"2"},
		"consent":   {"on"},
		"version":   {"v2"},
		"locale":    {"de"},
	}
	invalid := url.Values{"name": {"Anna Muster"}, "email": {"nope"}, "version": {"v2"}}

	tests := []struct {
		name     string
		form     url.Values
		location string
	}{
		{name: "accepted goes to thank-you page", form: valid, location: "/danke"},
		{name: "invalid goes back to the variant home", form: invalid, location: "/spring-summer?enquiry=invalid#anfrage"},
		{name: "invalid without version goes to the default home", form: url.Values{"name": {"x"}}, location: "/?enquiry=invalid#anfrage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, EnquiryFormPath, tt.form.Encode(), formHeader)
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Fatalf("expected redirect to %q, got %q", tt.location, got)
			}
			if strings.Contains(rec.Header().Get("Location"), "anna") {
				t.Fatalf("guest data leaked into the redirect")
			}
		})
	}

	if len(sink.leads) != 1 {
		t.Fatalf("expected exactly one lead, got %d", len(sink.leads))
	}
	lead := sink.leads[0]
	if lead.Email != "anna@example.com" || lead.Version != "v2" || lead.Adults != 2 || !lead.Consent {
		t.Fatalf("unexpected lead %+v", lead.Enquiry)
	}

	rec := serve(router, http.MethodGet, EnquiryFormPath, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected GET on the form path to be a page lookup (404), got %d", rec.Code)
	}
}

func TestEnquiryFormHandlerDisabledWithoutService(t *testing.T) {
	_, router := newTestSite(t)
	rec := serve(router, http.MethodPost, EnquiryFormPath, "name=x", http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestEnquiryHandlerDisabledWithoutKey(t *testing.T) {
	_, router := newTestSite(t)
	rec := serve(router, http.MethodPost, "/api/enquiry", `{}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSetupRouterRequiresSite(t *testing.T) {
	if _, err := SetupRouter(&Site{}); err == nil {
		t.Fatal("expected error")
	}
	site, _ := newTestSite(t)
	if site.Registry == nil || site.Registry.Locale() != "de" {
		t.Fatalf("expected registry to be derived from the manifest")
	}
	if p, _ := site.Registry.GlobalPath("de", routing.PageThankYou); p != "/danke" {
		t.Fatalf("expected default global routes, got %q", p)
	}
}
