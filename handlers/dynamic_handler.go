package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/integrations"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/routing"
	"github.com/ZacxDev/hotel-site/utils"
	"github.com/ZacxDev/hotel-site/variants"
	"github.com/gorilla/mux"
)

// Site bundles everything the HTTP surface needs to serve one hotel site.
type Site struct {
	Root         string
	Manifest     *config.SiteManifest
	Resolver     *variants.Resolver
	Registry     *routing.Registry
	Translations map[string]map[string]string
	Offers       integrations.OfferSource
	Enquiries    *integrations.EnquiryService
	APIKey       string
	// Scripts maps javascript target names to their emitted public paths.
	Scripts map[string]string
	Logger  logging.Logger
	// RouteLogger receives route decisions at debug level.
	RouteLogger logging.Logger
}

func (s *Site) logger() logging.Logger { return logging.OrNoOp(s.Logger) }

func (s *Site) routeLogger() logging.Logger { return logging.OrNoOp(s.RouteLogger) }

func (s *Site) path(rel string) string { return s.Manifest.Path(s.Root, rel) }

func SetupRouter(site *Site) (*mux.Router, error) {
	if site == nil || site.Manifest == nil || site.Resolver == nil {
		return nil, fmt.Errorf("handlers: site, manifest and resolver are required")
	}
	if site.Registry == nil {
		site.Registry = routing.NewRegistry(site.Manifest.Locale, site.Manifest.RouteTable())
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(site.Custom404Handler)

	static := http.StripPrefix("/static/", http.FileServer(http.Dir(site.path(site.Manifest.StaticDir))))
	router.PathPrefix("/static/").Handler(static)

	router.HandleFunc("/sitemap.xml", site.SitemapHandler).Methods(http.MethodGet)
	router.HandleFunc("/robots.txt", site.RobotsHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/offers", site.OffersHandler).Methods(http.MethodGet)
	api.HandleFunc("/enquiry", site.EnquiryHandler).Methods(http.MethodPost)

	router.HandleFunc(EnquiryFormPath, site.EnquiryFormHandler).Methods(http.MethodPost)

	router.PathPrefix("/").HandlerFunc(site.PageHandler).Methods(http.MethodGet, http.MethodHead)
	return router, nil
}

// PageHandler resolves the request path and renders, redirects or 404s.
func (s *Site) PageHandler(w http.ResponseWriter, r *http.Request) {
	aliases, err := s.Resolver.AliasMap(r.Context())
	if err != nil {
		s.logger().Error("handlers.aliases.failed", "error", err)
		s.ServerErrorHandler(w, r, err)
		return
	}

	decision, parsed := s.Registry.Resolve(r.URL.Path, s.Resolver.Manifest(), aliases)
	switch {
	case decision == nil:
		s.routeLogger().Debug("routing.not_found", "path", r.URL.Path, "version", parsed.Version, "slug", parsed.SlugPath)
		s.Custom404Handler(w, r)
	case decision.Type == routing.DecisionRedirect:
		s.routeLogger().Debug("routing.redirect", "path", r.URL.Path, "to", decision.To)
		to := decision.To
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, to, http.StatusPermanentRedirect)
	default:
		html, err := s.renderPage(r, decision, parsed, aliases)
		if err != nil {
			s.logger().Error("handlers.render.failed", "path", r.URL.Path, "page", decision.Page, "version", decision.Version, "error", err)
			s.ServerErrorHandler(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}
}

// SitePaths lists the canonical paths of every renderable page: each
// variant's home followed by the global pages of the active locale.
func (s *Site) SitePaths(r *http.Request) ([]string, error) {
	aliases, err := s.Resolver.AliasMap(r.Context())
	if err != nil {
		return nil, err
	}
	manifest := s.Resolver.Manifest()
	var paths []string
	for _, key := range manifest.Keys() {
		paths = append(paths, s.Registry.HomePath(key, manifest, aliases))
	}
	locale := s.Registry.Locale()
	for _, page := range s.Registry.GlobalPages(locale) {
		p, _ := s.Registry.GlobalPath(locale, page)
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *Site) SitemapHandler(w http.ResponseWriter, r *http.Request) {
	paths, err := s.SitePaths(r)
	if err != nil {
		s.ServerErrorHandler(w, r, err)
		return
	}
	sitemap, err := utils.GenerateSitemapContent(s.Manifest.Origin, paths)
	if err != nil {
		s.ServerErrorHandler(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(sitemap))
}

func (s *Site) RobotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", s.Manifest.Origin)
}

func (s *Site) supportedLangs() []string {
	langs := make([]string, 0, len(s.Translations))
	for lang := range s.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
