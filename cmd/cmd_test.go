package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/logging"
)

// copySite copies the example site into a temp dir so tests never write
// build output into the repository.
func copySite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := copyStatic(filepath.Join("..", "site"), dir); err != nil {
		t.Fatalf("copy site: %v", err)
	}
	os.RemoveAll(filepath.Join(dir, "public"))
	return dir
}

func useSite(t *testing.T, dir string) {
	t.Helper()
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.SiteDir = dir
	prev := appConfig
	appConfig = cfg
	t.Cleanup(func() { appConfig = prev })
}

func TestBuildSiteExportsEveryPage(t *testing.T) {
	dir := copySite(t)
	useSite(t, dir)

	site, err := loadSite()
	if err != nil {
		t.Fatalf("loadSite: %v", err)
	}
	if err := buildSite(site, logging.NoOp()); err != nil {
		t.Fatalf("buildSite: %v", err)
	}

	public := filepath.Join(dir, "public")
	tests := []struct {
		file string
		want string
	}{
		{"index.html", "Ankommen im Hotel Alpenrose"},
		{"index.html", `<link rel="canonical" href="https://www.hotel-alpenrose.example/">`},
		{"index.html", `<link rel="alternate" hreflang="de" href="https://www.hotel-alpenrose.example/">`},
		{"index.html", `<form class="enquiry-form" method="post" action="/anfrage">`},
		{"fruehling/index.html", `<input type="hidden" name="version" value="v2">`},
		{"datenschutz/index.html", `<a href="/datenschutz" aria-current="page">`},
		{"fruehling/index.html", "Frühling in den Bergen"},
		{"fruehling/index.html", `href="https://www.hotel-alpenrose.example/fruehling"`},
		{"danke/index.html", "Danke für Ihre Anfrage"},
		{"datenschutz/index.html", "Datenschutz"},
		{"404.html", "Seite nicht gefunden"},
		{"robots.txt", "Sitemap: https://www.hotel-alpenrose.example/sitemap.xml"},
		{"sitemap.xml", "<loc>https://www.hotel-alpenrose.example/fruehling</loc>"},
		{"static/css/site.css", "font-family"},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(public, filepath.FromSlash(tt.file)))
		if err != nil {
			t.Errorf("read %s: %v", tt.file, err)
			continue
		}
		if !strings.Contains(string(data), tt.want) {
			t.Errorf("%s does not contain %q", tt.file, tt.want)
		}
	}

	if _, err := os.Stat(filepath.Join(public, "v2", "index.html")); !os.IsNotExist(err) {
		t.Errorf("aliased variant exported under its key, stat err = %v", err)
	}
	if !strings.HasPrefix(site.Scripts["main"], "/static/js/main_") {
		t.Errorf("main script path = %q", site.Scripts["main"])
	}
}

func TestVariantAddCommand(t *testing.T) {
	dir := copySite(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--site", dir, "variant", "add", "v3"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "v3.json") {
		t.Errorf("output = %q", out.String())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "generated", "variant-keys.json"))
	if err != nil {
		t.Fatalf("read keys: %v", err)
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("decode keys: %v", err)
	}
	if diff := cmp.Diff([]string{"v1", "v2", "v3"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}
