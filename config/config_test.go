package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ZacxDev/hotel-site/routing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Port", cfg.Port, "9010"},
		{"SiteDir", cfg.SiteDir, "."},
		{"LogLevel", cfg.Log.Level, "info"},
		{"LogFormat", cfg.Log.Format, "console"},
		{"Timeout", cfg.Integrations.Timeout, 10 * time.Second},
		{"MailSubject", cfg.Integrations.Mail.Subject, "Ihre Anfrage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOTEL_PORT", "8080")
	t.Setenv("HOTEL_API_KEY", "secret")
	t.Setenv("HOTEL_INTEGRATIONS_CRM_URL", "https://crm.example/api")
	t.Setenv("HOTEL_INTEGRATIONS_CRM_KEY", "crm-token")
	t.Setenv("HOTEL_INTEGRATIONS_MAIL_URL", "https://mail.example")
	t.Setenv("HOTEL_INTEGRATIONS_MAIL_KEY", "mail-token")
	t.Setenv("HOTEL_INTEGRATIONS_MAIL_FROM", "hotel@example.com")
	t.Setenv("HOTEL_INTEGRATIONS_TIMEOUT", "3s")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.APIKey != "secret" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Integrations.CRM != (Endpoint{URL: "https://crm.example/api", Key: "crm-token"}) {
		t.Fatalf("unexpected crm config %+v", cfg.Integrations.CRM)
	}
	if cfg.Integrations.Mail.From != "hotel@example.com" || cfg.Integrations.Mail.Key != "mail-token" {
		t.Fatalf("unexpected mail config %+v", cfg.Integrations.Mail)
	}
	if cfg.Integrations.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Integrations.Timeout)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port", map[string]string{"HOTEL_PORT": "not-a-port"}},
		{"log format", map[string]string{"HOTEL_LOG_FORMAT": "xml"}},
		{"endpoint without key", map[string]string{"HOTEL_INTEGRATIONS_EASYCHANNEL_URL": "https://ec.example"}},
		{"mail without sender", map[string]string{"HOTEL_INTEGRATIONS_MAIL_URL": "https://mail.example", "HOTEL_INTEGRATIONS_MAIL_KEY": "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(NewViper()); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(name, []byte("port: \"7000\"\nlog:\n  format: json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := NewViper()
	used, err := ReadFile(v, name)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if used != name {
		t.Fatalf("expected %s, got %s", name, used)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "7000" || cfg.Log.Format != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	if _, err := ReadFile(NewViper(), filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}

func writeSite(t *testing.T, manifest string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, SiteManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return root
}

func TestLoadSiteManifest(t *testing.T) {
	root := writeSite(t, `
name: Hotel Alpenblick
origin: https://www.alpenblick.example/
global_routes:
  de:
    thank-you: /danke
    privacy: /datenschutz
translations:
  - code: de
    source: translations/de.yaml
    source_type: YAML
javascript:
  main:
    source: js/main.js
    out_dir: static/js
`)
	if err := os.MkdirAll(filepath.Join(root, "translations"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "translations", "de.yaml"), []byte("book_now: Jetzt buchen\n"), 0o644); err != nil {
		t.Fatalf("write translations: %v", err)
	}

	m, err := LoadSiteManifest(root)
	if err != nil {
		t.Fatalf("LoadSiteManifest returned error: %v", err)
	}
	if m.Origin != "https://www.alpenblick.example" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", m.Origin)
	}
	if m.Locale != "de" || m.DefaultVariant != "v1" || m.ContentDir != "content/variants" {
		t.Fatalf("defaults not applied: %+v", m)
	}
	if m.Templates.Layout != "layouts/base.plush.html" {
		t.Fatalf("template defaults not applied: %+v", m.Templates)
	}

	want := routing.GlobalRoutes{"de": {routing.PageThankYou: "/danke", routing.PagePrivacy: "/datenschutz"}}
	if diff := cmp.Diff(want, m.RouteTable()); diff != "" {
		t.Fatalf("RouteTable mismatch (-want +got):\n%s", diff)
	}

	opts := m.GenerateOptions(root)
	if opts.Root != root || opts.DefaultKey != "v1" || opts.GeneratedDir != "generated" {
		t.Fatalf("unexpected generate options %+v", opts)
	}
	if diff := cmp.Diff([]string{"danke", "datenschutz"}, opts.ReservedAliases); diff != "" {
		t.Fatalf("reserved aliases mismatch (-want +got):\n%s", diff)
	}

	translations, err := LoadTranslations(root, m.Translations)
	if err != nil {
		t.Fatalf("LoadTranslations returned error: %v", err)
	}
	if translations["de"]["book_now"] != "Jetzt buchen" {
		t.Fatalf("unexpected translations %v", translations)
	}
}

func TestLoadSiteManifestRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing origin", "name: x\n"},
		{"bad origin", "origin: not a url\n"},
		{"bad locale", "origin: https://x.example\nlocale: \"??\"\n"},
		{"unknown global page", "origin: https://x.example\nglobal_routes:\n  de:\n    imprint: /impressum\n"},
		{"translation without source", "origin: https://x.example\ntranslations:\n  - code: de\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSiteManifest(writeSite(t, tt.manifest)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
