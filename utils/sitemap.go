package utils

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Sitemap struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	Urls    []Url    `xml:"url"`
}

type Url struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// now is swapped in tests.
var now = time.Now

// GenerateSitemaps writes sitemap.xml for paths into dir.
func GenerateSitemaps(dir, origin string, paths []string) error {
	xmlOutput, err := GenerateSitemapContent(origin, paths)
	if err != nil {
		return err
	}

	name := filepath.Join(dir, "sitemap.xml")
	if err := os.WriteFile(name, []byte(xmlOutput), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	return nil
}

// GenerateSitemapContent renders the sitemap document for canonical paths.
// The site root gets the highest priority.
func GenerateSitemapContent(origin string, paths []string) (string, error) {
	baseURL := strings.TrimRight(origin, "/")
	lastMod := now().Format("2006-01-02")
	sitemap := Sitemap{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		url := Url{
			Loc:        baseURL + path,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if path == "/" {
			url.Priority = "1.0"
		}
		sitemap.Urls = append(sitemap.Urls, url)
	}

	xmlOutput, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}

	return xml.Header + string(xmlOutput), nil
}
