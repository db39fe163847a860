package cmd

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZacxDev/hotel-site/handlers"
	"github.com/ZacxDev/hotel-site/javascript"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a static version of the site",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := moduleLogger(logging.RootModule)
		logger.Info("build.starting")

		site, err := loadSite()
		if err != nil {
			return err
		}
		return buildSite(site, logger)
	},
}

// buildSite exports every canonical page of site into its public directory
// together with the static files, bundled javascript, sitemap and robots.txt.
func buildSite(site *handlers.Site, logger logging.Logger) error {
	publicDir := site.Manifest.Path(site.Root, site.Manifest.PublicDir)
	if err := os.MkdirAll(publicDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "create public directory")
	}

	scripts, err := javascript.CompileJSTarget(site.Root, site.Manifest.JavascriptTargets, logger)
	if err != nil {
		return err
	}
	site.Scripts = scripts

	staticDir := site.Manifest.Path(site.Root, site.Manifest.StaticDir)
	if err := copyStatic(staticDir, filepath.Join(publicDir, "static")); err != nil {
		return errors.Wrap(err, "copy static files")
	}

	router, err := handlers.SetupRouter(site)
	if err != nil {
		return err
	}
	server := httptest.NewServer(router)
	defer server.Close()

	paths, err := site.SitePaths(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := generateStaticPage(server, publicDir, path, filepath.Join(strings.TrimPrefix(path, "/"), "index.html")); err != nil {
			return err
		}
		logger.Debug("build.page", "path", path)
	}
	if err := generateStaticPage(server, publicDir, "/robots.txt", "robots.txt"); err != nil {
		return err
	}
	if err := generateStaticPage(server, publicDir, "/__not_found__", "404.html"); err != nil {
		return err
	}

	if err := utils.GenerateSitemaps(publicDir, site.Manifest.Origin, paths); err != nil {
		return err
	}

	logger.Info("build.done", "pages", len(paths), "dir", publicDir)
	return nil
}

func generateStaticPage(server *httptest.Server, publicDir, route, out string) error {
	resp, err := http.Get(server.URL + route)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	wantStatus := http.StatusOK
	if out == "404.html" {
		wantStatus = http.StatusNotFound
	}
	if resp.StatusCode != wantStatus {
		return errors.Errorf("export %s: unexpected status %d", route, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}

	filePath := filepath.Join(publicDir, out)
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filePath, body, 0o644))
}

// copyStatic mirrors the files under src into dst. A missing src is not
// an error.
func copyStatic(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
