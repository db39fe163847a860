package javascript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZacxDev/hotel-site/config"
	"github.com/ZacxDev/hotel-site/logging"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// browserEngines are the minimum browsers the site bundles target.
var browserEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "100"},
	{Name: api.EngineFirefox, Version: "100"},
	{Name: api.EngineSafari, Version: "15"},
	{Name: api.EngineEdge, Version: "100"},
}

// CompileJSTarget bundles every target with esbuild and writes the output
// under root with a content hash in the file name. It returns the public
// path of each target's bundle, keyed by target name.
func CompileJSTarget(root string, targets map[string]config.JavascriptTarget, logger logging.Logger) (map[string]string, error) {
	logger = logging.OrNoOp(logger)

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	emitted := make(map[string]string, len(targets))
	for _, name := range names {
		public, err := compileTarget(root, name, targets[name], logger)
		if err != nil {
			return nil, err
		}
		emitted[name] = public
	}
	return emitted, nil
}

func compileTarget(root, name string, target config.JavascriptTarget, logger logging.Logger) (string, error) {
	outDir := filepath.Join(root, filepath.FromSlash(target.OutDir))
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return "", errors.WithStack(err)
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{filepath.Join(root, filepath.FromSlash(target.Source))},
		Bundle:            true,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Engines:           browserEngines,
		Sourcemap:         api.SourceMapExternal,
		Write:             false,
		Outdir:            outDir,
	})
	if len(result.Errors) > 0 {
		texts := make([]string, len(result.Errors))
		for i, msg := range result.Errors {
			texts[i] = msg.Text
		}
		return "", fmt.Errorf("javascript target %s: %s", name, strings.Join(texts, "; "))
	}

	// Bundles are written before maps so each map can reuse its bundle's hash.
	sort.SliceStable(result.OutputFiles, func(i, j int) bool {
		return !isSourceMap(result.OutputFiles[i].Path) && isSourceMap(result.OutputFiles[j].Path)
	})

	var public string
	hashes := map[string]string{}
	for _, out := range result.OutputFiles {
		stem, ext := splitOutputName(filepath.Base(out.Path))

		hash := strings.ReplaceAll(out.Hash, "/", "")
		data := out.Contents
		if isSourceMap(out.Path) {
			hash = hashes[stem]
			if hash == "" {
				return "", errors.Errorf("source map %s has no emitted bundle", out.Path)
			}
		} else {
			hashes[stem] = hash
		}

		hashed := fmt.Sprintf("%s_%s%s", stem, hash, ext)
		if !isSourceMap(out.Path) {
			data = append(append([]byte{}, out.Contents...), "//# sourceMappingURL="+hashed+".map"...)
			public = "/" + strings.Trim(filepath.ToSlash(target.OutDir), "/") + "/" + hashed
		}

		dest := filepath.Join(filepath.Dir(out.Path), hashed)
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return "", errors.Wrapf(err, "write %s", dest)
		}
		logger.Debug("javascript.emitted", "target", name, "file", dest)
	}
	return public, nil
}

func isSourceMap(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".map")
}

// splitOutputName splits "main.js.map" into "main" and ".js.map".
func splitOutputName(base string) (string, string) {
	i := strings.Index(base, ".")
	if i < 0 {
		return base, ""
	}
	return base[:i], base[i:]
}
