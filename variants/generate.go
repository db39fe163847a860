package variants

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZacxDev/hotel-site/content"
	"github.com/ZacxDev/hotel-site/logging"
	perrors "github.com/pkg/errors"
)

var (
	ErrDuplicateAlias = errors.New("path alias declared by more than one variant")
	ErrReservedAlias  = errors.New("path alias collides with a site path")
	ErrVersionShadow  = errors.New("variant key collides with the default version name")
)

// GenerateOptions locates the content and generated directories. ContentDir
// and GeneratedDir are relative to Root. ReservedAliases lists path segments
// owned by fixed routes, on top of content.ReservedAliases.
type GenerateOptions struct {
	Root            string
	ContentDir      string
	GeneratedDir    string
	DefaultKey      VariantKey
	ReservedAliases []string
	Logger          logging.Logger
}

// Generate scans the content directory and rewrites the key list and the
// manifest. Nothing is written when the default variant is missing or two
// variants declare the same alias.
func Generate(opts GenerateOptions) (*ManifestFile, error) {
	logger := logging.OrNoOp(opts.Logger)
	if opts.DefaultKey == "" {
		opts.DefaultKey = DefaultVersion
	}

	contentDir := filepath.Join(opts.Root, filepath.FromSlash(opts.ContentDir))
	keys, err := ScanKeys(contentDir)
	if err != nil {
		return nil, err
	}

	file := &ManifestFile{
		DefaultKey: opts.DefaultKey,
		Variants:   make(map[VariantKey]string, len(keys)),
	}
	for _, key := range keys {
		file.Variants[key] = path.Join(filepath.ToSlash(opts.ContentDir), string(key)+".json")
	}
	if _, ok := file.Variants[opts.DefaultKey]; !ok {
		return nil, fmt.Errorf("%w: expected %s", ErrDefaultVariantMissing, filepath.Join(contentDir, string(opts.DefaultKey)+".json"))
	}

	// A file named after the default version could never be addressed: its
	// version would always resolve to the default key.
	if opts.DefaultKey != DefaultVersion {
		if _, ok := file.Variants[DefaultVersion]; ok {
			return nil, fmt.Errorf("%w: rename %s or make it the default variant", ErrVersionShadow, filepath.Join(contentDir, DefaultVersion+".json"))
		}
	}

	if err := checkAliases(contentDir, keys, opts.ReservedAliases); err != nil {
		return nil, err
	}

	keysJSON, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return nil, perrors.WithStack(err)
	}
	manifestJSON, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, perrors.WithStack(err)
	}

	generatedDir := filepath.Join(opts.Root, filepath.FromSlash(opts.GeneratedDir))
	if err := os.MkdirAll(generatedDir, os.ModePerm); err != nil {
		return nil, perrors.Wrapf(err, "create %s", generatedDir)
	}
	if err := WriteFileAtomic(filepath.Join(generatedDir, KeysFileName), append(keysJSON, '\n')); err != nil {
		return nil, err
	}
	if err := WriteFileAtomic(filepath.Join(generatedDir, ManifestFileName), append(manifestJSON, '\n')); err != nil {
		return nil, err
	}

	logger.Info("variants.generated", "count", len(keys), "default", opts.DefaultKey, "dir", generatedDir)
	return file, nil
}

// ScanKeys lists the variant keys found in dir, sorted.
func ScanKeys(dir string) ([]VariantKey, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.Wrapf(err, "scan content directory %s", dir)
	}
	keys := []VariantKey{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, VariantKey(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	sortKeys(keys)
	return keys, nil
}

type aliasProbe struct {
	RouteConfig *content.RouteConfig `json:"routeConfig"`
}

func checkAliases(dir string, keys []VariantKey, reserved []string) error {
	owners := map[string][]VariantKey{}
	for _, key := range keys {
		data, err := os.ReadFile(filepath.Join(dir, string(key)+".json"))
		if err != nil {
			return perrors.Wrapf(err, "read variant %s", key)
		}
		var probe aliasProbe
		if err := json.Unmarshal(data, &probe); err != nil {
			return perrors.Wrapf(err, "decode variant %s", key)
		}
		if probe.RouteConfig == nil || probe.RouteConfig.PathAlias == "" {
			continue
		}
		alias := probe.RouteConfig.PathAlias
		if isReserved(alias, reserved) {
			return fmt.Errorf("%w: %q (%s)", ErrReservedAlias, alias, key)
		}
		owners[alias] = append(owners[alias], key)
	}

	var conflicts []string
	for alias, keys := range owners {
		if len(keys) > 1 {
			names := make([]string, len(keys))
			for i, k := range keys {
				names[i] = string(k)
			}
			conflicts = append(conflicts, fmt.Sprintf("%q (%s)", alias, strings.Join(names, ", ")))
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return fmt.Errorf("%w: %s", ErrDuplicateAlias, strings.Join(conflicts, "; "))
	}
	return nil
}

// WriteFileAtomic replaces name with data through a temp file and rename.
func WriteFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return perrors.Wrapf(err, "create temp file for %s", name)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return perrors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return perrors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return perrors.Wrapf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return perrors.Wrapf(err, "rename %s", tmpName)
	}
	return nil
}

func isReserved(alias string, reserved []string) bool {
	if content.IsReservedAlias(alias) {
		return true
	}
	for _, r := range reserved {
		if alias == r {
			return true
		}
	}
	return false
}
