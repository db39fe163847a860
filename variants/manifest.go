package variants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	perrors "github.com/pkg/errors"
)

// VariantKey identifies a content variant; it is the bundle file name
// without extension.
type VariantKey string

// DefaultVersion is the version-space name of the default variant, which is
// served unversioned.
const DefaultVersion = "v1"

const (
	KeysFileName     = "variant-keys.json"
	ManifestFileName = "variant-manifest.json"
)

var (
	ErrDefaultVariantMissing = errors.New("default variant missing")
	ErrManifestInconsistent  = errors.New("variant manifest artifacts are inconsistent")
	ErrUnknownVariant        = errors.New("unknown variant")
)

// Loader fetches the raw JSON bundle of one variant.
type Loader func(ctx context.Context) ([]byte, error)

// Manifest is the runtime view of the generated artifacts: the ordered
// variant keys, the default key and a loader per key.
type Manifest struct {
	defaultKey VariantKey
	keys       []VariantKey
	loaders    map[VariantKey]Loader
}

// NewManifest builds a manifest from loaders. Keys are ordered
// lexicographically and defaultKey must be among them.
func NewManifest(defaultKey VariantKey, loaders map[VariantKey]Loader) (*Manifest, error) {
	if _, ok := loaders[defaultKey]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefaultVariantMissing, defaultKey)
	}
	keys := make([]VariantKey, 0, len(loaders))
	copied := make(map[VariantKey]Loader, len(loaders))
	for key, loader := range loaders {
		if loader == nil {
			return nil, fmt.Errorf("variants: nil loader for %q", key)
		}
		keys = append(keys, key)
		copied[key] = loader
	}
	sortKeys(keys)
	return &Manifest{defaultKey: defaultKey, keys: keys, loaders: copied}, nil
}

// Keys returns the ordered variant keys.
func (m *Manifest) Keys() []VariantKey {
	out := make([]VariantKey, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Manifest) DefaultKey() VariantKey { return m.defaultKey }

// Has reports whether key names a variant.
func (m *Manifest) Has(key string) bool {
	_, ok := m.loaders[VariantKey(key)]
	return ok
}

func (m *Manifest) Loader(key VariantKey) (Loader, bool) {
	loader, ok := m.loaders[key]
	return loader, ok
}

// Loaders returns a copy of the key to loader mapping.
func (m *Manifest) Loaders() map[VariantKey]Loader {
	out := make(map[VariantKey]Loader, len(m.loaders))
	for key, loader := range m.loaders {
		out[key] = loader
	}
	return out
}

// ManifestFile is the on-disk form of the key to bundle mapping. Bundle paths
// are slash separated and relative to the site root.
type ManifestFile struct {
	DefaultKey VariantKey            `json:"defaultKey"`
	Variants   map[VariantKey]string `json:"variants"`
}

// Keys returns the manifest keys in order.
func (f *ManifestFile) Keys() []VariantKey {
	keys := make([]VariantKey, 0, len(f.Variants))
	for key := range f.Variants {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// LoadManifest reads both generated artifacts from generatedDir inside fsys
// and returns a manifest whose loaders read bundles from fsys.
func LoadManifest(fsys fs.FS, generatedDir string) (*Manifest, error) {
	var file ManifestFile
	if err := readJSON(fsys, path.Join(generatedDir, ManifestFileName), &file); err != nil {
		return nil, err
	}
	var keys []VariantKey
	if err := readJSON(fsys, path.Join(generatedDir, KeysFileName), &keys); err != nil {
		return nil, err
	}

	want := file.Keys()
	if len(keys) != len(want) {
		return nil, fmt.Errorf("%w: %d keys listed, %d in manifest", ErrManifestInconsistent, len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			return nil, fmt.Errorf("%w: key %d is %q, manifest has %q", ErrManifestInconsistent, i, keys[i], want[i])
		}
	}

	loaders := make(map[VariantKey]Loader, len(file.Variants))
	for key, name := range file.Variants {
		loaders[key] = FileLoader(fsys, name)
	}
	return NewManifest(file.DefaultKey, loaders)
}

// FileLoader returns a loader reading name from fsys.
func FileLoader(fsys fs.FS, name string) Loader {
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, perrors.Wrapf(err, "read variant bundle %s", name)
		}
		return data, nil
	}
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return perrors.Wrapf(err, "read %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return perrors.Wrapf(err, "decode %s", name)
	}
	return nil
}

func sortKeys(keys []VariantKey) {
	sort.Slice(keys, func(i, j int) bool {
		return strings.Compare(string(keys[i]), string(keys[j])) < 0
	})
}
