package scaffold

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/variants"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/pkg/errors"
)

var variantNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var (
	ErrVariantExists    = stderrors.New("variant already exists")
	ErrNoTemplate       = stderrors.New("no variant to use as template")
	ErrRemoveDefault    = stderrors.New("the default variant cannot be removed")
	ErrRemoveLast       = stderrors.New("the last remaining variant cannot be removed")
	ErrNothingToRemove  = stderrors.New("no variants selected for removal")
	ErrInvalidVariantID = stderrors.New("invalid variant name")
)

// Options configures the scaffolder. Regenerate defaults to variants.Generate
// with the embedded options.
type Options struct {
	variants.GenerateOptions
	Regenerate func() error
}

// Scaffolder adds and removes variant bundles. Every command runs inside a
// journal and is rolled back completely when any step fails.
type Scaffolder struct {
	opts   Options
	logger logging.Logger
}

func New(opts Options) *Scaffolder {
	if opts.DefaultKey == "" {
		opts.DefaultKey = variants.DefaultVersion
	}
	if opts.Regenerate == nil {
		genOpts := opts.GenerateOptions
		opts.Regenerate = func() error {
			_, err := variants.Generate(genOpts)
			return err
		}
	}
	return &Scaffolder{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

func (s *Scaffolder) contentDir() string {
	return filepath.Join(s.opts.Root, filepath.FromSlash(s.opts.ContentDir))
}

func (s *Scaffolder) variantPath(key variants.VariantKey) string {
	return filepath.Join(s.contentDir(), string(key)+".json")
}

func (s *Scaffolder) artifactPaths() []string {
	dir := filepath.Join(s.opts.Root, filepath.FromSlash(s.opts.GeneratedDir))
	return []string{
		filepath.Join(dir, variants.KeysFileName),
		filepath.Join(dir, variants.ManifestFileName),
	}
}

// ValidateName checks a new variant name.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Match(variantNamePattern).Error("must be lowercase words joined by single hyphens"),
	)
	if err != nil {
		return goerrors.Wrap(fmt.Errorf("%w %q: %v", ErrInvalidVariantID, name, err), goerrors.CategoryValidation, "variant name")
	}
	return nil
}

// Add creates a variant named name by cloning the most recently modified
// variant, without its path alias, and regenerates the manifest.
func (s *Scaffolder) Add(name string) (path string, err error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	target := s.variantPath(variants.VariantKey(name))
	if _, err := os.Stat(target); err == nil {
		return "", goerrors.Wrap(fmt.Errorf("%w: %s", ErrVariantExists, name), goerrors.CategoryValidation, "variant name")
	}

	template, err := s.latestVariant()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(template)
	if err != nil {
		return "", errors.Wrapf(err, "read template %s", template)
	}
	data, err := withoutAlias(raw)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", template)
	}

	journal := NewJournal(s.logger)
	err = s.run(journal, func() error {
		if err := journal.Create(target, data); err != nil {
			return err
		}
		return s.regenerate(journal)
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("scaffold.variant.added", "variant", name, "template", filepath.Base(template))
	return target, nil
}

// Remove deletes the named variants, or every variant except the named ones
// when except is set, and regenerates the manifest.
func (s *Scaffolder) Remove(names []string, except bool) ([]variants.VariantKey, error) {
	keys, err := variants.ScanKeys(s.contentDir())
	if err != nil {
		return nil, err
	}
	existing := make(map[variants.VariantKey]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	selected := make(map[variants.VariantKey]bool, len(names))
	for _, name := range names {
		key := variants.VariantKey(name)
		if !existing[key] {
			return nil, goerrors.Wrap(fmt.Errorf("%w: %s", variants.ErrUnknownVariant, name), goerrors.CategoryNotFound, "remove variant")
		}
		selected[key] = true
	}

	var targets []variants.VariantKey
	for _, k := range keys {
		if selected[k] != except {
			targets = append(targets, k)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	switch {
	case len(targets) == 0:
		return nil, goerrors.Wrap(ErrNothingToRemove, goerrors.CategoryValidation, "remove variant")
	case len(targets) >= len(keys):
		return nil, goerrors.Wrap(ErrRemoveLast, goerrors.CategoryValidation, "remove variant")
	}
	for _, k := range targets {
		if k == s.opts.DefaultKey {
			return nil, goerrors.Wrap(fmt.Errorf("%w: %s", ErrRemoveDefault, k), goerrors.CategoryValidation, "remove variant")
		}
	}

	journal := NewJournal(s.logger)
	err = s.run(journal, func() error {
		for _, k := range targets {
			if err := journal.Remove(s.variantPath(k)); err != nil {
				return err
			}
		}
		return s.regenerate(journal)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scaffold.variant.removed", "variants", targets)
	return targets, nil
}

func (s *Scaffolder) regenerate(journal *Journal) error {
	for _, p := range s.artifactPaths() {
		if err := journal.Track(p); err != nil {
			return err
		}
	}
	return errors.Wrap(s.opts.Regenerate(), "regenerate manifest")
}

func (s *Scaffolder) run(journal *Journal, fn func() error) error {
	if err := fn(); err != nil {
		s.logger.Warn("scaffold.rollback", "operations", journal.Len(), "error", err)
		if rbErr := journal.Rollback(); rbErr != nil {
			s.logger.Error("scaffold.rollback.incomplete", "error", rbErr)
		}
		return err
	}
	journal.Commit()
	return nil
}

func (s *Scaffolder) latestVariant() (string, error) {
	keys, err := variants.ScanKeys(s.contentDir())
	if err != nil {
		return "", err
	}
	var (
		latest  string
		latestT int64
	)
	for _, k := range keys {
		p := s.variantPath(k)
		info, err := os.Stat(p)
		if err != nil {
			return "", errors.Wrapf(err, "stat %s", p)
		}
		if t := info.ModTime().UnixNano(); latest == "" || t > latestT {
			latest, latestT = p, t
		}
	}
	if latest == "" {
		return "", goerrors.Wrap(ErrNoTemplate, goerrors.CategoryNotFound, s.contentDir())
	}
	return latest, nil
}

// withoutAlias drops routeConfig.pathAlias so the clone does not collide
// with its template.
func withoutAlias(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if rc, ok := doc["routeConfig"]; ok {
		var cfg map[string]json.RawMessage
		if err := json.Unmarshal(rc, &cfg); err != nil {
			return nil, err
		}
		delete(cfg, "pathAlias")
		if len(cfg) == 0 {
			delete(doc, "routeConfig")
		} else {
			encoded, err := json.Marshal(cfg)
			if err != nil {
				return nil, err
			}
			doc["routeConfig"] = encoded
		}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
