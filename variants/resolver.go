package variants

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ZacxDev/hotel-site/content"
	"github.com/ZacxDev/hotel-site/logging"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// Resolver owns the manifest together with the process-wide alias map and
// the per-key cache of validated bundles.
type Resolver struct {
	manifest *Manifest
	logger   logging.Logger
	reserved []string

	aliases atomic.Pointer[AliasMap]
	bundles sync.Map // VariantKey -> *content.VariantBundle
	group   singleflight.Group
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithReservedAliases makes the alias map reject aliases that equal one of
// names, typically the first segments of the global routes.
func WithReservedAliases(names ...string) ResolverOption {
	return func(r *Resolver) {
		r.reserved = append(r.reserved, names...)
	}
}

func NewResolver(manifest *Manifest, logger logging.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		manifest: manifest,
		logger:   logging.OrNoOp(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Manifest() *Manifest { return r.manifest }

// PageContents is what the page renderer receives for a variant.
type PageContents struct {
	Key             VariantKey
	Contents        content.Contents
	SectionVariants content.SectionVariants
	Filters         *content.Filters
	// FellBack is set when the requested version was unknown and the
	// default variant was served instead.
	FellBack bool
}

// KeyForVersion maps a site version to a variant key. DefaultVersion and
// unknown versions map to the default key; ok is false for unknown versions.
func (r *Resolver) KeyForVersion(version string) (key VariantKey, ok bool) {
	if version == DefaultVersion {
		return r.manifest.DefaultKey(), true
	}
	if r.manifest.Has(version) {
		return VariantKey(version), true
	}
	return r.manifest.DefaultKey(), false
}

// VersionForKey is the inverse of KeyForVersion.
func (r *Resolver) VersionForKey(key VariantKey) string {
	if key == r.manifest.DefaultKey() {
		return DefaultVersion
	}
	return string(key)
}

// GetContents loads and validates the bundle for version. An unknown version
// silently falls back to the default variant; an invalid bundle is an error.
func (r *Resolver) GetContents(ctx context.Context, version string) (*PageContents, error) {
	key, known := r.KeyForVersion(version)
	if !known {
		r.logger.Warn("variants.version.unknown", "version", version, "fallback", key)
	}

	bundle, err := r.Bundle(ctx, key)
	if err != nil {
		return nil, err
	}
	return &PageContents{
		Key:             key,
		Contents:        bundle.Content,
		SectionVariants: bundle.SectionVariants,
		Filters:         bundle.Filters,
		FellBack:        !known,
	}, nil
}

// Bundle returns the validated bundle of key, loading it at most once per
// key at a time. Failed loads are not cached. The shared load is detached
// from the cancellation of whichever caller started it.
func (r *Resolver) Bundle(ctx context.Context, key VariantKey) (*content.VariantBundle, error) {
	if cached, ok := r.bundles.Load(key); ok {
		return cached.(*content.VariantBundle), nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(string(key), func() (any, error) {
		loader, ok := r.manifest.Loader(key)
		if !ok {
			return nil, goerrors.Wrap(ErrUnknownVariant, goerrors.CategoryNotFound, "variant "+string(key))
		}
		raw, err := loader(loadCtx)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "load variant "+string(key))
		}
		bundle, err := content.Validate(raw)
		if err != nil {
			r.logger.Error("variants.bundle.invalid", "variant", key, "error", err)
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "variant "+string(key))
		}
		r.bundles.Store(key, bundle)
		return bundle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*content.VariantBundle), nil
}
