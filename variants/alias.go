package variants

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// AliasMap maps a human readable path segment to the variant declaring it.
type AliasMap map[string]VariantKey

// Lookup returns the variant registered for alias.
func (m AliasMap) Lookup(alias string) (VariantKey, bool) {
	key, ok := m[alias]
	return key, ok
}

// AliasForVariant returns the alias whose target is key. Aliases are scanned
// in lexicographic order so the answer is stable.
func AliasForVariant(key VariantKey, m AliasMap) (string, bool) {
	aliases := make([]string, 0, len(m))
	for alias := range m {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if m[alias] == key {
			return alias, true
		}
	}
	return "", false
}

// AliasMap returns the process-wide alias map, building it on first use.
// Every bundle is loaded before the map is published. Two concurrent first
// callers may both build it; the results are equal and the first store wins.
// There is no invalidation: alias changes need a restart.
func (r *Resolver) AliasMap(ctx context.Context) (AliasMap, error) {
	if cached := r.aliases.Load(); cached != nil {
		return *cached, nil
	}

	built, err := r.buildAliasMap(ctx)
	if err != nil {
		return nil, err
	}
	r.aliases.CompareAndSwap(nil, &built)
	return *r.aliases.Load(), nil
}

func (r *Resolver) buildAliasMap(ctx context.Context) (AliasMap, error) {
	keys := r.manifest.Keys()
	aliases := make([]string, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			loader, _ := r.manifest.Loader(key)
			data, err := loader(gctx)
			if err != nil {
				return err
			}
			var probe aliasProbe
			if err := json.Unmarshal(data, &probe); err != nil {
				return fmt.Errorf("decode variant %s: %w", key, err)
			}
			if probe.RouteConfig != nil {
				aliases[i] = strings.TrimSpace(probe.RouteConfig.PathAlias)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := AliasMap{}
	for i, alias := range aliases {
		if alias == "" {
			continue
		}
		if isReserved(alias, r.reserved) {
			return nil, fmt.Errorf("%w: %q (%s)", ErrReservedAlias, alias, keys[i])
		}
		if owner, dup := m[alias]; dup {
			return nil, fmt.Errorf("%w: %q (%s, %s)", ErrDuplicateAlias, alias, owner, keys[i])
		}
		m[alias] = keys[i]
	}
	r.logger.Debug("variants.alias_map.built", "aliases", len(m))
	return m, nil
}
