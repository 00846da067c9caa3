package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/pkg"
)

// resolve returns a [kong.ConfigurationLoader] for YAML configuration
// files.
//
// Keys name flags with either hyphens or underscores. Nested mappings are
// flattened by joining keys with a hyphen, so these are equivalent:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Numbers are passed to kong as strings and sequences as comma-separated
// lists. A file that cannot be parsed is reported and otherwise ignored.
// Command-line flags override configuration values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).DecodeContext(ctx, &doc)
		if err != nil && !errors.Is(err, io.EOF) {
			log.WarnContext(ctx, "ignoring configuration",
				slog.String("error", err.Error()))

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over flattened configuration keys.
type config map[string]any

// configKey returns the canonical form of a configuration key.
func configKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", "-"))
}

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := configKey(k)
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = scalar(v)
	}
}

// scalar returns v in a form kong's mappers accept.
func scalar(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		var str pkg.TypeCast[any, string] = func(e any) string {
			return fmt.Sprint(scalar(e))
		}

		return strings.Join(slices.Collect(str.Values(v...)), ",")
	default:
		return v
	}
}

// Validate implements [kong.Resolver]. Keys that name no flag are reported
// with the closest flag name, if any, but are not an error.
func (c config) Validate(app *kong.Application) error {
	if app == nil || len(c) == 0 {
		return nil
	}

	known := map[string]struct{}{}
	collectFlags(app.Node, known)

	names := slices.Sorted(maps.Keys(known))

	for _, key := range slices.Sorted(maps.Keys(c)) {
		if _, ok := known[key]; ok {
			continue
		}

		attrs := []slog.Attr{slog.String("key", key)}
		if m := fuzzy.Find(key, names); len(m) > 0 {
			attrs = append(attrs, slog.String("suggest", m[0].Str))
		}

		log.Warn("unknown configuration key", attrs...)
	}

	return nil
}

func collectFlags(node *kong.Node, into map[string]struct{}) {
	if node == nil {
		return
	}

	for _, flag := range node.Flags {
		into[flag.Name] = struct{}{}
	}

	for _, child := range node.Children {
		collectFlags(child, into)
	}
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[configKey(flag.Name)]; ok {
		return value, nil
	}

	return nil, nil
}
