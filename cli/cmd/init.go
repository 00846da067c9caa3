package cmd

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	settings := i.settings(ktx)

	data, err := yaml.MarshalContext(ctx, settings,
		yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	err = os.WriteFile(confPath, data, 0o600)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("settings", len(settings)),
	)

	return nil
}

// settings returns the current value of every global flag that has one,
// in declaration order.
func (i *Init) settings(ktx *kong.Context) yaml.MapSlice {
	prefixIgnore := []string{"help", profile.Tag}

	var items yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val, ok := settingValue(ktx.FlagValue(flag)); ok {
			items = append(items, yaml.MapItem{Key: flag.Name, Value: val})
		}
	}

	return items
}

// settingValue returns the configuration form of a flag value, or false if
// the flag has no meaningful value.
func settingValue(val any) (any, bool) {
	if val == nil {
		return nil, false
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil, false
		}

		return rv.String(), true

	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return nil, false
		}

	default:
	}

	return val, true
}
