package setting

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Option declares how one configuration value is sourced at load time.
// Options are consumed by LoadOptions to populate a Setting tree and are not
// retained afterward.
type Option struct {
	// Name is the dot-separated destination path ("mail.server").
	Name string

	// Env overrides the derived environment variable name. When empty, the
	// name is derived from Name via the load spec's transform.
	Env string

	// Default is used when no higher-priority source resolves. A nil Default
	// on a non-required option leaves the path unset.
	Default any

	// Required makes LoadOptions fail with ErrMissingOption when no source
	// resolves a value.
	Required bool

	// Parse coerces a string sourced from the environment. Nil keeps the raw
	// string.
	Parse func(string) (any, error)
}

// EnvTransformFunc converts a configuration path to an environment variable name.
type EnvTransformFunc func(path string) string

// LoadSpec configures how LoadOptions resolves declared options.
type LoadSpec struct {
	// EnvPrefix is prepended to derived environment variable names.
	// Example: "CONFIG_" transforms "mail.server" to "CONFIG_MAIL_SERVER".
	EnvPrefix string

	// EnvTransform customizes how paths map to environment variables.
	// If nil, uses the default transformation (dots to underscores, uppercase).
	EnvTransform EnvTransformFunc

	// Overrides are explicit values with the highest priority, keyed by
	// option name. Values are applied as-is, without Parse.
	Overrides map[string]any

	// File names an optional snapshot consulted below the environment.
	// A missing file is skipped; a malformed one is fatal.
	File string
}

// LoadOptions resolves each declared option and writes it into the tree.
// Priority order: explicit override > environment variable > file snapshot >
// declared default. A required option resolving to none of these fails with
// ErrMissingOption; the failure is fatal to the caller and never retried,
// since a misconfigured process should not proceed.
//
// The environment is read only at call time; apart from the optional file
// snapshot there is no other I/O.
func (s *Setting) LoadOptions(opts []Option, spec LoadSpec) error {
	transform := spec.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(spec.EnvPrefix)
	}

	var fileValues map[string]any
	if spec.File != "" {
		nested, err := readFileMap(spec.File)
		if err != nil {
			if !errors.Is(err, ErrConfigNotFound) {
				return err
			}
			// Snapshot is optional; fall through to remaining sources.
		} else {
			fileValues = flattenMap(nested, "")
		}
	}

	for _, opt := range opts {
		if opt.Name == "" {
			return fmt.Errorf("option declaration missing name")
		}

		value, resolved, err := resolveOption(opt, spec.Overrides, fileValues, transform)
		if err != nil {
			return err
		}
		if !resolved {
			if opt.Required {
				return fmt.Errorf("%w: %s", ErrMissingOption, opt.Name)
			}
			continue
		}

		if err := s.SetPath(opt.Name, value); err != nil {
			return fmt.Errorf("option %s: %w", opt.Name, err)
		}
	}

	return nil
}

// resolveOption walks the source priority chain for a single option.
func resolveOption(opt Option, overrides, fileValues map[string]any, transform EnvTransformFunc) (any, bool, error) {
	if v, ok := overrides[opt.Name]; ok {
		return v, true, nil
	}

	envVar := opt.Env
	if envVar == "" {
		envVar = transform(opt.Name)
	}
	if raw, exists := os.LookupEnv(envVar); exists {
		if opt.Parse == nil {
			return raw, true, nil
		}
		v, err := opt.Parse(raw)
		if err != nil {
			return nil, false, fmt.Errorf("option %s: parsing %s=%q: %w", opt.Name, envVar, raw, err)
		}
		return v, true, nil
	}

	if v, ok := fileValues[opt.Name]; ok {
		return v, true, nil
	}

	if opt.Default != nil {
		return opt.Default, true, nil
	}

	return nil, false, nil
}

// DiscoverEnv reports which declared options currently have environment
// variables set, as a map of option name to env var name. Diagnostic aid for
// startup logging and misconfiguration hunting.
func DiscoverEnv(opts []Option, spec LoadSpec) map[string]string {
	transform := spec.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(spec.EnvPrefix)
	}

	discovered := make(map[string]string)
	for _, opt := range opts {
		envVar := opt.Env
		if envVar == "" {
			envVar = transform(opt.Name)
		}
		if _, exists := os.LookupEnv(envVar); exists {
			discovered[opt.Name] = envVar
		}
	}
	return discovered
}

// defaultEnvTransform creates the default environment variable transformer.
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, ".", "_")
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}

// Parse helpers for Option.Parse.

// ParseInt parses a base-10 (or prefixed, e.g. "0x1F") integer.
func ParseInt(s string) (any, error) {
	return strconv.ParseInt(s, 0, 64)
}

// ParseFloat parses a float64.
func ParseFloat(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseBool parses "true", "1", "f", etc.
func ParseBool(s string) (any, error) {
	return strconv.ParseBool(s)
}

// ParseDuration parses a Go duration string ("90s", "1m30s").
func ParseDuration(s string) (any, error) {
	return time.ParseDuration(s)
}

// ParseStrings splits a comma-separated list, trimming whitespace.
func ParseStrings(s string) (any, error) {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
