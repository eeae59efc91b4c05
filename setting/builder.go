package setting

import (
	"fmt"
)

// ValidatorFunc validates a fully loaded Setting tree before it is locked.
// It should return an error if validation fails.
type ValidatorFunc func(s *Setting) error

// Builder provides a fluent interface for constructing a locked Setting tree.
// Build loads declared options, runs validators, and locks the result, so the
// owning process receives a tree that is already immutable.
type Builder struct {
	opts       []Option
	spec       LoadSpec
	validators []ValidatorFunc
}

// NewBuilder creates a new configuration builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithOptions appends option declarations.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// WithEnvPrefix sets the environment variable prefix.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.spec.EnvPrefix = prefix
	return b
}

// WithEnvTransform sets a custom environment variable transformer.
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.spec.EnvTransform = fn
	return b
}

// WithFile sets an optional snapshot file consulted below the environment.
func (b *Builder) WithFile(path string) *Builder {
	b.spec.File = path
	return b
}

// WithOverride sets an explicit value with the highest priority.
func (b *Builder) WithOverride(name string, value any) *Builder {
	if b.spec.Overrides == nil {
		b.spec.Overrides = make(map[string]any)
	}
	b.spec.Overrides[name] = value
	return b
}

// WithValidator adds a validation function that runs after loading, before
// locking. Multiple validators run in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build loads all declared options into a fresh tree, validates it, and
// returns it locked. Load failures (including ErrMissingOption) are fatal and
// returned to the caller.
func (b *Builder) Build() (*Setting, error) {
	s := New()

	if err := s.LoadOptions(b.opts, b.spec); err != nil {
		return nil, err
	}

	for _, validator := range b.validators {
		if err := validator(s); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	s.Lock()
	return s, nil
}

// MustBuild is like Build but panics on error. Intended for process startup
// where a misconfigured process should not proceed.
func (b *Builder) MustBuild() *Setting {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("setting build failed: %v", err))
	}
	return s
}
