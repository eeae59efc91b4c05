package setting

import "fmt"

// Quick builds a locked Setting from option declarations with a single call.
// This is the recommended way to initialize configuration for most processes.
func Quick(opts []Option, envPrefix string) (*Setting, error) {
	return NewBuilder().
		WithOptions(opts...).
		WithEnvPrefix(envPrefix).
		Build()
}

// QuickFile is Quick with an additional snapshot file consulted below the
// environment.
func QuickFile(opts []Option, envPrefix, file string) (*Setting, error) {
	return NewBuilder().
		WithOptions(opts...).
		WithEnvPrefix(envPrefix).
		WithFile(file).
		Build()
}

// MustQuick is like Quick but panics on error.
func MustQuick(opts []Option, envPrefix string) *Setting {
	s, err := Quick(opts, envPrefix)
	if err != nil {
		panic(fmt.Sprintf("setting initialization failed: %v", err))
	}
	return s
}
