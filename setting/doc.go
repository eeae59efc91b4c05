// Package setting provides nested, dot-addressable configuration trees for Go
// applications, with option declarations resolved from explicit overrides,
// environment variables, optional file snapshots, and declared defaults.
//
// Features:
//   - Nested Setting tree addressed by dot-separated paths ("server.port")
//   - Lock/unlock mutation guard: a tree is locked once at startup and every
//     later mutation fails loudly instead of silently no-opping
//   - Declarative option loading with required-option enforcement
//   - TOML, JSON, and YAML file snapshots with format auto-detection
//   - Struct scanning via mapstructure with duration and slice decode hooks
//   - Builder pattern for one-shot construction of a locked tree
//
// Quick Start:
//
//	opts := []setting.Option{
//	    {Name: "mail.server", Default: "localhost"},
//	    {Name: "mail.port", Default: 25, Parse: setting.ParseInt},
//	    {Name: "tmpdir.dir", Required: true},
//	}
//
//	cfg, err := setting.NewBuilder().
//	    WithOptions(opts...).
//	    WithEnvPrefix("CONFIG_").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server, _ := cfg.String("mail.server")
//
// Default Resolution Order (highest to lowest):
//  1. Explicit overrides (Builder.WithOverride)
//  2. Environment variables (CONFIG_MAIL_SERVER)
//  3. File snapshot (Builder.WithFile)
//  4. Declared defaults
//
// Concurrency:
// A Setting is passive data. The lock flag is a mutation guard, not a
// mutual-exclusion primitive; callers sharing an unlocked tree across
// goroutines must synchronize externally. The intended pattern is to build and
// lock the tree during startup, after which concurrent reads are safe because
// nothing mutates.
package setting
