package setting_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bissli/libb-util/setting"
)

func TestLoadOptions(t *testing.T) {
	t.Run("DefaultsApply", func(t *testing.T) {
		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
			{Name: "mail.port", Default: 25},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "localhost", server)
		port, _ := s.Int64("mail.port")
		assert.Equal(t, int64(25), port)
	})

	t.Run("EnvironmentBeatsDefault", func(t *testing.T) {
		t.Setenv("TESTOPT_MAIL_SERVER", "env-host")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "env-host", server)
	})

	t.Run("OverrideBeatsEnvironment", func(t *testing.T) {
		t.Setenv("TESTOPT_MAIL_SERVER", "env-host")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
		}, setting.LoadSpec{
			EnvPrefix: "TESTOPT_",
			Overrides: map[string]any{"mail.server": "override-host"},
		})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "override-host", server)
	})

	t.Run("RequiredMissingFails", func(t *testing.T) {
		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "tmpdir.dir", Required: true},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.Error(t, err)
		assert.ErrorIs(t, err, setting.ErrMissingOption)
		assert.Contains(t, err.Error(), "tmpdir.dir")

		// Nothing was written
		assert.False(t, s.Has("tmpdir.dir"))
	})

	t.Run("RequiredSatisfiedByEnvironment", func(t *testing.T) {
		t.Setenv("TESTOPT_TMPDIR_DIR", "/tmp/work")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "tmpdir.dir", Required: true},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.NoError(t, err)

		dir, _ := s.String("tmpdir.dir")
		assert.Equal(t, "/tmp/work", dir)
	})

	t.Run("ParseCoercion", func(t *testing.T) {
		t.Setenv("TESTOPT_MAIL_PORT", "587")
		t.Setenv("TESTOPT_MAIL_TLS", "true")
		t.Setenv("TESTOPT_MAIL_TIMEOUT", "1m30s")
		t.Setenv("TESTOPT_MAIL_HOSTS", "a.example.com, b.example.com")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.port", Parse: setting.ParseInt},
			{Name: "mail.tls", Parse: setting.ParseBool},
			{Name: "mail.timeout", Parse: setting.ParseDuration},
			{Name: "mail.hosts", Parse: setting.ParseStrings},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.NoError(t, err)

		port, _ := s.GetPath("mail.port")
		assert.Equal(t, int64(587), port)
		tls, _ := s.GetPath("mail.tls")
		assert.Equal(t, true, tls)
		timeout, _ := s.GetPath("mail.timeout")
		assert.Equal(t, 90*time.Second, timeout)
		hosts, _ := s.GetPath("mail.hosts")
		assert.Equal(t, []string{"a.example.com", "b.example.com"}, hosts)
	})

	t.Run("ParseFailureIsFatal", func(t *testing.T) {
		t.Setenv("TESTOPT_MAIL_PORT", "not-a-number")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.port", Parse: setting.ParseInt},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TESTOPT_MAIL_PORT")
	})

	t.Run("ExplicitEnvName", func(t *testing.T) {
		t.Setenv("MAILSERVER", "explicit-host")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Env: "MAILSERVER"},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_"})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "explicit-host", server)
	})

	t.Run("CustomTransform", func(t *testing.T) {
		t.Setenv("PORT", "3000")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "server.port", Parse: setting.ParseInt},
		}, setting.LoadSpec{
			EnvTransform: func(path string) string {
				return map[string]string{"server.port": "PORT"}[path]
			},
		})
		require.NoError(t, err)

		port, _ := s.Int64("server.port")
		assert.Equal(t, int64(3000), port)
	})

	t.Run("FileBelowEnvironment", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "snap.toml")
		require.NoError(t, os.WriteFile(file, []byte("[mail]\nserver = \"file-host\"\nport = 2525\n"), 0644))

		t.Setenv("TESTOPT_MAIL_SERVER", "env-host")

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
			{Name: "mail.port", Default: 25},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_", File: file})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "env-host", server, "env should beat file")
		port, _ := s.Int64("mail.port")
		assert.Equal(t, int64(2525), port, "file should beat default")
	})

	t.Run("MissingFileIsSkipped", func(t *testing.T) {
		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
		}, setting.LoadSpec{EnvPrefix: "TESTOPT_", File: filepath.Join(t.TempDir(), "absent.toml")})
		require.NoError(t, err)

		server, _ := s.String("mail.server")
		assert.Equal(t, "localhost", server)
	})

	t.Run("MalformedFileIsFatal", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(file, []byte("= not toml ="), 0644))

		s := setting.New()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
		}, setting.LoadSpec{File: file})
		assert.Error(t, err)
	})

	t.Run("LoadIntoLockedTreeFails", func(t *testing.T) {
		s := setting.New()
		s.Lock()
		err := s.LoadOptions([]setting.Option{
			{Name: "mail.server", Default: "localhost"},
		}, setting.LoadSpec{})
		assert.ErrorIs(t, err, setting.ErrLocked)
	})
}

func TestDiscoverEnv(t *testing.T) {
	t.Setenv("TESTDISC_MAIL_SERVER", "x")
	t.Setenv("TESTDISC_DEBUG", "1")

	opts := []setting.Option{
		{Name: "mail.server"},
		{Name: "mail.port"},
		{Name: "debug"},
	}

	discovered := setting.DiscoverEnv(opts, setting.LoadSpec{EnvPrefix: "TESTDISC_"})
	assert.Equal(t, map[string]string{
		"mail.server": "TESTDISC_MAIL_SERVER",
		"debug":       "TESTDISC_DEBUG",
	}, discovered)
}
