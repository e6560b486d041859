package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/instalite/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue   string        `env:"STRING_VALUE"   default:"default"`
	IntValue      int           `env:"INT_VALUE"      default:"42"`
	Int64Value    int64         `env:"INT64_VALUE"    default:"10485760"`
	BoolValue     bool          `env:"BOOL_VALUE"     default:"true"`
	DurationValue time.Duration `env:"DURATION_VALUE" default:"5s"`
	ListValue     []string      `env:"LIST_VALUE"     default:"GET, POST"`
	NoEnvTag      string
	Nested        testNestedConfig `envPrefix:"NESTED_"`
}

type testNestedConfig struct {
	NestedString string `env:"STRING" default:"nested-default"`
}

func defaultTestConfig() testConfig {
	return testConfig{
		StringValue:   "default",
		IntValue:      42,
		Int64Value:    10485760,
		BoolValue:     true,
		DurationValue: 5 * time.Second,
		ListValue:     []string{"GET", "POST"},
		Nested:        testNestedConfig{NestedString: "nested-default"},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		envVars map[string]string
		want    func(*testConfig)
		wantErr bool
	}{
		{
			name:   "uses default values when env vars not set",
			prefix: "CFGTEST",
		},
		{
			name:   "reads environment variables",
			prefix: "CFGTEST",
			envVars: map[string]string{
				"CFGTEST_STRING_VALUE":   "env-value",
				"CFGTEST_INT_VALUE":      "123",
				"CFGTEST_BOOL_VALUE":     "false",
				"CFGTEST_DURATION_VALUE": "1m30s",
				"CFGTEST_LIST_VALUE":     "http://a.example, ,http://b.example",
				"CFGTEST_NESTED_STRING":  "env-nested",
			},
			want: func(c *testConfig) {
				c.StringValue = "env-value"
				c.IntValue = 123
				c.BoolValue = false
				c.DurationValue = 90 * time.Second
				c.ListValue = []string{"http://a.example", "http://b.example"}
				c.Nested.NestedString = "env-nested"
			},
		},
		{
			name:   "falls back to shorter namespace",
			prefix: "CFGTEST_SERVICE",
			envVars: map[string]string{
				"CFGTEST_STRING_VALUE": "less-specific",
			},
			want: func(c *testConfig) { c.StringValue = "less-specific" },
		},
		{
			name:   "prefers more specific prefix",
			prefix: "CFGTEST_SERVICE",
			envVars: map[string]string{
				"CFGTEST_STRING_VALUE":         "less-specific",
				"CFGTEST_SERVICE_STRING_VALUE": "more-specific",
			},
			want: func(c *testConfig) { c.StringValue = "more-specific" },
		},
		{
			name:   "handles empty string values",
			prefix: "CFGTEST",
			envVars: map[string]string{
				"CFGTEST_STRING_VALUE": "",
				"CFGTEST_LIST_VALUE":   "",
			},
			want: func(c *testConfig) {
				c.StringValue = ""
				c.ListValue = []string{}
			},
		},
		{
			name:    "fails on invalid int value",
			prefix:  "CFGTEST",
			envVars: map[string]string{"CFGTEST_INT_VALUE": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "fails on invalid bool value",
			prefix:  "CFGTEST",
			envVars: map[string]string{"CFGTEST_BOOL_VALUE": "not-a-bool"},
			wantErr: true,
		},
		{
			name:    "fails on invalid duration value",
			prefix:  "CFGTEST",
			envVars: map[string]string{"CFGTEST_DURATION_VALUE": "soon"},
			wantErr: true,
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig
			err := Parse(ctx, &cfg, tt.prefix)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			want := defaultTestConfig()
			if tt.want != nil {
				tt.want(&want)
			}

			assert.Equal(t, tt.prefix, cfg.Namespace())
			cfg.EnvConfig = EnvConfig{}
			assert.Equal(t, want, cfg)
		})
	}
}

func TestParseRequiredVar(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig
		Value string `env:"CFGTEST_REQUIRED_NEVER_SET"`
	}{}

	err := Parse(context.Background(), cfg, "")
	require.ErrorIs(t, err, ErrVarNotSet)
}

func TestParseUnsupportedType(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig
		Value float64 `env:"CFGTEST_FLOAT" default:"1.5"`
	}{}

	err := Parse(context.Background(), cfg, "")
	require.ErrorIs(t, err, ErrUnsupportedVarType)
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{name: "missing EnvConfig embedding", cfg: &struct {
			Value string `env:"VALUE"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

//nolint:paralleltest
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(filename, []byte("CFGTEST_DOTENV_VALUE=from-file\n"), 0o600))

	t.Setenv("CFGTEST_DOTENV_VALUE", "")
	require.NoError(t, os.Unsetenv("CFGTEST_DOTENV_VALUE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), filename))
	assert.Equal(t, "from-file", os.Getenv("CFGTEST_DOTENV_VALUE"))

	t.Setenv("CFGTEST_DOTENV_VALUE", "from-env")
	require.NoError(t, LoadDotEnv(filename))
	assert.Equal(t, "from-env", os.Getenv("CFGTEST_DOTENV_VALUE"))
}
