package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/maxviazov/convention-catalog-service/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		config         *logpkg.LoggerConfig
		expectError    bool
		validateOutput func(zerolog.Logger) bool
	}{
		{
			name: "valid production environment",
			config: &logpkg.LoggerConfig{
				ServiceName:    "test-service",
				ServiceVersion: "1.0.0",
				Env:            "prod",
				Level:          "info",
				TimeField:      "timestamp",
				TimeFormat:     "unix",
				Fields:         map[string]interface{}{"key": "value"},
			},
			validateOutput: func(logger zerolog.Logger) bool {
				return zerolog.GlobalLevel() == zerolog.InfoLevel
			},
		},
		{
			name: "invalid configuration - wrong env",
			config: &logpkg.LoggerConfig{
				ServiceName: "bad-service",
				Env:         "wrong-env", // not allowed by validator
				Level:       "debug",
			},
			expectError: true,
		},
		{
			name: "invalid log level",
			config: &logpkg.LoggerConfig{
				Env:   "prod",
				Level: "invalid-level", // not allowed
			},
			expectError: true,
		},
		{
			name: "invalid time format",
			config: &logpkg.LoggerConfig{
				Env:        "prod",
				TimeFormat: "yesterday",
			},
			expectError: true,
		},
		{
			name: "valid staging environment",
			config: &logpkg.LoggerConfig{
				ServiceName: "test-service",
				Env:         "staging",
				Level:       "warn",
				Stacktrace:  true,
			},
			validateOutput: func(logger zerolog.Logger) bool {
				return zerolog.GlobalLevel() == zerolog.WarnLevel && logger.GetLevel() == zerolog.WarnLevel
			},
		},
		{
			name: "valid development environment without debug",
			config: &logpkg.LoggerConfig{
				ServiceName: "test-service",
				Env:         "dev",
				Level:       "info",
			},
			validateOutput: func(logger zerolog.Logger) bool {
				return zerolog.GlobalLevel() == zerolog.InfoLevel
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.config.Output = &bytes.Buffer{}
			l, err := logpkg.New(test.config)
			if test.expectError {
				assert.NotNil(t, err)
			} else {
				assert.NoError(t, err)
				if test.validateOutput != nil {
					assert.True(t, test.validateOutput(l))
				}
			}
		})
	}
}

func TestNew_JSONCarriesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := logpkg.New(&logpkg.LoggerConfig{
		ServiceName:    "catalog",
		ServiceVersion: "1.2.3",
		Env:            "test",
		Level:          "info",
		Format:         "json",
		Fields:         map[string]interface{}{"region": "eu"},
		Output:         &buf,
	})
	require.NoError(t, err)

	l.Info().Msg("hello")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "catalog", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "eu", entry["region"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "ts")
}

func TestNew_DebugFileInDevelopment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	l, err := logpkg.New(&logpkg.LoggerConfig{
		Env:       "dev",
		Level:     "debug",
		DebugFile: path,
		Output:    &bytes.Buffer{},
	})
	require.NoError(t, err)

	l.Debug().Msg("to file")
	data, statErr := os.ReadFile(path)
	require.NoError(t, statErr)
	assert.Contains(t, string(data), "to file")
}
