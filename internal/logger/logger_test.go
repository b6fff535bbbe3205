package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type mockLoggingConfig struct {
	defaultLevel    string
	development     bool
	componentLevels map[string]string
}

func (m *mockLoggingConfig) GetComponentLevel(component string) string {
	if level, ok := m.componentLevels[component]; ok {
		return level
	}
	return m.defaultLevel
}

func (m *mockLoggingConfig) IsDevelopment() bool {
	return m.development
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		wantErr     bool
	}{
		{
			name:  "debug production",
			level: "debug",
		},
		{
			name:        "info development",
			level:       "info",
			development: true,
		},
		{
			name:  "warn",
			level: "warn",
		},
		{
			name:  "error",
			level: "error",
		},
		{
			name:    "invalid level",
			level:   "loud",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.development)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			require.Equal(t, tt.level, logger.GetLevel())
		})
	}
}

func TestNewComponentLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name          string
		component     string
		config        LoggingConfig
		expectedLevel string
	}{
		{
			name:      "component with specific level",
			component: "reorg-monitor",
			config: &mockLoggingConfig{
				defaultLevel: "info",
				componentLevels: map[string]string{
					"reorg-monitor": "debug",
				},
			},
			expectedLevel: "debug",
		},
		{
			name:      "component falls back to default level",
			component: "block-source",
			config: &mockLoggingConfig{
				defaultLevel:    "warn",
				componentLevels: map[string]string{},
			},
			expectedLevel: "warn",
		},
		{
			name:          "nil config uses info",
			component:     "block-archive",
			config:        nil,
			expectedLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewComponentLoggerFromConfig(tt.component, tt.config)
			require.NotNil(t, logger)
			require.Equal(t, tt.component, logger.GetComponent())
			require.Equal(t, tt.expectedLevel, logger.GetLevel())
		})
	}
}

func TestNewComponentLoggerFromConfig_InvalidLevel(t *testing.T) {
	cfg := &mockLoggingConfig{
		defaultLevel:    "silent",
		componentLevels: map[string]string{},
	}
	require.Panics(t, func() {
		_ = NewComponentLoggerFromConfig("reorg-monitor", cfg)
	})
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, err := NewLogger("warn", false)
	require.NoError(t, err)

	require.False(t, logger.atomicLevel.Enabled(zapcore.DebugLevel))
	require.False(t, logger.atomicLevel.Enabled(zapcore.InfoLevel))
	require.True(t, logger.atomicLevel.Enabled(zapcore.WarnLevel))
	require.True(t, logger.atomicLevel.Enabled(zapcore.ErrorLevel))
}

func TestLogger_WithComponent(t *testing.T) {
	logger, err := NewLogger("info", true)
	require.NoError(t, err)

	child := logger.WithComponent("block-archive")
	require.Equal(t, "block-archive", child.GetComponent())
	require.Equal(t, "info", child.GetLevel())
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	require.NotNil(t, logger)
	// Must not panic.
	logger.Info("discarded")
	logger.Debugf("discarded %d", 1)
}

func TestGetDefaultLogger(t *testing.T) {
	logger := GetDefaultLogger()
	require.NotNil(t, logger)
	require.Same(t, logger, GetDefaultLogger())
}
