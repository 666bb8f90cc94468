package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
)

func TestValidateSettings(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		section map[string]any
		wantErr string
	}{
		{
			name:    "empty section",
			section: map[string]any{},
		},
		{
			name: "valid intervals and apps",
			section: map[string]any{
				"enabled": true,
				"autoDetected": map[string]any{
					"interval":       map[string]any{"active": 60, "inactive": int64(30)},
					"additionalApps": []any{"vMix"},
				},
			},
		},
		{
			name: "string interval",
			section: map[string]any{
				"autoDetected": map[string]any{
					"interval": map[string]any{"active": "soon"},
				},
			},
			wantErr: "/autoDetected/interval/active",
		},
		{
			name: "zero interval",
			section: map[string]any{
				"autoDetected": map[string]any{
					"interval": map[string]any{"inactive": 0},
				},
			},
			wantErr: "/autoDetected/interval/inactive",
		},
		{
			name: "interval longer than a day",
			section: map[string]any{
				"autoDetected": map[string]any{
					"interval": map[string]any{"active": int64(10000000000)},
				},
			},
			wantErr: "/autoDetected/interval/active",
		},
		{
			name:    "enabled must be boolean",
			section: map[string]any{"enabled": "yes"},
			wantErr: "/enabled",
		},
		{
			name: "unknown dialect",
			section: map[string]any{
				"decoration": map[string]any{"dialect": "regex"},
			},
			wantErr: "/decoration/dialect",
		},
		{
			name:    "unknown keys are allowed",
			section: map[string]any{"experimental": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.section)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, errors.ErrCodeConfigInvalid))
		})
	}
}

func TestValidateDefaultSettings(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.Validate(config.DefaultSettings()))
}

func TestValidateStore(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	store := config.NewMemoryStore()
	assert.NoError(t, v.ValidateStore(store))

	require.NoError(t, store.Update(context.Background(), config.Section, config.KeyIntervalActive, -1, config.ScopeWorkspace))
	assert.Error(t, v.ValidateStore(store))
}
