package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STREAMER_TEST_DIR", "logs")

	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"home", "~", home},
		{"under home", "~/work/app", filepath.Join(home, "work", "app")},
		{"env var", "/var/$STREAMER_TEST_DIR/x.log", "/var/logs/x.log"},
		{"relative", "app", filepath.Join(cwd, "app")},
		{"tilde in name is kept", "/tmp/~backup", "/tmp/~backup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustExpand(t *testing.T) {
	t.Setenv("HOME", "/home/streamer")
	assert.Equal(t, "/home/streamer/x.log", MustExpand("~/x.log"))
}
