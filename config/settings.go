package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Section is the settings namespace owned by streamer-mode.
const Section = "streamer-mode"

// Keys inside Section.
const (
	KeyEnabled             = "enabled"
	KeyAutoDetected        = "autoDetected"
	KeyAutoDetectEnable    = "autoDetected.enable"
	KeyIntervalActive      = "autoDetected.interval.active"
	KeyIntervalInactive    = "autoDetected.interval.inactive"
	KeyAdditionalApps      = "autoDetected.additionalApps"
	KeyDecorationPropagate = "decoration.propagate"
	KeyDecorationDialect   = "decoration.dialect"
)

// The association map belongs to the host namespace, not to Section.
const (
	AssociationsSection = "workbench"
	AssociationsKey     = "editorAssociations"
)

// Defaults.
const (
	DefaultEnabled          = true
	DefaultAutoDetect       = true
	DefaultActiveInterval   = 60
	DefaultInactiveInterval = 30
	DefaultPropagate        = true
	DefaultDialect          = "glob"
)

// MaxInterval is the longest poll interval in seconds (one day).
const MaxInterval = 24 * 60 * 60

// Settings is the typed view of Section.
type Settings struct {
	// Enabled is the persisted protection flag.
	Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"description=Whether sensitive files are hidden,default=true"`

	AutoDetected AutoDetectSettings `yaml:"autoDetected" json:"autoDetected" jsonschema:"description=Automatic toggling based on running streaming applications"`

	Decoration DecorationSettings `yaml:"decoration" json:"decoration" jsonschema:"description=File badge behavior"`
}

// AutoDetectSettings configures the streaming-app poller.
type AutoDetectSettings struct {
	Enable bool `yaml:"enable" json:"enable" jsonschema:"description=Poll for streaming applications,default=true"`

	Interval IntervalSettings `yaml:"interval" json:"interval"`

	// AdditionalApps extends the built-in list of streaming process names.
	AdditionalApps []string `yaml:"additionalApps" json:"additionalApps" jsonschema:"description=Extra process names that count as streaming applications"`
}

// IntervalSettings holds poll intervals in seconds.
type IntervalSettings struct {
	// Active is used while protection is enabled.
	Active int `yaml:"active" json:"active" jsonschema:"minimum=1,maximum=86400,default=60,description=Seconds between checks while protection is enabled"`
	// Inactive is used while protection is disabled.
	Inactive int `yaml:"inactive" json:"inactive" jsonschema:"minimum=1,maximum=86400,default=30,description=Seconds between checks while protection is disabled"`
}

// DecorationSettings configures file badges.
type DecorationSettings struct {
	Propagate bool   `yaml:"propagate" json:"propagate" jsonschema:"description=Propagate the badge to parent folders,default=true"`
	Dialect   string `yaml:"dialect" json:"dialect" jsonschema:"enum=glob,enum=legacy,default=glob,description=Pattern dialect used to match protected paths"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Enabled: DefaultEnabled,
		AutoDetected: AutoDetectSettings{
			Enable: DefaultAutoDetect,
			Interval: IntervalSettings{
				Active:   DefaultActiveInterval,
				Inactive: DefaultInactiveInterval,
			},
			AdditionalApps: []string{},
		},
		Decoration: DecorationSettings{
			Propagate: DefaultPropagate,
			Dialect:   DefaultDialect,
		},
	}
}

// LoadSettings decodes the effective Section over the defaults, one key at
// a time. A key that cannot be decoded keeps its default and is reported in
// the returned error; every other key keeps its configured value. Values that
// cannot be used (intervals outside 1..MaxInterval, unknown dialect) fall back
// to their defaults.
func LoadSettings(s Store) (Settings, error) {
	settings := DefaultSettings()

	var failed []string
	decodeKey(s, KeyEnabled, &settings.Enabled, &failed)
	decodeKey(s, KeyAutoDetectEnable, &settings.AutoDetected.Enable, &failed)
	decodeKey(s, KeyIntervalActive, &settings.AutoDetected.Interval.Active, &failed)
	decodeKey(s, KeyIntervalInactive, &settings.AutoDetected.Interval.Inactive, &failed)
	decodeKey(s, KeyAdditionalApps, &settings.AutoDetected.AdditionalApps, &failed)
	decodeKey(s, KeyDecorationPropagate, &settings.Decoration.Propagate, &failed)
	decodeKey(s, KeyDecorationDialect, &settings.Decoration.Dialect, &failed)

	settings.sanitize()
	if len(failed) > 0 {
		return settings, fmt.Errorf("failed to decode %s settings: %s", Section, strings.Join(failed, "; "))
	}
	return settings, nil
}

// decodeKey decodes the effective value of Section.key into target. target
// is only assigned when decoding succeeds.
func decodeKey[T any](s Store, key string, target *T, failed *[]string) {
	raw, ok := s.Get(Section, key)
	if !ok || raw == nil {
		return
	}
	var value T
	if err := decode(raw, &value); err != nil {
		*failed = append(*failed, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*target = value
}

func (s *Settings) sanitize() {
	if !validInterval(s.AutoDetected.Interval.Active) {
		s.AutoDetected.Interval.Active = DefaultActiveInterval
	}
	if !validInterval(s.AutoDetected.Interval.Inactive) {
		s.AutoDetected.Interval.Inactive = DefaultInactiveInterval
	}
	if s.AutoDetected.AdditionalApps == nil {
		s.AutoDetected.AdditionalApps = []string{}
	}
	switch strings.ToLower(strings.TrimSpace(s.Decoration.Dialect)) {
	case "legacy":
		s.Decoration.Dialect = "legacy"
	default:
		s.Decoration.Dialect = DefaultDialect
	}
}

func validInterval(seconds int) bool {
	return seconds > 0 && seconds <= MaxInterval
}

// UnmarshalSection decodes the effective value of section into target using
// the `yaml` struct tags. A missing section leaves target untouched.
func UnmarshalSection(s Store, section string, target interface{}) error {
	raw, ok := s.Get(section, "")
	if !ok {
		return nil
	}
	if err := decode(raw, target); err != nil {
		return fmt.Errorf("failed to decode section '%s': %w", section, err)
	}
	return nil
}

func decode(raw any, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	return decoder.Decode(raw)
}

// GetBool returns the effective boolean at section.key, or def when the key
// is unset or not a boolean.
func GetBool(s Store, section, key string, def bool) bool {
	v, ok := s.Get(section, key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// GetStringMap returns the effective string map at section.key. Entries with
// non-string values are dropped.
func GetStringMap(s Store, section, key string) map[string]string {
	v, _ := s.Get(section, key)
	return AsStringMap(v)
}

// AsStringMap converts a raw map value into map[string]string.
func AsStringMap(v any) map[string]string {
	out := make(map[string]string)
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
