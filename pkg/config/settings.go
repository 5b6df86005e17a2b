package config

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. MDSTVAL_TIMEOUT=45s.
const EnvPrefix = "MDSTVAL"

// Setting keys.
const (
	KeyTimeout        = "timeout"
	KeyGroupsPath     = "groups_path"
	KeyBinariesDir    = "binaries_dir"
	KeyBuildDir       = "build_dir"
	KeyOutputPath     = "output_path"
	KeySourceDir      = "source_dir"
	KeyArtifactDir    = "artifact_dir"
	KeyExcludedGroups = "excluded_groups"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeySkipBuild      = "skip_build"
	KeySanityCheck    = "sanity_check"
	KeyMetricsEnabled = "metrics_enabled"
	KeyReportFormat   = "report_format"
	KeySeed           = "seed"
)

// Defaults.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultGroupsPath   = "stats/tests_config.json"
	DefaultBinariesDir  = "binaries"
	DefaultBuildDir     = "build"
	DefaultOutputPath   = "../bin/main"
	DefaultSourceDir    = ".."
	DefaultArtifactDir  = "artifacts"
	DefaultReportFormat = "text"
)

// Settings controls a validation run.
type Settings struct {
	Timeout        time.Duration
	GroupsPath     string
	BinariesDir    string
	BuildDir       string
	OutputPath     string
	SourceDir      string
	ArtifactDir    string
	ExcludedGroups []string
	LogLevel       string
	LogFormat      string
	SkipBuild      bool
	SanityCheck    bool
	MetricsEnabled bool
	ReportFormat   string
	Seed           int64
}

// SolverPath is where the solver binary lives after the build stage.
func (s *Settings) SolverPath() string {
	return filepath.Join(s.BinariesDir, "solver")
}

// CheckerPath is where the reference binary lives after the build stage.
func (s *Settings) CheckerPath() string {
	return filepath.Join(s.BinariesDir, "checker")
}

// IsExcluded reports whether group is left out of the accuracy report.
func (s *Settings) IsExcluded(group string) bool {
	for _, g := range s.ExcludedGroups {
		if g == group {
			return true
		}
	}
	return false
}

// NewViper returns a viper instance with defaults and MDSTVAL_* environment overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaultValues(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaultValues registers the default for every key.
func SetDefaultValues(v *viper.Viper) {
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyGroupsPath, DefaultGroupsPath)
	v.SetDefault(KeyBinariesDir, DefaultBinariesDir)
	v.SetDefault(KeyBuildDir, DefaultBuildDir)
	v.SetDefault(KeyOutputPath, DefaultOutputPath)
	v.SetDefault(KeySourceDir, DefaultSourceDir)
	v.SetDefault(KeyArtifactDir, DefaultArtifactDir)
	v.SetDefault(KeyExcludedGroups, []string{})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeySkipBuild, false)
	v.SetDefault(KeySanityCheck, false)
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyReportFormat, DefaultReportFormat)
	v.SetDefault(KeySeed, 0)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// ReadSettingsFile merges an optional settings file (any format viper understands) into v.
func ReadSettingsFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read settings %s", path)
	}
	return nil
}

// FromViper resolves and validates Settings.
func FromViper(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Timeout:        v.GetDuration(KeyTimeout),
		GroupsPath:     strings.TrimSpace(v.GetString(KeyGroupsPath)),
		BinariesDir:    strings.TrimSpace(v.GetString(KeyBinariesDir)),
		BuildDir:       strings.TrimSpace(v.GetString(KeyBuildDir)),
		OutputPath:     strings.TrimSpace(v.GetString(KeyOutputPath)),
		SourceDir:      strings.TrimSpace(v.GetString(KeySourceDir)),
		ArtifactDir:    strings.TrimSpace(v.GetString(KeyArtifactDir)),
		ExcludedGroups: stringList(v.Get(KeyExcludedGroups)),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		SkipBuild:      v.GetBool(KeySkipBuild),
		SanityCheck:    v.GetBool(KeySanityCheck),
		MetricsEnabled: v.GetBool(KeyMetricsEnabled),
		ReportFormat:   strings.ToLower(strings.TrimSpace(v.GetString(KeyReportFormat))),
		Seed:           v.GetInt64(KeySeed),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges and enumerations.
func (s *Settings) Validate() error {
	if s.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.GroupsPath == "" {
		return errors.New("groups_path cannot be empty")
	}
	if s.BinariesDir == "" {
		return errors.New("binaries_dir cannot be empty")
	}
	switch s.ReportFormat {
	case "text", "json", "yaml":
	default:
		return errors.Errorf("unsupported report_format: %s (text|json|yaml)", s.ReportFormat)
	}
	switch s.LogFormat {
	case "json", "console":
	default:
		return errors.Errorf("unsupported log_format: %s (json|console)", s.LogFormat)
	}
	return nil
}

// stringList accepts a slice or a comma separated string. Group names may contain spaces,
// so a plain string is never split on whitespace.
func stringList(raw any) []string {
	var items []string
	switch t := raw.(type) {
	case nil:
	case string:
		items = strings.Split(t, ",")
	case []string:
		items = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
