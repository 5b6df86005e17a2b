package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/rmax-ai/mdstval/pkg/config"
)

const (
	cmdRun     = "run"
	cmdReplay  = "replay"
	cmdCompose = "compose"
)

type Config struct {
	Command  string
	Settings *config.Settings
	// CasePath is the serialized test case replayed by the replay command.
	CasePath string
	// OutDir receives the corpus written by the compose command.
	OutDir string
}

// LoadConfig resolves settings for a subcommand. Precedence, lowest first: defaults, the
// --settings file, .env and MDSTVAL_* environment, then flags given on the command line.
func LoadConfig(command string, args []string) (Config, error) {
	switch command {
	case cmdRun, cmdReplay, cmdCompose:
	default:
		return Config{}, fmt.Errorf("unknown command: %s", command)
	}

	flagSet := flag.NewFlagSet("mdstval "+command, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSettings := flagSet.String("settings", "", "settings file (yaml, json or toml)")
	flagEnvFile := flagSet.String("env-file", ".env", "dotenv file with MDSTVAL_* variables")

	// values are only used when the flag is set explicitly
	bindings := map[string]string{
		"groups":        config.KeyGroupsPath,
		"timeout":       config.KeyTimeout,
		"binaries-dir":  config.KeyBinariesDir,
		"build-dir":     config.KeyBuildDir,
		"output-path":   config.KeyOutputPath,
		"source-dir":    config.KeySourceDir,
		"artifact-dir":  config.KeyArtifactDir,
		"exclude":       config.KeyExcludedGroups,
		"log-level":     config.KeyLogLevel,
		"log-format":    config.KeyLogFormat,
		"report-format": config.KeyReportFormat,
		"seed":          config.KeySeed,
	}
	flagSet.String("groups", config.DefaultGroupsPath, "group document or doublestar glob")
	flagSet.String("timeout", config.DefaultTimeout.String(), "per-process time limit")
	flagSet.String("binaries-dir", config.DefaultBinariesDir, "directory holding the solver and checker binaries")
	flagSet.String("build-dir", config.DefaultBuildDir, "cmake build directory")
	flagSet.String("output-path", config.DefaultOutputPath, "binary produced by make, relative to build-dir")
	flagSet.String("source-dir", config.DefaultSourceDir, "source tree, relative to build-dir")
	flagSet.String("artifact-dir", config.DefaultArtifactDir, "root directory for run artifacts")
	flagSet.String("exclude", "", "comma separated groups left out of the accuracy report")
	flagSet.String("log-level", "info", "debug|info|warn|error")
	flagSet.String("log-format", "console", "console|json")
	flagSet.String("report-format", config.DefaultReportFormat, "summary format: text|json|yaml")
	flagSet.String("seed", "0", "fixed seed for reproducible corpora (0 uses the clock)")

	boolBindings := map[string]string{
		"skip-build":   config.KeySkipBuild,
		"sanity-check": config.KeySanityCheck,
		"metrics":      config.KeyMetricsEnabled,
	}
	flagSet.Bool("skip-build", false, "use the binaries already in binaries-dir")
	flagSet.Bool("sanity-check", false, "verify every generated case before running it")
	flagSet.Bool("metrics", true, "write metrics.prom with the run artifacts")

	flagCase := flagSet.String("case", "", "test case file to replay")
	flagOut := flagSet.String("out", "", "directory for the composed corpus")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
		}
		return Config{}, err
	}
	if flagSet.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))
	}

	if err := config.LoadDotEnv(*flagEnvFile); err != nil {
		return Config{}, err
	}
	v := config.NewViper()
	if err := config.ReadSettingsFile(v, *flagSettings); err != nil {
		return Config{}, err
	}
	applyFlags(v, flagSet, bindings, boolBindings)

	settings, err := config.FromViper(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Command:  command,
		Settings: settings,
		CasePath: strings.TrimSpace(*flagCase),
		OutDir:   strings.TrimSpace(*flagOut),
	}
	if command == cmdReplay && cfg.CasePath == "" {
		return Config{}, errors.New("replay requires --case")
	}
	if command == cmdCompose && cfg.OutDir == "" {
		return Config{}, errors.New("compose requires --out")
	}
	return cfg, nil
}

func applyFlags(v *viper.Viper, flagSet *flag.FlagSet, bindings, boolBindings map[string]string) {
	flagSet.Visit(func(f *flag.Flag) {
		if key, ok := bindings[f.Name]; ok {
			v.Set(key, f.Value.String())
			return
		}
		if key, ok := boolBindings[f.Name]; ok {
			v.Set(key, f.Value.String() == "true")
		}
	})
}
