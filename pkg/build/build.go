// Package build produces the solver and checker binaries from one source tree.
package build

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Profile is one configure-flag set and the name its binary is copied to.
type Profile struct {
	Name  string
	Flags []string
}

// DefaultProfiles builds the solver with stats and the checker with the reference algorithm.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "solver", Flags: []string{"-DDEBUG=OFF", "-DDUMMY=OFF", "-DSTATS=ON", "-DTESTING=OFF"}},
		{Name: "checker", Flags: []string{"-DDEBUG=OFF", "-DDUMMY=ON", "-DSTATS=ON", "-DTESTING=OFF"}},
	}
}

// Builder runs configure and compile in BuildDir for every profile.
type Builder struct {
	// SourceDir is passed to the configure command, relative to BuildDir.
	SourceDir string
	BuildDir  string
	// OutputPath is where compile leaves the binary, relative to BuildDir. The default
	// ../bin/main is the bin directory next to the build directory.
	OutputPath  string
	BinariesDir string
	Configure   []string
	Compile     []string
	Profiles    []Profile

	Logger *zap.Logger
}

// New returns a Builder using cmake and make with the default profiles.
func New(sourceDir, buildDir, outputPath, binariesDir string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		SourceDir:   sourceDir,
		BuildDir:    buildDir,
		OutputPath:  outputPath,
		BinariesDir: binariesDir,
		Configure:   []string{"cmake"},
		Compile:     []string{"make"},
		Profiles:    DefaultProfiles(),
		Logger:      logger,
	}
}

// Paths returns the binary path for each profile, keyed by profile name.
func (b *Builder) Paths() map[string]string {
	paths := make(map[string]string, len(b.Profiles))
	for _, p := range b.Profiles {
		paths[p.Name] = filepath.Join(b.BinariesDir, p.Name)
	}
	return paths
}

// outputDir is the directory compile writes the binary into. It is empty when that directory
// is BuildDir itself or its parent, neither of which Clean may remove on its own account.
func (b *Builder) outputDir() string {
	if b.OutputPath == "" || b.BuildDir == "" {
		return ""
	}
	dir := filepath.Clean(filepath.Dir(filepath.Join(b.BuildDir, b.OutputPath)))
	if dir == filepath.Clean(b.BuildDir) || dir == filepath.Dir(filepath.Clean(b.BuildDir)) {
		return ""
	}
	return dir
}

// Clean removes the build, binary output and binaries directories. Failures are logged and ignored.
func (b *Builder) Clean() {
	for _, dir := range []string{b.BuildDir, b.outputDir(), b.BinariesDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			b.Logger.Debug("cleanup failed", zap.String("path", dir), zap.Error(err))
		}
	}
}

// Build produces every profile's binary in BinariesDir. Configure and compile failures are
// logged and left to surface when the binary runs; a missing output binary is an error.
func (b *Builder) Build(ctx context.Context) error {
	if err := os.MkdirAll(b.BinariesDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", b.BinariesDir)
	}
	for _, p := range b.Profiles {
		if err := b.buildProfile(ctx, p); err != nil {
			return errors.Wrapf(err, "profile %s", p.Name)
		}
	}
	return nil
}

func (b *Builder) buildProfile(ctx context.Context, p Profile) error {
	if err := os.RemoveAll(b.BuildDir); err != nil {
		b.Logger.Debug("cleanup failed", zap.String("path", b.BuildDir), zap.Error(err))
	}
	if err := os.MkdirAll(b.BuildDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", b.BuildDir)
	}
	// the output may live outside BuildDir; a stale binary from the previous profile must not be copied
	output := filepath.Join(b.BuildDir, b.OutputPath)
	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		b.Logger.Debug("cleanup failed", zap.String("path", output), zap.Error(err))
	}

	configure := append(append(append([]string{}, b.Configure...), p.Flags...), b.SourceDir)
	b.step(ctx, p.Name, "configure", configure)
	b.step(ctx, p.Name, "compile", b.Compile)

	dst := filepath.Join(b.BinariesDir, p.Name)
	if err := copyFile(output, dst); err != nil {
		return err
	}
	if err := os.Chmod(dst, 0o755); err != nil {
		return errors.Wrapf(err, "chmod %s", dst)
	}
	b.Logger.Info("binary ready", zap.String("profile", p.Name), zap.String("path", dst))
	return nil
}

func (b *Builder) step(ctx context.Context, profile, stage string, argv []string) {
	if len(argv) == 0 {
		return
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = b.BuildDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		b.Logger.Warn("build step failed",
			zap.String("profile", profile),
			zap.String("stage", stage),
			zap.Strings("argv", argv),
			zap.Error(err),
			zap.String("output", out.String()),
		)
		return
	}
	b.Logger.Debug("build step done", zap.String("profile", profile), zap.String("stage", stage))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open build output %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copy %s", src)
	}
	return errors.Wrapf(out.Close(), "close %s", dst)
}
