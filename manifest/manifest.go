// Package manifest handles volt.toml / volt.yml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Manifest represents a volt project configuration. TOML is the native
// format; a volt.yml with the same structure is accepted since Electron
// tooling configs are conventionally YAML.
type Manifest struct {
	Project  Project        `toml:"project" yaml:"project"`
	Build    BuildConfig    `toml:"build" yaml:"build"`
	Bytecode BytecodeConfig `toml:"bytecode" yaml:"bytecode"`

	// Dir is the directory containing the manifest file (set at load time).
	Dir string `toml:"-" yaml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
}

// BuildConfig locates the bundler output this tool post-processes.
type BuildConfig struct {
	OutDir   string `toml:"out-dir" yaml:"outDir"`
	Target   string `toml:"target" yaml:"target"`
	Electron string `toml:"electron" yaml:"electron"`
	Metadata string `toml:"metadata" yaml:"metadata"`
}

// BytecodeConfig configures the bytecode protection pipeline.
type BytecodeConfig struct {
	ChunkAlias              StringList `toml:"chunk-alias" yaml:"chunkAlias"`
	TransformArrowFunctions bool       `toml:"transform-arrow-functions" yaml:"transformArrowFunctions"`
	RemoveBundleJS          bool       `toml:"remove-bundle-js" yaml:"removeBundleJS"`
	Cache                   bool       `toml:"cache" yaml:"cache"`
	CacheDir                string     `toml:"cache-dir" yaml:"cacheDir"`
	Report                  string     `toml:"report" yaml:"report"`
}

// defaults returns a manifest pre-populated with default values, so that
// unmarshalling only overrides keys present in the file.
func defaults() Manifest {
	return Manifest{
		Build: BuildConfig{
			OutDir:   "out",
			Target:   "main",
			Electron: "electron",
			Metadata: "bundle.json",
		},
		Bytecode: BytecodeConfig{
			TransformArrowFunctions: true,
			RemoveBundleJS:          true,
			CacheDir:                filepath.Join(".volt", "cache"),
		},
	}
}

// Load parses a volt.toml (or volt.yml) file from the given directory.
func Load(dir string) (*Manifest, error) {
	m := defaults()

	tomlPath := filepath.Join(dir, "volt.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", tomlPath, err)
		}
		return finish(&m, dir)
	}

	yamlPath := filepath.Join(dir, "volt.yml")
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("no volt.toml or volt.yml in %s", dir)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", yamlPath, err)
	}
	return finish(&m, dir)
}

func finish(m *Manifest, dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.Dir = abs
	return m, nil
}

// FindAndLoad walks up from startDir to find a manifest file, then loads
// and returns it. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		for _, name := range []string{"volt.toml", "volt.yml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return Load(dir)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// OutDirPath returns the absolute bundler output directory.
func (m *Manifest) OutDirPath() string {
	return filepath.Join(m.Dir, m.Build.OutDir)
}

// MetadataPath returns the absolute path of the bundle metadata file.
func (m *Manifest) MetadataPath() string {
	if filepath.IsAbs(m.Build.Metadata) {
		return m.Build.Metadata
	}
	return filepath.Join(m.OutDirPath(), m.Build.Metadata)
}

// CacheDirPath returns the absolute compile cache directory.
func (m *Manifest) CacheDirPath() string {
	if filepath.IsAbs(m.Bytecode.CacheDir) {
		return m.Bytecode.CacheDir
	}
	return filepath.Join(m.Dir, m.Bytecode.CacheDir)
}
