package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDTO mirrors the YAML config file. The heif.cli block keeps the key
// names of the original service properties so existing files load as-is.
type fileDTO struct {
	Heif struct {
		CLI struct {
			TimeoutSec      *int    `yaml:"timeout-sec"`
			FFmpegPath      *string `yaml:"ffmpegPath"`
			FFprobePath     *string `yaml:"ffprobePath"`
			ExiftoolPath    *string `yaml:"exiftoolPath"`
			HeifConvertPath *string `yaml:"heifConvertPath"`
			GainmapMergePy  *string `yaml:"gainmapMergePy"`
			PythonPath      *string `yaml:"pythonPath"`
			TempDir         *string `yaml:"tempDir"`
		} `yaml:"cli"`
	} `yaml:"heif"`

	Output struct {
		MaxSize     *int    `yaml:"max-size"`
		Format      *string `yaml:"format"`
		JPEGQuality *int    `yaml:"jpeg-quality"`
	} `yaml:"output"`

	Log struct {
		File    *string `yaml:"file"`
		Verbose *bool   `yaml:"verbose"`
		Color   *string `yaml:"color"`
	} `yaml:"log"`
}

// LoadFile reads a YAML config file and overlays every key it sets onto cfg.
// Keys absent from the file leave cfg untouched.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}

	var dto fileDTO
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}

	applyFile(&dto, cfg)
	cfg.ConfigFile = path
	return nil
}

func applyFile(dto *fileDTO, cfg *Config) {
	cli := &dto.Heif.CLI
	setInt(&cfg.Tools.TimeoutSec, cli.TimeoutSec)
	setString(&cfg.Tools.FFmpegPath, cli.FFmpegPath)
	setString(&cfg.Tools.FFprobePath, cli.FFprobePath)
	setString(&cfg.Tools.ExiftoolPath, cli.ExiftoolPath)
	setString(&cfg.Tools.HeifConvertPath, cli.HeifConvertPath)
	setString(&cfg.Tools.GainmapMergeScript, cli.GainmapMergePy)
	setString(&cfg.Tools.PythonPath, cli.PythonPath)
	setString(&cfg.Tools.TempDir, cli.TempDir)

	setInt(&cfg.MaxSize, dto.Output.MaxSize)
	setInt(&cfg.JPEGQuality, dto.Output.JPEGQuality)
	if dto.Output.Format != nil {
		cfg.Format = OutputFormat(*dto.Output.Format)
	}

	setString(&cfg.LogFile, dto.Log.File)
	if dto.Log.Verbose != nil {
		cfg.Verbose = *dto.Log.Verbose
	}
	if dto.Log.Color != nil {
		cfg.ColorMode = ColorMode(*dto.Log.Color)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
