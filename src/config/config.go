package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".scltemplates.yaml"

// Config holds the editor settings.
type Config struct {
	LogLevel           string `yaml:"log_level"`
	LogOnLoad          bool   `yaml:"log_on_load"`
	StrictEnumCascade  bool   `yaml:"strict_enum_cascade"`
	IDMaxLength        int    `yaml:"id_max_length"`
	SuggestionDistance int    `yaml:"suggestion_distance"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		LogLevel:           "warn",
		IDMaxLength:        127,
		SuggestionDistance: 2,
	}
}

// Load reads FileName from dir. A missing file yields Default.
func Load(fs afero.Fs, dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("未知的日志级别: %s", c.LogLevel)
	}
	if c.IDMaxLength <= 0 {
		return fmt.Errorf("id_max_length 必须为正数")
	}
	if c.SuggestionDistance < 0 {
		return fmt.Errorf("suggestion_distance 不能为负数")
	}
	return nil
}

// Level returns the hclog level of LogLevel.
func (c Config) Level() hclog.Level {
	level := hclog.LevelFromString(c.LogLevel)
	if level == hclog.NoLevel {
		return hclog.Warn
	}
	return level
}
