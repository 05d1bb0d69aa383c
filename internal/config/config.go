package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Video    VideoConfig    `yaml:"video"`
	Timing   TimingConfig   `yaml:"timing"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Content  ContentConfig  `yaml:"content"`
	Audio    AudioConfig    `yaml:"audio"`
	Images   ImagesConfig   `yaml:"images"`
	Align    AlignConfig    `yaml:"align"`
	Upload   UploadConfig   `yaml:"upload"`
	Server   ServerConfig   `yaml:"server"`
	Paths    PathsConfig    `yaml:"paths"`
}

type VideoConfig struct {
	FPS              int     `yaml:"fps"`
	TransitionSec    float64 `yaml:"transition_sec"`
	ForceOpeningZoom bool    `yaml:"force_opening_zoom"`
	EffectSeed       int64   `yaml:"effect_seed"` // 0 = time-seeded
}

type TimingConfig struct {
	UseAligner bool `yaml:"use_aligner"`
}

type OverlayConfig struct {
	TitleFontSize    int     `yaml:"title_font_size"`
	SubtitleFontSize int     `yaml:"subtitle_font_size"`
	Font             string  `yaml:"font"`
	PlateOpacity     float64 `yaml:"plate_opacity"`
}

type ContentConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type AudioConfig struct {
	DefaultModel string `yaml:"default_model"` // edge | openai
	DefaultVoice string `yaml:"default_voice"`
	Rate         string `yaml:"rate"`
}

type ImagesConfig struct {
	MinPixels int `yaml:"min_pixels"`
}

type AlignConfig struct {
	WhisperModel string `yaml:"whisper_model"`
	Language     string `yaml:"language"`
}

type UploadConfig struct {
	Visibility      string `yaml:"visibility"`
	CategoryID      string `yaml:"category_id"`
	DefaultLanguage string `yaml:"default_language"`
	MadeForKids     bool   `yaml:"made_for_kids"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type PathsConfig struct {
	Contents  string `yaml:"contents"`
	Video     string `yaml:"video"`
	Thumbnail string `yaml:"thumbnail"`
	Audio     string `yaml:"audio"`
	Images    string `yaml:"images"`
	Script    string `yaml:"script"`
	Cache     string `yaml:"cache"`
	Tracker   string `yaml:"tracker"`
}

// Load reads a YAML config file and applies defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with every default applied, for callers that run
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.Video.TransitionSec == 0 {
		c.Video.TransitionSec = 1.0
	}
	if c.Overlay.TitleFontSize == 0 {
		c.Overlay.TitleFontSize = 90
	}
	if c.Overlay.SubtitleFontSize == 0 {
		c.Overlay.SubtitleFontSize = 60
	}
	if c.Overlay.Font == "" {
		c.Overlay.Font = "Arial-Bold"
	}
	if c.Overlay.PlateOpacity == 0 {
		c.Overlay.PlateOpacity = 0.7
	}
	if c.Content.Model == "" {
		c.Content.Model = "gpt-4o-mini"
	}
	if c.Content.Temperature == 0 {
		c.Content.Temperature = 0.7
	}
	if c.Audio.DefaultModel == "" {
		c.Audio.DefaultModel = "edge"
	}
	if c.Audio.Rate == "" {
		c.Audio.Rate = "+25%"
	}
	if c.Images.MinPixels == 0 {
		c.Images.MinPixels = 300
	}
	if c.Align.WhisperModel == "" {
		c.Align.WhisperModel = "base"
	}
	if c.Align.Language == "" {
		c.Align.Language = "en"
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "22"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Paths.Contents == "" {
		c.Paths.Contents = "contents"
	}
	if c.Paths.Video == "" {
		c.Paths.Video = "contents/video"
	}
	if c.Paths.Thumbnail == "" {
		c.Paths.Thumbnail = "contents/thumbnail"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "contents/audio"
	}
	if c.Paths.Images == "" {
		c.Paths.Images = "contents/images"
	}
	if c.Paths.Script == "" {
		c.Paths.Script = "contents/script"
	}
	if c.Paths.Cache == "" {
		c.Paths.Cache = "contents/cache"
	}
	if c.Paths.Tracker == "" {
		c.Paths.Tracker = "contents/requests.db"
	}
}

// EnsureDirs creates every content directory the pipeline writes into.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.Paths.Contents, c.Paths.Video, c.Paths.Thumbnail,
		c.Paths.Audio, c.Paths.Images, c.Paths.Script, c.Paths.Cache,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}
