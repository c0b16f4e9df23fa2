// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/scene"
	"github.com/taigrr/orbitview/pkg/viewer"
)

// Config holds all viewer settings.
type Config struct {
	Viewer   ViewerConfig   `yaml:"viewer"`
	Camera   CameraConfig   `yaml:"camera"`
	Renderer RendererConfig `yaml:"renderer"`
	Lights   LightsConfig   `yaml:"lights"`
	Controls ControlsConfig `yaml:"controls"`
	Network  NetworkConfig  `yaml:"network"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ViewerConfig selects the model and how frames are produced.
type ViewerConfig struct {
	Model       string  `yaml:"model"`
	BasePath    string  `yaml:"base_path"` // Directory or http(s) URL holding the assets
	Format      string  `yaml:"format"`    // obj or glb
	FPS         int     `yaml:"fps"`
	Background  string  `yaml:"background"`
	Environment float64 `yaml:"environment_sigma"`
}

// CameraConfig holds the perspective camera settings.
type CameraConfig struct {
	FOV  float64 `yaml:"fov"`
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

// RendererConfig holds rasterizer settings.
type RendererConfig struct {
	Antialias  bool    `yaml:"antialias"`
	PixelRatio float64 `yaml:"pixel_ratio"` // 0 uses the terminal's
}

// LightConfig is a colored light source.
type LightConfig struct {
	Color     string  `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
}

// LightsConfig holds the scene lights.
type LightsConfig struct {
	Ambient LightConfig `yaml:"ambient"`
	Point   LightConfig `yaml:"point"`
}

// ControlsConfig holds orbit control settings.
type ControlsConfig struct {
	EnableDamping bool    `yaml:"enable_damping"`
	EnablePan     bool    `yaml:"enable_pan"`
	RotateSpeed   float64 `yaml:"rotate_speed"`
	ZoomSpeed     float64 `yaml:"zoom_speed"`
}

// NetworkConfig holds settings for remote assets.
type NetworkConfig struct {
	Timeout time.Duration `yaml:"timeout"` // 0 means no timeout
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Model:       "robin",
			BasePath:    "",
			Format:      string(loader.FormatOBJ),
			FPS:         30,
			Background:  "#bfe3dd",
			Environment: 0.04,
		},
		Camera: CameraConfig{
			FOV:  40,
			Near: 1,
			Far:  100,
		},
		Renderer: RendererConfig{
			Antialias:  true,
			PixelRatio: 0,
		},
		Lights: LightsConfig{
			Ambient: LightConfig{Color: "#cccccc", Intensity: 0.4},
			Point:   LightConfig{Color: "#ffffff", Intensity: 0.8},
		},
		Controls: ControlsConfig{
			EnableDamping: true,
			EnablePan:     false,
			RotateSpeed:   1,
			ZoomSpeed:     1,
		},
		Network: NetworkConfig{
			Timeout: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "orbitview.log",
		},
	}
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Viewer.Model == "" {
		return fmt.Errorf("viewer.model is empty")
	}
	if _, err := loader.ParseFormat(c.Viewer.Format); err != nil {
		return fmt.Errorf("viewer.format: %w", err)
	}
	if c.Viewer.FPS <= 0 {
		return fmt.Errorf("viewer.fps must be positive, got %d", c.Viewer.FPS)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera.fov must be in (0, 180), got %v", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera near/far must satisfy 0 < near < far, got %v/%v", c.Camera.Near, c.Camera.Far)
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network.timeout must not be negative")
	}
	_, err := c.Settings()
	return err
}

// Settings converts the config into viewer settings.
func (c *Config) Settings() (viewer.Settings, error) {
	s := viewer.DefaultSettings()

	colors := []struct {
		field string
		value string
		dst   *scene.Color
	}{
		{"viewer.background", c.Viewer.Background, &s.Background},
		{"lights.ambient.color", c.Lights.Ambient.Color, &s.AmbientColor},
		{"lights.point.color", c.Lights.Point.Color, &s.PointColor},
	}
	for _, col := range colors {
		parsed, err := scene.ParseColor(col.value)
		if err != nil {
			return viewer.Settings{}, fmt.Errorf("%s: %w", col.field, err)
		}
		*col.dst = parsed
	}

	s.EnvironmentSigma = c.Viewer.Environment
	s.FOV = c.Camera.FOV
	s.Near = c.Camera.Near
	s.Far = c.Camera.Far
	s.AmbientIntensity = c.Lights.Ambient.Intensity
	s.PointIntensity = c.Lights.Point.Intensity
	s.Antialias = c.Renderer.Antialias
	s.PixelRatio = c.Renderer.PixelRatio
	s.EnableDamping = c.Controls.EnableDamping
	s.EnablePan = c.Controls.EnablePan
	s.RotateSpeed = c.Controls.RotateSpeed
	s.ZoomSpeed = c.Controls.ZoomSpeed
	s.FPS = c.Viewer.FPS
	return s, nil
}
