// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Lighting  LightingConfig  `yaml:"lighting"`
	Animation AnimationConfig `yaml:"animation"`
	Assets    AssetsConfig    `yaml:"assets"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// LightingConfig holds the directional sun used to shade meshes.
type LightingConfig struct {
	Azimuth   float32    `yaml:"azimuth"`   // Degrees around +Y, 0 looks down +Z
	Elevation float32    `yaml:"elevation"` // Degrees above the horizon
	Ambient   [3]float32 `yaml:"ambient"`
}

// AnimationConfig holds skeletal import and playback settings.
type AnimationConfig struct {
	// PlaybackSpeed scales the frame delta fed to the player.
	PlaybackSpeed float32 `yaml:"playback_speed"`
	// StrictJoints rejects joint nodes missing from the skin's bone table.
	// When false they fall back to bone id 0.
	StrictJoints bool `yaml:"strict_joints"`
	// BindPoseFallback poses joints absent from a keyframe with their bind
	// transform instead of failing the frame.
	BindPoseFallback bool `yaml:"bind_pose_fallback"`
	// MaxJoints is the capacity of the skinning matrix uniform array.
	MaxJoints int `yaml:"max_joints"`
	// StartPaused starts playback in the paused state.
	StartPaused bool `yaml:"start_paused"`
}

// AssetsConfig holds scene dump locations.
type AssetsConfig struct {
	Paths []string `yaml:"paths"`
	Watch bool     `yaml:"watch"` // Reload scene dumps when they change on disk
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Lighting: LightingConfig{
			Azimuth:   35,
			Elevation: 55,
			Ambient:   [3]float32{0.3, 0.3, 0.35},
		},
		Animation: AnimationConfig{
			PlaybackSpeed:    1.0,
			StrictJoints:     true,
			BindPoseFallback: false,
			MaxJoints:        64,
			StartPaused:      false,
		},
		Assets: AssetsConfig{
			Paths: []string{"assets"},
			Watch: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
