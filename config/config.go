package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir    string `json:"log_dir"`
	UploadDir string `json:"upload_dir"`
	WorkDir   string `json:"work_dir"`
	OutputDir string `json:"output_dir"`

	// Upload limits
	MaxUploadSize int `json:"max_upload_size"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// Application version
	Version string `json:"version"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

type PipelineConfig struct {
	// Default background videos fetched when a speaker has no custom upload.
	DefaultManVideoURL   string `json:"default_man_video_url"`
	DefaultWomanVideoURL string `json:"default_woman_video_url"`

	// How long the finished podcast stays on disk before deletion.
	OutputRetention time.Duration `json:"output_retention"`

	// Pacing for speech synthesis calls, requests per second.
	SynthesisRate float64 `json:"synthesis_rate"`

	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`

	PythonPath  string `json:"python_path"`
	ScriptsPath string `json:"scripts_path"`

	ModelName      string        `json:"model_name"`
	ProcessTimeout time.Duration `json:"process_timeout"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 10*time.Minute),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:    getEnv("LOG_DIR", "./logs"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		WorkDir:   getEnv("WORK_DIR", "./work"),
		OutputDir: getEnv("OUTPUT_DIR", "./outputs"),

		MaxUploadSize: getEnvAsInt("MAX_UPLOAD_SIZE", 100*1024*1024),

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
		},

		Pipeline: PipelineConfig{
			DefaultManVideoURL:   getEnv("DEFAULT_MAN_VIDEO_URL", "https://storage.googleapis.com/podforge-assets/man_default.mp4"),
			DefaultWomanVideoURL: getEnv("DEFAULT_WOMAN_VIDEO_URL", "https://storage.googleapis.com/podforge-assets/woman_default.mp4"),
			OutputRetention:      getEnvAsDuration("OUTPUT_RETENTION", 60*time.Second),
			SynthesisRate:        getEnvAsFloat("SYNTHESIS_RATE", 1.0),
			FFmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:          getEnv("FFPROBE_PATH", "ffprobe"),
			PythonPath:           getEnv("PYTHON_PATH", "python3"),
			ScriptsPath:          getEnv("SCRIPTS_PATH", "./scripts/py"),
			ModelName:            getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
			ProcessTimeout:       getEnvAsDuration("PROCESS_TIMEOUT", 10*time.Minute),
		},

		Version: getEnv("VERSION", "1.0.0"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings and ensures the scratch directories exist.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if c.Pipeline.OutputRetention <= 0 {
		return errors.New("output retention must be greater than 0")
	}
	if c.Pipeline.SynthesisRate <= 0 {
		return errors.New("synthesis rate must be greater than 0")
	}

	for _, dir := range []string{c.LogDir, c.UploadDir, c.WorkDir, c.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid float, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
