package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config/config.yml"

type (
	// Config -.
	Config struct {
		App     `yaml:"app"`
		Server  `yaml:"server"`
		Log     `yaml:"logger"`
		Engine  `yaml:"engine"`
		Scratch `yaml:"scratch"`
		Session `yaml:"session"`
		Archive `yaml:"archive"`
		MYSQL   `yaml:"mysql"`
		RMQ     `yaml:"rabbitmq"`
		OTEL    `yaml:"otel"`
	}

	// App -.
	App struct {
		Name    string `env-required:"true" yaml:"name"    env:"APP_NAME"`
		Version string `env-required:"true" yaml:"version" env:"APP_VERSION"`
	}

	// Server -.
	Server struct {
		Port         string        `env-required:"true" yaml:"port"          env:"HTTP_PORT"`
		MaxUploadMB  int64         `env-default:"200"   yaml:"max_upload_mb" env:"HTTP_MAX_UPLOAD_MB"`
		ReadTimeout  time.Duration `env-default:"5m"    yaml:"read_timeout"  env:"HTTP_READ_TIMEOUT"`
		WriteTimeout time.Duration `env-default:"10m"   yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	}

	// Log -.
	Log struct {
		Level string `env-required:"true" yaml:"log_level"   env:"LOG_LEVEL"`
	}

	// Engine -.
	Engine struct {
		Device         string        `env-default:"cpu"    yaml:"device"          env:"ENGINE_DEVICE"`
		Binary         string        `env-default:"python" yaml:"binary"          env:"ENGINE_BINARY"`
		Args           []string      `yaml:"args"                                 env:"ENGINE_ARGS" env-separator:" "`
		WorkDir        string        `yaml:"work_dir"                             env:"ENGINE_WORK_DIR"`
		LoadCheckArgs  []string      `yaml:"load_check_args"                      env:"ENGINE_LOAD_CHECK_ARGS" env-separator:"|"`
		Timeout        time.Duration `env-default:"0s"     yaml:"timeout"         env:"ENGINE_TIMEOUT"`
		TranscodeInput bool          `env-default:"false"  yaml:"transcode_input" env:"ENGINE_TRANSCODE_INPUT"`
		SampleRate     int           `env-default:"0"      yaml:"sample_rate"     env:"ENGINE_SAMPLE_RATE"`
	}

	// Scratch -.
	Scratch struct {
		Dir string `yaml:"dir" env:"SCRATCH_DIR"`
	}

	// Session -.
	Session struct {
		CookieName    string        `env-default:"vc_session" yaml:"cookie_name"    env:"SESSION_COOKIE_NAME"`
		TTL           time.Duration `env-default:"30m"        yaml:"ttl"            env:"SESSION_TTL"`
		SweepInterval time.Duration `env-default:"1m"         yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL"`
	}

	// Archive -.
	Archive struct {
		Backend string `env-default:"none" yaml:"backend" env:"ARCHIVE_BACKEND"`
		Bucket  string `env-default:"converted-audio" yaml:"bucket" env:"ARCHIVE_BUCKET"`
		S3      `yaml:"s3"`
		NATS    `yaml:"nats"`
	}

	// S3 -.
	S3 struct {
		Endpoint  string `yaml:"endpoint"   env:"S3_ENDPOINT"`
		Region    string `env-default:"us-east-1" yaml:"region" env:"S3_REGION"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	}

	// NATS -.
	NATS struct {
		URL string `env-default:"nats://127.0.0.1:4222" yaml:"url" env:"NATS_URL"`
	}

	// MYSQL -.
	MYSQL struct {
		Host     string `yaml:"host"     env:"MYSQL_HOST"`
		Port     string `yaml:"port"     env:"MYSQL_PORT"`
		Username string `yaml:"username" env:"MYSQL_USERNAME"`
		Password string `yaml:"password" env:"MYSQL_PASSWORD"`
		Dbname   string `yaml:"dbname"   env:"MYSQL_DBNAME"`
	}

	// RMQ -.
	RMQ struct {
		Enabled  bool   `env-default:"false" yaml:"enabled" env:"RMQ_ENABLED"`
		URL      string `yaml:"url" env:"RMQ_URL"`
		Exchange string `env-default:"voice_conversion" yaml:"exchange" env:"RMQ_EXCHANGE"`
		Queue    string `env-default:"conversion_history" yaml:"queue" env:"RMQ_QUEUE"`
	}

	OTEL struct {
		Exporter       string `env-default:"none" yaml:"exporter" env:"OTEL_EXPORTER"`
		JaegerEndpoint string `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT"`
		OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	}
)

// NewConfig returns app config.
func NewConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}

	return Load(path)
}

// Load reads the yaml file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	err := cleanenv.ReadConfig(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
