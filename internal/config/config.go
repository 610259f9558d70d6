package config

import (
	"time"
)

// Config is the root application configuration shared by all binaries.
// Each binary validates only the sections its Role needs.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Detector DetectorConfig `yaml:"detector"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	YOLO     YOLOConfig     `yaml:"yolo"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8443"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// TelegramConfig holds Bot API settings. AppURL is the public base URL the
// webhook is registered under; the webhook path embeds the token.
type TelegramConfig struct {
	Token    string `yaml:"token"     env:"TELEGRAM_TOKEN"`
	AppURL   string `yaml:"app_url"   env:"TELEGRAM_APP_URL"`
	CertPath string `yaml:"cert_path" env:"TELEGRAM_CERT_PATH"`
	APIURL   string `yaml:"api_url"   env:"TELEGRAM_API_URL"`
	Debug    bool   `yaml:"debug"     env:"TELEGRAM_DEBUG"   env-default:"false"`
}

// Storage drivers.
const (
	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"
)

// StorageConfig holds object store settings.
type StorageConfig struct {
	Driver    string `yaml:"driver"     env:"STORAGE_DRIVER"     env-default:"s3"`
	Bucket    string `yaml:"bucket"     env:"BUCKET_NAME"`
	Endpoint  string `yaml:"endpoint"   env:"STORAGE_ENDPOINT"   env-default:"s3.amazonaws.com"`
	Region    string `yaml:"region"     env:"STORAGE_REGION"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl"    env:"STORAGE_USE_SSL"    env-default:"true"`
	LocalRoot string `yaml:"local_root" env:"STORAGE_LOCAL_ROOT" env-default:"./data/buckets"`
}

// DetectorConfig holds settings for calling the detection service.
type DetectorConfig struct {
	URL     string        `yaml:"url"     env:"YOLO_URL"     env-default:"http://yolo5-container:8081"`
	Timeout time.Duration `yaml:"timeout" env:"YOLO_TIMEOUT" env-default:"60s"`
}

// PipelineConfig holds prediction pipeline settings for the bot.
type PipelineConfig struct {
	Workers            int           `yaml:"workers"              env:"PIPELINE_WORKERS"              env-default:"8"`
	DownloadDir        string        `yaml:"download_dir"         env:"PIPELINE_DOWNLOAD_DIR"         env-default:"./photos"`
	ClassTable         string        `yaml:"class_table"          env:"PIPELINE_CLASS_TABLE"          env-default:"./data/coco128.yaml"`
	DedupTTL           time.Duration `yaml:"dedup_ttl"            env:"PIPELINE_DEDUP_TTL"            env-default:"10m"`
	SendPredictedImage bool          `yaml:"send_predicted_image" env:"PIPELINE_SEND_PREDICTED_IMAGE" env-default:"false"`
}

// YOLOConfig holds settings of the external detection command run by the
// detector worker.
type YOLOConfig struct {
	Python     string        `yaml:"python"       env:"YOLO_PYTHON"       env-default:"python"`
	Script     string        `yaml:"script"       env:"YOLO_SCRIPT"       env-default:"detect.py"`
	Weights    string        `yaml:"weights"      env:"YOLO_WEIGHTS"      env-default:"yolov5s.pt"`
	Data       string        `yaml:"data"         env:"YOLO_DATA"         env-default:"data/coco128.yaml"`
	ProjectDir string        `yaml:"project_dir"  env:"YOLO_PROJECT_DIR"  env-default:"static/data"`
	WorkDir    string        `yaml:"work_dir"     env:"YOLO_WORK_DIR"     env-default:"."`
	RunTimeout time.Duration `yaml:"run_timeout"  env:"YOLO_RUN_TIMEOUT"  env-default:"50s"`

	// DownloadDir holds source images fetched from the object store.
	DownloadDir string `yaml:"download_dir" env:"YOLO_DOWNLOAD_DIR" env-default:"./images"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
