package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Role selects which sections a binary requires.
type Role string

const (
	RoleBot      Role = "bot"
	RoleDetector Role = "detector"
	RoleMigrate  Role = "migrate"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate(role Role) error {
	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	switch role {
	case RoleBot:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
		if err := c.Telegram.validate(); err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		if err := c.Storage.validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if err := c.Detector.validate(); err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		if err := c.Pipeline.validate(); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	case RoleDetector:
		if err := c.Storage.validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		if err := c.YOLO.validate(); err != nil {
			return fmt.Errorf("yolo: %w", err)
		}
	case RoleMigrate:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	return nil
}

func (t *TelegramConfig) validate() error {
	if t.Token == "" {
		return fmt.Errorf("token is required")
	}
	if t.AppURL == "" {
		return fmt.Errorf("app_url is required")
	}
	u, err := url.Parse(t.AppURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app_url %q is not an absolute URL", t.AppURL)
	}
	return nil
}

func (s *StorageConfig) validate() error {
	if s.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	switch s.Driver {
	case StorageDriverS3:
		if s.Endpoint == "" {
			return fmt.Errorf("endpoint is required for driver %q", s.Driver)
		}
	case StorageDriverLocal:
		if s.LocalRoot == "" {
			return fmt.Errorf("local_root is required for driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	return nil
}

func (d *DetectorConfig) validate() error {
	u, err := url.Parse(d.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url %q is not an absolute URL", d.URL)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", d.Timeout)
	}
	return nil
}

func (p *PipelineConfig) validate() error {
	if p.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", p.Workers)
	}
	if p.DownloadDir == "" {
		return fmt.Errorf("download_dir is required")
	}
	if p.ClassTable == "" {
		return fmt.Errorf("class_table is required")
	}
	if p.DedupTTL < 0 {
		return fmt.Errorf("dedup_ttl must be >= 0 (got %v)", p.DedupTTL)
	}
	return nil
}

func (y *YOLOConfig) validate() error {
	if y.Python == "" {
		return fmt.Errorf("python is required")
	}
	if y.Weights == "" {
		return fmt.Errorf("weights is required")
	}
	if y.Script == "" {
		return fmt.Errorf("script is required")
	}
	if y.ProjectDir == "" {
		return fmt.Errorf("project_dir is required")
	}
	if y.DownloadDir == "" {
		return fmt.Errorf("download_dir is required")
	}
	if y.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be > 0 (got %v)", y.RunTimeout)
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text (got %q)", l.Format)
	}
	return nil
}
