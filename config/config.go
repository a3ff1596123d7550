// Package config loads application settings.
//
// Load order:
//  1. .env (secrets, connection strings) via godotenv
//  2. optional YAML tunables file (CONFIG_FILE, default configs/config.yaml)
//  3. environment variables override both
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Tunables are the non-secret knobs that may live in the YAML file.
type Tunables struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Auth struct {
		LoginTTL   time.Duration `yaml:"login_ttl"`
		OAuthTTL   time.Duration `yaml:"oauth_ttl"`
		SessionTTL time.Duration `yaml:"session_ttl"`
	} `yaml:"auth"`
	Upload struct {
		Backend      string   `yaml:"backend"`
		Dir          string   `yaml:"dir"`
		MaxBytes     int64    `yaml:"max_bytes"`
		AllowedTypes []string `yaml:"allowed_types"`
	} `yaml:"upload"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

type OAuthProvider struct {
	ClientID     string
	ClientSecret string
}

func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type UploadConfig struct {
	Backend       string
	Dir           string
	MaxBytes      int64
	AllowedTypes  []string
	MinIO         MinIOConfig
	CloudinaryURL string
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

func (v VAPIDConfig) Enabled() bool {
	return v.PublicKey != "" && v.PrivateKey != ""
}

type AdminSeed struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Config is the resolved application configuration handed to every component.
type Config struct {
	Env         string
	Port        string
	PublicURL   string
	CORSOrigins []string

	MongoURI string
	MongoDB  string
	RedisURL string

	JWTSecret     string
	SessionSecret string
	LoginTTL      time.Duration
	OAuthTTL      time.Duration
	SessionTTL    time.Duration

	Google   OAuthProvider
	Facebook OAuthProvider

	Upload UploadConfig
	VAPID  VAPIDConfig
	Admin  AdminSeed

	RateLimitRPS   float64
	RateLimitBurst int
}

func (c *Config) IsDevelopment() bool {
	return c.Env != EnvProduction
}

func defaultTunables() *Tunables {
	t := &Tunables{}
	t.Server.Port = "8080"
	t.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	t.Auth.LoginTTL = 7 * 24 * time.Hour
	t.Auth.OAuthTTL = time.Hour
	t.Auth.SessionTTL = 14 * 24 * time.Hour
	t.Upload.Backend = "local"
	t.Upload.Dir = "public/uploads"
	t.Upload.MaxBytes = 1 << 20
	t.Upload.AllowedTypes = []string{"image/jpeg", "image/webp", "image/png", "image/gif"}
	t.RateLimit.RPS = 5
	t.RateLimit.Burst = 10
	return t
}

// Load reads .env, the YAML tunables and the process environment.
// It does not validate; call Validate before using the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Failed to load .env: %v", err)
	}

	t := defaultTunables()
	path := getEnv("CONFIG_FILE", "configs/config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Printf("⚙️  Loaded tunables from %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return fromEnv(t), nil
}

func fromEnv(t *Tunables) *Config {
	port := getEnv("PORT", t.Server.Port)
	cfg := &Config{
		Env:         getEnv("APP_ENV", EnvDevelopment),
		Port:        port,
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		CORSOrigins: getList("CORS_ORIGINS", t.Server.CORSOrigins),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "reviewcms"),
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LoginTTL:      getDuration("LOGIN_TOKEN_TTL", t.Auth.LoginTTL),
		OAuthTTL:      getDuration("OAUTH_TOKEN_TTL", t.Auth.OAuthTTL),
		SessionTTL:    getDuration("SESSION_TTL", t.Auth.SessionTTL),

		Google: OAuthProvider{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		Facebook: OAuthProvider{
			ClientID:     os.Getenv("FB_APP_ID"),
			ClientSecret: os.Getenv("FB_APP_SECRET"),
		},

		Upload: UploadConfig{
			Backend:      strings.ToLower(getEnv("UPLOAD_BACKEND", t.Upload.Backend)),
			Dir:          getEnv("UPLOAD_DIR", t.Upload.Dir),
			MaxBytes:     getInt64("UPLOAD_MAX_BYTES", t.Upload.MaxBytes),
			AllowedTypes: getList("UPLOAD_ALLOWED_TYPES", t.Upload.AllowedTypes),
			MinIO: MinIOConfig{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				Bucket:    getEnv("MINIO_BUCKET", "reviewcms"),
				UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			},
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		},

		VAPID: VAPIDConfig{
			PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
			Subject:    getEnv("VAPID_SUBJECT", "mailto:admin@localhost"),
		},

		Admin: AdminSeed{
			Email:     os.Getenv("ADMIN_EMAIL"),
			Password:  os.Getenv("ADMIN_PASSWORD"),
			FirstName: getEnv("ADMIN_FIRSTNAME", "Site"),
			LastName:  getEnv("ADMIN_LASTNAME", "Admin"),
		},

		RateLimitRPS:   t.RateLimit.RPS,
		RateLimitBurst: t.RateLimit.Burst,
	}
	return cfg
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	required := map[string]string{
		"MONGO_URI":      c.MongoURI,
		"JWT_SECRET":     c.JWTSecret,
		"SESSION_SECRET": c.SessionSecret,
	}
	for _, key := range []string{"MONGO_URI", "JWT_SECRET", "SESSION_SECRET"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"))
	}
	if (c.Facebook.ClientID == "") != (c.Facebook.ClientSecret == "") {
		errs = append(errs, errors.New("FB_APP_ID and FB_APP_SECRET must be set together"))
	}
	if (c.VAPID.PublicKey == "") != (c.VAPID.PrivateKey == "") {
		errs = append(errs, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together"))
	}

	switch c.Upload.Backend {
	case "local":
		if c.Upload.Dir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for the local upload backend"))
		}
	case "minio":
		m := c.Upload.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio upload backend"))
		}
	case "cloudinary":
		if c.Upload.CloudinaryURL == "" {
			errs = append(errs, errors.New("CLOUDINARY_URL is required for the cloudinary upload backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_BACKEND %q", c.Upload.Backend))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload max bytes must be positive"))
	}
	if c.LoginTTL <= 0 || c.OAuthTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("token and session TTLs must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
