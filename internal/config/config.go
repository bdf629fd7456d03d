// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file,
// .env files and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	// When empty it is assembled from the Supabase variables.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// UploadDir is the root directory of staged documents.
	UploadDir string `json:"upload_dir"`
	// StaticDir holds the static assets served under /static.
	StaticDir string `json:"static_dir"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`
	// LogFile enables rotating file output when non-empty.
	LogFile string `json:"log_file"`

	// SessionBackend is either "memory" or "redis".
	SessionBackend string `json:"session_backend"`
	// RedisURL is the redis:// URL (or host:port) of the session store.
	RedisURL string `json:"redis_url"`
	// SessionTTL bounds how long an idle session is kept. Every request
	// carrying the session restarts it.
	SessionTTL time.Duration `json:"session_ttl"`
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `json:"cookie_secure"`

	// GCPProject is the Google Cloud project hosting Vertex AI.
	GCPProject string `json:"gcp_project"`
	// VertexRegion is the Vertex AI location.
	VertexRegion string `json:"vertex_region"`
	// VertexModel is the Gemini model name.
	VertexModel string `json:"vertex_model"`
	// FileBucket is the Cloud Storage bucket documents are registered in.
	FileBucket string `json:"file_bucket"`
	// FilePrefix is the object prefix inside FileBucket.
	FilePrefix string `json:"file_prefix"`
	// AITimeout bounds each AI call. Zero disables the timeout.
	AITimeout time.Duration `json:"ai_timeout"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.UploadDir, "uploads", "uploads", "upload root directory")
	flag.StringVar(&options.StaticDir, "static", "static", "static assets directory")
	flag.StringVar(&options.LogLevel, "log-level", "info", "log level")
	flag.StringVar(&options.LogFile, "log-file", "", "rotating log file path")
	flag.StringVar(&options.SessionBackend, "session-backend", "memory", "session store: memory or redis")
	flag.StringVar(&options.RedisURL, "redis", "localhost:6379", "redis address for sessions")
	flag.DurationVar(&options.SessionTTL, "session-ttl", 24*time.Hour, "idle session lifetime")
	flag.StringVar(&options.VertexRegion, "vertex-region", "us-central1", "Vertex AI region")
	flag.StringVar(&options.VertexModel, "vertex-model", "gemini-1.5-pro", "Gemini model name")
	flag.StringVar(&options.FilePrefix, "file-prefix", "documents", "object prefix for registered files")
	flag.DurationVar(&options.AITimeout, "ai-timeout", 0, "timeout for a single AI call (0 = none)")
}

// Parse parses the command-line flags, the optional .env file, the JSON
// config file and environment variables. It returns a pointer to the
// Options struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if err := loadFile(options, options.Config); err != nil {
		log.Fatal(err)
	}

	applyEnv(options)

	return options
}

// loadFile merges the JSON file at path into opts. A missing file is not an error.
func loadFile(opts *Options, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// applyEnv overrides opts with environment variables that are set.
func applyEnv(opts *Options) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		opts.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if opts.DatabaseDSN == "" {
		opts.DatabaseDSN = supabaseDSN()
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		opts.UploadDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		opts.LogFile = v
	}
	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		opts.SessionBackend = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		opts.RedisURL = v
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.CookieSecure = b
		}
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		opts.GCPProject = v
	}
	if v := os.Getenv("VERTEX_AI_REGION"); v != "" {
		opts.VertexRegion = v
	}
	if v := os.Getenv("VERTEX_AI_MODEL"); v != "" {
		opts.VertexModel = v
	}
	if v := os.Getenv("FILE_BUCKET"); v != "" {
		opts.FileBucket = v
	}
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			opts.AITimeout = d
		}
	}
}

// supabaseDSN builds a postgres URL from the SUPABASE_* variables.
// It returns "" when no host is configured.
func supabaseDSN() string {
	host := os.Getenv("SUPABASE_HOST")
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + os.Getenv("SUPABASE_DATABASE"),
	}
	if user := os.Getenv("SUPABASE_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("SUPABASE_PASSWORD"))
	}
	return u.String()
}
