package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from environment
// variables (optionally via a .env file) with simple defaults.
type Config struct {
	ServerAddr string

	// BackendRoot is the fixed base directory every relative media path is
	// anchored to. It is never the process working directory, which differs
	// between local runs and deployed containers.
	BackendRoot string
	// MediaRootSetting is the raw MEDIA_ROOT value, absolute or relative to
	// BackendRoot. Use MediaRoot() for the resolved directory.
	MediaRootSetting string

	StreamChunkSize int64 // max bytes per chunk when streaming a file window
	MaxUploadBytes  int64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret         string
	JWTExpiresMinutes int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	LogLevel string
	LogPath  string

	CORSAllowOrigins string
}

const (
	defaultChunkSize      = 1 << 20  // 1MiB
	defaultMaxUploadBytes = 50 << 20 // 50MB
)

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// backendRoot determines the fixed base directory for media resolution.
// BACKEND_ROOT wins when set; otherwise the directory holding the server
// binary is used. The working directory is deliberately not consulted.
func backendRoot() string {
	if root := os.Getenv("BACKEND_ROOT"); root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			return abs
		}
		return root
	}
	exe, err := os.Executable()
	if err != nil {
		log.Printf("Could not determine executable path, falling back to /: %v", err)
		return string(filepath.Separator)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	chunkSize := getEnvInt64("STREAM_CHUNK_SIZE", defaultChunkSize)
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	return &Config{
		ServerAddr:       getEnv("SERVER_ADDR", ":8080"),
		BackendRoot:      backendRoot(),
		MediaRootSetting: getEnv("MEDIA_ROOT", "media"),
		StreamChunkSize:  chunkSize,
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // no hardcoded default for the password
		DBName:     getEnv("DB_NAME", "tunevault"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTExpiresMinutes: getEnvInt("JWT_EXPIRES_MINUTES", 4320), // 3 days

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "tunevault-covers"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
	}
}

// MediaRoot returns the absolute directory where uploaded media is stored.
// A relative MEDIA_ROOT is resolved against BackendRoot, an absolute one is
// used as-is. Cheap to call; recomputed per use rather than cached.
func (c *Config) MediaRoot() string {
	configured := c.MediaRootSetting
	if configured == "" {
		configured = "media"
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Join(c.BackendRoot, configured)
}

// MinioEnabled reports whether cover-art object storage is configured.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}
