package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Uploads  UploadsConfig
	Google   GoogleConfig
	Portal   PortalConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls local staging of video files before they are
// pushed to the video platform.
type UploadsConfig struct {
	StagingDir       string
	MaxFileSizeBytes int64
}

// GoogleConfig carries the credentials and defaults used by the Classroom
// and YouTube integration clients.
type GoogleConfig struct {
	CredentialsFile     string
	ClientID            string
	ClientSecret        string
	ClassroomOwnerEmail string
	ClassroomScopes     []string
	YouTubeScopes       []string
	VideoPrivacy        string
}

// PortalConfig holds portal-wide behaviour: the operating timezone used for
// class timestamps and feature flags for optional surfaces.
type PortalConfig struct {
	Timezone          string
	FallbackUTCOffset int
	DashboardEnabled  bool
	DashboardCacheTTL time.Duration
	ExportsEnabled    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 2 * 1024 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StagingDir:       v.GetString("UPLOADS_STAGING_DIR"),
		MaxFileSizeBytes: maxUploadSize,
	}

	cfg.Google = GoogleConfig{
		CredentialsFile:     v.GetString("GOOGLE_CREDENTIALS_FILE"),
		ClientID:            v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret:        v.GetString("GOOGLE_CLIENT_SECRET"),
		ClassroomOwnerEmail: v.GetString("CLASSROOM_OWNER_EMAIL"),
		ClassroomScopes:     splitAndTrim(v.GetString("GOOGLE_CLASSROOM_SCOPES")),
		YouTubeScopes:       splitAndTrim(v.GetString("GOOGLE_YOUTUBE_SCOPES")),
		VideoPrivacy:        v.GetString("YOUTUBE_VIDEO_PRIVACY"),
	}

	cfg.Portal = PortalConfig{
		Timezone:          v.GetString("PORTAL_TIMEZONE"),
		FallbackUTCOffset: v.GetInt("PORTAL_FALLBACK_UTC_OFFSET"),
		DashboardEnabled:  v.GetBool("ENABLE_DASHBOARD"),
		DashboardCacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		ExportsEnabled:    v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scimind_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "scimind-portal")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_STAGING_DIR", "./temp_uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 2*1024*1024*1024)

	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "config/webportal_credentials.json")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("CLASSROOM_OWNER_EMAIL", "")
	v.SetDefault("GOOGLE_CLASSROOM_SCOPES", "https://www.googleapis.com/auth/classroom.courses,https://www.googleapis.com/auth/classroom.rosters,https://www.googleapis.com/auth/classroom.announcements")
	v.SetDefault("GOOGLE_YOUTUBE_SCOPES", "https://www.googleapis.com/auth/youtube.upload,https://www.googleapis.com/auth/youtube.force-ssl")
	v.SetDefault("YOUTUBE_VIDEO_PRIVACY", "unlisted")

	v.SetDefault("PORTAL_TIMEZONE", "Australia/Melbourne")
	v.SetDefault("PORTAL_FALLBACK_UTC_OFFSET", 10)
	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
