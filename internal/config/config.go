package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"familyfinance/internal/log"
)

type Config struct {
	// HTTP Server
	Port              string
	RequestTimeout    time.Duration
	CORSAllowedOrigin string
	RateLimitPerMin   int

	// Record store
	DataBackend      string
	DBPath           string
	StoreOpenTimeout time.Duration
	StrictUpdates    bool

	// Uploads
	UploadBackend  string
	UploadDir      string
	UploadMaxBytes int64
	PublicBaseURL  string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3URLExpiry    time.Duration

	// AMQP, empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets journal
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// OAuth user credentials, used when no service account is set
	GoogleOAuthClientJSON string
	GoogleOAuthClientFile string
	GoogleOAuthTokenJSON  string
	GoogleOAuthTokenFile  string
	OAuthRedirectPort     string

	// Bill reminders
	BillRefreshInterval time.Duration
	BillDueWindowDays   int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	port := getEnv("PORT", "8080")

	cfg := &Config{
		Port:              port,
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend:      getEnv("DATA_BACKEND", "bolt"),
		DBPath:           getEnv("DB_PATH", "./family_finance.db"),
		StoreOpenTimeout: getEnvDuration("STORE_OPEN_TIMEOUT", time.Second),
		StrictUpdates:    getEnvBool("STRICT_UPDATES", false),

		UploadBackend:  getEnv("UPLOAD_BACKEND", "local"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3URLExpiry:    getEnvDuration("S3_URL_EXPIRY", 24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "familyfinance"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_changes"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Journal"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		OAuthRedirectPort:        getEnv("OAUTH_REDIRECT_PORT", "8085"),

		BillRefreshInterval: getEnvDuration("BILL_REFRESH_INTERVAL", time.Hour),
		BillDueWindowDays:   getEnvInt("BILL_DUE_WINDOW", 3),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every problem found
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be positive", c.RequestTimeout))
	}
	if c.RateLimitPerMin < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMin))
	}

	validBackends := []string{"bolt", "sqlite", "memory"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "bolt" || c.DataBackend == "sqlite" {
		if c.DBPath == "" {
			errors = append(errors, fmt.Sprintf("database path cannot be empty when using %s backend", c.DataBackend))
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
		if c.StoreOpenTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid store open timeout %v: must be positive", c.StoreOpenTimeout))
		}
	}

	validUploads := []string{"local", "s3"}
	if !contains(validUploads, c.UploadBackend) {
		errors = append(errors, fmt.Sprintf("invalid upload backend '%s': must be one of %v", c.UploadBackend, validUploads))
	}
	if c.UploadMaxBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload size limit %d: must be at least 1 byte", c.UploadMaxBytes))
	}
	switch c.UploadBackend {
	case "local":
		if c.UploadDir == "" {
			errors = append(errors, "upload directory cannot be empty when using local upload backend")
		}
		if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid public base URL '%s': must be an absolute URL", c.PublicBaseURL))
		}
	case "s3":
		if c.S3Bucket == "" {
			errors = append(errors, "S3 bucket is required when using s3 upload backend")
		}
		if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
			errors = append(errors, "S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
		if c.S3URLExpiry <= 0 || c.S3URLExpiry > 7*24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid S3 URL expiry %v: must be positive and at most 7 days", c.S3URLExpiry))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BillRefreshInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid bill refresh interval %v: must not be negative", c.BillRefreshInterval))
	} else if c.BillRefreshInterval > 0 && c.BillRefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid bill refresh interval %v: must be at least 1 second or 0 to disable", c.BillRefreshInterval))
	}
	if c.BillDueWindowDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid bill due window %d: must not be negative", c.BillDueWindowDays))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateJournal checks the settings the journal worker needs on top of Validate
func (c *Config) ValidateJournal() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the journal worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the journal worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name cannot be empty")
	}
	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasOAuthClient := c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != ""
	hasOAuthToken := c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != ""
	switch {
	case hasServiceAccount:
	case hasOAuthClient && hasOAuthToken:
	case hasOAuthClient:
		errors = append(errors, "an OAuth token is required with OAuth client credentials: run oauth-init or set GOOGLE_OAUTH_TOKEN_JSON / GOOGLE_OAUTH_TOKEN_FILE")
	default:
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided, or OAuth client and token credentials")
	}
	for _, f := range []struct{ what, path string }{
		{"Google service account file", c.GoogleServiceAccountFile},
		{"Google OAuth client file", c.GoogleOAuthClientFile},
		{"Google OAuth token file", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("%s does not exist: %s", f.what, f.path))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("journal configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) Logger(component string) *log.Logger {
	level, _ := log.ParseLevel(c.LogLevel)
	format, _ := log.ParseFormat(c.LogFormat)
	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Component = component
	return log.New(cfg)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
