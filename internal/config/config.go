package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"mongo", "sqlite", "postgres", "memory"}

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	// HTTP Server
	Port      string
	APIPrefix string

	// Backend selection
	DataBackend string

	// MongoDB
	MongoURI        string
	MongoUser       string
	MongoPassword   string
	MongoHost       string
	MongoDB         string
	MongoCollection string

	// SQL
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string
	ExpenseAPIURL       string
	ResyncOnStart       bool

	// Middleware and caching
	RateLimitPerMinute int
	CacheTTL           time.Duration
	// TrustedProxies are extra CIDRs whose X-Forwarded-For headers are believed.
	TrustedProxies []string

	CSVDateLayout string
	LogLevel      string
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "5000"),
		APIPrefix: getEnv("API_PREFIX", "/api"),

		DataBackend: getEnv("DATA_BACKEND", "mongo"),

		MongoURI:        getEnv("MONGODB_URI", ""),
		MongoUser:       getEnv("MONGODB_USER", ""),
		MongoPassword:   getEnv("MONGODB_PASSWORD", ""),
		MongoHost:       getEnv("MONGODB_HOST", ""),
		MongoDB:         getEnv("MONGODB_DB", ""),
		MongoCollection: getEnv("MONGODB_COLLECTION", "expenses"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		ExpenseAPIURL:       getEnv("EXPENSE_API_URL", "http://localhost:5000"),
		ResyncOnStart:       getEnvBool("SHEETS_RESYNC_ON_START", false),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Second),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		CSVDateLayout: getEnv("CSV_DATE_LAYOUT", "1/2/2006"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// HasMongoConnection reports whether a MongoDB connection string can be built.
func (c *Config) HasMongoConnection() bool {
	return c.MongoURI != "" || (c.MongoUser != "" && c.MongoPassword != "" && c.MongoHost != "")
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.APIPrefix) < 2 || !strings.HasPrefix(c.APIPrefix, "/") || strings.HasSuffix(c.APIPrefix, "/") {
		errors = append(errors, fmt.Sprintf("invalid API prefix '%s': must start with '/', not end with '/' and not be the root", c.APIPrefix))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "mongo":
		if !c.HasMongoConnection() {
			errors = append(errors, "MongoDB connection missing: set MONGODB_URI or MONGODB_USER, MONGODB_PASSWORD and MONGODB_HOST")
		}
		if c.MongoCollection == "" {
			errors = append(errors, "MongoDB collection cannot be empty")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
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

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.CacheTTL < 0 || c.CacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be between 0 and 1h", c.CacheTTL))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 10.0.0.0/8", cidr))
		}
	}

	if strings.TrimSpace(c.CSVDateLayout) == "" {
		errors = append(errors, "CSV date layout cannot be empty")
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, logLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the sheets worker needs on top of Validate's shared ones.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sheets worker")
	}
	if c.ResyncOnStart {
		if u, err := url.Parse(c.ExpenseAPIURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid EXPENSE_API_URL '%s'", c.ExpenseAPIURL))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
