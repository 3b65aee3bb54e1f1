// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Server    ServerConfig            `mapstructure:"server"`
	Auth      AuthConfig              `mapstructure:"auth"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Search    SearchConfig            `mapstructure:"search"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Analytics AnalyticsConfig         `mapstructure:"analytics"`
	RateLimit RateLimitConfig         `mapstructure:"rate_limit"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port               int      `mapstructure:"port"`
	ReadTimeout        int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout       int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout"` // milliseconds
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Address returns the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

// AuthConfig holds the settings used to verify bearer tokens. Tokens are
// issued elsewhere; this service only checks them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// GetAddresses returns every configured node address.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig drives query construction and result presentation.
type SearchConfig struct {
	FrameworkIndex   string `mapstructure:"framework_index"`
	BackendDomain    string `mapstructure:"backend_domain"`
	MediaURL         string `mapstructure:"media_url"`
	DefaultImagePath string `mapstructure:"default_image_path"` // fmt template, receives the backend domain
	ResultsPerPage   int    `mapstructure:"results_per_page"`
	SuggestionsSize  int    `mapstructure:"suggestions_size"`
	Timeout          int    `mapstructure:"timeout"` // milliseconds
}

type CacheConfig struct {
	FormDataTTL int `mapstructure:"form_data_ttl"` // milliseconds
}

type AnalyticsConfig struct {
	Queue          string `mapstructure:"queue"`
	Concurrency    int    `mapstructure:"concurrency"`
	EnqueueTimeout int    `mapstructure:"enqueue_timeout"` // milliseconds
	MaxRetry       int    `mapstructure:"max_retry"`
}

type RateLimitConfig struct {
	SuggestRPS   float64 `mapstructure:"suggest_rps"`
	SuggestBurst int     `mapstructure:"suggest_burst"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
