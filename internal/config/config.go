package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	cfg *Config
	mu  sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LDAP      LDAPConfig      `mapstructure:"ldap"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Solr      SolrConfig      `mapstructure:"solr"`
	MQ        MQConfig        `mapstructure:"mq"`
	Email     EmailConfig     `mapstructure:"email"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Env         string `mapstructure:"env"`
	SystemName  string `mapstructure:"system_name"`
	WatchConfig bool   `mapstructure:"watch_config"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	User            string            `mapstructure:"user"`
	Password        string            `mapstructure:"password"`
	Name            string            `mapstructure:"name"`
	Path            string            `mapstructure:"path"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `mapstructure:"conn_max_lifetime"`
}

type LDAPConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	UseTLS        bool          `mapstructure:"use_tls"`
	SkipTLSVerify bool          `mapstructure:"skip_tls_verify"`
	BindDN        string        `mapstructure:"bind_dn"`
	BindPassword  string        `mapstructure:"bind_password"`
	BaseDN        string        `mapstructure:"base_dn"`
	UserFilter    string        `mapstructure:"user_filter"`
	GroupFilter   string        `mapstructure:"group_filter"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWT                  JWTConfig         `mapstructure:"jwt"`
	UnknownGroupPolicy   string            `mapstructure:"unknown_group_policy"`
	AggregateConcurrency int               `mapstructure:"aggregate_concurrency"`
	Permissions          PermissionsConfig `mapstructure:"permissions"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// PermissionsConfig names the permission type codes that guard routes.
type PermissionsConfig struct {
	EditComponents string `mapstructure:"edit_components"`
	ManageGroups   string `mapstructure:"manage_groups"`
	SendEmail      string `mapstructure:"send_email"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SolrConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

type MQConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	SMTP EmailSMTPConfig `mapstructure:"smtp"`
	From string          `mapstructure:"from"`
}

type EmailSMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   struct {
		Enabled    bool   `mapstructure:"enabled"`
		Path       string `mapstructure:"path"`
		MaxSize    int    `mapstructure:"max_size"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type WebSocketConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SendBuffer     int      `mapstructure:"send_buffer"`
}

// Unknown group policies.
const (
	UnknownGroupGrant  = "grant"
	UnknownGroupIgnore = "ignore"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "GalaxyAPI")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.system_name", "CoMIT")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "sqlserver")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 1433)
	v.SetDefault("database.name", "Galaxy")
	v.SetDefault("database.path", "galaxy.db")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("ldap.host", "")
	v.SetDefault("ldap.port", 389)
	v.SetDefault("ldap.bind_dn", "")
	v.SetDefault("ldap.bind_password", "")
	v.SetDefault("ldap.base_dn", "")
	v.SetDefault("ldap.user_filter", "(&(objectClass=user)(sAMAccountName={username}))")
	v.SetDefault("ldap.group_filter", "(objectClass=group)")
	v.SetDefault("ldap.timeout", 10*time.Second)

	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "galaxyapi")
	v.SetDefault("auth.jwt.token_duration", 8*time.Hour)
	v.SetDefault("auth.unknown_group_policy", UnknownGroupGrant)
	v.SetDefault("auth.aggregate_concurrency", 8)
	v.SetDefault("auth.permissions.edit_components", "EDIT_COMPONENTS")
	v.SetDefault("auth.permissions.manage_groups", "MANAGE_GROUPS")
	v.SetDefault("auth.permissions.send_email", "SEND_EMAIL")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "galaxy:revoked:")

	v.SetDefault("redis.password", "")
	v.SetDefault("solr.base_url", "")
	v.SetDefault("solr.timeout", 15*time.Second)
	v.SetDefault("solr.retry_count", 1)
	v.SetDefault("mq.base_url", "")
	v.SetDefault("mq.username", "")
	v.SetDefault("mq.password", "")
	v.SetDefault("mq.timeout", 10*time.Second)

	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 25)
	v.SetDefault("email.from", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "logs/galaxyapi.log")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 10)
	v.SetDefault("logging.file.max_age", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("websocket.send_buffer", 64)
}

// Load reads defaults, an optional YAML file, an optional .env file and
// GALAXY_* environment overrides, then installs the result as the current
// configuration.
func Load(configFile string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("GALAXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	loaded, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	cfg = loaded
	mu.Unlock()

	if loaded.App.WatchConfig && configFile != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloaded, err := unmarshal(v)
			if err != nil {
				return
			}
			mu.Lock()
			cfg = reloaded
			mu.Unlock()
		})
	}

	return loaded, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "sqlserver", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Auth.UnknownGroupPolicy {
	case UnknownGroupGrant, UnknownGroupIgnore:
	default:
		problems = append(problems, fmt.Sprintf("auth.unknown_group_policy %q must be %q or %q",
			c.Auth.UnknownGroupPolicy, UnknownGroupGrant, UnknownGroupIgnore))
	}
	if c.App.IsProduction() && len(c.Auth.JWT.Secret) < 32 {
		problems = append(problems, "auth.jwt.secret must be at least 32 characters in production")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

// GetDSN returns the connection string for the configured driver.
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}

	query := url.Values{}
	query.Add("database", c.Name)
	for k, val := range c.Params {
		query.Add(k, val)
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// GetRedisAddr returns the Redis server address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr returns the server listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
