package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	GraphQL    GraphQLConfig    `koanf:"graphql"`
	Currency   CurrencyConfig   `koanf:"currency"`
	Redis      RedisConfig      `koanf:"redis"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Contact    ContactConfig    `koanf:"contact"`
	Newsletter NewsletterConfig `koanf:"newsletter"`
	Blog       BlogConfig       `koanf:"blog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string          `koanf:"host"`
	Port       int             `koanf:"port"`
	Mode       string          `koanf:"mode"`
	CSRFSecret string          `koanf:"csrf_secret"`
	Timeout    string          `koanf:"timeout"`
	SiteURL    string          `koanf:"site_url"`
	CORS       CORSConfig      `koanf:"cors"`
	RateLimit  RateLimitConfig `koanf:"rate_limit"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// RateLimitConfig holds per-IP rate limiting settings for form endpoints.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// GraphQLConfig points at the course backend.
type GraphQLConfig struct {
	Endpoint    string `koanf:"endpoint"`
	Timeout     string `koanf:"timeout"`
	MaxAttempts int    `koanf:"max_attempts"`
}

// CurrencyConfig holds currency detection settings.
type CurrencyConfig struct {
	Default       string   `koanf:"default"`
	Supported     []string `koanf:"supported"`
	LookupURL     string   `koanf:"lookup_url"`
	LookupTimeout string   `koanf:"lookup_timeout"`
	DevCurrency   string   `koanf:"dev_currency"`
	CacheTTL      string   `koanf:"cache_ttl"`
}

// RedisConfig enables the shared lookup cache and cross-instance broadcast.
type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// CatalogConfig holds catalog batching and paging settings.
type CatalogConfig struct {
	InitialLimit    int   `koanf:"initial_limit"`
	BatchSize       int   `koanf:"batch_size"`
	PageSize        int   `koanf:"page_size"`
	PageSizeOptions []int `koanf:"page_size_options"`
	FeaturedLimit   int   `koanf:"featured_limit"`
}

// ContactConfig holds human-verification and email provider settings.
// Secrets may be empty at load time; the contact endpoint then answers 500.
type ContactConfig struct {
	TurnstileSiteKey   string `koanf:"turnstile_site_key"`
	TurnstileSecret    string `koanf:"turnstile_secret"`
	TurnstileVerifyURL string `koanf:"turnstile_verify_url"`
	ResendAPIKey       string `koanf:"resend_api_key"`
	ResendURL          string `koanf:"resend_url"`
	From               string `koanf:"from"`
	Recipient          string `koanf:"recipient"`
	ResetAfter         string `koanf:"reset_after"`
}

// NewsletterConfig holds newsletter signup settings.
type NewsletterConfig struct {
	Source     string `koanf:"source"`
	ResetAfter string `koanf:"reset_after"`
}

// BlogConfig holds blog content settings. An empty ContentDir reads the
// posts embedded in the binary.
type BlogConfig struct {
	ContentDir string `koanf:"content_dir"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__DATABASE__POOL__MAX_IDLE_CONNS=20 overrides database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config file.
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// Overlay environment variables with prefix APP__.
	// APP__SERVER__PORT -> server.port
	// APP__DATABASE__POOL__MAX_IDLE_CONNS -> database.pool.max_idle_conns
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values.
func (c *Config) Validate() error {
	// Validate server.mode.
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	// Validate server.port range.
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	// Validate server.host.
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Validate database.driver.
	switch c.Database.Driver {
	case "sqlite", "postgres":
		// ok
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	if c.Database.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	}

	// When driver is postgres, required connection fields must be valid.
	if c.Database.Driver == "postgres" {
		host := strings.TrimSpace(c.Database.Postgres.Host)
		if host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", c.Database.Postgres.Port)
		}
		user := strings.TrimSpace(c.Database.Postgres.User)
		if user == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(c.Database.Postgres.DBName)
		if dbName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(c.Database.Postgres.SSLMode)

		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			// ok
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", c.Database.Postgres.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if c.Server.Mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
				// ok
			default:
				return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", c.Database.Postgres.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}

		c.Database.Postgres.Host = host
		c.Database.Postgres.User = user
		c.Database.Postgres.DBName = dbName
		c.Database.Postgres.SSLMode = sslMode
	}

	// Normalize optional duration fields: whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)

	// Validate server.timeout (optional; must be a valid Go duration if set).
	if t := c.Server.Timeout; t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid server.timeout %q: %w", c.Server.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.timeout %q: must be greater than 0", c.Server.Timeout)
		}
	}

	// Validate server.cors.max_age (optional; must be a valid Go duration if set).
	if ma := c.Server.CORS.MaxAge; ma != "" {
		d, err := time.ParseDuration(ma)
		if err != nil {
			return fmt.Errorf("invalid server.cors.max_age %q: must be a valid duration (e.g. \"24h\", \"3600s\"): %w", c.Server.CORS.MaxAge, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.cors.max_age %q: must be greater than 0", c.Server.CORS.MaxAge)
		}
	}

	// Validate database.pool.conn_max_lifetime (optional; must be positive if set).
	if lm := c.Database.Pool.ConnMaxLifetime; lm != "" {
		d, err := time.ParseDuration(lm)
		if err != nil {
			return fmt.Errorf("invalid database.pool.conn_max_lifetime %q: %w", c.Database.Pool.ConnMaxLifetime, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid database.pool.conn_max_lifetime %q: must be greater than 0", c.Database.Pool.ConnMaxLifetime)
		}
	}

	// Validate server.rate_limit (when enabled, rps and burst must be positive).
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", c.Server.RateLimit.RPS)
		}
		if c.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", c.Server.RateLimit.Burst)
		}
	}

	// Validate log.level.
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	// Validate log.format.
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(c.Server.CSRFSecret) < 3 {
		return fmt.Errorf("server.csrf_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}

	siteURL := strings.TrimRight(strings.TrimSpace(c.Server.SiteURL), "/")
	if siteURL == "" {
		siteURL = "http://localhost:" + strconv.Itoa(c.Server.Port)
	}
	if err := checkHTTPURL("server.site_url", siteURL); err != nil {
		return err
	}
	c.Server.SiteURL = siteURL

	for _, validate := range []func() error{
		c.validateGraphQL,
		c.validateCurrency,
		c.validateRedis,
		c.validateCatalog,
		c.validateContact,
		c.validateNewsletter,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	c.Blog.ContentDir = strings.TrimSpace(c.Blog.ContentDir)

	return nil
}

func (c *Config) validateGraphQL() error {
	endpoint := strings.TrimSpace(c.GraphQL.Endpoint)
	if endpoint == "" {
		return fmt.Errorf("graphql.endpoint is required")
	}
	if err := checkHTTPURL("graphql.endpoint", endpoint); err != nil {
		return err
	}
	c.GraphQL.Endpoint = endpoint

	timeout, err := normalizeDuration("graphql.timeout", c.GraphQL.Timeout, "10s")
	if err != nil {
		return err
	}
	c.GraphQL.Timeout = timeout

	if c.GraphQL.MaxAttempts == 0 {
		c.GraphQL.MaxAttempts = 3
	}
	if c.GraphQL.MaxAttempts < 1 || c.GraphQL.MaxAttempts > 10 {
		return fmt.Errorf("invalid graphql.max_attempts %d: must be between 1 and 10", c.GraphQL.MaxAttempts)
	}
	return nil
}

func (c *Config) validateCurrency() error {
	cur := &c.Currency

	if len(cur.Supported) == 0 {
		cur.Supported = []string{"USD", "EUR", "MXN", "COP", "CLP", "PEN"}
	}
	supported := make([]string, 0, len(cur.Supported))
	for idx, code := range cur.Supported {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !isCurrencyCode(code) {
			return fmt.Errorf("invalid currency.supported[%d] %q: must be a 3-letter ISO 4217 code", idx, cur.Supported[idx])
		}
		if !slices.Contains(supported, code) {
			supported = append(supported, code)
		}
	}
	cur.Supported = supported

	def := strings.ToUpper(strings.TrimSpace(cur.Default))
	if def == "" {
		def = "USD"
	}
	if !slices.Contains(supported, def) {
		return fmt.Errorf("invalid currency.default %q: must be listed in currency.supported", cur.Default)
	}
	cur.Default = def

	if dev := strings.ToUpper(strings.TrimSpace(cur.DevCurrency)); dev != "" {
		if !slices.Contains(supported, dev) {
			return fmt.Errorf("invalid currency.dev_currency %q: must be listed in currency.supported", cur.DevCurrency)
		}
		cur.DevCurrency = dev
	} else {
		cur.DevCurrency = ""
	}

	lookupURL := strings.TrimRight(strings.TrimSpace(cur.LookupURL), "/")
	if lookupURL == "" {
		lookupURL = "https://ipapi.co"
	}
	if err := checkHTTPURL("currency.lookup_url", lookupURL); err != nil {
		return err
	}
	cur.LookupURL = lookupURL

	var err error
	if cur.LookupTimeout, err = normalizeDuration("currency.lookup_timeout", cur.LookupTimeout, "5s"); err != nil {
		return err
	}
	if cur.CacheTTL, err = normalizeDuration("currency.cache_ttl", cur.CacheTTL, "24h"); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRedis() error {
	c.Redis.URL = strings.TrimSpace(c.Redis.URL)
	if !c.Redis.Enabled {
		return nil
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}
	u, err := url.Parse(c.Redis.URL)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
		return fmt.Errorf("invalid redis.url: must use the redis:// or rediss:// scheme")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	cat := &c.Catalog

	if cat.InitialLimit == 0 {
		cat.InitialLimit = 24
	}
	if cat.BatchSize == 0 {
		cat.BatchSize = 24
	}
	if cat.PageSize == 0 {
		cat.PageSize = 6
	}
	if cat.FeaturedLimit == 0 {
		cat.FeaturedLimit = 6
	}
	if len(cat.PageSizeOptions) == 0 {
		cat.PageSizeOptions = []int{6, 9, 12, 24}
	}

	fields := []struct {
		name  string
		value int
	}{
		{"catalog.initial_limit", cat.InitialLimit},
		{"catalog.batch_size", cat.BatchSize},
		{"catalog.page_size", cat.PageSize},
		{"catalog.featured_limit", cat.FeaturedLimit},
	}
	for _, f := range fields {
		if f.value < 1 || f.value > 100 {
			return fmt.Errorf("invalid %s %d: must be between 1 and 100", f.name, f.value)
		}
	}
	for idx, size := range cat.PageSizeOptions {
		if size < 1 || size > 100 {
			return fmt.Errorf("invalid catalog.page_size_options[%d] %d: must be between 1 and 100", idx, size)
		}
	}
	if !slices.Contains(cat.PageSizeOptions, cat.PageSize) {
		return fmt.Errorf("invalid catalog.page_size %d: must be one of catalog.page_size_options %v", cat.PageSize, cat.PageSizeOptions)
	}
	return nil
}

func (c *Config) validateContact() error {
	ct := &c.Contact

	ct.TurnstileSiteKey = strings.TrimSpace(ct.TurnstileSiteKey)
	ct.TurnstileSecret = strings.TrimSpace(ct.TurnstileSecret)
	ct.ResendAPIKey = strings.TrimSpace(ct.ResendAPIKey)

	urls := []struct {
		name  string
		value *string
		def   string
	}{
		{"contact.turnstile_verify_url", &ct.TurnstileVerifyURL, "https://challenges.cloudflare.com/turnstile/v0/siteverify"},
		{"contact.resend_url", &ct.ResendURL, "https://api.resend.com/emails"},
	}
	for _, f := range urls {
		v := strings.TrimSpace(*f.value)
		if v == "" {
			v = f.def
		}
		if err := checkHTTPURL(f.name, v); err != nil {
			return err
		}
		*f.value = v
	}

	ct.From = strings.TrimSpace(ct.From)
	if ct.From == "" {
		ct.From = "IqEngi Contacto <onboarding@resend.dev>"
	}
	ct.Recipient = strings.TrimSpace(ct.Recipient)
	if ct.Recipient == "" {
		ct.Recipient = "contacto@miempresa.com"
	}
	if _, err := mail.ParseAddress(ct.Recipient); err != nil {
		return fmt.Errorf("invalid contact.recipient %q: %w", ct.Recipient, err)
	}

	var err error
	if ct.ResetAfter, err = normalizeDuration("contact.reset_after", ct.ResetAfter, "5s"); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNewsletter() error {
	source := strings.ToUpper(strings.TrimSpace(c.Newsletter.Source))
	switch source {
	case "":
		source = "WEB_FOOTER"
	case "WEB_FOOTER", "BLOG_SECTION":
	default:
		return fmt.Errorf("invalid newsletter.source %q: must be one of %q, %q", c.Newsletter.Source, "WEB_FOOTER", "BLOG_SECTION")
	}
	c.Newsletter.Source = source

	var err error
	if c.Newsletter.ResetAfter, err = normalizeDuration("newsletter.reset_after", c.Newsletter.ResetAfter, "5s"); err != nil {
		return err
	}
	return nil
}

// normalizeDuration trims value, substitutes def when empty, and checks the
// result is a positive Go duration.
func normalizeDuration(name, value, def string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		v = def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return "", fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return v, nil
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", name, raw)
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Duration parses a duration already checked by Validate, returning def for
// empty or unparsable values.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSymbol := false

	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	if hasLower {
		classes++
	}
	if hasUpper {
		classes++
	}
	if hasDigit {
		classes++
	}
	if hasSymbol {
		classes++
	}

	return classes
}
