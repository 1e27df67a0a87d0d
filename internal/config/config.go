package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend and mode names accepted in the environment.
const (
	EnvDevelopment = "development"

	BackendDynamo = "dynamo"
	BackendSQL    = "sql"
	BackendMemory = "memory"
	BackendRedis  = "redis"

	NotifierConsole = "console"
	NotifierSMTP    = "smtp"
	NotifierSNS     = "sns"

	SigningNone  = "none"
	SigningHS256 = "hs256"
	SigningRS256 = "rs256"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins
	// TrustedProxies lists the peers (addresses or CIDRs) whose
	// X-Forwarded-For / X-Real-Ip headers are believed.
	TrustedProxies []string

	DataBackend string // users and tasks: dynamo | sql
	CodeStore   string // login codes: memory | sql | redis | dynamo

	SQLDriver string // sqlite | postgres
	SQLDSN    string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	SNSTopicARN    string

	Notifier     string
	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	CodeTTL           time.Duration
	SessionTTL        time.Duration
	SessionCookieName string
	CookieSecure      bool

	TokenSigning      string
	TokenSecret       string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string

	BootstrapAdminEmail string
	MetricsEnabled      bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users      string
	Tasks      string
	LoginCodes string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	env := getEnv("APP_ENV", EnvDevelopment)
	dev := env == EnvDevelopment
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         env,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),

		DataBackend: getEnv("DATA_BACKEND", pick(dev, BackendSQL, BackendDynamo)),
		CodeStore:   getEnv("CODE_STORE", pick(dev, BackendMemory, BackendDynamo)),

		SQLDriver: getEnv("SQL_DRIVER", "sqlite"),
		SQLDSN:    getEnv("SQL_DSN", "kanban.db"),

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "logincode"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:      getEnv("DYNAMO_TABLE_USERS", "users"),
			Tasks:      getEnv("DYNAMO_TABLE_TASKS", "tasks"),
			LoginCodes: getEnv("DYNAMO_TABLE_LOGIN_CODES", "login_codes"),
		},
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		Notifier:     getEnv("NOTIFIER", pick(dev, NotifierConsole, NotifierSMTP)),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		CodeTTL:           getEnvDuration("CODE_TTL", 10*time.Minute),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		CookieSecure:      getEnvBool("COOKIE_SECURE", !dev),

		TokenSigning:      strings.ToLower(getEnv("TOKEN_SIGNING", SigningNone)),
		TokenSecret:       getEnv("TOKEN_SECRET", ""),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		BootstrapAdminEmail: strings.ToLower(strings.TrimSpace(getEnv("BOOTSTRAP_ADMIN_EMAIL", ""))),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

// IsDevelopment reports whether the app runs with development defaults.
func (c *Config) IsDevelopment() bool { return c.AppEnv == EnvDevelopment }

// Validate rejects unknown backend names and signing modes without keys.
func (c *Config) Validate() error {
	var errs []error
	if !oneOf(c.DataBackend, BackendDynamo, BackendSQL) {
		errs = append(errs, fmt.Errorf("DATA_BACKEND %q: want dynamo or sql", c.DataBackend))
	}
	if !oneOf(c.CodeStore, BackendMemory, BackendSQL, BackendRedis, BackendDynamo) {
		errs = append(errs, fmt.Errorf("CODE_STORE %q: want memory, sql, redis or dynamo", c.CodeStore))
	}
	if !oneOf(c.SQLDriver, "sqlite", "postgres") {
		errs = append(errs, fmt.Errorf("SQL_DRIVER %q: want sqlite or postgres", c.SQLDriver))
	}
	if !oneOf(c.Notifier, NotifierConsole, NotifierSMTP, NotifierSNS) {
		errs = append(errs, fmt.Errorf("NOTIFIER %q: want console, smtp or sns", c.Notifier))
	}
	if c.Notifier == NotifierSNS && c.SNSTopicARN == "" {
		errs = append(errs, errors.New("NOTIFIER=sns requires SNS_TOPIC_ARN"))
	}
	switch c.TokenSigning {
	case SigningNone, SigningRS256:
	case SigningHS256:
		if len(c.TokenSecret) < 32 {
			errs = append(errs, errors.New("TOKEN_SIGNING=hs256 requires TOKEN_SECRET of at least 32 bytes"))
		}
	default:
		errs = append(errs, fmt.Errorf("TOKEN_SIGNING %q: want none, hs256 or rs256", c.TokenSigning))
	}
	if c.CodeTTL <= 0 || c.SessionTTL <= 0 {
		errs = append(errs, errors.New("CODE_TTL and SESSION_TTL must be positive"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, e := range c.TrustedProxies {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
