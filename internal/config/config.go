package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Notification sink names accepted in NOTIFICATION_SINKS.
const (
	SinkTeams = "teams"
	SinkSNS   = "sns"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins

	// Identity provider (client credentials against Entra ID).
	TenantID                  string
	ClientID                  string
	ClientAPIResource         string
	ClientSecret              string
	ClientSecretRef           string // file://path or s3://bucket/key
	ClientAssertionKeyPath    string // RSA private key PEM; replaces the secret when set
	ClientAssertionThumbprint string // base64url SHA-1 of the certificate, sent as x5t
	AuthorityHost             string

	// Verified ID request service.
	VerifiedIDAPIURL      string
	DefaultAuthority      string
	DefaultCredentialType string
	Origin                string // public base URL used to build the provider callback address

	// Notifications.
	NotificationSinks          []string
	TeamsNotificationsEndpoint string
	SNSTopicARN                string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	OutboundTimeout    time.Duration
	ShutdownTimeout    time.Duration
	StoreSweepInterval time.Duration
	StartRateLimit     float64
	StartRateBurst     int

	// TrustProxyHeaders makes the client address come from X-Forwarded-For and
	// friends. Only set it when a proxy in front of the service overwrites them.
	TrustProxyHeaders bool
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		TenantID:                  getEnv("TENANT_ID", ""),
		ClientID:                  getEnv("CLIENT_ID", ""),
		ClientAPIResource:         getEnv("CLIENT_API_RESOURCE", "3db474b9-6a0c-4840-96ac-1fceb342124f/.default"),
		ClientSecret:              getEnv("CLIENT_SECRET", ""),
		ClientSecretRef:           getEnv("CLIENT_SECRET_REF", ""),
		ClientAssertionKeyPath:    getEnv("CLIENT_ASSERTION_KEY_PATH", ""),
		ClientAssertionThumbprint: getEnv("CLIENT_ASSERTION_THUMBPRINT", ""),
		AuthorityHost:             getEnv("AUTHORITY_HOST", "https://login.microsoftonline.com"),

		VerifiedIDAPIURL:      getEnv("VERIFIEDID_API_URL", "https://verifiedid.did.msidentity.com/v1.0/verifiableCredentials/createPresentationRequest"),
		DefaultAuthority:      getEnv("DEFAULT_AUTHORITY", "did:web:eu-syntheticsdocumentprovider.azurewebsites.net"),
		DefaultCredentialType: getEnv("DEFAULT_CREDENTIAL_TYPE", "VerifiedEmployee"),
		Origin:                strings.TrimRight(getEnv("ORIGIN", ""), "/"),

		NotificationSinks:          splitList(getEnv("NOTIFICATION_SINKS", SinkTeams)),
		TeamsNotificationsEndpoint: getEnv("TEAMS_NOTIFICATIONS_ENDPOINT", ""),
		SNSTopicARN:                getEnv("SNS_TOPIC_ARN", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		OutboundTimeout:    getEnvDuration("OUTBOUND_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		StoreSweepInterval: getEnvDuration("STORE_SWEEP_INTERVAL", time.Minute),
		StartRateLimit:     getEnvFloat("START_RATE_LIMIT", 5),
		StartRateBurst:     getEnvInt("START_RATE_BURST", 10),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// HasSink reports whether the named notification sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.NotificationSinks {
		if s == name {
			return true
		}
	}
	return false
}

// Validate reports every required setting that is missing or out of range.
func (c *Config) Validate() error {
	var errs []error
	require := func(key, value string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	require("TENANT_ID", c.TenantID)
	require("CLIENT_ID", c.ClientID)
	require("CLIENT_API_RESOURCE", c.ClientAPIResource)
	require("ORIGIN", c.Origin)
	if c.ClientSecret == "" && c.ClientSecretRef == "" && c.ClientAssertionKeyPath == "" {
		errs = append(errs, errors.New("one of CLIENT_SECRET, CLIENT_SECRET_REF or CLIENT_ASSERTION_KEY_PATH is required"))
	}
	positive := func(key string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be greater than zero, got %s", key, d))
		}
	}
	positive("OUTBOUND_TIMEOUT", c.OutboundTimeout)
	positive("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	positive("STORE_SWEEP_INTERVAL", c.StoreSweepInterval)
	if c.StartRateLimit <= 0 || c.StartRateBurst <= 0 {
		errs = append(errs, errors.New("START_RATE_LIMIT and START_RATE_BURST must be greater than zero"))
	}
	for _, s := range c.NotificationSinks {
		switch s {
		case SinkTeams:
			require("TEAMS_NOTIFICATIONS_ENDPOINT", c.TeamsNotificationsEndpoint)
		case SinkSNS:
			require("SNS_TOPIC_ARN", c.SNSTopicARN)
		default:
			errs = append(errs, fmt.Errorf("unknown notification sink %q", s))
		}
	}
	return errors.Join(errs...)
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

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
