package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"kabs/internal/engine"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	PriceStoreURL          string
	PriceStoreKey          string
	PriceStoreRateLimitRPS int
	PriceStoreTimeoutMs    int
	PriceStorePageSize     int

	NearestSizeMaxDiff      int
	NearestSizePreferLarger bool
	FuzzyPrefixMaxExtra     int
	HardwareFlatRate        float64

	QuoteSurchargeRate float64
	QuoteTaxRate       float64
	DefaultLineID      string
	DealerName         string
	DealerAddress      string
	DealerPhone        string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailSearchQuery          string
	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoExport   bool

	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	defaults := engine.DefaultOptions()
	rates := engine.DefaultQuoteRates()

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		PriceStoreURL:          getEnv("PRICE_STORE_URL", ""),
		PriceStoreKey:          getEnv("PRICE_STORE_KEY", ""),
		PriceStoreRateLimitRPS: getEnvInt("PRICE_STORE_RATE_LIMIT_RPS", 5),
		PriceStoreTimeoutMs:    getEnvInt("PRICE_STORE_TIMEOUT_MS", 30000),
		PriceStorePageSize:     getEnvInt("PRICE_STORE_PAGE_SIZE", 1000),

		NearestSizeMaxDiff:      getEnvInt("NEAREST_SIZE_MAX_DIFF", defaults.NearestSizeMaxDiff),
		NearestSizePreferLarger: getEnvBool("NEAREST_SIZE_PREFER_LARGER", defaults.NearestSizePreferLarger),
		FuzzyPrefixMaxExtra:     getEnvInt("FUZZY_PREFIX_MAX_EXTRA", defaults.FuzzyPrefixMaxExtra),
		HardwareFlatRate:        getEnvFloat("HARDWARE_FLAT_RATE", defaults.HardwareFlatRate),

		QuoteSurchargeRate: getEnvFloat("QUOTE_SURCHARGE_RATE", rates.SurchargeRate),
		QuoteTaxRate:       getEnvFloat("QUOTE_TAX_RATE", rates.TaxRate),
		DefaultLineID:      getEnv("DEFAULT_LINE_ID", "line_builder"),
		DealerName:         getEnv("DEALER_NAME", ""),
		DealerAddress:      getEnv("DEALER_ADDRESS", ""),
		DealerPhone:        getEnv("DEALER_PHONE", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailSearchQuery:          getEnv("MAIL_SEARCH_QUERY", ""),
		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "gmail"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 30),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoExport:   getEnvBool("MAIL_LISTENER_AUTO_EXPORT", true),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	return cfg, nil
}

// EngineOptions maps the matcher and resolver knobs onto the engine.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		NearestSizeMaxDiff:      c.NearestSizeMaxDiff,
		NearestSizePreferLarger: c.NearestSizePreferLarger,
		FuzzyPrefixMaxExtra:     c.FuzzyPrefixMaxExtra,
		HardwareFlatRate:        c.HardwareFlatRate,
	}
}

func (c Config) QuoteRates() engine.QuoteRates {
	return engine.QuoteRates{SurchargeRate: c.QuoteSurchargeRate, TaxRate: c.QuoteTaxRate}
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
