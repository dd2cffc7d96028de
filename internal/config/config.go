package config

import (
	"log"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

// PolicyConfig carries the distribution rates. Defaults match the current
// regulatory text; overriding them takes a decree, not a redeploy, so the
// env knobs exist mostly for staging environments.
type PolicyConfig struct {
	IndicatorPct  decimal.Decimal
	LegalFundPct  decimal.Decimal
	TreasuryPct   decimal.Decimal
	ChiefsPct     decimal.Decimal
	SeizingPct    decimal.Decimal
	MutualPct     decimal.Decimal
	CommonFundPct decimal.Decimal
	IncentivePct  decimal.Decimal
}

type AppConfig struct {
	Port     string
	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config
	Policy   PolicyConfig

	ReportDir         string
	FilesPublicPrefix string
	ExternalURL       string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("invalid decimal value %q: %v", s, err)
	}
	return d
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8010"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "contentieux"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "contentieux_"),
		},
		S3: S3Config{
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "reports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		Policy: PolicyConfig{
			IndicatorPct:  mustDecimal(getenv("POLICY_INDICATOR_PCT", "0.10")),
			LegalFundPct:  mustDecimal(getenv("POLICY_LEGAL_FUND_PCT", "0.10")),
			TreasuryPct:   mustDecimal(getenv("POLICY_TREASURY_PCT", "0.15")),
			ChiefsPct:     mustDecimal(getenv("POLICY_CHIEFS_PCT", "0.15")),
			SeizingPct:    mustDecimal(getenv("POLICY_SEIZING_PCT", "0.35")),
			MutualPct:     mustDecimal(getenv("POLICY_MUTUAL_PCT", "0.05")),
			CommonFundPct: mustDecimal(getenv("POLICY_COMMON_FUND_PCT", "0.30")),
			IncentivePct:  mustDecimal(getenv("POLICY_INCENTIVE_PCT", "0.15")),
		},
		ReportDir:         getenv("REPORT_DIR", "./reports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
	}
}
