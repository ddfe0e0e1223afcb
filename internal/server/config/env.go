package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays cfg with environment variables. Deployment environments
// (the original system ran on env-configured serverless hosting) set these
// rather than flags or files.
func parseEnv(cfg *Config) {
	envString(&cfg.HTTPAddr, "HTTP_ADDR")
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitCSV(v)
	}
	envString(&cfg.ShopTimezone, "SHOP_TIMEZONE")
	envDuration(&cfg.UpstreamTimeout, "UPSTREAM_TIMEOUT")
	envDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	envBool(&cfg.ZettleEnabled, "ZETTLE_ENABLED")
	envString(&cfg.ZettleClientID, "ZETTLE_CLIENT_ID")
	envString(&cfg.ZettleClientSecret, "ZETTLE_CLIENT_SECRET")
	envString(&cfg.ZettleTokenURL, "ZETTLE_TOKEN_URL")
	envString(&cfg.ZettlePurchasesURL, "ZETTLE_PURCHASES_URL")

	envBool(&cfg.CustomEnabled, "CUSTOM_ENABLED")
	envString(&cfg.CustomBaseURL, "CUSTOM_BASE_URL")
	envString(&cfg.CustomAPIKey, "CUSTOM_API_KEY")

	envString(&cfg.StoreKind, "STORE_KIND")
	envString(&cfg.SQLitePath, "SQLITE_PATH")
	envString(&cfg.DatabaseDSN, "DATABASE_DSN")

	envString(&cfg.S3Bucket, "S3_BUCKET")
	envString(&cfg.S3Region, "S3_REGION")
	envString(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	envString(&cfg.S3SecretKey, "S3_SECRET_KEY")
	envString(&cfg.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
