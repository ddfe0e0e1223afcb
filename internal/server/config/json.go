package config

import (
	"encoding/json"
	"os"

	"github.com/brewkit/orderboard/internal/flagx"
	"github.com/brewkit/orderboard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so the file can spell them as "10s" or as nanoseconds.
// Pointer fields distinguish "absent" from zero so the overlay only touches
// keys that are present.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	CORSOrigins     []string        `json:"cors_origins"`
	ShopTimezone    *string         `json:"shop_timezone"`
	UpstreamTimeout *timex.Duration `json:"upstream_timeout"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`

	ZettleEnabled      *bool   `json:"zettle_enabled"`
	ZettleClientID     *string `json:"zettle_client_id"`
	ZettleClientSecret *string `json:"zettle_client_secret"`
	ZettleTokenURL     *string `json:"zettle_token_url"`
	ZettlePurchasesURL *string `json:"zettle_purchases_url"`

	CustomEnabled *bool   `json:"custom_enabled"`
	CustomBaseURL *string `json:"custom_base_url"`
	CustomAPIKey  *string `json:"custom_api_key"`

	StoreKind   *string `json:"store_kind"`
	SQLitePath  *string `json:"sqlite_path"`
	DatabaseDSN *string `json:"database_dsn"`

	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson overlays cfg with values from the JSON file referenced by the
// -c/-config flag. No flag, no overlay. Read or unmarshal errors panic;
// startup is the only caller and a broken config file should be loud.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyString(&cfg.HTTPAddr, jc.HTTPAddr)
	if jc.CORSOrigins != nil {
		cfg.CORSOrigins = jc.CORSOrigins
	}
	applyString(&cfg.ShopTimezone, jc.ShopTimezone)
	if jc.UpstreamTimeout != nil {
		cfg.UpstreamTimeout = jc.UpstreamTimeout.Std()
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Std()
	}

	applyBool(&cfg.ZettleEnabled, jc.ZettleEnabled)
	applyString(&cfg.ZettleClientID, jc.ZettleClientID)
	applyString(&cfg.ZettleClientSecret, jc.ZettleClientSecret)
	applyString(&cfg.ZettleTokenURL, jc.ZettleTokenURL)
	applyString(&cfg.ZettlePurchasesURL, jc.ZettlePurchasesURL)

	applyBool(&cfg.CustomEnabled, jc.CustomEnabled)
	applyString(&cfg.CustomBaseURL, jc.CustomBaseURL)
	applyString(&cfg.CustomAPIKey, jc.CustomAPIKey)

	applyString(&cfg.StoreKind, jc.StoreKind)
	applyString(&cfg.SQLitePath, jc.SQLitePath)
	applyString(&cfg.DatabaseDSN, jc.DatabaseDSN)

	applyString(&cfg.S3Bucket, jc.S3Bucket)
	applyString(&cfg.S3Region, jc.S3Region)
	applyString(&cfg.S3AccessKey, jc.S3AccessKey)
	applyString(&cfg.S3SecretKey, jc.S3SecretKey)
	applyString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
