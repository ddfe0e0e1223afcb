package config

import (
	"flag"
	"os"
	"time"

	"github.com/brewkit/orderboard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-z string   shop time zone (IANA name)
//	-t int      per-call upstream timeout, seconds
//	-k string   completion store kind (memory|sqlite|postgres|s3)
//	-d string   PostgreSQL DSN
//	-f string   sqlite file path
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so the -c/-config flag handled by the JSON layer does
// not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-z", "-t", "-k", "-d", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.ShopTimezone, "z", config.ShopTimezone, "shop time zone")

	upstreamTimeout := fs.Int("t", int(config.UpstreamTimeout.Seconds()), "upstream timeout (in seconds)")

	fs.StringVar(&config.StoreKind, "k", config.StoreKind, "completion store kind")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "sqlite file path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UpstreamTimeout = time.Duration(*upstreamTimeout) * time.Second
}
