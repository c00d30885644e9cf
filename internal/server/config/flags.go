package config

import (
	"flag"
	"os"

	"github.com/creatorpay/core/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-f string   file store path
//	-s string   JWT HMAC secret key
//	-e string   environment ("development" or "production")
//	-p string   provider name (mock | supabase | custom)
//	-w string   security webhook URL
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-f", "-s", "-e", "-p", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorePath, "f", config.StorePath, "file store path")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Environment, "e", config.Environment, "runtime environment")
	fs.StringVar(&config.Provider, "p", config.Provider, "API provider")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "security webhook URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
