package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBUrl       string
	DBName      string
	TokenSecret string
	TokenTTL    time.Duration
	CORSOrigin  string
	Debug       bool
}

// ParseFlags loads an optional .env file, then reads the command line.
// Every flag defaults to its FORMS_* environment variable when set.
func ParseFlags() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func Parse(flags *flag.FlagSet, args []string, getenv func(string) string) (cfg Config, err error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	envUint := func(key string, def uint) uint {
		if v, err := strconv.ParseUint(getenv(key), 10, 32); err == nil {
			return uint(v)
		}
		return def
	}
	envBool := func(key string) bool {
		v, _ := strconv.ParseBool(getenv(key))
		return v
	}

	var host string
	flags.StringVar(&host, "host", env("FORMS_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flags.UintVar(&port, "port", envUint("FORMS_PORT", 5001), "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", env("FORMS_DB_URL", "forms.sqlite"), "path to SQLite3 DB file, or a mongodb:// URI")
	flags.StringVar(&cfg.DBName, "db-name", env("FORMS_DB_NAME", "forms"), "MongoDB database name")
	flags.StringVar(&cfg.TokenSecret, "token-secret", env("FORMS_TOKEN_SECRET", ""), "secret key for token encryption and decryption")
	var ttl uint
	flags.UintVar(&ttl, "token-ttl", envUint("FORMS_TOKEN_TTL", 3600), "token TTL in seconds")
	flags.StringVar(&cfg.CORSOrigin, "cors-origin", env("FORMS_CORS_ORIGIN", "http://localhost:3000"), "allowed CORS origin")
	flags.BoolVar(&cfg.Debug, "debug", envBool("FORMS_DEBUG"), "log at DEBUG level")
	if err = flags.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
