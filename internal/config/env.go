package config

import (
	"errors"
	"net"
	neturl "net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// lookup resolves an environment variable. Process variables win over the
// .env layer.
type lookup func(key string) string

func newLookup(dotenvLayer *koanf.Koanf) lookup {
	return func(key string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		if dotenvLayer == nil {
			return ""
		}
		return strings.TrimSpace(dotenvLayer.String(key))
	}
}

// resolveDatabaseURL returns DATABASE_URL (or a known alias, or the contents
// of DATABASE_URL_FILE) when it is a postgres URL, and otherwise assembles
// one from the libpq PG* variables. It returns "" when nothing is configured.
func resolveDatabaseURL(env lookup) string {
	for _, key := range []string{"DATABASE_URL", "POSTGRES_URL", "PGURL"} {
		if url := coerceDatabaseURL(env(key)); url != "" {
			return url
		}
	}
	if url := coerceDatabaseURL(readEnvFile(env, "DATABASE_URL_FILE")); url != "" {
		return url
	}

	host := firstNonEmpty(env("PGHOST"), env("POSTGRES_HOST"))
	user := firstNonEmpty(env("PGUSER"), env("POSTGRES_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(env("PGPASSWORD"), env("POSTGRES_PASSWORD"))
	database := firstNonEmpty(env("PGDATABASE"), env("POSTGRES_DB"), user)
	port := firstNonEmpty(env("PGPORT"), env("POSTGRES_PORT"), "5432")
	sslMode := firstNonEmpty(env("PGSSLMODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "postgresql://"); ok {
		return "postgres://" + rest
	}
	if strings.HasPrefix(raw, "postgres://") {
		return raw
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readEnvFile(env lookup, key string) string {
	path := env(key)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadDotEnv reads path with the koanf dotenv parser. A missing file yields
// an empty layer.
func loadDotEnv(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if path == "" {
		return k, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return k, nil
	}
	if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return nil, err
	}
	return k, nil
}
