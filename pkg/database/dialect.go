package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	// Every statement goes to the driver with bind parameters.
	goqu.SetDefaultPrepared(true)
}

// Dialect describes one SQL engine: the database/sql driver to open, the goqu
// dialect used to render statements and the DDL types that differ per engine.
type Dialect struct {
	Name          string
	Driver        string
	UseReturning  bool
	IDColumn      string
	TimestampType string
}

var (
	Postgres = Dialect{
		Name:          "postgres",
		Driver:        "postgres",
		UseReturning:  true,
		IDColumn:      "BIGSERIAL PRIMARY KEY",
		TimestampType: "TIMESTAMP",
	}

	PostgresPgx = Dialect{
		Name:          "postgres",
		Driver:        "pgx",
		UseReturning:  true,
		IDColumn:      "BIGSERIAL PRIMARY KEY",
		TimestampType: "TIMESTAMP",
	}

	MySQL = Dialect{
		Name:          "mysql",
		Driver:        "mysql",
		UseReturning:  false,
		IDColumn:      "BIGINT AUTO_INCREMENT PRIMARY KEY",
		TimestampType: "DATETIME(6)",
	}

	SQLite = Dialect{
		Name:          "sqlite3",
		Driver:        "sqlite3",
		UseReturning:  false,
		IDColumn:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		TimestampType: "TIMESTAMP",
	}
)

// Builder returns the goqu statement builder for this dialect.
func (d Dialect) Builder() goqu.DialectWrapper {
	return goqu.Dialect(d.Name)
}

// ParseURL turns a db.url value into a dialect and a driver specific DSN.
// username and password, when set, replace any credentials embedded in the URL.
// A leading "jdbc:" is accepted so existing configuration files keep working.
//
//	postgres://host:5432/histotrek?sslmode=disable
//	pgx://host:5432/histotrek
//	mysql://tcp(host:3306)/histotrek   or   mysql://host:3306/histotrek
//	sqlite:///var/lib/histotrek.db     or   file:histotrek.db?cache=shared
func ParseURL(rawURL, username, password string) (Dialect, string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(rawURL), "jdbc:")
	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		if strings.HasPrefix(raw, "file:") {
			return SQLite, raw, nil
		}
		return Dialect{}, "", fmt.Errorf("unsupported database url %q", rawURL)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		u, err := url.Parse(raw)
		if err != nil {
			return Dialect{}, "", fmt.Errorf("invalid postgres url: %w", err)
		}
		applyCredentials(u, username, password)
		return Postgres, u.String(), nil

	case "pgx":
		cfg, err := pgx.ParseConfig("postgres://" + rest)
		if err != nil {
			return Dialect{}, "", fmt.Errorf("invalid pgx url: %w", err)
		}
		if username != "" {
			cfg.User = username
		}
		if password != "" {
			cfg.Password = password
		}
		return PostgresPgx, stdlib.RegisterConnConfig(cfg), nil

	case "mysql":
		cfg, err := mysql.ParseDSN(mysqlDSN(rest))
		if err != nil {
			return Dialect{}, "", fmt.Errorf("invalid mysql url: %w", err)
		}
		if username != "" {
			cfg.User = username
		}
		if password != "" {
			cfg.Passwd = password
		}
		cfg.ParseTime = true
		// RowsAffected counts matched rows, so an UPDATE that changes nothing is not a miss.
		cfg.ClientFoundRows = true
		return MySQL, cfg.FormatDSN(), nil

	case "sqlite", "sqlite3":
		if rest == "" {
			return Dialect{}, "", fmt.Errorf("sqlite url %q has no path", rawURL)
		}
		return SQLite, rest, nil
	}

	return Dialect{}, "", fmt.Errorf("unsupported database scheme %q", scheme)
}

func applyCredentials(u *url.URL, username, password string) {
	if username == "" {
		return
	}
	if password == "" {
		u.User = url.User(username)
		return
	}
	u.User = url.UserPassword(username, password)
}

// mysqlDSN accepts both the driver's native form ("user@tcp(host:3306)/db")
// and the URL form ("host:3306/db").
func mysqlDSN(rest string) string {
	if strings.Contains(rest, "(") {
		return rest
	}
	creds := ""
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		creds, rest = rest[:at+1], rest[at+1:]
	}
	host, path, found := strings.Cut(rest, "/")
	if !found {
		return creds + "tcp(" + host + ")/"
	}
	return creds + "tcp(" + host + ")/" + path
}
