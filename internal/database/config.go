package database

import (
	"fmt"
	"strings"

	"persacc/internal/config"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver     string
	SQLitePath string

	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewConfig derives the database configuration from the application config.
func NewConfig(c *config.Config) *Config {
	return &Config{
		Driver:     c.DB.Driver,
		SQLitePath: c.DB.SQLitePath,
		Host:       c.DB.Host,
		Port:       c.DB.Port,
		User:       c.DB.User,
		Password:   c.DB.Password,
		DBName:     c.DB.Name,
		SSLMode:    c.DB.SSLMode,
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return sqliteDSN(c.SQLitePath)
}

// MigrateURL returns the database URL understood by golang-migrate.
func (c *Config) MigrateURL() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
	}
	return "sqlite3://" + sqliteDSN(c.SQLitePath)
}

// sqliteDSN enables foreign keys on every connection; SQLite leaves them off by default.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}
