package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Balance methods accepted by the month close.
const (
	BalanceMethodBeforeSalary = "BEFORE_SALARY"
	BalanceMethodAfterSalary  = "AFTER_SALARY"
)

// Config holds application configuration
type Config struct {
	// Server
	Env    string
	Port   string
	APIKey string

	DB     DBConfig
	AMQP   AMQPConfig
	Ledger LedgerConfig
}

// DBConfig selects and configures the storage backend.
type DBConfig struct {
	Driver     string // sqlite or postgres
	SQLitePath string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AMQPConfig configures the month-closed event publisher. Publishing is
// disabled when URL is empty.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Enabled reports whether an AMQP broker is configured.
func (c AMQPConfig) Enabled() bool { return c.URL != "" }

// SystemCategories names the categories the month close books its
// automatic movements against.
type SystemCategories struct {
	Salary           string
	SalaryRetention  string
	SurplusRetention string
	Consequences     string
}

// LedgerConfig holds the accounting policy consumed by the core.
type LedgerConfig struct {
	BalanceMethod              string
	DefaultSurplusRetentionPct decimal.Decimal
	DefaultSalaryRetentionPct  decimal.Decimal
	SalaryKeywords             []string
	SalaryShiftDay             int
	EnableRelevance            bool
	EnableRetentions           bool
	DefaultRelevance           string
	Categories                 SystemCategories
}

// Load loads configuration from the environment, an optional .env file and an
// optional persacc.{yaml,json,toml} settings file. Environment variables take
// precedence over the settings file.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings file: %w", err)
		}
	}

	config, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("persacc")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if dir := os.Getenv("PERSACC_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("PERSACC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("api_key", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.sqlite_path", "data/persacc.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "persacc")
	v.SetDefault("db.password", "persacc")
	v.SetDefault("db.name", "persacc")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "persacc")
	v.SetDefault("amqp.queue", "month_closed")

	v.SetDefault("ledger.balance_method", BalanceMethodBeforeSalary)
	v.SetDefault("ledger.surplus_retention_pct", "0")
	v.SetDefault("ledger.salary_retention_pct", "0.20")
	v.SetDefault("ledger.salary_keywords", []string{"payroll", "salary", "nomina", "nómina"})
	v.SetDefault("ledger.salary_shift_day", 25)
	v.SetDefault("ledger.enable_relevance", true)
	v.SetDefault("ledger.enable_retentions", true)
	v.SetDefault("ledger.default_relevance", "NECESSARY")
	v.SetDefault("ledger.categories.salary", "Salary")
	v.SetDefault("ledger.categories.salary_retention", "Salary Retention Investment")
	v.SetDefault("ledger.categories.surplus_retention", "Surplus Retention Investment")
	v.SetDefault("ledger.categories.consequences", "Consequences Investment")
}

func fromViper(v *viper.Viper) (*Config, error) {
	surplusPct, err := decimal.NewFromString(v.GetString("ledger.surplus_retention_pct"))
	if err != nil {
		return nil, fmt.Errorf("ledger.surplus_retention_pct: %w", err)
	}
	salaryPct, err := decimal.NewFromString(v.GetString("ledger.salary_retention_pct"))
	if err != nil {
		return nil, fmt.Errorf("ledger.salary_retention_pct: %w", err)
	}

	return &Config{
		Env:    v.GetString("env"),
		Port:   v.GetString("port"),
		APIKey: v.GetString("api_key"),
		DB: DBConfig{
			Driver:     strings.ToLower(v.GetString("db.driver")),
			SQLitePath: v.GetString("db.sqlite_path"),
			Host:       v.GetString("db.host"),
			Port:       v.GetString("db.port"),
			User:       v.GetString("db.user"),
			Password:   v.GetString("db.password"),
			Name:       v.GetString("db.name"),
			SSLMode:    v.GetString("db.sslmode"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("amqp.url"),
			Exchange: v.GetString("amqp.exchange"),
			Queue:    v.GetString("amqp.queue"),
		},
		Ledger: LedgerConfig{
			BalanceMethod:              strings.ToUpper(v.GetString("ledger.balance_method")),
			DefaultSurplusRetentionPct: surplusPct,
			DefaultSalaryRetentionPct:  salaryPct,
			SalaryKeywords:             splitKeywords(v.GetStringSlice("ledger.salary_keywords")),
			SalaryShiftDay:             v.GetInt("ledger.salary_shift_day"),
			EnableRelevance:            v.GetBool("ledger.enable_relevance"),
			EnableRetentions:           v.GetBool("ledger.enable_retentions"),
			DefaultRelevance:           strings.ToUpper(v.GetString("ledger.default_relevance")),
			Categories: SystemCategories{
				Salary:           v.GetString("ledger.categories.salary"),
				SalaryRetention:  v.GetString("ledger.categories.salary_retention"),
				SurplusRetention: v.GetString("ledger.categories.surplus_retention"),
				Consequences:     v.GetString("ledger.categories.consequences"),
			},
		},
	}, nil
}

// splitKeywords accepts both list values and comma separated env values.
func splitKeywords(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, kw := range strings.Split(item, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Validate checks that all settings are usable and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	switch c.DB.Driver {
	case "sqlite":
		if c.DB.SQLitePath == "" {
			problems = append(problems, "db.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.Host == "" || c.DB.Name == "" {
			problems = append(problems, "db.host and db.name are required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("db.driver %q is not supported (use sqlite or postgres)", c.DB.Driver))
	}

	switch c.Ledger.BalanceMethod {
	case BalanceMethodBeforeSalary, BalanceMethodAfterSalary:
	default:
		problems = append(problems, fmt.Sprintf("ledger.balance_method %q is not supported", c.Ledger.BalanceMethod))
	}

	if !isFraction(c.Ledger.DefaultSurplusRetentionPct) {
		problems = append(problems, "ledger.surplus_retention_pct must be between 0 and 1")
	}
	if !isFraction(c.Ledger.DefaultSalaryRetentionPct) {
		problems = append(problems, "ledger.salary_retention_pct must be between 0 and 1")
	}
	if c.Ledger.SalaryShiftDay < 0 || c.Ledger.SalaryShiftDay > 31 {
		problems = append(problems, "ledger.salary_shift_day must be between 0 and 31")
	}

	switch c.Ledger.DefaultRelevance {
	case "NECESSARY", "ENJOYED", "SUPERFLUOUS", "NONSENSE":
	default:
		problems = append(problems, fmt.Sprintf("ledger.default_relevance %q is not a relevance code", c.Ledger.DefaultRelevance))
	}

	cats := c.Ledger.Categories
	if cats.Salary == "" || cats.SalaryRetention == "" || cats.SurplusRetention == "" || cats.Consequences == "" {
		problems = append(problems, "ledger.categories must name every system category")
	}

	if c.AMQP.Enabled() && (c.AMQP.Exchange == "" || c.AMQP.Queue == "") {
		problems = append(problems, "amqp.exchange and amqp.queue are required when amqp.url is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func isFraction(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// DefaultLedger returns the ledger policy built from the default settings
// alone, ignoring the environment and any settings file.
func DefaultLedger() LedgerConfig {
	v := viper.New()
	setDefaults(v)
	c, err := fromViper(v)
	if err != nil {
		panic(fmt.Sprintf("invalid default ledger settings: %v", err))
	}
	return c.Ledger
}
