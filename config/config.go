package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	perrors "github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/output"
	"github.com/grove/pgoutput-stream/pq"
	"github.com/grove/pgoutput-stream/pq/publication"
	"github.com/grove/pgoutput-stream/pq/slot"
)

const redacted = "*******"

type Config struct {
	Logger LoggerConfig `json:"logger" yaml:"logger"`
	// Connection is a libpq keyword/value or URL connection string. When set,
	// the individual connection fields are ignored.
	Connection  string             `json:"connection" yaml:"connection"`
	Host        string             `json:"host" yaml:"host"`
	Username    string             `json:"username" yaml:"username"`
	Password    string             `json:"password" yaml:"password"`
	Database    string             `json:"database" yaml:"database"`
	SSLMode     string             `json:"sslMode" yaml:"sslMode"`
	Publication publication.Config `json:"publication" yaml:"publication"`
	Slot        slot.Config        `json:"slot" yaml:"slot"`
	Port        int                `json:"port" yaml:"port"`
	StartLSN    string             `json:"startLSN" yaml:"startLSN"`
	// PollInterval is in milliseconds.
	PollInterval time.Duration  `json:"pollInterval" yaml:"pollInterval"`
	BatchSize    int            `json:"batchSize" yaml:"batchSize"`
	Outputs      []OutputConfig `json:"outputs" yaml:"outputs"`
	Metric       MetricConfig   `json:"metric" yaml:"metric"`
	DebugMode    bool           `json:"debugMode" yaml:"debugMode"`
}

type OutputConfig struct {
	Type    string              `json:"type" yaml:"type"`
	Console ConsoleConfig       `json:"console" yaml:"console"`
	NATS    output.BusConfig    `json:"nats" yaml:"nats"`
	Feldera output.IngestConfig `json:"feldera" yaml:"feldera"`
}

type ConsoleConfig struct {
	Format string `json:"format" yaml:"format"`
}

// MetricConfig controls the status server. Port 0 disables it.
type MetricConfig struct {
	Port int `json:"port" yaml:"port"`
}

type LoggerConfig struct {
	Logger   logger.Logger `json:"-" yaml:"-"`         // custom logger
	LogLevel slog.Level    `json:"level" yaml:"level"` // if custom logger is nil, set the slog log level
	Handler  string        `json:"handler" yaml:"handler"`
}

func (c *Config) DSN() string {
	if !isEmpty(c.Connection) {
		return c.Connection
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}

	return u.String()
}

// StartPosition parses StartLSN. An empty value yields zero, which means
// resume from the slot's confirmed position.
func (c *Config) StartPosition() (pq.LSN, error) {
	if isEmpty(c.StartLSN) {
		return 0, nil
	}
	return pq.ParseLSN(strings.TrimSpace(c.StartLSN))
}

func (c *Config) SetDefault() {
	if c.Port == 0 {
		c.Port = 5432
	}

	if c.PollInterval == 0 {
		c.PollInterval = 100
	}

	if c.BatchSize == 0 {
		c.BatchSize = 1000
	}

	if c.Logger.Handler == "" {
		c.Logger.Handler = logger.HandlerJSON
	}

	if c.DebugMode {
		c.Logger.LogLevel = slog.LevelDebug
	}

	if c.Logger.Logger == nil {
		c.Logger.Logger = logger.NewSlog(c.Logger.LogLevel, c.Logger.Handler)
	}

	if len(c.Outputs) == 0 {
		c.Outputs = []OutputConfig{{Type: output.TypeConsole}}
	}

	for i := range c.Outputs {
		if c.Outputs[i].Type == output.TypeConsole && c.Outputs[i].Console.Format == "" {
			c.Outputs[i].Console.Format = string(output.FormatJSON)
		}
	}

	c.Publication.SetDefault()
	c.Slot.SetDefault()
}

// Validate reports every problem at once. Call SetDefault first.
func (c *Config) Validate() error {
	var err error
	if isEmpty(c.Connection) {
		if isEmpty(c.Host) {
			err = errors.Join(err, errors.New("host cannot be empty"))
		}

		if isEmpty(c.Username) {
			err = errors.Join(err, errors.New("username cannot be empty"))
		}

		if isEmpty(c.Database) {
			err = errors.Join(err, errors.New("database cannot be empty"))
		}
	}

	if _, cErr := c.StartPosition(); cErr != nil {
		err = errors.Join(err, fmt.Errorf("start lsn: %w", cErr))
	}

	if c.PollInterval < 0 {
		err = errors.Join(err, errors.New("poll interval cannot be negative"))
	}

	if !isValidHandler(c.Logger.Handler) {
		err = errors.Join(err, fmt.Errorf("unknown log handler: %s. Valid options: %s", c.Logger.Handler, strings.Join(logger.HandlerOptions, ", ")))
	}

	if len(c.Outputs) == 0 {
		err = errors.Join(err, errors.New("at least one output is required"))
	}

	for i, o := range c.Outputs {
		if oErr := o.Validate(); oErr != nil {
			err = errors.Join(err, fmt.Errorf("outputs[%d]: %w", i, oErr))
		}
	}

	if cErr := c.Publication.Validate(); cErr != nil {
		err = errors.Join(err, cErr)
	}

	if cErr := c.Slot.Validate(); cErr != nil {
		err = errors.Join(err, cErr)
	}

	return err
}

// Validate returns the bare cause so the message reads without source
// locations.
func (o OutputConfig) Validate() error {
	var err error
	switch o.Type {
	case output.TypeConsole:
		_, err = output.ParseFormat(o.Console.Format)
	case output.TypeNATS:
		err = o.NATS.Validate()
	case output.TypeFeldera:
		err = o.Feldera.Validate()
	default:
		return fmt.Errorf("unknown output type: %s. Valid options: %s", o.Type, strings.Join(output.TypeOptions, ", "))
	}

	if err != nil {
		return perrors.Cause(err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cfg := *c
	if cfg.Password != "" {
		cfg.Password = redacted
	}

	if cfg.Connection != "" {
		cfg.Connection = redactConnection(cfg.Connection)
	}

	cfg.Outputs = make([]OutputConfig, len(c.Outputs))
	copy(cfg.Outputs, c.Outputs)
	for i := range cfg.Outputs {
		if cfg.Outputs[i].Feldera.APIKey != "" {
			cfg.Outputs[i].Feldera.APIKey = redacted
		}
	}

	return cfg
}

// Print logs the redacted config through the configured logger, falling back
// to the package default before SetDefault has run.
func (c *Config) Print() {
	b, _ := json.Marshal(c.Redacted())
	if c.Logger.Logger != nil {
		c.Logger.Logger.Info("used config", "config", string(b))
		return
	}
	logger.Info("used config", "config", string(b))
}

func redactConnection(conn string) string {
	if u, err := url.Parse(conn); err == nil && u.Scheme != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
		return u.String()
	}

	fields := strings.Fields(conn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=" + redacted
		}
	}
	return strings.Join(fields, " ")
}

func isValidHandler(handler string) bool {
	for _, h := range logger.HandlerOptions {
		if h == handler {
			return true
		}
	}
	return false
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
