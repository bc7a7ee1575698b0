package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/grove/pgoutput-stream/config"
	"github.com/grove/pgoutput-stream/output"
	"github.com/urfave/cli/v2"
)

const (
	fConfig            = "config"
	fConnection        = "connection"
	fHost              = "host"
	fPort              = "port"
	fUser              = "user"
	fPassword          = "password"
	fDatabase          = "database"
	fSSLMode           = "sslmode"
	fSlot              = "slot"
	fPublication       = "publication"
	fCreateSlot        = "create-slot"
	fCreatePublication = "create-publication"
	fStartLSN          = "start-lsn"
	fFormat            = "format"
	fTarget            = "target"
	fNATSURL           = "nats-url"
	fNATSPrefix        = "nats-prefix"
	fFelderaURL        = "feldera-url"
	fFelderaPipeline   = "feldera-pipeline"
	fFelderaAPIKey     = "feldera-api-key"
	fFelderaTables     = "feldera-tables"
	fMetricPort        = "metric-port"
	fLogLevel          = "log-level"
	fLogHandler        = "log-handler"
	fDebug             = "debug"
)

type runFunc func(ctx context.Context, cfg config.Config) error

func newApp(run runFunc) *cli.App {
	return &cli.App{
		Name:  "pgoutput-stream",
		Usage: "relay postgres logical replication changes to the console, nats or feldera",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: fConfig, Aliases: []string{"c"}, Usage: "path to a yaml or json config file"},
			&cli.StringFlag{Name: fConnection, Usage: "libpq connection string, overrides host, port, user, password and database", EnvVars: []string{"PGOUTPUT_STREAM_CONNECTION"}},
			&cli.StringFlag{Name: fHost, Usage: "postgres host"},
			&cli.IntFlag{Name: fPort, Usage: "postgres port"},
			&cli.StringFlag{Name: fUser, Usage: "postgres user"},
			&cli.StringFlag{Name: fPassword, Usage: "postgres password", EnvVars: []string{"PGPASSWORD"}},
			&cli.StringFlag{Name: fDatabase, Usage: "postgres database"},
			&cli.StringFlag{Name: fSSLMode, Usage: "postgres sslmode"},
			&cli.StringFlag{Name: fSlot, Aliases: []string{"s"}, Usage: "replication slot name"},
			&cli.StringFlag{Name: fPublication, Aliases: []string{"p"}, Usage: "publication name"},
			&cli.BoolFlag{Name: fCreateSlot, Usage: "create the replication slot when it does not exist"},
			&cli.BoolFlag{Name: fCreatePublication, Usage: "create the publication when it does not exist"},
			&cli.StringFlag{Name: fStartLSN, Usage: "start streaming at this lsn, e.g. 0/16B3748"},
			&cli.StringFlag{Name: fFormat, Aliases: []string{"f"}, Usage: "console format: json, json-pretty or text"},
			&cli.StringSliceFlag{Name: fTarget, Aliases: []string{"t"}, Usage: "output in delivery order: console, nats or feldera; repeatable"},
			&cli.StringSliceFlag{Name: fNATSURL, Usage: "nats server url; repeatable"},
			&cli.StringFlag{Name: fNATSPrefix, Usage: "nats subject prefix"},
			&cli.StringFlag{Name: fFelderaURL, Usage: "feldera base url"},
			&cli.StringFlag{Name: fFelderaPipeline, Usage: "feldera pipeline name"},
			&cli.StringFlag{Name: fFelderaAPIKey, Usage: "feldera api key", EnvVars: []string{"FELDERA_API_KEY"}},
			&cli.StringSliceFlag{Name: fFelderaTables, Usage: "tables sent to feldera as schema.table or table; repeatable"},
			&cli.IntFlag{Name: fMetricPort, Usage: "status server port, 0 disables it"},
			&cli.StringFlag{Name: fLogLevel, Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: fLogHandler, Usage: "json, text or dev"},
			&cli.BoolFlag{Name: fDebug, Usage: "debug logging and pprof endpoint"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return run(c.Context, cfg)
		},
	}
}

// loadConfig reads the config file, if any, and applies the flags that were
// set on top of it.
func loadConfig(c *cli.Context) (config.Config, error) {
	var cfg config.Config
	if path := c.String(fConfig); path != "" {
		var err error
		if cfg, err = config.ReadConfig(path); err != nil {
			return config.Config{}, err
		}
	}

	setString(c, fConnection, &cfg.Connection)
	setString(c, fHost, &cfg.Host)
	setString(c, fUser, &cfg.Username)
	setString(c, fPassword, &cfg.Password)
	setString(c, fDatabase, &cfg.Database)
	setString(c, fSSLMode, &cfg.SSLMode)
	setString(c, fSlot, &cfg.Slot.Name)
	setString(c, fPublication, &cfg.Publication.Name)
	setString(c, fStartLSN, &cfg.StartLSN)
	setString(c, fLogHandler, &cfg.Logger.Handler)

	if c.IsSet(fPort) {
		cfg.Port = c.Int(fPort)
	}
	if c.IsSet(fMetricPort) {
		cfg.Metric.Port = c.Int(fMetricPort)
	}
	if c.IsSet(fCreateSlot) {
		cfg.Slot.CreateIfNotExists = c.Bool(fCreateSlot)
	}
	if c.IsSet(fCreatePublication) {
		cfg.Publication.CreateIfNotExists = c.Bool(fCreatePublication)
	}
	if c.IsSet(fDebug) {
		cfg.DebugMode = c.Bool(fDebug)
	}

	if c.IsSet(fLogLevel) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.String(fLogLevel))); err != nil {
			return config.Config{}, err
		}
		cfg.Logger.LogLevel = level
	}

	if c.IsSet(fTarget) {
		outputs := make([]config.OutputConfig, 0, len(c.StringSlice(fTarget)))
		for _, t := range c.StringSlice(fTarget) {
			outputs = append(outputs, config.OutputConfig{Type: strings.ToLower(strings.TrimSpace(t))})
		}
		cfg.Outputs = outputs
	}

	if len(cfg.Outputs) == 0 && (c.IsSet(fFormat) || !c.IsSet(fConfig)) {
		cfg.Outputs = []config.OutputConfig{{Type: output.TypeConsole}}
	}

	for i := range cfg.Outputs {
		o := &cfg.Outputs[i]
		switch o.Type {
		case output.TypeConsole:
			setString(c, fFormat, &o.Console.Format)
		case output.TypeNATS:
			if c.IsSet(fNATSURL) {
				o.NATS.URLs = c.StringSlice(fNATSURL)
			}
			setString(c, fNATSPrefix, &o.NATS.SubjectPrefix)
		case output.TypeFeldera:
			setString(c, fFelderaURL, &o.Feldera.URL)
			setString(c, fFelderaPipeline, &o.Feldera.Pipeline)
			setString(c, fFelderaAPIKey, &o.Feldera.APIKey)
			if c.IsSet(fFelderaTables) {
				o.Feldera.Tables = c.StringSlice(fFelderaTables)
			}
		}
	}

	return cfg, nil
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}
