package output

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/errors"
	"github.com/grove/pgoutput-stream/logger"
	"github.com/grove/pgoutput-stream/pq/message/format"
	"resty.dev/v3"
)

type IngestConfig struct {
	URL      string        `json:"url" yaml:"url"`
	Pipeline string        `json:"pipeline" yaml:"pipeline"`
	APIKey   string        `json:"apiKey" yaml:"apiKey"`
	Tables   []string      `json:"tables" yaml:"tables"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

func (c IngestConfig) Validate() error {
	if c.URL == "" {
		return errors.New("feldera url cannot be empty")
	}
	if c.Pipeline == "" {
		return errors.New("feldera pipeline cannot be empty")
	}
	return nil
}

// Ingest pushes row changes to a streaming ingress endpoint as
// insert_delete JSON arrays, one request per change.
type Ingest struct {
	client    *resty.Client
	converter *Converter
	skipped   map[string]struct{}
	pipeline  string
}

func NewIngest(cfg IngestConfig) *Ingest {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().SetBaseURL(cfg.URL).SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Ingest{
		client:    client,
		converter: NewConverter(cfg.Tables),
		skipped:   make(map[string]struct{}),
		pipeline:  cfg.Pipeline,
	}
}

func (i *Ingest) Name() string {
	return TypeFeldera
}

func (i *Ingest) Deliver(ctx context.Context, change format.Change) error {
	rows := i.converter.Rows(change)
	if len(rows) == 0 {
		return nil
	}

	ref := change.(format.RowChange).Table()
	table, ok := i.converter.Route(ref)
	if !ok {
		i.warnSkipped(ref)
		return nil
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "ingest encode")
	}

	res, err := i.client.NewRequest().
		WithContext(ctx).
		SetContentType("application/json").
		SetQueryParams(map[string]string{
			"format":        "json",
			"update_format": "insert_delete",
			"array":         "true",
		}).
		SetPathParams(map[string]string{
			"pipeline": i.pipeline,
			"table":    table,
		}).
		SetBody(body).
		Post("/{pipeline}/ingress/{table}")
	if err != nil {
		return errors.Wrap(err, "ingest post")
	}

	if !res.IsSuccess() {
		return errors.Newf("ingest POST %s: %s %s", res.Request.URL, res.Status(), res.String())
	}

	logger.Debug("ingested change", "table", table, "variant", change.Variant())

	return nil
}

func (i *Ingest) warnSkipped(ref format.TableRef) {
	if _, seen := i.skipped[ref.String()]; seen {
		return
	}
	i.skipped[ref.String()] = struct{}{}
	logger.Warn("table not in feldera table list, skipping", "table", ref.String())
}

func (i *Ingest) Close() error {
	return i.client.Close()
}
