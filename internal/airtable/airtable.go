package airtable

import (
	"context"
	"fmt"
	"time"

	"flightscraper/internal/assert"
	"flightscraper/internal/flights"
	"flightscraper/internal/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://api.airtable.com/v0"

// MaxRecordsPerRequest is the most records the API accepts in a single create call.
const MaxRecordsPerRequest = 10

const report_uploader_upload = "uploader.upload"

type Config struct {
	BaseUrl string `json:"base_url"`
	BaseId  string `json:"base_id"`
	TableId string `json:"table_id"`
	ApiKey  string `json:"api_key"`
}

func (c Config) Enabled() bool {
	return c.BaseId != "" && c.TableId != "" && c.ApiKey != ""
}

type createRecord struct {
	Fields map[string]any `json:"fields"`
}

type createRequest struct {
	Records  []createRecord `json:"records"`
	Typecast bool           `json:"typecast"`
}

// Uploader creates records in an Airtable table.
type Uploader struct {
	http    *resty.Client
	limiter *rate.Limiter
	tel     telemetry.API
}

func NewUploader(cfg Config, tel telemetry.API) Uploader {
	assert.NotEmptyStr(cfg.BaseId)
	assert.NotEmptyStr(cfg.TableId)
	assert.NotEmptyStr(cfg.ApiKey)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("airtable", tel)

	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	client := resty.New()
	client.SetBaseURL(fmt.Sprintf("%s/%s", baseUrl, cfg.BaseId))
	client.SetAuthToken(cfg.ApiKey)
	client.SetHeader("content-type", "application/json")
	client.SetPathParam("table", cfg.TableId)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, tel)

	return Uploader{
		http: client,
		// one request per second, the API allows a few more but shares the quota
		// with every other client of the base
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		tel:     tel,
	}
}

func (u Uploader) Client() *resty.Client {
	return u.http
}

// Fields maps a record to the field set of a row, empty strings become null.
func Fields(record flights.Record) map[string]any {
	values := record.Values()
	fields := make(map[string]any, len(flights.Columns))
	for i, column := range flights.Columns {
		value := values[i]
		if s, ok := value.(string); ok && s == "" {
			value = nil
		}
		fields[column] = value
	}
	return fields
}

// Upload sends the records in requests of at most MaxRecordsPerRequest, a failed
// request stops the upload and the error names the failed chunk.
func (u Uploader) Upload(ctx context.Context, records []flights.Record) (int, error) {
	uploaded := 0
	for start := 0; start < len(records); start += MaxRecordsPerRequest {
		end := min(start+MaxRecordsPerRequest, len(records))

		err := u.limiter.Wait(ctx)
		if err != nil {
			return uploaded, err
		}

		body := createRequest{Typecast: true}
		for _, record := range records[start:end] {
			body.Records = append(body.Records, createRecord{Fields: Fields(record)})
		}

		res, err := u.http.R().
			SetContext(ctx).
			SetBody(body).
			Post("/{table}")
		if err != nil {
			u.tel.ReportBroken(report_uploader_upload, err, start)
			return uploaded, fmt.Errorf("upload records %d-%d: %w", start, end-1, err)
		}
		if res.IsError() {
			err := fmt.Errorf("upload records %d-%d: unexpected status %s: %s", start, end-1, res.Status(), res.String())
			u.tel.ReportBroken(report_uploader_upload, err)
			return uploaded, err
		}
		uploaded += end - start
	}

	u.tel.ReportCount(report_uploader_upload, int64(uploaded))
	return uploaded, nil
}
