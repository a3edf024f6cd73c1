package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rtm0/ukcaeval/internal/ncio"
)

// Client is a Victoria Metrics client capable of inserting gridded model
// values via various protocols.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	insertURL    string
	metricPrefix string
	varName      string
	recToText    recToTextFunc
}

const nameRE = "^[a-zA-Z0-9_]+$"

// NewClient creates a new VM client that stores the values of varName
// under the metric <metricPrefix>_<varName>.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix, varName string) (*Client, error) {
	url, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}

	re := regexp.MustCompile(nameRE)
	if !re.MatchString(metricPrefix) {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, nameRE)
	}
	if !re.MatchString(varName) {
		return nil, fmt.Errorf("variable name %q does not match %q regular expression", varName, nameRE)
	}

	apiParams := apiParamsFuncs[url.Path]
	if apiParams == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	q := url.Query()
	for name, value := range apiParams(metricPrefix, varName) {
		q.Add(name, value)
	}
	url.RawQuery = q.Encode()

	recToText := recToTextFuncs[url.Path]
	if recToText == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:    url.String(),
		metricPrefix: metricPrefix,
		varName:      varName,
		recToText:    recToText,
	}, nil
}

// Insert inserts records into Victoria Metrics. Failures are logged and
// returned so the caller can count them.
func (c *Client) Insert(ctx context.Context, recs []ncio.Record) error {
	body := recsToText(recs, c.metricPrefix, c.varName, c.recToText)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.insertURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	res, err := c.httpCli.Do(req)
	if err != nil {
		c.logger.Error("Could not post data", "err", err)
		return err
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Error("Failed to drain response body", "err", err)
	}
	if res.StatusCode != http.StatusNoContent {
		c.logger.Error("Unexpected status", "code", res.StatusCode)
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, c.insertURL)
	}
	return nil
}

type apiParamsFunc func(metricPrefix, varName string) map[string]string

var apiParamsFuncs = map[string]apiParamsFunc{
	"/influx/write":        influxDBAPIParams,
	"/influx/api/v2/write": influxDBAPIParams,
	"/write":               influxDBAPIParams,
	"/api/v2/write":        influxDBAPIParams,
	"/api/v1/import/csv":   csvAPIParams,
}

func influxDBAPIParams(_, _ string) map[string]string {
	return map[string]string{"precision": "ms"}
}

func csvAPIParams(metricPrefix, varName string) map[string]string {
	return map[string]string{
		"format": fmt.Sprintf(""+
			"1:time:unix_ms,"+
			"2:label:la,"+
			"3:label:lo,"+
			"4:metric:%s_%s", metricPrefix, varName),
	}
}

type recToTextFunc func(*strings.Builder, *ncio.Record, string, string)

// recsToText converts multiple records to text.
func recsToText(recs []ncio.Record, metricPrefix, varName string, recToText recToTextFunc) io.Reader {
	var sb strings.Builder
	for _, r := range recs {
		recToText(&sb, &r, metricPrefix, varName)
		sb.WriteString("\n")
	}
	return strings.NewReader(sb.String())
}

var recToTextFuncs = map[string]recToTextFunc{
	"/influx/write":        recToInfluxDB,
	"/influx/api/v2/write": recToInfluxDB,
	"/write":               recToInfluxDB,
	"/api/v2/write":        recToInfluxDB,
	"/api/v1/import/csv":   recToCSV,
}

var influxDBFmt = "%s,la=%.2f,lo=%.2f %s=%g %d"

// recToInfluxDB converts a record into InfluxDB line protocol v2 and
// appends it to the string builder.
func recToInfluxDB(sb *strings.Builder, r *ncio.Record, metricPrefix, varName string) {
	fmt.Fprintf(sb, influxDBFmt, metricPrefix, r.Latitude, r.Longitude, varName, r.Value, r.Timestamp)
}

var csvFmt = "%d,%.2f,%.2f,%g"

// recToCSV converts a record into a CSV record and appends it to the
// string builder.
func recToCSV(sb *strings.Builder, r *ncio.Record, _, _ string) {
	fmt.Fprintf(sb, csvFmt, r.Timestamp, r.Latitude, r.Longitude, r.Value)
}
