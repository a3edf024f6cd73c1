package vm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/ukcaeval/internal/ncio"
)

var testRecs = []ncio.Record{
	{Timestamp: 1104537600000, Latitude: 53.33, Longitude: -9.9, Value: 41.5},
	{Timestamp: 1104537600000, Latitude: -45, Longitude: 180, Value: 1e-8},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captured struct {
	path  string
	query string
	body  string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.path, c.query, c.body = r.URL.Path, r.URL.RawQuery, string(b)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestInsert_InfluxLineProtocol(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent)
	cli, err := NewClient(discardLogger(), srv.URL+"/write", 2, "ukca", "o3")
	require.NoError(t, err)

	require.NoError(t, cli.Insert(context.Background(), testRecs))

	assert.Equal(t, "/write", got.path)
	assert.Equal(t, "precision=ms", got.query)
	lines := strings.Split(strings.TrimSpace(got.body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ukca,la=53.33,lo=-9.90 o3=41.5 1104537600000", lines[0])
	assert.Equal(t, "ukca,la=-45.00,lo=180.00 o3=1e-08 1104537600000", lines[1])
}

func TestInsert_CSV(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent)
	cli, err := NewClient(discardLogger(), srv.URL+"/api/v1/import/csv", 1, "ukca", "o3")
	require.NoError(t, err)

	require.NoError(t, cli.Insert(context.Background(), testRecs[:1]))

	assert.Contains(t, got.query, "4%3Ametric%3Aukca_o3")
	assert.Equal(t, "1104537600000,53.33,-9.90,41.5\n", got.body)
}

func TestInsert_UnexpectedStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest)
	cli, err := NewClient(discardLogger(), srv.URL+"/write", 1, "ukca", "o3")
	require.NoError(t, err)

	err = cli.Insert(context.Background(), testRecs)
	assert.ErrorContains(t, err, "400")
}

func TestNewClient_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		prefix    string
		varName   string
		errSubstr string
	}{
		{"unsupported path", "http://localhost:8428/api/v1/import", "ukca", "o3", "not supported"},
		{"bad prefix", "http://localhost:8428/write", "uk ca", "o3", "metric prefix"},
		{"bad variable", "http://localhost:8428/write", "ukca", "o3-mmr", "variable name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(discardLogger(), tt.url, 1, tt.prefix, tt.varName)
			assert.ErrorContains(t, err, tt.errSubstr)
		})
	}
}
