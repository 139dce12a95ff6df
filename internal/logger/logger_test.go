package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, Setup(false).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, Setup(true).GetLevel())
}

func TestRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	client := resty.New().SetBaseURL(srv.URL)
	Requests(client, log, "api")

	_, err := client.R().Get("/ok")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	_, err = client.R().Get("/boom")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"destination":"api"`)
}

func TestResty(t *testing.T) {
	var buf bytes.Buffer
	r := NewResty(zerolog.New(&buf))

	r.Warnf("retrying %d", 2)
	assert.Contains(t, buf.String(), `"message":"retrying 2"`)
	assert.Contains(t, buf.String(), `"component":"resty"`)
}
