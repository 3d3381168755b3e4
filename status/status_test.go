package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{name: "empty provider", cfg: Config{}, want: Noop{}},
		{name: "none provider", cfg: Config{Provider: ProviderNone}, want: Noop{}},
		{name: "saucelabs", cfg: Config{Provider: ProviderSauceLabs, User: "wed", AccessKey: "key"}, want: &SauceLabs{}},
		{name: "saucelabs without credentials", cfg: Config{Provider: ProviderSauceLabs}, wantErr: true},
		{name: "unknown provider", cfg: Config{Provider: "browserstack"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := New(tt.cfg, log.New())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, sink)
		})
	}
}

func TestSauceLabsSetTestStatus(t *testing.T) {
	type request struct {
		method string
		path   string
		user   string
		pass   string
		body   map[string]bool
	}
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewSauceLabs(Config{BaseURL: srv.URL, User: "wed", AccessKey: "secret"}, log.New())
	require.NoError(t, err)

	require.NoError(t, sink.SetTestStatus(context.Background(), "abc123", false))
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/rest/v1/wed/jobs/abc123", got.path)
	assert.Equal(t, "wed", got.user)
	assert.Equal(t, "secret", got.pass)
	assert.Equal(t, map[string]bool{"passed": false}, got.body)
}

func TestSauceLabsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job not found", http.StatusNotFound)
	}))
	defer srv.Close()

	sink, err := NewSauceLabs(Config{BaseURL: srv.URL, User: "wed", AccessKey: "secret"}, log.New())
	require.NoError(t, err)

	err = sink.SetTestStatus(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "job not found")
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack, "response errors carry a stack trace")

	assert.Error(t, sink.SetTestStatus(context.Background(), "", true))
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.SetTestStatus(context.Background(), "any", false))
}
