package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
)

const okBody = `{"metadata":{"result":1,"reason":"OK","version":1}}`

func newTestClient(t *testing.T, host string) (*CPanelClient, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCPanelClient(config.CPanelConfig{
		Host:     host,
		Username: "root",
		APIKey:   "TOKEN123",
	}, reg, zerolog.Nop())
	require.NoError(t, err)
	return c, reg
}

// ---------- request helper ----------

func TestClient_Request_AuthHeaderAndPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/json-api/suspendacct", r.URL.Path)
		assert.Equal(t, "whm root:TOKEN123", r.Header.Get("Authorization"))
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	// trailing slash on the configured host must not produce "//json-api"
	c, _ := newTestClient(t, srv.URL+"/")
	require.NoError(t, c.SuspendAccount(context.Background(), "abc"))
}

func TestClient_Request_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Access denied"))
	}))
	defer srv.Close()

	c, reg := newTestClient(t, srv.URL)
	err := c.RemoveAccount(context.Background(), "abc")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, EndpointRemoveAccount, apiErr.Endpoint)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Access denied", apiErr.Body)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "status 403")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(EndpointRemoveAccount, "403")))
	count, err := testutil.GatherAndCount(reg, "cpanel_whm_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClient_Request_ServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	err := c.UnsuspendAccount(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_Request_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	err := c.SuspendAccount(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode suspendacct response")
	assert.NotErrorIs(t, err, ErrRequestFailed)
}

func TestClient_Request_UnsuccessfulMetadataIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata":{"result":0,"reason":"Account already suspended"}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	assert.NoError(t, c.SuspendAccount(context.Background(), "abc"))
}

func TestClient_Request_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(t, url)
	err := c.SuspendAccount(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send suspendacct request")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(EndpointSuspendAccount, "error")))
}

func TestClient_CreateAccount_TransportErrorHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(t, url)
	err := c.CreateAccount(context.Background(), CreateAccountParams{
		Username:     "abc",
		Password:     "S3cr3t",
		ContactEmail: "a@b.c",
		Domain:       "x.com",
		Plan:         "p",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), url+"/json-api/createacct")
	assert.NotContains(t, err.Error(), "S3cr3t")
	assert.NotContains(t, err.Error(), "password=")
}

func TestTraceable(t *testing.T) {
	create := httptest.NewRequest(http.MethodGet, "https://whm.example.com/json-api/createacct?password=x", nil)
	suspend := httptest.NewRequest(http.MethodGet, "https://whm.example.com/json-api/suspendacct?user=abc", nil)

	assert.False(t, traceable(create))
	assert.True(t, traceable(suspend))
}

func TestClient_Request_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newTestClient(t, srv.URL)
	err := c.SuspendAccount(ctx, "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------- CreateAccount ----------

func TestClient_CreateAccount_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json-api/createacct", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("api.version"))
		assert.Equal(t, "abcdef", q.Get("username"))
		assert.Equal(t, "Secret1", q.Get("password"))
		assert.Equal(t, "user@example.com", q.Get("contactemail"))
		assert.Equal(t, "example.com", q.Get("domain"))
		assert.Equal(t, "root_basic", q.Get("plan"))
		assert.Len(t, q, 6)
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	err := c.CreateAccount(context.Background(), CreateAccountParams{
		Username:     "abcdef",
		Password:     "Secret1",
		ContactEmail: "user@example.com",
		Domain:       "example.com",
		Plan:         "root_basic",
	})
	require.NoError(t, err)
}

// ---------- suspend / unsuspend / remove ----------

func TestClient_AccountActions_Params(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		call     func(c *CPanelClient) error
	}{
		{"suspend", EndpointSuspendAccount, func(c *CPanelClient) error { return c.SuspendAccount(context.Background(), "abc") }},
		{"unsuspend", EndpointUnsuspendAccount, func(c *CPanelClient) error { return c.UnsuspendAccount(context.Background(), "abc") }},
		{"remove", EndpointRemoveAccount, func(c *CPanelClient) error { return c.RemoveAccount(context.Background(), "abc") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/json-api/"+tt.endpoint, r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "1", q.Get("api.version"))
				assert.Equal(t, "abc", q.Get("user"))
				assert.Len(t, q, 2)
				w.Write([]byte(okBody))
			}))
			defer srv.Close()

			c, _ := newTestClient(t, srv.URL)
			require.NoError(t, tt.call(c))
		})
	}
}

// ---------- ListPackages ----------

func TestClient_ListPackages_LegacyShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json-api/listpkgs", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`{"package":[{"name":"basic","QUOTA":"1024"},{"name":"pro"}]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	pkgs, err := c.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "basic", pkgs[0].Name)
	assert.Equal(t, "pro", pkgs[1].Name)
}

func TestClient_ListPackages_API1Shape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"pkg":[{"name":"starter"}]},"metadata":{"result":1}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	pkgs, err := c.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "starter", pkgs[0].Name)
}

func TestClient_ListPackages_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	pkgs, err := c.ListPackages(context.Background())
	assert.Nil(t, pkgs)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestNewCPanelClient_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := config.CPanelConfig{Host: "https://whm.example.com", Username: "root", APIKey: "k"}

	_, err := NewCPanelClient(cfg, reg, zerolog.Nop())
	require.NoError(t, err)
	_, err = NewCPanelClient(cfg, reg, zerolog.Nop())
	assert.NoError(t, err)
}
