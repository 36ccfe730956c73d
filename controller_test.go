package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		ControllerURL:    baseURL,
		ControllerSecret: "sekrit",
		ProxyGroup:       "GLOBAL",
		TestURL:          "https://google.com",
		DelayTimeoutMS:   3000,
		AutoSelectDiffMS: 300,
		MonitorIntervalS: 60,
	}
}

func TestGetGroupDelays(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/group/GLOBAL/delay", r.URL.Path)
		assert.Equal(t, "https://google.com", r.URL.Query().Get("url"))
		assert.Equal(t, "3000", r.URL.Query().Get("timeout"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"delays": {"A": 100, "B": "200", "C": -1}}`)
	}))
	defer ts.Close()

	delays := getGroupDelays(ts.Client(), testConfig(ts.URL))
	assert.ElementsMatch(t, []ProxyDelay{
		{Name: "A", DelayMS: 100},
		{Name: "B", DelayMS: 200},
	}, delays)
}

func TestGetGroupDelaysDegradesOnHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	assert.Empty(t, getGroupDelays(ts.Client(), testConfig(ts.URL)))
}

func TestGetGroupDelaysDegradesOnBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json at all")
	}))
	defer ts.Close()

	assert.Empty(t, getGroupDelays(ts.Client(), testConfig(ts.URL)))
}

func TestGetCurrentProxy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/proxies/GLOBAL", r.URL.Path)
		io.WriteString(w, `{"now": "ProxyA", "type": "Selector"}`)
	}))
	defer ts.Close()

	current, found, err := getCurrentProxy(ts.Client(), testConfig(ts.URL))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ProxyA", current)
}

func TestGetCurrentProxyNoSelection(t *testing.T) {
	for _, body := range []string{`{"now": ""}`, `{}`} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))

		current, found, err := getCurrentProxy(ts.Client(), testConfig(ts.URL))
		require.NoError(t, err, "body %s", body)
		assert.False(t, found, "body %s", body)
		assert.Empty(t, current, "body %s", body)
		ts.Close()
	}
}

func TestGetCurrentProxyErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, found, err := getCurrentProxy(ts.Client(), testConfig(ts.URL))
	require.Error(t, err)
	assert.False(t, found)
}

func TestSwitchProxy(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/proxies/GLOBAL", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	err := switchProxy(ts.Client(), testConfig(ts.URL), ProxyDelay{Name: "B", DelayMS: 80})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "B"}`, string(gotBody))
}

func TestSwitchProxyFailurePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such proxy", http.StatusBadRequest)
	}))
	defer ts.Close()

	err := switchProxy(ts.Client(), testConfig(ts.URL), ProxyDelay{Name: "ghost"})
	assert.Error(t, err)
}

func TestControllerRequestNoAuthHeaderWithoutSecret(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{}`)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.ControllerSecret = ""
	_, err := controllerRequest(ts.Client(), cfg, http.MethodGet, ts.URL+"/proxies/GLOBAL", nil)
	require.NoError(t, err)
}
