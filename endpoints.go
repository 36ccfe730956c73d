package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const endpointProbeTimeout = 10 * time.Second

type EndpointResult struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	LatencyMS int    `json:"latency_ms"`
}

// buildBaseTransportNoEnvProxy clones the default transport with proxy env
// vars ignored. Controller traffic must never ride the proxy this tool is
// managing.
func buildBaseTransportNoEnvProxy() (*http.Transport, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport type assertion failed")
	}
	transport := base.Clone()
	transport.Proxy = nil
	return transport, nil
}

// buildTransportForProxy routes requests through the local proxy endpoint so
// reachability probes measure the proxied path, not the direct one.
func buildTransportForProxy(proxyAddr string) (*http.Transport, error) {
	transport, err := buildBaseTransportNoEnvProxy()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(proxyAddr) == "" {
		return transport, nil
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, err
	}

	scheme := strings.ToLower(proxyURL.Scheme)
	switch scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
		return transport, nil
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", scheme)
	}
}

func checkEndpoint(proxyAddr, targetURL string, timeout time.Duration) EndpointResult {
	transport, err := buildTransportForProxy(proxyAddr)
	if err != nil {
		return EndpointResult{URL: targetURL, Reachable: false, LatencyMS: -1}
	}
	client := &http.Client{Transport: transport, Timeout: timeout}
	req, err := http.NewRequest(http.MethodHead, targetURL, nil)
	if err != nil {
		return EndpointResult{URL: targetURL, Reachable: false, LatencyMS: -1}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return EndpointResult{URL: targetURL, Reachable: false, LatencyMS: -1}
	}
	defer resp.Body.Close()

	latencyMS := int(time.Since(start).Milliseconds())
	return EndpointResult{URL: targetURL, Reachable: resp.StatusCode < 500, LatencyMS: latencyMS}
}

func checkAllEndpoints(proxyAddr string, urls []string) []EndpointResult {
	if len(urls) == 0 || strings.TrimSpace(proxyAddr) == "" {
		return []EndpointResult{}
	}
	results := make([]EndpointResult, len(urls))
	var wg sync.WaitGroup
	for idx, endpoint := range urls {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			results[i] = checkEndpoint(proxyAddr, target, endpointProbeTimeout)
		}(idx, endpoint)
	}
	wg.Wait()
	return results
}

// checkEndpointsCurrentOnce probes every configured endpoint through the
// local proxy. The active proxy is informational here, not a decision input,
// so a failed current-proxy fetch does not abort the probes; the error is
// carried into the report instead, keeping "no selection" and "controller
// unreachable" distinguishable.
func checkEndpointsCurrentOnce(client *http.Client, cfg Config, jsonOutput bool) {
	current, currentFound, currentErr := getCurrentProxy(client, cfg)
	if currentErr != nil {
		logrus.Warnf("%v", currentErr)
	}

	if len(cfg.EndpointURLs) == 0 {
		if jsonOutput {
			fmt.Println(mustASCIIJSON(map[string]any{"error": "ENDPOINT_URLS is empty"}))
		} else {
			fmt.Println("ENDPOINT_URLS is empty")
		}
		return
	}

	if strings.TrimSpace(cfg.ProxyAddr) == "" {
		if jsonOutput {
			fmt.Println(mustASCIIJSON(map[string]any{"error": "MIHOMO_PROXY_ADDR is empty"}))
		} else {
			fmt.Println("MIHOMO_PROXY_ADDR is empty")
		}
		return
	}

	endpointResults := checkAllEndpoints(cfg.ProxyAddr, cfg.EndpointURLs)
	allReachable := true
	for _, item := range endpointResults {
		if !item.Reachable {
			allReachable = false
			break
		}
	}

	if jsonOutput {
		result := map[string]any{
			"current":       current,
			"current_found": currentFound,
			"all_reachable": allReachable,
			"endpoints":     endpointResults,
		}
		if currentErr != nil {
			result["current_error"] = currentErr.Error()
		}
		fmt.Println(mustASCIIJSON(result))
		return
	}

	currentText := "unknown"
	if currentFound {
		currentText = sanitizeName(current)
	} else if currentErr != nil {
		currentText = "error"
	}
	status := "ok"
	if !allReachable {
		status = "degraded"
	}
	fmt.Printf("current\t%s\t%s\n", currentText, status)
	for _, item := range endpointResults {
		reachability := "unreachable"
		if item.Reachable {
			reachability = "reachable"
		}
		fmt.Printf("%s\t%dms\t%s\n", reachability, item.LatencyMS, item.URL)
	}
}
