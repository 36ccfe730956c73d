package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

func setAuthHeader(req *http.Request, secret string) {
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
}

// controllerRequest performs one call against the external controller and
// decodes the JSON body. Numbers stay json.Number so the parser can keep its
// own coercion rules.
func controllerRequest(client *http.Client, cfg Config, method, endpoint string, body []byte) (map[string]any, error) {
	req, err := http.NewRequest(method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	setAuthHeader(req, cfg.ControllerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return payload, nil
}

// getGroupDelays asks the controller to probe every proxy in the group.
// Best-effort: any failure degrades to an empty snapshot, the caller decides
// what that means.
func getGroupDelays(client *http.Client, cfg Config) []ProxyDelay {
	endpoint := fmt.Sprintf("%s/group/%s/delay", cfg.ControllerURL, url.PathEscape(cfg.ProxyGroup))
	params := url.Values{}
	params.Set("url", cfg.TestURL)
	params.Set("timeout", strconv.Itoa(cfg.DelayTimeoutMS))
	endpoint = endpoint + "?" + params.Encode()

	payload, err := controllerRequest(client, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		logrus.Warnf("group delay check failed: %v", err)
		return []ProxyDelay{}
	}
	return parseGroupDelays(payload)
}

// getCurrentProxy returns the group's active proxy. found=false with a nil
// error means the controller reports no active selection; a non-nil error
// means the controller could not be asked at all. Callers depend on the
// difference.
func getCurrentProxy(client *http.Client, cfg Config) (string, bool, error) {
	endpoint := fmt.Sprintf("%s/proxies/%s", cfg.ControllerURL, url.PathEscape(cfg.ProxyGroup))
	payload, err := controllerRequest(client, cfg, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("current proxy check failed: %w", err)
	}
	now, ok := payload["now"].(string)
	if !ok || now == "" {
		return "", false, nil
	}
	return now, true, nil
}

func switchProxy(client *http.Client, cfg Config, candidate ProxyDelay) error {
	endpoint := fmt.Sprintf("%s/proxies/%s", cfg.ControllerURL, url.PathEscape(cfg.ProxyGroup))
	body, err := json.Marshal(map[string]string{"name": candidate.Name})
	if err != nil {
		return err
	}
	_, err = controllerRequest(client, cfg, http.MethodPut, endpoint, body)
	return err
}
