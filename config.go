package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is loaded once at startup and passed by value everywhere; nothing
// mutates it afterwards.
type Config struct {
	ControllerURL    string
	ControllerSecret string
	ProxyGroup       string
	TestURL          string
	DelayTimeoutMS   int
	AutoSelectDiffMS int
	MonitorIntervalS int
	EndpointURLs     []string
	ProxyAddr        string
	ExcludePattern   *regexp.Regexp
}

func envOrDefault(name, defaultVal string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return defaultVal
	}
	return v
}

func parseIntEnv(name string, defaultVal int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return parsed, nil
}

func loadConfig() (Config, error) {
	_ = godotenv.Overload()

	controllerURL := strings.TrimSpace(os.Getenv("MIHOMO_CONTROLLER_URL"))
	if controllerURL == "" {
		return Config{}, errors.New("MIHOMO_CONTROLLER_URL is required")
	}

	delayTimeoutMS, err := parseIntEnv("DELAY_TIMEOUT_MS", 3000)
	if err != nil {
		return Config{}, err
	}
	if delayTimeoutMS <= 0 {
		return Config{}, errors.New("DELAY_TIMEOUT_MS must be > 0")
	}
	autoSelectDiffMS, err := parseIntEnv("AUTO_SELECT_DIFF_MS", 300)
	if err != nil {
		return Config{}, err
	}
	if autoSelectDiffMS < 0 {
		return Config{}, errors.New("AUTO_SELECT_DIFF_MS must be >= 0")
	}
	monitorIntervalS, err := parseIntEnv("MONITOR_INTERVAL_S", 60)
	if err != nil {
		return Config{}, err
	}
	if monitorIntervalS <= 0 {
		return Config{}, errors.New("MONITOR_INTERVAL_S must be > 0")
	}

	var excludePattern *regexp.Regexp
	if raw := strings.TrimSpace(os.Getenv("EXCLUDE_PROXY_REGEX")); raw != "" {
		excludePattern, err = regexp.Compile(raw)
		if err != nil {
			return Config{}, fmt.Errorf("EXCLUDE_PROXY_REGEX is not a valid pattern: %w", err)
		}
	}

	rawEndpoints := strings.TrimSpace(os.Getenv("ENDPOINT_URLS"))
	endpointURLs := make([]string, 0)
	if rawEndpoints != "" {
		for _, item := range strings.Split(rawEndpoints, ",") {
			trimmed := strings.TrimSpace(item)
			if trimmed != "" {
				endpointURLs = append(endpointURLs, trimmed)
			}
		}
	}

	proxyAddr := strings.TrimSpace(os.Getenv("MIHOMO_PROXY_ADDR"))
	if len(endpointURLs) > 0 && proxyAddr == "" {
		logrus.Warn("ENDPOINT_URLS is set but MIHOMO_PROXY_ADDR is empty; endpoint checks are disabled")
	}

	return Config{
		ControllerURL:    strings.TrimRight(controllerURL, "/"),
		ControllerSecret: strings.TrimSpace(os.Getenv("MIHOMO_CONTROLLER_SECRET")),
		ProxyGroup:       envOrDefault("MIHOMO_PROXY_GROUP", "GLOBAL"),
		TestURL:          envOrDefault("TEST_URL", "https://google.com"),
		DelayTimeoutMS:   delayTimeoutMS,
		AutoSelectDiffMS: autoSelectDiffMS,
		MonitorIntervalS: monitorIntervalS,
		EndpointURLs:     endpointURLs,
		ProxyAddr:        proxyAddr,
		ExcludePattern:   excludePattern,
	}, nil
}
