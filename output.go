package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf16"
	"unicode/utf8"
)

const delayListLimit = 10

// mustASCIIJSON renders v as JSON with every non-ASCII rune \u-escaped, so
// the output is safe for terminals and log pipelines regardless of locale.
func mustASCIIJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return escapeNonASCII(raw)
}

func escapeNonASCII(raw []byte) string {
	buf := make([]byte, 0, len(raw)+16)
	for i := 0; i < len(raw); {
		if raw[i] < utf8.RuneSelf {
			buf = append(buf, raw[i])
			i++
			continue
		}
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, raw[i])
			i++
			continue
		}
		buf = appendEscapedRune(buf, r)
		i += size
	}
	return string(buf)
}

func appendEscapedRune(dst []byte, r rune) []byte {
	if r <= 0xFFFF {
		return append(dst, []byte(fmt.Sprintf("\\u%04x", r))...)
	}
	// outside the BMP: encode as a surrogate pair
	for _, part := range utf16.Encode([]rune{r}) {
		dst = append(dst, []byte(fmt.Sprintf("\\u%04x", part))...)
	}
	return dst
}

func printDelaysOnce(client *http.Client, cfg Config, jsonOutput bool) {
	delays := filterDelays(getGroupDelays(client, cfg), cfg.ExcludePattern)
	sortDelays(delays)
	if len(delays) > delayListLimit {
		delays = delays[:delayListLimit]
	}

	if len(delays) == 0 {
		if jsonOutput {
			fmt.Println("[]")
		} else {
			fmt.Println("No delay data returned")
		}
		return
	}

	if jsonOutput {
		payload := make([]map[string]any, 0, len(delays))
		for _, item := range delays {
			payload = append(payload, map[string]any{"name": item.Name, "delay_ms": item.DelayMS})
		}
		fmt.Println(mustASCIIJSON(payload))
		return
	}

	for _, item := range delays {
		fmt.Printf("%dms\t%s\n", item.DelayMS, sanitizeName(item.Name))
	}
}

func printCurrentDelayOnce(client *http.Client, cfg Config, jsonOutput bool) error {
	current, found, err := getCurrentProxy(client, cfg)
	if err != nil {
		return err
	}
	if !found {
		if jsonOutput {
			fmt.Println(mustASCIIJSON(map[string]any{"error": "current proxy not found"}))
		} else {
			fmt.Println("Current proxy not found")
		}
		return nil
	}

	delayMS := lookupDelay(getGroupDelays(client, cfg), current)
	if delayMS == nil {
		if jsonOutput {
			fmt.Println(mustASCIIJSON(map[string]any{"name": current, "delay_ms": nil}))
		} else {
			fmt.Printf("delay unavailable\t%s\n", sanitizeName(current))
		}
		return nil
	}

	if jsonOutput {
		fmt.Println(mustASCIIJSON(map[string]any{"name": current, "delay_ms": *delayMS}))
		return nil
	}
	fmt.Printf("%dms\t%s\n", *delayMS, sanitizeName(current))
	return nil
}
