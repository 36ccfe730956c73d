package main

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ProxyDelay is one measured proxy. DelayMS is never negative once it leaves
// the parser.
type ProxyDelay struct {
	Name    string
	DelayMS int
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func collectDelayMap(entries map[string]any) []ProxyDelay {
	delays := make([]ProxyDelay, 0, len(entries))
	for name, delay := range entries {
		delayMS, ok := toInt(delay)
		if !ok || delayMS < 0 {
			continue
		}
		delays = append(delays, ProxyDelay{Name: name, DelayMS: delayMS})
	}
	return delays
}

func collectDelayList(items []any) []ProxyDelay {
	delays := make([]ProxyDelay, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, ok := entry["name"].(string)
		if !ok {
			continue
		}
		delayMS, ok := toInt(entry["delay"])
		if !ok || delayMS < 0 {
			continue
		}
		// duplicate name: last value wins, first position kept
		if at, seen := index[name]; seen {
			delays[at].DelayMS = delayMS
			continue
		}
		index[name] = len(delays)
		delays = append(delays, ProxyDelay{Name: name, DelayMS: delayMS})
	}
	return delays
}

// parseGroupDelays normalizes the controller's loosely specified delay
// payload. The shapes are tried in order: a "delays" map, the whole object as
// a name->delay map, a "proxies" list, then a single {name, delay} object.
// The two map shapes only commit when at least one entry survives; the list
// shape commits as soon as the field is a list, even when every entry is
// invalid. Bad entries are dropped, never errors.
func parseGroupDelays(payload map[string]any) []ProxyDelay {
	if entries, ok := payload["delays"].(map[string]any); ok {
		if delays := collectDelayMap(entries); len(delays) > 0 {
			return delays
		}
	}

	if delays := collectDelayMap(payload); len(delays) > 0 {
		return delays
	}

	if items, ok := payload["proxies"].([]any); ok {
		return collectDelayList(items)
	}

	if name, ok := payload["name"].(string); ok {
		if delayMS, ok := toInt(payload["delay"]); ok && delayMS >= 0 {
			return []ProxyDelay{{Name: name, DelayMS: delayMS}}
		}
	}

	logrus.Warnf("unexpected delay payload shape: %v", payload)
	return []ProxyDelay{}
}

// sortDelays sorts ascending by delay, in place. Stable, so equal delays keep
// their source order.
func sortDelays(delays []ProxyDelay) {
	for i := 1; i < len(delays); i++ {
		j := i
		for j > 0 && delays[j-1].DelayMS > delays[j].DelayMS {
			delays[j-1], delays[j] = delays[j], delays[j-1]
			j--
		}
	}
}

func filterDelays(delays []ProxyDelay, pattern *regexp.Regexp) []ProxyDelay {
	if pattern == nil {
		return delays
	}
	kept := make([]ProxyDelay, 0, len(delays))
	for _, item := range delays {
		if pattern.MatchString(item.Name) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
