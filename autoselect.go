package main

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// autoSelectOnce runs one full decision cycle: fetch current, fetch delays,
// decide, and apply the switch when called for. A failed current-proxy fetch
// or a failed switch propagates; a failed delay fetch only degrades to "no
// delay data".
func autoSelectOnce(client *http.Client, cfg Config, jsonOutput, dryRun bool) error {
	current, currentFound, err := getCurrentProxy(client, cfg)
	if err != nil {
		return err
	}

	delays := getGroupDelays(client, cfg)
	sortDelays(delays)

	if len(delays) == 0 {
		if jsonOutput {
			fmt.Println(mustASCIIJSON(map[string]any{"error": "no delay data"}))
		} else {
			fmt.Println("No delay data returned")
		}
		return nil
	}

	// The exclude pattern narrows switch targets only; the current proxy's
	// own delay is still read from the full snapshot.
	candidates := filterDelays(delays, cfg.ExcludePattern)
	if len(candidates) == 0 {
		logrus.Warn("EXCLUDE_PROXY_REGEX removed all candidates; falling back to unfiltered delays")
		candidates = delays
	}

	var currentDelay *int
	if currentFound {
		currentDelay = lookupDelay(delays, current)
	}

	decision := decideSelection(current, currentFound, currentDelay, candidates, cfg.AutoSelectDiffMS)

	if decision.Switch {
		if dryRun {
			printSwitchResult(decision, "would_switch", true, jsonOutput)
			return nil
		}
		if err := switchProxy(client, cfg, decision.Best); err != nil {
			return fmt.Errorf("switch to %s failed: %w", decision.Best.Name, err)
		}
		printSwitchResult(decision, "switched", false, jsonOutput)
		return nil
	}

	printKeptResult(decision, dryRun, jsonOutput)
	return nil
}

func printSwitchResult(d Decision, action string, dryRun, jsonOutput bool) {
	if jsonOutput {
		result := map[string]any{
			"action":        action,
			"from":          d.Current,
			"to":            d.Best.Name,
			"from_delay_ms": d.CurrentDelay,
			"to_delay_ms":   d.Best.DelayMS,
			"reason":        d.Reason,
		}
		if dryRun {
			result["dry_run"] = true
		}
		fmt.Println(mustASCIIJSON(result))
		return
	}
	fmt.Printf("%s\t%s\t%s -> %dms\t%s\t(%s)\n",
		action, sanitizeName(d.Current), delayText(d.CurrentDelay), d.Best.DelayMS,
		sanitizeName(d.Best.Name), d.Reason)
}

func printKeptResult(d Decision, dryRun, jsonOutput bool) {
	if jsonOutput {
		// null current distinguishes "no active selection" from an empty name
		var current any
		if d.CurrentFound {
			current = d.Current
		}
		result := map[string]any{
			"action":        "kept",
			"current":       current,
			"delay_ms":      d.CurrentDelay,
			"best":          d.Best.Name,
			"best_delay_ms": d.Best.DelayMS,
			"reason":        d.Reason,
		}
		if dryRun {
			result["dry_run"] = true
		}
		fmt.Println(mustASCIIJSON(result))
		return
	}
	fmt.Printf("kept\t%s\t%s\t(%s)\n", delayText(d.CurrentDelay), sanitizeName(d.Current), d.Reason)
}

func delayText(delay *int) string {
	if delay == nil {
		return "n/a"
	}
	return fmt.Sprintf("%dms", *delay)
}
