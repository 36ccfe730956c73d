package main

import "fmt"

// Below this delay the current proxy is kept no matter how much faster an
// alternative measures; differences down there are noise and switching has a
// cost of its own.
const switchDelayFloorMS = 1000

// Decision is the outcome of one selection cycle. Switch is advisory here:
// the caller still has to apply the mutation, and only reports "switched"
// once that succeeds.
type Decision struct {
	Switch       bool
	Current      string
	CurrentFound bool
	CurrentDelay *int
	Best         ProxyDelay
	Reason       string
}

func lookupDelay(delays []ProxyDelay, name string) *int {
	for _, item := range delays {
		if item.Name == name {
			d := item.DelayMS
			return &d
		}
	}
	return nil
}

// decideSelection applies the hysteresis rule: switch only when the current
// proxy is both absolutely slow (above the floor) and slower than the best
// candidate by more than diffMS. candidates must be non-empty and sorted
// ascending; ties were broken by source order during the sort.
func decideSelection(current string, currentFound bool, currentDelay *int, candidates []ProxyDelay, diffMS int) Decision {
	best := candidates[0]
	d := Decision{
		Current:      current,
		CurrentFound: currentFound,
		CurrentDelay: currentDelay,
		Best:         best,
	}

	switch {
	case !currentFound:
		d.Reason = "current proxy not found, keeping best as target"
	case currentDelay == nil:
		d.Reason = "current delay unavailable, keeping current"
	case best.Name == current:
		d.Reason = "current is already the fastest"
	case *currentDelay > switchDelayFloorMS && (*currentDelay-best.DelayMS) > diffMS:
		d.Switch = true
		d.Reason = fmt.Sprintf("current %dms exceeds %dms floor and best is %dms faster",
			*currentDelay, switchDelayFloorMS, *currentDelay-best.DelayMS)
	case *currentDelay <= switchDelayFloorMS:
		d.Reason = fmt.Sprintf("current delay %dms <= %dms floor, keeping current",
			*currentDelay, switchDelayFloorMS)
	default:
		d.Reason = fmt.Sprintf("current delay %dms but best only %dms faster, keeping current",
			*currentDelay, *currentDelay-best.DelayMS)
	}
	return d
}
