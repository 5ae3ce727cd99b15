// Package factorstudy implements the dual-track Factor Study Framework:
// rolling Information Coefficient analysis and discrete event-study
// returns, across configurable forward horizons.
package factorstudy

import "time"

// SignalType names a first-class event-detection rule.
type SignalType string

const (
	Threshold SignalType = "threshold"
	CrossUp   SignalType = "cross_up"
	CrossDown SignalType = "cross_down"
	Sustained SignalType = "sustained"
)

// SignalDefinition parametrizes a signal rule.
type SignalDefinition struct {
	Type       SignalType
	Threshold  float64
	SustainedN int // only meaningful for Sustained, default 1
}

// Label renders a short identifier for reports.
func (s SignalDefinition) Label() string {
	switch s.Type {
	case Sustained:
		return "sustained"
	default:
		return string(s.Type)
	}
}

// ScorePoint is one (date, score) observation.
type ScorePoint struct {
	Date  time.Time
	Score float64
}

// ScoreHistory is symbol -> ordered score points (ascending date).
type ScoreHistory map[string][]ScorePoint

// EventSet is symbol -> ordered event dates.
type EventSet map[string][]time.Time

// DetectSignals scans a ScoreHistory for one SignalDefinition and
// returns the resulting EventSet.
func DetectSignals(history ScoreHistory, def SignalDefinition) EventSet {
	out := make(EventSet)
	for sym, points := range history {
		events := detectForSymbol(points, def)
		if len(events) > 0 {
			out[sym] = events
		}
	}
	return out
}

func detectForSymbol(points []ScorePoint, def SignalDefinition) []time.Time {
	var events []time.Time
	n := def.SustainedN
	if n <= 0 {
		n = 1
	}

	consecutive := 0
	triggered := false

	for i, p := range points {
		switch def.Type {
		case Threshold:
			if p.Score > def.Threshold {
				events = append(events, p.Date)
			}
		case CrossUp:
			if i > 0 && points[i-1].Score <= def.Threshold && p.Score > def.Threshold {
				events = append(events, p.Date)
			}
		case CrossDown:
			if i > 0 && points[i-1].Score >= def.Threshold && p.Score < def.Threshold {
				events = append(events, p.Date)
			}
		case Sustained:
			if p.Score > def.Threshold {
				consecutive++
				if consecutive >= n && !triggered {
					events = append(events, p.Date)
					triggered = true
				}
			} else {
				consecutive = 0
				triggered = false
			}
		}
	}
	return events
}
