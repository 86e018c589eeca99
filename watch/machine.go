package watch

import (
	"slices"
	"time"
)

const defaultPreviousBattery = 100

type AlertKind string

const (
	AlertDisconnected AlertKind = "watch_disconnected"
	AlertLowBattery   AlertKind = "watch_low_battery"
)

type Alert struct {
	Kind         AlertKind
	BatteryLevel float64
	Threshold    int
}

// Machine computes state transitions and alerts from consecutive watch status writes
type Machine struct {
	thresholds          []int
	disconnectThreshold time.Duration
}

func NewMachine(batteryThresholds []int, disconnectThreshold time.Duration) Machine {
	thresholds := slices.Clone(batteryThresholds)
	slices.Sort(thresholds)
	slices.Reverse(thresholds)
	return Machine{
		thresholds:          thresholds,
		disconnectThreshold: disconnectThreshold,
	}
}

// Transition updates state in place for the write before -> after observed at now. before is
// nil when the status document was created.
func (m Machine) Transition(state *State, before *Status, after Status, now time.Time) []Alert {
	var alerts []Alert
	wasConnected := before != nil && before.IsConnected

	switch {
	case wasConnected && !after.IsConnected:
		if !state.IsDisconnected() {
			state.Connection = StateDisconnectedPending
			state.DisconnectedTime = &now
		}
	case !wasConnected && after.IsConnected:
		state.Connection = StateConnected
		state.DisconnectedTime = nil
	}

	if !after.IsConnected && state.Connection == StateDisconnectedPending && state.DisconnectedTime != nil {
		if now.Sub(*state.DisconnectedTime) >= m.disconnectThreshold {
			state.Connection = StateDisconnectedNotified
			alerts = append(alerts, Alert{Kind: AlertDisconnected})
		}
	}

	if after.BatteryLevel != nil {
		if alert := m.battery(state, before, *after.BatteryLevel); alert != nil {
			alerts = append(alerts, *alert)
		}
	}

	return alerts
}

func (m Machine) battery(state *State, before *Status, current float64) *Alert {
	if len(m.thresholds) == 0 {
		return nil
	}

	previous := float64(defaultPreviousBattery)
	if before != nil && before.BatteryLevel != nil {
		previous = *before.BatteryLevel
	}

	var alert *Alert
	for _, threshold := range m.thresholds {
		t := float64(threshold)
		if current <= t && previous > t {
			if !slices.Contains(state.DisarmedThresholds, threshold) {
				state.DisarmedThresholds = append(state.DisarmedThresholds, threshold)
				alert = &Alert{Kind: AlertLowBattery, BatteryLevel: current, Threshold: threshold}
			}
			// At most one battery alert per write
			break
		}
	}

	if current > float64(m.thresholds[0]) {
		state.DisarmedThresholds = nil
	}

	return alert
}
