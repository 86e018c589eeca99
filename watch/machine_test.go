package watch_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/caretrack/pointer"
	"github.com/tidepool-org/caretrack/watch"
)

var _ = Describe("Machine", func() {
	var machine watch.Machine
	var state *watch.State
	var now time.Time

	BeforeEach(func() {
		machine = watch.NewMachine([]int{5, 20, 10}, 10*time.Minute)
		state = watch.NewState("user", "patient")
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	connected := func(battery *float64) *watch.Status {
		return &watch.Status{IsConnected: true, BatteryLevel: battery}
	}
	disconnected := func(battery *float64) *watch.Status {
		return &watch.Status{IsConnected: false, BatteryLevel: battery}
	}

	Describe("connection", func() {
		It("starts a pending episode on disconnect", func() {
			alerts := machine.Transition(state, connected(nil), *disconnected(nil), now)
			Expect(alerts).To(BeEmpty())
			Expect(state.Connection).To(Equal(watch.StateDisconnectedPending))
			Expect(*state.DisconnectedTime).To(Equal(now))
		})

		It("alerts once after a sustained disconnect", func() {
			machine.Transition(state, connected(nil), *disconnected(nil), now)

			alerts := machine.Transition(state, disconnected(nil), *disconnected(nil), now.Add(9*time.Minute))
			Expect(alerts).To(BeEmpty())

			alerts = machine.Transition(state, disconnected(nil), *disconnected(nil), now.Add(10*time.Minute))
			Expect(alerts).To(ConsistOf(watch.Alert{Kind: watch.AlertDisconnected}))
			Expect(state.Connection).To(Equal(watch.StateDisconnectedNotified))

			alerts = machine.Transition(state, disconnected(nil), *disconnected(nil), now.Add(30*time.Minute))
			Expect(alerts).To(BeEmpty())
		})

		It("cancels the pending alert on reconnect", func() {
			machine.Transition(state, connected(nil), *disconnected(nil), now)
			machine.Transition(state, disconnected(nil), *connected(nil), now.Add(5*time.Minute))
			Expect(state.Connection).To(Equal(watch.StateConnected))
			Expect(state.DisconnectedTime).To(BeNil())

			alerts := machine.Transition(state, connected(nil), *connected(nil), now.Add(15*time.Minute))
			Expect(alerts).To(BeEmpty())
		})

		It("keeps the episode start on a duplicate disconnect edge", func() {
			machine.Transition(state, connected(nil), *disconnected(nil), now)
			machine.Transition(state, connected(nil), *disconnected(nil), now.Add(5*time.Minute))
			Expect(*state.DisconnectedTime).To(Equal(now))

			alerts := machine.Transition(state, disconnected(nil), *disconnected(nil), now.Add(10*time.Minute))
			Expect(alerts).To(HaveLen(1))
		})

		It("treats a connected first write as a reconnect", func() {
			state.Connection = watch.StateDisconnectedNotified
			machine.Transition(state, nil, *connected(nil), now)
			Expect(state.Connection).To(Equal(watch.StateConnected))
		})

		It("does not start an episode without a connected previous state", func() {
			alerts := machine.Transition(state, nil, *disconnected(nil), now)
			Expect(alerts).To(BeEmpty())
			Expect(state.Connection).To(Equal(watch.StateConnected))
		})
	})

	Describe("battery", func() {
		levels := func(values ...float64) []watch.Alert {
			var alerts []watch.Alert
			var previous *watch.Status
			for _, v := range values {
				current := connected(pointer.FromAny(v))
				alerts = append(alerts, machine.Transition(state, previous, *current, now)...)
				previous = current
			}
			return alerts
		}

		It("alerts for the first crossed threshold only", func() {
			alerts := levels(100, 15, 15, 3)
			Expect(alerts).To(Equal([]watch.Alert{
				{Kind: watch.AlertLowBattery, BatteryLevel: 15, Threshold: 20},
				{Kind: watch.AlertLowBattery, BatteryLevel: 3, Threshold: 10},
			}))
		})

		It("re-arms all thresholds once the battery recovers", func() {
			levels(100, 15, 15, 3)
			alerts := machine.Transition(state, connected(pointer.FromAny(3.0)), *connected(pointer.FromAny(25.0)), now)
			Expect(alerts).To(BeEmpty())
			Expect(state.DisarmedThresholds).To(BeEmpty())

			alerts = machine.Transition(state, connected(pointer.FromAny(25.0)), *connected(pointer.FromAny(18.0)), now)
			Expect(alerts).To(ConsistOf(watch.Alert{Kind: watch.AlertLowBattery, BatteryLevel: 18, Threshold: 20}))
		})

		It("does not alert twice for a disarmed threshold", func() {
			levels(100, 19)
			alerts := machine.Transition(state, connected(pointer.FromAny(21.0)), *connected(pointer.FromAny(19.0)), now)
			Expect(alerts).To(BeEmpty())
		})

		It("treats the first reading as coming from a full charge", func() {
			alerts := machine.Transition(state, nil, *connected(pointer.FromAny(8.0)), now)
			Expect(alerts).To(ConsistOf(watch.Alert{Kind: watch.AlertLowBattery, BatteryLevel: 8, Threshold: 20}))
		})

		It("alerts for exact threshold values", func() {
			alerts := levels(21, 20)
			Expect(alerts).To(HaveLen(1))
		})

		It("ignores writes without a battery level", func() {
			alerts := machine.Transition(state, connected(pointer.FromAny(50.0)), *connected(nil), now)
			Expect(alerts).To(BeEmpty())
		})

		It("reports battery and disconnect alerts of the same write", func() {
			machine.Transition(state, connected(nil), *disconnected(nil), now)
			alerts := machine.Transition(state, disconnected(pointer.FromAny(30.0)), *disconnected(pointer.FromAny(12.0)), now.Add(11*time.Minute))
			Expect(alerts).To(HaveLen(2))
		})
	})
})
