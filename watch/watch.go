// Package watch raises alerts about the patient's paired watch: sustained disconnects and
// battery levels crossing a threshold.
package watch

import (
	"context"
	"time"
)

const (
	StatusCollectionName = "watchStatus"
	StateCollectionName  = "watchAlertStates"
)

// Status is the current watch status document written by the patient's phone
type Status struct {
	UserId        string     `bson:"userId"`
	PatientId     string     `bson:"patientId"`
	IsConnected   bool       `bson:"isConnected"`
	BatteryLevel  *float64   `bson:"batteryLevel,omitempty"`
	LastSeen      *time.Time `bson:"lastSeen,omitempty"`
	PairedWatchId *string    `bson:"pairedWatchId,omitempty"`
}

type ConnectionState string

const (
	StateConnected            ConnectionState = "connected"
	StateDisconnectedPending  ConnectionState = "disconnected_pending"
	StateDisconnectedNotified ConnectionState = "disconnected_notified"
)

// State is the persisted alerting state of a patient's watch
type State struct {
	Id                 string          `bson:"_id"`
	UserId             string          `bson:"userId"`
	PatientId          string          `bson:"patientId"`
	Connection         ConnectionState `bson:"connection"`
	DisconnectedTime   *time.Time      `bson:"disconnectedTime,omitempty"`
	DisarmedThresholds []int           `bson:"disarmedThresholds,omitempty"`
	UpdatedTime        time.Time       `bson:"updatedTime"`
}

func StateId(userId string, patientId string) string {
	return userId + "/" + patientId
}

func NewState(userId string, patientId string) *State {
	return &State{
		Id:         StateId(userId, patientId),
		UserId:     userId,
		PatientId:  patientId,
		Connection: StateConnected,
	}
}

func (s *State) IsDisconnected() bool {
	return s.Connection == StateDisconnectedPending || s.Connection == StateDisconnectedNotified
}

type StateRepository interface {
	// Update atomically applies fn to the patient's state, or to a new connected state
	Update(ctx context.Context, userId string, patientId string, fn func(state *State) error) error
}
