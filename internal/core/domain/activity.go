package domain

import (
	"errors"
	"time"
)

// ActivityAction identifies a sender operation in the journal.
type ActivityAction string

const (
	ActionSendBurst   ActivityAction = "SEND_BURST"
	ActionSendReceive ActivityAction = "SEND_RECEIVE"
	ActionStreamStart ActivityAction = "STREAM_START"
	ActionStreamStop  ActivityAction = "STREAM_STOP"
)

var (
	ErrInvalidAction    = errors.New("invalid activity action")
	ErrMissingInterface = errors.New("interface is required for activity records")
)

// ActivityRecord is one journal entry describing what a sender did.
type ActivityRecord struct {
	ID         uint           `json:"id"`
	RunID      string         `json:"run_id"`
	Interface  string         `json:"interface"`
	Action     ActivityAction `json:"action"`
	PacketKind PacketKind     `json:"packet_kind"`
	Requested  int            `json:"requested"`
	Sent       int            `json:"sent"`
	Replies    int            `json:"replies"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewActivityRecord builds a valid record stamped with the current time.
func NewActivityRecord(runID, iface string, action ActivityAction, kind PacketKind) (*ActivityRecord, error) {
	if iface == "" {
		return nil, ErrMissingInterface
	}
	switch action {
	case ActionSendBurst, ActionSendReceive, ActionStreamStart, ActionStreamStop:
	default:
		return nil, ErrInvalidAction
	}
	return &ActivityRecord{
		RunID:      runID,
		Interface:  iface,
		Action:     action,
		PacketKind: kind,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// Fail stores err on the record, if any.
func (r *ActivityRecord) Fail(err error) {
	if err != nil {
		r.Error = err.Error()
	}
}
