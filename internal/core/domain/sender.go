package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SenderState is the lifecycle state of a packet sender.
type SenderState string

const (
	SenderIdle    SenderState = "idle"
	SenderSending SenderState = "sending"
)

// SenderStatus is a snapshot of a sender and its most recent worker.
type SenderStatus struct {
	Interface  string      `json:"interface"`
	State      SenderState `json:"state"`
	RunID      string      `json:"run_id,omitempty"`
	PacketKind PacketKind  `json:"packet_kind,omitempty"`
	FramesSent int64       `json:"frames_sent"`
	StartedAt  time.Time   `json:"started_at,omitempty"`
	LastError  string      `json:"last_error,omitempty"`
}

// SenderConfig is one controller record. Only the interface is required.
type SenderConfig struct {
	Interface string `yaml:"interface" json:"interface"`
}

// UnmarshalYAML accepts either a bare interface name or a mapping.
func (c *SenderConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&c.Interface)
	}
	type plain SenderConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = SenderConfig(p)
	return nil
}

// Validate checks the record is usable.
func (c SenderConfig) Validate() error {
	if strings.TrimSpace(c.Interface) == "" {
		return &MissingFieldError{Field: "interface"}
	}
	if !IsValidInterface(c.Interface) {
		return fmt.Errorf("%w: %q", ErrInvalidInterface, c.Interface)
	}
	return nil
}

// SendRequest asks a sender for a synchronous burst.
type SendRequest struct {
	Packet     PacketSpec `json:"packet"`
	Count      int        `json:"count"`
	IntervalMS int        `json:"interval_ms"`
	AwaitReply bool       `json:"await_reply"`
}

func (r SendRequest) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

// SendResult reports what a burst achieved.
type SendResult struct {
	RunID      string     `json:"run_id"`
	Interface  string     `json:"interface"`
	PacketKind PacketKind `json:"packet_kind"`
	Requested  int        `json:"requested"`
	Sent       int        `json:"sent"`
	Replies    int        `json:"replies"`
}

// StartRequest asks a sender to transmit continuously.
type StartRequest struct {
	Packet     PacketSpec `json:"packet"`
	IntervalMS int        `json:"interval_ms"`
}

func (r StartRequest) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}
