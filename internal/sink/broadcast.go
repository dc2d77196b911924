package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"arbmonitor/internal/adapters"
	"arbmonitor/internal/domain"
)

const (
	TopicInter = "inter"
	TopicTri   = "tri"
)

type message struct {
	Type  domain.MonitorType `json:"type"`
	Batch any                `json:"batch"`
}

// BroadcastSink pushes every batch to live stream subscribers.
type BroadcastSink struct {
	publisher adapters.Publisher
}

func NewBroadcastSink(publisher adapters.Publisher) *BroadcastSink {
	return &BroadcastSink{publisher: publisher}
}

func (s *BroadcastSink) Name() string { return "broadcast" }

func (s *BroadcastSink) RunInter(_ context.Context, batch domain.InterBatch) error {
	return s.publish(TopicInter, message{Type: domain.MonitorInter, Batch: batch})
}

func (s *BroadcastSink) RunTri(_ context.Context, batch domain.TriBatch) error {
	return s.publish(TopicTri, message{Type: domain.MonitorTri, Batch: batch})
}

func (s *BroadcastSink) publish(topic string, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s batch: %w", topic, err)
	}
	s.publisher.Publish(topic, payload)
	return nil
}
