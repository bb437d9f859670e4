package notify

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	"coursecast/logger"
)

// TaskEvent is the JSON payload published for each task transition.
type TaskEvent struct {
	TaskID    string    `json:"task_id"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaSink publishes task transitions to a Kafka topic so downstream
// consumers (dashboards, billing) can follow generation progress.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaSink connects a synchronous producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, log *logger.Logger) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &KafkaSink{producer: producer, topic: topic, log: log}, nil
}

// Notify publishes the event. Publish failures are logged and dropped; a sink
// outage must never affect generation.
func (s *KafkaSink) Notify(taskID string, status Status, message string) {
	event := TaskEvent{
		TaskID:    taskID,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		s.log.Error("failed to marshal task event", "task", taskID, "error", err)
		return
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(taskID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		s.log.Error("failed to publish task event", "task", taskID, "error", err)
	}
}

// Close shuts down the underlying producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
