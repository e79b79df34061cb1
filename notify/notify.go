// notify/notify.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package notify announces newly rendered products to downstream
// consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hdwx/metproducts/log"
)

// ProductEvent describes a rendered product that has been stored.
type ProductEvent struct {
	Product     string    `json:"product"`
	Model       string    `json:"model"`
	InitTime    time.Time `json:"init_time"`
	FcstTime    time.Time `json:"fcst_time"`
	LeadMinutes int       `json:"lead_minutes"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// Key identifies the model run and forecast time of the product; events
// with the same key replace one another.
func (e ProductEvent) Key() string {
	return e.Product + "/" + e.Model + "/" + e.InitTime.UTC().Format("2006010215") + "/" +
		strconv.Itoa(e.LeadMinutes)
}

type Publisher interface {
	Publish(ctx context.Context, events ...ProductEvent) error
	Close() error
}

// KafkaPublisher writes product events as JSON to a Kafka topic.
type KafkaPublisher struct {
	writer *kafkago.Writer
	lg     *log.Logger
}

func NewKafkaPublisher(brokers []string, topic string, lg *log.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaPublisher{writer: w, lg: lg}
}

func (k *KafkaPublisher) Publish(ctx context.Context, events ...ProductEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d product events: %w", len(events), err)
	}
	k.lg.Debugf("published %d product events to %s", len(events), k.writer.Topic)
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

func serializeToMessage(e ProductEvent) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize product event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "product", Value: []byte(e.Product)},
			{Key: "rendered_at", Value: []byte(e.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}

// LogPublisher logs events instead of sending them anywhere; it is used
// when no brokers are configured.
type LogPublisher struct {
	lg *log.Logger
}

func NewLogPublisher(lg *log.Logger) LogPublisher {
	return LogPublisher{lg: lg}
}

func (l LogPublisher) Publish(ctx context.Context, events ...ProductEvent) error {
	for _, e := range events {
		l.lg.Info("product", "key", e.Key(), "path", e.Path, "size", e.Size)
	}
	return nil
}

func (l LogPublisher) Close() error { return nil }
