package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/mango/internal/timing"
	"github.com/OFFIS-RIT/mango/pkg/engine"
	"github.com/OFFIS-RIT/mango/pkg/logger"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	amqp "github.com/rabbitmq/amqp091-go"
)

// A delivery that failed this many times is parked in the DLQ.
const maxDeliveryAttempts = 10

// ConsumerParams carries the shared state the consumers work against.
// The consumers run inside the server process: the similarity index and
// the knowledge graph are in-process state, so a separate worker would
// not see them.
type ConsumerParams struct {
	Conn   *amqp.Connection
	Engine *engine.Engine
	S3     *awss3.Client
	Timing *timing.Tracker
}

// StartConsumers consumes the ingest and delete queues until ctx is
// done. Messages are processed one at a time (prefetch 1) and acked
// manually; failed deliveries go to the retry queue and are parked in
// the DLQ after too many attempts.
func StartConsumers(ctx context.Context, params ConsumerParams) error {
	ch, err := params.Conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := ch.Qos(1, 0, true); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range Queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := ch.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("[Queue] Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case IngestQueue:
					processingErr = ProcessIngestMessage(ctx, params, string(qm.msg.Body))
				case DeleteQueue:
					processingErr = ProcessDeleteMessage(ctx, params.S3, string(qm.msg.Body))
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("[Queue] Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(ch, qm.msg, qm.queueName)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("[Queue] Failed to ack message", "err", err)
					}
					logger.Info("[Queue] Message processed", "queue", qm.queueName, "duration_ms", time.Since(startTime).Milliseconds())
				}
			}
		}
	}()

	return nil
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxDeliveryAttempts {
		dlqName := queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
