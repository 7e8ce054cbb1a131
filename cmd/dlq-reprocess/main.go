// Команда dlq-reprocess возвращает события из dead letter topic обратно
// в рабочие topics. По умолчанию работает в режиме dry-run: кандидаты на
// повторную публикацию только перечисляются в логе.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

const (
	defaultScanLimit   = 100
	defaultIdleTimeout = 2 * time.Second
)

type replayConfig struct {
	brokers     []string
	dlqTopic    string
	targetTopic string // пустой — маршрутизация по aggregate_type
	eventType   string // пустой — все типы событий
	limit       int
	apply       bool
	idleTimeout time.Duration
}

func parseArgs(args []string) (replayConfig, error) {
	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)

	var brokersRaw string
	var cfg replayConfig
	fs.StringVar(&brokersRaw, "brokers", "", "kafka brokers, comma-separated (fallback: KAFKA_BROKERS)")
	fs.StringVar(&cfg.dlqTopic, "dlq-topic", kafka.TopicDeadLetterQueue, "dead letter topic to scan")
	fs.StringVar(&cfg.targetTopic, "target-topic", "", "replay into this topic instead of routing by aggregate type")
	fs.StringVar(&cfg.eventType, "event-type", "", "replay only events of this type, e.g. order.created")
	fs.IntVar(&cfg.limit, "limit", defaultScanLimit, "max messages to scan")
	fs.BoolVar(&cfg.apply, "apply", false, "republish messages; default is dry-run")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop scanning a partition after this much silence")

	if err := fs.Parse(args); err != nil {
		return replayConfig{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("KAFKA_BROKERS")
	}
	for _, chunk := range strings.Split(brokersRaw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}

	if len(cfg.brokers) == 0 {
		return replayConfig{}, fmt.Errorf("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	}
	if strings.TrimSpace(cfg.dlqTopic) == "" {
		return replayConfig{}, fmt.Errorf("dlq-topic is required")
	}
	if cfg.limit <= 0 {
		return replayConfig{}, fmt.Errorf("limit must be positive")
	}
	if cfg.idleTimeout <= 0 {
		return replayConfig{}, fmt.Errorf("idle-timeout must be positive")
	}

	return cfg, nil
}

// deadLetter повторяет внешний конверт publisher'а: в DLQ воркер кладёт
// исходное сообщение, завёрнутое в payload с причиной сбоя.
type deadLetter struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type deadLetterDetails struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
}

// decodeDeadLetter восстанавливает исходное outbox-сообщение из DLQ-записи.
func decodeDeadLetter(value []byte) (domain.OutboxMessage, error) {
	var outer deadLetter
	if err := json.Unmarshal(value, &outer); err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("decode dlq envelope: %w", err)
	}
	if len(outer.Payload) == 0 {
		return domain.OutboxMessage{}, fmt.Errorf("dlq envelope has no payload")
	}

	var details deadLetterDetails
	if err := json.Unmarshal(outer.Payload, &details); err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("decode dlq details: %w", err)
	}
	if len(details.Payload) == 0 {
		return domain.OutboxMessage{}, fmt.Errorf("dlq details have no original event payload")
	}

	id := details.OutboxID
	if id == "" {
		id = outer.ID
	}

	return domain.OutboxMessage{
		ID:            id,
		AggregateType: details.AggregateType,
		AggregateID:   details.AggregateID,
		EventType:     details.EventType,
		Payload:       []byte(details.Payload),
	}, nil
}

// topicForAggregate выбирает рабочий topic: заказы идут в order events,
// всё остальное (product, customer) — в catalog events.
func topicForAggregate(aggregateType string) string {
	if aggregateType == "order" {
		return kafka.TopicOrderEvents
	}
	return kafka.TopicCatalogEvents
}

// partitionReader абстрагирует чтение DLQ-топика ради тестов.
type partitionReader interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, at int64) (int64, error)
	Consume(topic string, partition int32, offset int64) (<-chan *sarama.ConsumerMessage, func(), error)
}

// replaySink публикует восстановленное сообщение в указанный topic.
type replaySink func(topic string, message domain.OutboxMessage) error

type replayReport struct {
	scanned  int
	replayed int
	skipped  int
}

type replayer struct {
	cfg    replayConfig
	reader partitionReader
	sink   replaySink
	logger *log.Entry
}

func (r *replayer) run(ctx context.Context) (replayReport, error) {
	var report replayReport

	partitions, err := r.reader.Partitions(r.cfg.dlqTopic)
	if err != nil {
		return report, fmt.Errorf("list partitions of %s: %w", r.cfg.dlqTopic, err)
	}
	if len(partitions) == 0 {
		r.logger.WithField("topic", r.cfg.dlqTopic).Warn("dlq topic has no partitions")
		return report, nil
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if report.scanned >= r.cfg.limit {
			break
		}
		if err := r.scanPartition(ctx, partition, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (r *replayer) scanPartition(ctx context.Context, partition int32, report *replayReport) error {
	oldest, err := r.reader.GetOffset(r.cfg.dlqTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return fmt.Errorf("oldest offset of partition %d: %w", partition, err)
	}
	newest, err := r.reader.GetOffset(r.cfg.dlqTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("newest offset of partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return nil
	}

	messages, closeConsumer, err := r.reader.Consume(r.cfg.dlqTopic, partition, oldest)
	if err != nil {
		return fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer closeConsumer()

	idle := time.NewTimer(r.cfg.idleTimeout)
	defer idle.Stop()

	for report.scanned < r.cfg.limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok || msg == nil {
				return nil
			}
			resetTimer(idle, r.cfg.idleTimeout)

			report.scanned++
			if err := r.handleMessage(msg, report); err != nil {
				return err
			}

			if msg.Offset+1 >= newest {
				return nil
			}
		case <-idle.C:
			return nil
		}
	}

	return nil
}

func (r *replayer) handleMessage(msg *sarama.ConsumerMessage, report *replayReport) error {
	event, err := decodeDeadLetter(msg.Value)
	if err != nil {
		report.skipped++
		r.logger.WithError(err).WithFields(log.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Warn("skip malformed dlq message")
		return nil
	}

	if r.cfg.eventType != "" && event.EventType != r.cfg.eventType {
		report.skipped++
		return nil
	}

	topic := r.cfg.targetTopic
	if topic == "" {
		topic = topicForAggregate(event.AggregateType)
	}

	if !r.cfg.apply {
		r.logger.WithFields(log.Fields{
			"outbox_id":    event.ID,
			"event_type":   event.EventType,
			"target_topic": topic,
		}).Info("would replay")
		report.replayed++
		return nil
	}

	if err := r.sink(topic, event); err != nil {
		return fmt.Errorf("replay outbox message %s: %w", event.ID, err)
	}
	report.replayed++
	return nil
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

type saramaReader struct {
	client   sarama.Client
	consumer sarama.Consumer
}

func newSaramaReader(brokers []string) (*saramaReader, error) {
	config := sarama.NewConfig()

	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect to kafka: %w", err)
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	return &saramaReader{client: client, consumer: consumer}, nil
}

func (r *saramaReader) Partitions(topic string) ([]int32, error) {
	return r.client.Partitions(topic)
}

func (r *saramaReader) GetOffset(topic string, partition int32, at int64) (int64, error) {
	return r.client.GetOffset(topic, partition, at)
}

func (r *saramaReader) Consume(topic string, partition int32, offset int64) (<-chan *sarama.ConsumerMessage, func(), error) {
	pc, err := r.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, nil, err
	}
	return pc.Messages(), func() { _ = pc.Close() }, nil
}

func (r *saramaReader) close() {
	_ = r.consumer.Close()
	_ = r.client.Close()
}

// newProducerSink переиспользует штатный outbox publisher: при повторной
// публикации сообщение получает свежий конверт, как при первой отправке.
func newProducerSink(brokers []string) (replaySink, func(), error) {
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		return nil, nil, fmt.Errorf("create producer: %w", err)
	}

	publishers := make(map[string]domain.OutboxPublisher)
	sink := func(topic string, message domain.OutboxMessage) error {
		publisher, ok := publishers[topic]
		if !ok {
			publisher = kafka.NewOutboxPublisher(producer, topic)
			publishers[topic] = publisher
		}
		return publisher.Publish(message)
	}

	return sink, func() { _ = producer.Close() }, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	logger := log.WithField("component", "dlq-reprocess")

	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	reader, err := newSaramaReader(cfg.brokers)
	if err != nil {
		fail("%v", err)
	}
	defer reader.close()

	var sink replaySink
	if cfg.apply {
		producerSink, closeProducer, err := newProducerSink(cfg.brokers)
		if err != nil {
			fail("%v", err)
		}
		defer closeProducer()
		sink = producerSink
	}

	replay := &replayer{cfg: cfg, reader: reader, sink: sink, logger: logger}
	report, err := replay.run(context.Background())
	if err != nil {
		fail("dlq replay failed: %v", err)
	}

	mode := "dry-run"
	if cfg.apply {
		mode = "apply"
	}
	logger.WithFields(log.Fields{
		"mode":     mode,
		"scanned":  report.scanned,
		"replayed": report.replayed,
		"skipped":  report.skipped,
	}).Info("dlq replay finished")
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
