package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/config"
	"github.com/MMTunning/MMTunning/internal/common/logger"
	"github.com/MMTunning/MMTunning/internal/common/middleware"
	"github.com/segmentio/kafka-go"
)

// Publisher 把领域事件写进 Kafka。
// 发布是尽力而为：broker 没配置就静默跳过，写失败只记日志不影响业务事务；
// 熔断器挡住 broker 长时间不可用时的重复超时。
type Publisher struct {
	orderWriter   *kafka.Writer
	invoiceWriter *kafka.Writer
	breaker       *middleware.CircuitBreaker
	log           logger.Logger
}

func NewPublisher(cfg config.KafkaConfig, log logger.Logger) *Publisher {
	p := &Publisher{
		breaker: middleware.NewCircuitBreaker("kafka-publish", 5, 30*time.Second),
		log:     log,
	}
	if len(cfg.Brokers) == 0 {
		return p
	}
	p.orderWriter = newWriter(cfg.Brokers, cfg.OrderTopic)
	p.invoiceWriter = newWriter(cfg.Brokers, cfg.InvoiceTopic)
	return p
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
}

// Enabled 是否配置了 broker。
func (p *Publisher) Enabled() bool {
	return p != nil && p.orderWriter != nil
}

// OrderCreated 发布开单事件，key 为工单号。
func (p *Publisher) OrderCreated(ctx context.Context, ev OrderCreated) {
	p.publish(ctx, p.orderWriter, ev.OrderID, Envelope{
		Type:       TypeOrderCreated,
		OccurredAt: time.Now().UTC(),
		Payload:    ev,
	})
}

// InvoiceGenerated 发布开票事件，key 为工单号（同一工单的事件保序）。
func (p *Publisher) InvoiceGenerated(ctx context.Context, ev InvoiceGenerated) {
	p.publish(ctx, p.invoiceWriter, ev.OrderID, Envelope{
		Type:       TypeInvoiceGenerated,
		OccurredAt: time.Now().UTC(),
		Payload:    ev,
	})
}

func (p *Publisher) publish(ctx context.Context, w *kafka.Writer, key string, env Envelope) {
	if !p.Enabled() || w == nil {
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		p.log.Errorf("marshal event %s failed: %v", env.Type, err)
		return
	}
	err = p.breaker.Call(ctx, func() error {
		return w.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: data,
			Time:  env.OccurredAt,
		})
	})
	if err != nil {
		p.log.Warnf("publish event %s for %s failed: %v", env.Type, key, err)
	}
}

// Close 关闭底层 writer。
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.invoiceWriter.Close()
}
