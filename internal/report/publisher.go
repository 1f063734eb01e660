package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher hands email jobs to the delivery pipeline.
type Publisher interface {
	PublishEmail(ctx context.Context, job *EmailJob) error
}

// AMQPPublisher publishes jobs as persistent JSON to a durable direct exchange.
type AMQPPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *zap.Logger
}

func NewAMQPPublisher(url, exchangeName, queueName string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &AMQPPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set up exchange and queue: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.channel.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The queue name doubles as the routing key.
	if err := p.channel.QueueBind(p.queueName, p.queueName, p.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) PublishEmail(ctx context.Context, job *EmailJob) error {
	body, err := job.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal email job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchangeName, p.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish email job: %w", err)
	}

	p.logger.Info("Published email job",
		zap.String("job_id", job.ID),
		zap.Int64("user_id", job.UserID),
		zap.String("exchange", p.exchangeName),
		zap.String("queue", p.queueName))
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher only logs jobs. It stands in when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishEmail(ctx context.Context, job *EmailJob) error {
	p.logger.Info("Email job not delivered, no broker configured",
		zap.String("job_id", job.ID),
		zap.Int64("user_id", job.UserID),
		zap.String("subject", job.Subject))
	return nil
}
