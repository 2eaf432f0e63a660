package rabbitmq

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultConcurrency = 2
	MaxConcurrency     = 50
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 30 * time.Second

	// HeaderAttempts counts deliveries that already failed.
	HeaderAttempts = "x-attempts"
)

// Handler processes one message body. Errors wrapped with Permanent go straight
// to the DLQ; other errors are retried through the .retry queue.
type Handler func(ctx context.Context, body []byte) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Requeuer sends a failed delivery to the delayed retry queue.
type Requeuer interface {
	Requeue(ctx context.Context, d amqp.Delivery, attempts int) error
}

type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

type Consumer struct {
	mu          sync.Mutex
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
	retry       RetryPolicy
	log         *zap.Logger
}

func ClampConcurrency(n int) int {
	if n <= 0 {
		return DefaultConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

func NewConsumer(url, queue string, concurrency int, retry RetryPolicy, log *zap.Logger) (*Consumer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := declareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	concurrency = ClampConcurrency(concurrency)
	//  strict concurrency control
	if err := ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, concurrency: concurrency, retry: retry.normalized(), log: log}, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Run consumes until ctx is done or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.Info("consumer started",
		zap.String("queue", c.queue),
		zap.Int("concurrency", c.concurrency),
		zap.Int("max_attempts", c.retry.MaxAttempts),
		zap.Duration("retry_delay", c.retry.Delay),
	)
	return Dispatch(ctx, msgs, c.concurrency, h, c, c.retry.MaxAttempts, c.log)
}

// Requeue publishes d to the retry queue; it dead-letters back to the main queue
// after the retry delay.
func (c *Consumer) Requeue(ctx context.Context, d amqp.Delivery, attempts int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[HeaderAttempts] = int32(attempts)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(cctx,
		"",
		retryQueueName(c.queue),
		false,
		false,
		amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         d.Body,
			Headers:      headers,
			Expiration:   strconv.FormatInt(c.retry.Delay.Milliseconds(), 10),
			Timestamp:    time.Now(),
		},
	)
}

// Attempts reports how many earlier deliveries of d failed.
func Attempts(d amqp.Delivery) int {
	switch v := d.Headers[HeaderAttempts].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// Dispatch fans deliveries out to a fixed pool of workers. Successes are acked.
// A failure goes back through rq until maxAttempts deliveries have failed; permanent
// failures, exhausted messages and a nil rq are nacked without requeue to the DLQ.
func Dispatch(ctx context.Context, msgs <-chan amqp.Delivery, concurrency int, h Handler, rq Requeuer, maxAttempts int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	concurrency = ClampConcurrency(concurrency)
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				start := time.Now()
				if err := h(ctx, d.Body); err != nil {
					attempts := Attempts(d) + 1
					log.Warn("message failed",
						zap.Int("worker", workerID),
						zap.Uint64("tag", d.DeliveryTag),
						zap.Int("attempts", attempts),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err),
					)
					fail(ctx, d, err, attempts, rq, maxAttempts, log)
					continue
				}
				if err := d.Ack(false); err != nil {
					log.Warn("ack failed", zap.Int("worker", workerID), zap.Uint64("tag", d.DeliveryTag), zap.Error(err))
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("consumer shutting down")
			close(jobs)
			wg.Wait()
			return nil

		case d, ok := <-msgs:
			if !ok {
				close(jobs)
				wg.Wait()
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

func fail(ctx context.Context, d amqp.Delivery, err error, attempts int, rq Requeuer, maxAttempts int, log *zap.Logger) {
	if rq == nil || IsPermanent(err) || attempts >= maxAttempts {
		log.Error("message dead-lettered",
			zap.Uint64("tag", d.DeliveryTag),
			zap.Int("attempts", attempts),
			zap.Bool("permanent", IsPermanent(err)),
		)
		_ = d.Nack(false, false)
		return
	}
	if rerr := rq.Requeue(ctx, d, attempts); rerr != nil {
		log.Warn("retry publish failed, returning message to queue", zap.Uint64("tag", d.DeliveryTag), zap.Error(rerr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
