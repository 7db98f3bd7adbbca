// Package publish ships completed checkups to a RabbitMQ queue for downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"checkup-kiosk/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	reconnectDelay = 5 * time.Second
	publishTimeout = 10 * time.Second
	mailboxSize    = 32
)

var (
	errNotConnected = errors.New("not connected to a server")
	errNacked       = errors.New("broker did not acknowledge the message")
)

// Publisher is an actor: one goroutine owns the connection and drains the mailbox.
// Records queued while the broker is unreachable wait in the mailbox; once it is
// full, new records are dropped with a log line.
type Publisher struct {
	queueName string
	addr      string
	logger    *log.Logger

	mailbox chan []byte
	quit    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	// owned by run
	conn            *amqp.Connection
	channel         *amqp.Channel
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	pending         []byte
}

func NewPublisher(queueName, addr string, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(os.Stdout, "[publisher] ", log.LstdFlags)
	}
	p := &Publisher{
		queueName: queueName,
		addr:      addr,
		logger:    logger,
		mailbox:   make(chan []byte, mailboxSize),
		quit:      make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Record queues a checkup for publishing. It never blocks.
func (p *Publisher) Record(rec model.CheckupRecord) {
	body, err := encode(rec)
	if err != nil {
		p.logger.Printf("Dropping checkup %s: %s", rec.ID, err)
		return
	}
	select {
	case <-p.quit:
		p.logger.Printf("Publisher closed, dropping checkup %s", rec.ID)
		return
	default:
	}
	select {
	case p.mailbox <- body:
	default:
		p.logger.Printf("Mailbox full, dropping checkup %s", rec.ID)
	}
}

// Close stops the actor and closes the broker connection. Queued records that were
// not yet published are discarded.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.logger.Println("Publisher stopped.")
	})
}

func encode(rec model.CheckupRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.closeConnection()

	for {
		if p.channel == nil {
			if err := p.connect(); err != nil {
				p.logger.Printf("Failed to connect: %s. Retrying in %s...", err, reconnectDelay)
				select {
				case <-time.After(reconnectDelay):
					continue
				case <-p.quit:
					return
				}
			}
		}

		if p.pending != nil {
			p.flushPending()
			continue
		}

		select {
		case body := <-p.mailbox:
			p.pending = body
		case err := <-p.notifyConnClose:
			p.logger.Printf("Connection closed: %v. Reconnecting...", err)
			p.closeConnection()
		case err := <-p.notifyChanClose:
			p.logger.Printf("Channel closed: %v. Reconnecting...", err)
			p.closeConnection()
		case <-p.quit:
			return
		}
	}
}

// flushPending publishes the held message. On failure the connection is dropped and
// the message stays pending for the next connection.
func (p *Publisher) flushPending() {
	if err := p.push(p.pending); err != nil {
		p.logger.Printf("Push failed: %s. Reconnecting...", err)
		p.closeConnection()
		return
	}
	p.pending = nil
}

func (p *Publisher) push(data []byte) error {
	if p.channel == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         data,
		},
	)
	if err != nil {
		return err
	}
	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNacked
	}
	return nil
}

func (p *Publisher) connect() error {
	p.logger.Println("Attempting to connect...")
	conn, err := amqp.Dial(p.addr)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return err
	}
	_, err = ch.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		conn.Close()
		return err
	}

	p.conn = conn
	p.notifyConnClose = conn.NotifyClose(make(chan *amqp.Error, 1))
	p.channel = ch
	p.notifyChanClose = ch.NotifyClose(make(chan *amqp.Error, 1))
	p.logger.Println("Connected, queue declared.")
	return nil
}

func (p *Publisher) closeConnection() {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			p.logger.Printf("Error closing channel: %s", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			p.logger.Printf("Error closing connection: %s", err)
		}
	}
	p.channel = nil
	p.conn = nil
	p.notifyConnClose = nil
	p.notifyChanClose = nil
}
