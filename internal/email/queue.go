package email

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

const maxRetries = 3

// Sender is the part of Service the queue depends on.
type Sender interface {
	SendWithTemplate(to []string, subject, templateName string, data interface{}) error
}

// EmailQueue handles async email sending
type EmailQueue struct {
	sender  Sender
	queue   chan *queuedEmail
	done    chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
	backoff time.Duration
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

// NewEmailQueue creates a new email queue
func NewEmailQueue(sender Sender, workers int, log *zap.Logger) *EmailQueue {
	if workers < 1 {
		workers = 1
	}
	q := &EmailQueue{
		sender:  sender,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan struct{}),
		log:     log,
		backoff: 2 * time.Second,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

func (q *EmailQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case email := <-q.queue:
			q.send(email)
		case <-q.done:
			return
		}
	}
}

func (q *EmailQueue) send(email *queuedEmail) {
	err := q.sender.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
	if err == nil {
		return
	}
	if email.retries >= maxRetries {
		q.log.Error("Email dropped after retries",
			zap.Strings("to", email.to),
			zap.String("template", email.templateName),
			zap.Error(err),
		)
		return
	}

	email.retries++
	q.log.Warn("Email send error, retrying",
		zap.String("template", email.templateName),
		zap.Int("attempt", email.retries),
		zap.Error(err),
	)
	select {
	case <-time.After(q.backoff * time.Duration(email.retries)):
	case <-q.done:
		return
	}
	q.push(email)
}

func (q *EmailQueue) push(email *queuedEmail) {
	select {
	case q.queue <- email:
	default:
		q.log.Warn("Email queue full, dropping message", zap.String("template", email.templateName))
	}
}

// Enqueue adds an email to the queue. It never blocks the caller.
func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	q.push(&queuedEmail{
		to:           to,
		subject:      subject,
		templateName: templateName,
		data:         data,
	})
}

// Stop stops the email queue workers
func (q *EmailQueue) Stop() {
	close(q.done)
	q.wg.Wait()
}
