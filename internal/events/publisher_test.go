package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sebuszqo/ExpenseTracker/internal/expense/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	deadline bool
}

type fakeChannel struct {
	declaredName string
	declaredKind string
	durable      bool
	declareErr   error
	publishErr   error
	published    []published
	closed       bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp091.Table) error {
	c.declaredName = name
	c.declaredKind = kind
	c.durable = durable
	return c.declareErr
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	_, hasDeadline := ctx.Deadline()
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg, deadline: hasDeadline})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestNewPublisher_DeclaresDurableTopicExchange(t *testing.T) {
	ch := &fakeChannel{}

	_, err := newPublisher(ch, "expenses", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "expenses", ch.declaredName)
	assert.Equal(t, "topic", ch.declaredKind)
	assert.True(t, ch.durable)
}

func TestNewPublisher_DeclareFailure(t *testing.T) {
	_, err := newPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "expenses", zerolog.Nop())
	assert.ErrorContains(t, err, "declare exchange")
}

func TestPublish_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	publisher, err := newPublisher(ch, "expenses", zerolog.Nop())
	require.NoError(t, err)

	event := domain.NewExpenseEvent(domain.ExpenseUpdated, uuid.New(), "owner-1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	sent := ch.published[0]
	assert.Equal(t, "expenses", sent.exchange)
	assert.Equal(t, "expense.updated", sent.key)
	assert.True(t, sent.deadline)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, sent.msg.DeliveryMode)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "expense.updated", body["type"])
	assert.Equal(t, event.ExpenseID.String(), body["expenseId"])
	assert.Equal(t, "owner-1", body["ownerId"])
	assert.Equal(t, "2024-01-02T03:04:05Z", body["occurredAt"])
}

func TestPublish_Failure(t *testing.T) {
	ch := &fakeChannel{}
	publisher, err := newPublisher(ch, "expenses", zerolog.Nop())
	require.NoError(t, err)
	ch.publishErr = amqp091.ErrClosed

	err = publisher.Publish(context.Background(), domain.NewExpenseEvent(domain.ExpenseCreated, uuid.New(), "owner-1", time.Now()))
	assert.ErrorIs(t, err, amqp091.ErrClosed)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	publisher, err := newPublisher(ch, "expenses", zerolog.Nop())
	require.NoError(t, err)

	assert.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func TestNoopPublisher(t *testing.T) {
	var publisher domain.EventPublisher = NoopPublisher{}
	assert.NoError(t, publisher.Publish(context.Background(), domain.ExpenseEvent{}))
}
