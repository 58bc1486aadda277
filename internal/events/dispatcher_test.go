package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventOrderRated, func(context.Context, Event) error {
		got = append(got, "rated")
		return nil
	})

	err := d.Publish(context.Background(), Event{
		ID:        "evt-1",
		Type:      EventOrderCreated,
		SubjectID: "order-1",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:order-1", "second:order-1"}, got)
}

func TestPublishContinuesPastFailingHandler(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		return errors.New("smtp down")
	})
	delivered := false
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventUserRegistered, SubjectID: "user-1"})
	require.NoError(t, err)
	assert.True(t, delivered)
}
