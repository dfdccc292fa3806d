package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubPublishReachesChannelSubscribers(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(StudentChannel("s1"))
	require.NoError(t, err)
	other, err := hub.Subscribe(ChannelDashboard)
	require.NoError(t, err)

	err = hub.Publish(context.Background(), Event{Channel: StudentChannel("s1"), Type: "enrollment_updated"})
	require.NoError(t, err)

	select {
	case evt := <-sub.Events():
		assert.Equal(t, "enrollment_updated", evt.Type)
	default:
		t.Fatal("expected event on student channel")
	}

	select {
	case <-other.Events():
		t.Fatal("dashboard subscriber must not receive student events")
	default:
	}
}

func TestHubDropsWhenSubscriberBufferFull(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(ChannelClinic)
	require.NoError(t, err)

	require.NoError(t, hub.Publish(context.Background(), Event{Channel: ChannelClinic, Type: "first"}))
	require.NoError(t, hub.Publish(context.Background(), Event{Channel: ChannelClinic, Type: "second"}))

	evt := <-sub.Events()
	assert.Equal(t, "first", evt.Type)
	select {
	case <-sub.Events():
		t.Fatal("second event should have been dropped")
	default:
	}
}

func TestHubUnsubscribeClosesStream(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	defer hub.Close()

	sub, err := hub.Subscribe(ChannelBehavior)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.SubscriberCount(ChannelBehavior))

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.SubscriberCount(ChannelBehavior))

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHubPublishDuringUnsubscribeChurn(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	defer hub.Close()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = hub.Publish(context.Background(), Event{Channel: ChannelStudentList, Type: "student.updated"})
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		sub, err := hub.Subscribe(ChannelStudentList)
		require.NoError(t, err)
		hub.Unsubscribe(sub)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, 0, hub.SubscriberCount(ChannelStudentList))
}

func TestHubCloseRejectsPublish(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	hub.Close()

	err := hub.Publish(context.Background(), Event{Channel: ChannelDashboard})
	assert.ErrorIs(t, err, ErrHubClosed)

	_, err = hub.Subscribe(ChannelDashboard)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestValidChannel(t *testing.T) {
	assert.True(t, ValidChannel(ChannelStudentList))
	assert.True(t, ValidChannel(StudentChannel("abc")))
	assert.False(t, ValidChannel("student:"))
	assert.False(t, ValidChannel("random"))
}
