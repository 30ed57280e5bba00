package events

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()

	ch, unsub := hub.Subscribe("studio:a")
	defer unsub()
	other, unsubOther := hub.Subscribe("studio:b")
	defer unsubOther()

	hub.Publish("studio:a", Event{Type: TypeSnapshot, Data: []byte(`{"x":1}`)})

	select {
	case evt := <-ch:
		assert.Equal(t, TypeSnapshot, evt.Type)
		assert.JSONEq(t, `{"x":1}`, string(evt.Data))
	default:
		t.Fatal("expected event on subscribed topic")
	}

	select {
	case <-other:
		t.Fatal("event leaked to another topic")
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, unsub := hub.Subscribe("studio:a")
	require.Equal(t, 1, hub.Subscribers("studio:a"))

	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("studio:a"))

	// publishing to a topic without listeners is a no-op
	hub.Publish("studio:a", Event{Type: TypeSnapshot})
}

func TestHub_SlowSubscriberKeepsLatest(t *testing.T) {
	hub := NewHub()

	ch, unsub := hub.Subscribe("studio:a")
	defer unsub()

	const published = 40
	for i := 1; i <= published; i++ {
		hub.Publish("studio:a", Event{Type: TypeSnapshot, Data: []byte(strconv.Itoa(i))})
	}
	require.Len(t, ch, cap(ch), "publishing never blocks")

	var last Event
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, strconv.Itoa(published), string(last.Data))
}
