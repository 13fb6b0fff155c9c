package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("sessions:sess-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("sessions:sess-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubTopicIsolation(t *testing.T) {
	hub := NewHub(nil)
	sessClient := hub.Register("sessions:sess-1")
	segClient := hub.Register("segments:seg-1")
	defer hub.Unregister(sessClient)
	defer hub.Unregister(segClient)

	hub.Broadcast("segments:seg-1", []byte("record"))

	select {
	case <-sessClient.Send:
		t.Fatalf("session client must not see segment traffic")
	case msg := <-segClient.Send:
		if string(msg) != "record" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubConcurrentBroadcastAndUnregister(t *testing.T) {
	hub := NewHub(nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast("sessions:busy", []byte("tick"))
			}
		}
	}()

	// Clients churning while broadcasts run must never hit a closed Send.
	for i := 0; i < 500; i++ {
		client := hub.Register("sessions:busy")
		hub.Unregister(client)
	}

	close(stop)
	wg.Wait()
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("sessions:abc")
	if ch != "live:sessions:abc" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if topicFromChannel(ch) != "sessions:abc" {
		t.Fatalf("unexpected topic")
	}
	if topicFromChannel("live:") != "" {
		t.Fatalf("expected empty topic")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("sessions:sess-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("sessions:sess-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("sessions:sess-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// ensure subscribeRedis forwards redis publish (the pattern matches the literal channel)
	starClient := hub.Register("*")
	defer hub.Unregister(starClient)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "live:*", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-starClient.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("sessions:sess-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("sessions:sess-bad", []byte("ping"))
}
