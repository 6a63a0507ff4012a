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
	client := hub.Register("41")
	defer hub.Unregister(client)

	payload := []byte(`{"type":"leg_started"}`)
	hub.Broadcast("41", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != string(payload) {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("7")
	if ch != "routes:7:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if routeIDFromChannel(ch) != "7" {
		t.Fatalf("unexpected route id")
	}
	if routeIDFromChannel("bad") != "" {
		t.Fatalf("expected empty route id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("42")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastDeliversOnce(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("55")
	defer hub.Unregister(ws)

	// let the pattern subscription establish before publishing
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast("55", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	select {
	case msg := <-ws.Send:
		t.Fatalf("one broadcast delivered twice, second message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRedisForwardsForeignPublish(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("56")
	defer hub.Unregister(ws)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "routes:56:events", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-ws.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishErrorFallsBackLocal(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("99")
	defer hub.Unregister(clientNode)

	hub.Broadcast("99", []byte("ping"))

	select {
	case msg := <-clientNode.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected local delivery when publish fails")
	}
}

func TestHubBroadcastUnregisterRace(t *testing.T) {
	hub := NewHub(nil)

	clients := make([]*Client, 50)
	for i := range clients {
		clients[i] = hub.Register("77")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.Broadcast("77", []byte("tick"))
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			hub.Unregister(c)
		}
	}()
	wg.Wait()
}
