package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coursekit/apiserver/internal/mq"
	"github.com/coursekit/apiserver/types"
)

// fakeBroker is an in-memory mq.Backend. Subscribe delivers at most one
// canned message per channel and then blocks until ctx is done, like the
// real backends.
type fakeBroker struct {
	mu        sync.Mutex
	published map[string][][]byte
	deliver   map[string]mq.Message
	handled   chan string
}

func (f *fakeBroker) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		f.published = map[string][][]byte{}
	}
	f.published[channel] = append(f.published[channel], data)
	return "msg-1", nil
}

func (f *fakeBroker) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	if msg, ok := f.deliver[channel]; ok {
		if err := handler(ctx, msg); err != nil {
			return err
		}
		if f.handled != nil {
			f.handled <- channel
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBroker) Close() error { return nil }

func (f *fakeBroker) messages(channel string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[channel]
}

func TestEventPublisherPayloads(t *testing.T) {
	broker := &fakeBroker{}
	events := NewEventPublisher(mq.NewWithBackend(broker), nil)
	ctx := context.Background()

	events.UserRegistered(ctx, types.User{ID: 7, Email: "alice@example.com"})
	events.LessonSaved(ctx, "course-a", 1, 2)

	registered := broker.messages("user.registered")
	if len(registered) != 1 {
		t.Fatalf("expected 1 user.registered message, got %d", len(registered))
	}
	var userPayload struct {
		UserID int    `json:"user_id"`
		Email  string `json:"email"`
		At     string `json:"at"`
	}
	if err := json.Unmarshal(registered[0], &userPayload); err != nil {
		t.Fatalf("decode user.registered: %v", err)
	}
	if userPayload.UserID != 7 || userPayload.Email != "alice@example.com" || userPayload.At == "" {
		t.Fatalf("unexpected payload %+v", userPayload)
	}

	saved := broker.messages("lesson.saved")
	if len(saved) != 1 {
		t.Fatalf("expected 1 lesson.saved message, got %d", len(saved))
	}
	var lessonPayload struct {
		CourseID    string `json:"course_id"`
		ModuleIndex int    `json:"module_index"`
		LessonIndex int    `json:"lesson_index"`
	}
	if err := json.Unmarshal(saved[0], &lessonPayload); err != nil {
		t.Fatalf("decode lesson.saved: %v", err)
	}
	if lessonPayload.CourseID != "course-a" || lessonPayload.ModuleIndex != 1 || lessonPayload.LessonIndex != 2 {
		t.Fatalf("unexpected payload %+v", lessonPayload)
	}
}

func TestRunEventWorkerConsumesBothChannels(t *testing.T) {
	broker := &fakeBroker{
		deliver: map[string]mq.Message{
			"user.registered": {ID: "a", Data: []byte(`{"user_id":1}`)},
			"lesson.saved":    {ID: "b", Data: []byte(`{"course_id":"c"}`)},
		},
		handled: make(chan string, 2),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunEventWorker(ctx, mq.NewWithBackend(broker), nil)
	}()

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case channel := <-broker.handled:
			seen[channel] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, consumed %v", seen)
		}
	}
	if !seen["user.registered"] || !seen["lesson.saved"] {
		t.Fatalf("expected both channels consumed, got %v", seen)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunEventWorkerRequiresBroker(t *testing.T) {
	if err := RunEventWorker(context.Background(), nil, nil); err == nil {
		t.Fatal("expected an error with no broker")
	}
}
