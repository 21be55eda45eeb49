package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/kbukum/convoview/errors"
)

type recordingPublisher struct {
	events []string
	last   any
}

func (p *recordingPublisher) Publish(eventType string, payload any) error {
	p.events = append(p.events, eventType)
	p.last = payload
	return nil
}

func TestServiceCreatePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newFileRepo(t), pub, nil, nil)

	c := &Conversation{FileName: "a.wav", FilePath: "a.wav", FileData: json.RawMessage(`{"splitted":[]}`)}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0] != EventCreated {
		t.Fatalf("events = %v", pub.events)
	}
	ev, ok := pub.last.(CreatedEvent)
	if !ok || ev.ID != c.ID || ev.FileName != "a.wav" {
		t.Errorf("payload = %#v", pub.last)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		code apperrors.ErrorCode
	}{
		{"missing name", Conversation{FilePath: "a"}, apperrors.ErrCodeValidation},
		{"long name", Conversation{FileName: strings.Repeat("x", 65), FilePath: "a"}, apperrors.ErrCodeValidation},
		{"long path", Conversation{FileName: "a", FilePath: strings.Repeat("x", 256)}, apperrors.ErrCodeValidation},
		{"array data", Conversation{FileName: "a", FilePath: "a", FileData: json.RawMessage(`[1]`)}, apperrors.ErrCodeInvalidInput},
	}
	pub := &recordingPublisher{}
	svc := NewService(newFileRepo(t), pub, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.conv
			err := svc.Create(context.Background(), &c)
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("Create = %v, want code %s", err, tt.code)
			}
		})
	}
	if len(pub.events) != 0 {
		t.Errorf("rejected creates must not publish, got %v", pub.events)
	}
}

func TestServiceGet(t *testing.T) {
	svc := NewService(newFileRepo(t), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, 9)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.HTTPStatus != http.StatusNotFound || appErr.Message != "conversation not found" {
		t.Fatalf("Get(9) = %v", err)
	}

	c := &Conversation{FileName: "n", FilePath: "n.wav"}
	if err := svc.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Get(ctx, c.ID)
	if err != nil || got.ID != c.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestServiceDocument(t *testing.T) {
	svc := NewService(newFileRepo(t), nil, nil, nil)
	ctx := context.Background()

	empty := &Conversation{FileName: "e", FilePath: "e"}
	full := &Conversation{FileName: "f", FilePath: "f", FileData: json.RawMessage(`{"splitted":[{"text":"x"}]}`)}
	for _, c := range []*Conversation{empty, full} {
		if err := svc.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	if _, _, err := svc.Document(ctx, empty.ID); !apperrors.HasCode(err, apperrors.ErrCodeNoData) {
		t.Errorf("Document(empty) = %v, want NO_DATA", err)
	}
	_, doc, err := svc.Document(ctx, full.ID)
	if err != nil || doc.Len() != 1 {
		t.Errorf("Document(full) = %v, %v", doc, err)
	}
	if _, _, err := svc.Document(ctx, 99); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("Document(99) = %v", err)
	}
}

func TestServiceListValidation(t *testing.T) {
	svc := NewService(newFileRepo(t), nil, nil, nil)
	_, _, err := svc.List(context.Background(), ListOptions{PageSize: 1000})
	if !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("List = %v", err)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Details["fields"] == nil {
		t.Errorf("expected per-field details, got %+v", appErr)
	}
}
