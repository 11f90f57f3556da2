package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPMailerSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key", "Fahrerexpress <noreply@fahrerexpress.de>")
	id, err := m.Send(context.Background(), Message{To: "fahrer@example.de", Subject: "Hallo", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("unexpected id %q", id)
	}
	if len(got.To) != 1 || got.To[0] != "fahrer@example.de" || got.Subject != "Hallo" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestHTTPMailerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPMailer(srv.URL, "key", "x@y.z").Send(context.Background(), Message{To: "bad"})
	if err == nil || !strings.Contains(err.Error(), "invalid to address") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestRenderInvite(t *testing.T) {
	msg, err := Render(TemplateAssignmentInvite, "fahrer@example.de", map[string]any{
		"DriverName": "Max",
		"Einsatzort": "Köln & Umgebung",
		"Period":     "01.11.2026 - 03.11.2026",
		"AcceptURL":  "https://fahrerexpress.de/respond-invite?a=accept&t=abc",
		"DeclineURL": "https://fahrerexpress.de/respond-invite?a=decline&t=abc",
		"ExpiresAt":  "19.10.2026 12:00",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Subject != "Einsatzanfrage: Köln & Umgebung" {
		t.Fatalf("subject must not be html-escaped: %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "a=accept&amp;t=abc") || !strings.Contains(msg.HTML, "a=decline&amp;t=abc") {
		t.Fatalf("links missing from body: %s", msg.HTML)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("nope", "a@b.c", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
