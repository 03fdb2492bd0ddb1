package main

import (
	"testing"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/ingest"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestEmitMessage(t *testing.T) {
	now := time.Date(2025, 6, 14, 10, 4, 5, 670*int(time.Millisecond), time.Local)
	subjects := ingest.DefaultSubjects()

	tests := []struct {
		name        string
		kind        string
		args        []string
		wantSubject string
		wantPayload string
		wantErr     bool
	}{
		{"tag", "tag", []string{" T1 "}, subjects.Tag, "T1", false},
		{"blank tag", "tag", []string{"  "}, "", "", true},
		{"start now", "start", nil, subjects.StartPulse, "10:04:05.67", false},
		{"stop explicit", "stop", []string{"10:05:00.00"}, subjects.StopPulse, "10:05:00.00", false},
		{"bad code", "stop", []string{"10:05"}, "", "", true},
		{"code out of range", "start", []string{"10:00:90.00"}, "", "", true},
		{"heartbeat default", "heartbeat", []string{"start"}, subjects.StartStatus, "online", false},
		{"heartbeat payload", "heartbeat", []string{"STOP", "offline"}, subjects.StopStatus, "offline", false},
		{"heartbeat unknown gate", "heartbeat", []string{"middle"}, "", "", true},
		{"unknown kind", "pulse", nil, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, payload, err := emitMessage(tt.kind, tt.args, now, subjects)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q %q", subject, payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if subject != tt.wantSubject || payload != tt.wantPayload {
				t.Fatalf("got (%q, %q), want (%q, %q)", subject, payload, tt.wantSubject, tt.wantPayload)
			}
		})
	}
}

func TestEmitSubjects_EnvOverride(t *testing.T) {
	t.Setenv("LAPTIMER_SUBJECT_TAG", "track1.tag")
	t.Setenv("LAPTIMER_SUBJECT_START", "")

	s := emitSubjects()
	if s.Tag != "track1.tag" {
		t.Errorf("Tag = %q, want track1.tag", s.Tag)
	}
	if s.StartPulse != ingest.DefaultSubjects().StartPulse {
		t.Errorf("StartPulse = %q, want default", s.StartPulse)
	}
}

func TestRunEmit_PublishesToBus(t *testing.T) {
	url := startTestNATS(t)

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	sub, err := nc.SubscribeSync(ingest.DefaultSubjects().Tag)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	prev := emitNATSURL
	emitNATSURL = url
	t.Cleanup(func() { emitNATSURL = prev })

	if err := runEmit("tag")(emitTagCmd, []string{"T42"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("next msg: %v", err)
	}
	if string(msg.Data) != "T42" {
		t.Fatalf("payload = %q, want T42", msg.Data)
	}
}
