package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aircheck/internal/notifications"
	"aircheck/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyRecordingCompleted(context.Background(), "Morning Drive", "KEXP_morning-drive_20260101-060000.mp3", 1024); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "recording completed",
			send: func(svc notifications.Service) error {
				return svc.NotifyRecordingCompleted(context.Background(), "Morning Drive", "KEXP_morning-drive_20260101-060000.mp3", 2048)
			},
			expectTitle:   "Aircheck - Recording Complete",
			expectMessage: "📻 Recorded: Morning Drive\nFile: KEXP_morning-drive_20260101-060000.mp3 (2.0 kB)",
			expectTags:    "aircheck,recording,completed",
		},
		{
			name: "recording failed",
			send: func(svc notifications.Service) error {
				return svc.NotifyRecordingFailed(context.Background(), "Jazz After Dark", errors.New("stream unreachable"))
			},
			expectTitle:    "Aircheck - Recording Failed",
			expectMessage:  "❌ Recording failed: Jazz After Dark\nstream unreachable",
			expectTags:     "aircheck,recording,failed",
			expectPriority: "high",
		},
		{
			name: "station repaired",
			send: func(svc notifications.Service) error {
				return svc.NotifyStationRepaired(context.Background(), "KEXP", "ffmpeg")
			},
			expectTitle:   "Aircheck - Station Repaired",
			expectMessage: "🔧 KEXP is recordable again via ffmpeg",
			expectTags:    "aircheck,station,repaired",
		},
		{
			name: "station broken",
			send: func(svc notifications.Service) error {
				return svc.NotifyStationBroken(context.Background(), "WFMU")
			},
			expectTitle:    "Aircheck - Station Broken",
			expectMessage:  "📵 No working capture method for WFMU",
			expectTags:     "aircheck,station,broken",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("database locked"), "retention sweep")
			},
			expectTitle:    "Aircheck - Error",
			expectMessage:  "❌ Error with retention sweep: database locked",
			expectTags:     "aircheck,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))

			svc := notifications.NewService(cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed category: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Recordings = false
	cfg.Notifications.StreamTests = false
	cfg.Notifications.Sweeps = false

	svc := notifications.NewService(cfg)
	ctx := context.Background()
	if err := svc.NotifyRecordingCompleted(ctx, "Morning Drive", "a.mp3", 1); err != nil {
		t.Fatalf("suppressed recording event returned error: %v", err)
	}
	if err := svc.NotifyStationRepaired(ctx, "KEXP", "wget"); err != nil {
		t.Fatalf("suppressed stream test event returned error: %v", err)
	}
	if err := svc.NotifySweepCompleted(ctx, "retention sweep", 3, 4096); err != nil {
		t.Fatalf("suppressed sweep event returned error: %v", err)
	}
}

func TestNtfyServiceSendsSweepWhenEnabled(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL))
	cfg.Notifications.Sweeps = true

	svc := notifications.NewService(cfg)
	if err := svc.NotifySweepCompleted(context.Background(), "retention sweep", 12, 3*1024*1024); err != nil {
		t.Fatalf("sweep notification returned error: %v", err)
	}
	want := "🧹 retention sweep removed 12 items, reclaimed 3.1 MB"
	if body != want {
		t.Fatalf("expected message %q, got %q", want, body)
	}
}
