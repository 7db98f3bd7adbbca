package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"checkup-kiosk/internal/config"
)

func chatServer(t *testing.T, reply string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func simulateConfig(endpoint string) config.Config {
	return config.Config{
		AdvisoryEndpoint: endpoint,
		CameraMode:       config.CameraSimulated,
		TTSCommand:       "checkup-kiosk-no-such-speech-program",
	}
}

func TestSimulateRequestsAdviceOnce(t *testing.T) {
	for _, tc := range []struct {
		name  string
		reply string
	}{
		{"advice text", `{"choices":[{"message":{"role":"assistant","content":"多散步"}}]}`},
		{"empty advice text", `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
		{"relay failure", `{"error":"DeepSeek API Error"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int64
			srv := chatServer(t, tc.reply, &calls)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := simulate(ctx, simulateConfig(srv.URL), time.Millisecond, true); err != nil {
				t.Fatalf("simulate() = %v", err)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("simulate issued %d advice requests, want 1", n)
			}
		})
	}
}

func TestSimulateWithoutAdvice(t *testing.T) {
	var calls atomic.Int64
	srv := chatServer(t, `{"choices":[]}`, &calls)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := simulate(ctx, simulateConfig(srv.URL), time.Millisecond, false); err != nil {
		t.Fatalf("simulate() = %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("simulate issued %d advice requests, want 0", n)
	}
}

func TestSimulateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := simulate(ctx, simulateConfig("http://127.0.0.1:1/api/chat"), time.Hour, false); err != context.Canceled {
		t.Errorf("simulate() = %v, want %v", err, context.Canceled)
	}
}

func TestStagesCommand(t *testing.T) {
	for _, tc := range []struct {
		args    []string
		wantErr bool
	}{
		{[]string{"checkup-kiosk", "stages"}, false},
		{[]string{"checkup-kiosk", "stages", "-f", "dot"}, false},
		{[]string{"checkup-kiosk", "stages", "-f", "yaml"}, true},
	} {
		err := createCliApp(context.Background()).Run(tc.args)
		if (err != nil) != tc.wantErr {
			t.Errorf("%v: err = %v, wantErr %v", tc.args, err, tc.wantErr)
		}
	}
}
