package common

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildLogger_ComponentAndLevel(t *testing.T) {
	var out bytes.Buffer
	log := BuildLogger(LogConfig{Level: "warn", Component: "gtfs-api"}, &out)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	var line map[string]any
	if err := json.Unmarshal(out.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", out.String(), err)
	}
	if line["component"] != "gtfs-api" || line["message"] != "shown" {
		t.Errorf("unexpected line %v", line)
	}
}

func TestRequestLogger_WarnsOnServerErrors(t *testing.T) {
	var out bytes.Buffer
	log := BuildLogger(LogConfig{Level: "warn"}, &out)

	handler := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
		}
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fine", nil))
	if out.Len() != 0 {
		t.Errorf("expected successful requests to stay below warn, got %s", out.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	var line map[string]any
	if err := json.Unmarshal(out.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if line["status"] != float64(http.StatusBadGateway) || line["path"] != "/boom" || line["request_id"] == "" {
		t.Errorf("unexpected request line %v", line)
	}
}
