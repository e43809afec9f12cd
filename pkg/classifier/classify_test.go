package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sguter90/soilmaestro/pkg/models"
	"go.uber.org/zap/zaptest"
)

func testPayload() models.ClassificationRequest {
	return models.ClassificationRequest{
		"moisture": 30, "temperature": 21, "humidity": 55, "light": 300,
		"ph": 6.8, "nitrogen": 40, "phosphorus": 20, "potassium": 15,
		"conductivity": 1.1, "hour": 24, "day": 1, "month": 1,
	}
}

func TestClient_Classify(t *testing.T) {
	testCases := []struct {
		name          string
		status        int
		body          string
		expectedLabel string
		expectError   bool
	}{
		{
			name:          "Label returned",
			status:        http.StatusOK,
			body:          `{"soil_health":"Healthy"}`,
			expectedLabel: "Healthy",
		},
		{
			name:          "Missing label falls back",
			status:        http.StatusOK,
			body:          `{}`,
			expectedLabel: models.FallbackLabel,
		},
		{
			name:          "Empty label falls back",
			status:        http.StatusOK,
			body:          `{"soil_health":""}`,
			expectedLabel: models.FallbackLabel,
		},
		{
			name:          "Service error body falls back",
			status:        http.StatusOK,
			body:          `{"error":"X has 12 features, but MinMaxScaler is expecting 15"}`,
			expectedLabel: models.FallbackLabel,
		},
		{
			name:        "Server error",
			status:      http.StatusInternalServerError,
			body:        `boom`,
			expectError: true,
		},
		{
			name:        "Malformed JSON",
			status:      http.StatusOK,
			body:        `{"soil_health":`,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL+"/predict", WithLogger(zaptest.NewLogger(t)))
			label, err := client.Classify(context.Background(), testPayload())

			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error but got label %q", label)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if label != tc.expectedLabel {
				t.Errorf("Expected label %q, got %q", tc.expectedLabel, label)
			}
		})
	}
}

func TestClient_Classify_Request(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]float64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"soil_health":"Moderate Stress"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Classify(context.Background(), testPayload()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("Expected POST, got %s", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected application/json, got %s", gotContentType)
	}
	if len(gotBody) != 12 {
		t.Errorf("Expected 12 fields in body, got %d", len(gotBody))
	}
	if gotBody["ph"] != 6.8 {
		t.Errorf("Expected ph 6.8, got %f", gotBody["ph"])
	}
}

func TestClient_Classify_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Classify(context.Background(), testPayload())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", statusErr.StatusCode)
	}
}

func TestClient_Classify_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, WithTimeout(time.Second)).Classify(context.Background(), testPayload())
	if err == nil {
		t.Error("Expected transport error")
	}
}
