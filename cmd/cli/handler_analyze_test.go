package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"github.com/sguter90/soilmaestro/pkg/rotator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fullJSONBody = `{"moisture":35,"temperature":22,"humidity":60,"light":400,"ph":"6.5","nitrogen":40,"phosphorus":30,"potassium":25,"conductivity":1.2}`

func newTestRouteManager(t *testing.T, c orchestrator.Classifier, n orchestrator.Narrator) *RouteManager {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := NewSessionStore(testFactory(t, c, n), time.Hour, logger)
	rm := NewRouteManager(sessions, rotator.New(), nil, prometheus.NewRegistry(), models.SchemaNameFull, []string{"*"}, logger)
	rm.Setup()
	return rm
}

func doRequest(rm *RouteManager, method, path, contentType, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	rm.Handler().ServeHTTP(w, req)
	return w
}

func decodeAnalyzeResponse(t *testing.T, w *httptest.ResponseRecorder) AnalyzeResponse {
	t.Helper()
	var resp AnalyzeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestAnalyzeHandler_JSON(t *testing.T) {
	classifier := &stubClassifier{label: "Healthy"}
	narrator := &stubNarrator{text: "## Plan\n**Mulch** now"}
	rm := newTestRouteManager(t, classifier, narrator)

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeAnalyzeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Healthy", resp.Report.Label)
	assert.Equal(t, "Plan\n<strong>Mulch</strong> now", resp.Report.Narrative)
	assert.NotNil(t, sessionCookie(w))
}

func TestAnalyzeHandler_Form(t *testing.T) {
	classifier := &stubClassifier{label: "Moderate Stress"}
	rm := newTestRouteManager(t, classifier, &stubNarrator{text: "ok"})

	form := url.Values{}
	for _, name := range models.SchemaReduced.FieldNames() {
		form.Set(name, "3")
	}
	form.Set("schema", models.SchemaNameReduced)

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeAnalyzeResponse(t, w)
	assert.Equal(t, "Moderate Stress", resp.Report.Label)
	assert.Equal(t, models.SchemaNameReduced, resp.Report.Schema)
}

func TestAnalyzeHandler_Validation(t *testing.T) {
	classifier := &stubClassifier{label: "Healthy"}
	narrator := &stubNarrator{text: "ok"}
	rm := newTestRouteManager(t, classifier, narrator)

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", `{"moisture":35,"ph":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeAnalyzeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, orchestrator.ErrorTypeValidation, resp.Error.Type)
	assert.Contains(t, resp.Error.Fields, models.FieldPH)
	assert.NotContains(t, resp.Error.Fields, models.FieldMoisture)
	assert.Equal(t, int32(0), classifier.calls.Load())
	assert.Equal(t, int32(0), narrator.calls.Load())
}

func TestAnalyzeHandler_BadRequests(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"moisture":`},
		{"Unknown schema", `{"schema":"tiny"}`},
		{"Object value", `{"ph":{"v":1}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classifier := &stubClassifier{label: "Healthy"}
			rm := newTestRouteManager(t, classifier, &stubNarrator{})

			w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, int32(0), classifier.calls.Load())
		})
	}
}

func TestAnalyzeHandler_ClassificationFailure(t *testing.T) {
	narrator := &stubNarrator{text: "ok"}
	rm := newTestRouteManager(t, &stubClassifier{err: errors.New("connection refused")}, narrator)

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeAnalyzeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Report)
	assert.Equal(t, orchestrator.ErrorTypeClassification, resp.Error.Type)
	assert.Equal(t, int32(0), narrator.calls.Load())
}

func TestAnalyzeHandler_PartialReport(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{label: "High Stress"}, &stubNarrator{err: errors.New("timeout")})

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeAnalyzeResponse(t, w)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "High Stress", resp.Report.Label)
	assert.True(t, resp.Report.Partial)
	assert.Empty(t, resp.Report.Narrative)
	assert.Equal(t, orchestrator.ErrorTypeNarrative, resp.Error.Type)
}

func TestAnalyzeHandler_BusySession(t *testing.T) {
	classifier := &stubClassifier{label: "Healthy", release: make(chan struct{}), started: make(chan struct{}, 1)}
	rm := newTestRouteManager(t, classifier, &stubNarrator{text: "ok"})

	// establish a session
	sess, _ := rm.sessions.GetOrCreate("")
	cookie := &http.Cookie{Name: sessionCookieName, Value: sess.id}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody, cookie)
	}()
	<-classifier.started

	w := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, orchestrator.ErrorTypeBusy, decodeAnalyzeResponse(t, w).Error.Type)

	state := doRequest(rm, http.MethodGet, "/api/v1/analyze/state", "", "", cookie)
	snap := decodeAnalyzeResponse(t, state).State
	require.NotNil(t, snap)
	assert.Equal(t, orchestrator.StateSubmitting, snap.State)

	// other sessions are independent
	other := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		other <- doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody)
	}()
	<-classifier.started

	close(classifier.release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
	assert.Equal(t, http.StatusOK, (<-other).Code)
	assert.Equal(t, int32(2), classifier.calls.Load())
}

func TestAnalyzeStateHandler(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{label: "Healthy"}, &stubNarrator{text: "ok"})

	// no session yet
	w := doRequest(rm, http.MethodGet, "/api/v1/analyze/state", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orchestrator.StateIdle, decodeAnalyzeResponse(t, w).State.State)

	submit := doRequest(rm, http.MethodPost, "/api/v1/analyze", "application/json", fullJSONBody)
	cookie := sessionCookie(submit)
	require.NotNil(t, cookie)

	w = doRequest(rm, http.MethodGet, "/api/v1/analyze/state", "", "", cookie)
	resp := decodeAnalyzeResponse(t, w)
	assert.Equal(t, orchestrator.StateDone, resp.State.State)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "Healthy", resp.Report.Label)
}

func TestSchemaHandler(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{}, &stubNarrator{})

	w := doRequest(rm, http.MethodGet, "/api/v1/schema?name=reduced", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var s models.Schema
	require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.Equal(t, models.SchemaReduced.FieldNames(), s.FieldNames())

	w = doRequest(rm, http.MethodGet, "/api/v1/schema?name=tiny", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndSlogan(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{}, &stubNarrator{})

	w := doRequest(rm, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	w = doRequest(rm, http.MethodGet, "/api/v1/slogan", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var slogan SloganResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&slogan))
	assert.Equal(t, 0, slogan.Index)
	assert.Equal(t, rotator.Slogans()[0], slogan.Slogan)
}

func TestMetricsEndpoint(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{}, &stubNarrator{})

	w := doRequest(rm, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	rm := newTestRouteManager(t, &stubClassifier{}, &stubNarrator{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://soil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	rm.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
