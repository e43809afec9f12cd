package main

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"go.uber.org/zap"
)

const maxAnalyzeBodyBytes = 64 << 10

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// fieldValue is a raw sensor value. JSON clients may send numbers or strings.
type fieldValue string

func (v *fieldValue) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = fieldValue(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = fieldValue(s)
	return nil
}

func (v *fieldValue) UnmarshalText(text []byte) error {
	*v = fieldValue(text)
	return nil
}

// AnalyzeRequest is the body of POST /api/v1/analyze, JSON or form-encoded
type AnalyzeRequest struct {
	Schema        string     `json:"schema" schema:"schema"`
	Moisture      fieldValue `json:"moisture" schema:"moisture"`
	Temperature   fieldValue `json:"temperature" schema:"temperature"`
	Humidity      fieldValue `json:"humidity" schema:"humidity"`
	Light         fieldValue `json:"light" schema:"light"`
	PH            fieldValue `json:"ph" schema:"ph"`
	Nitrogen      fieldValue `json:"nitrogen" schema:"nitrogen"`
	Phosphorus    fieldValue `json:"phosphorus" schema:"phosphorus"`
	Potassium     fieldValue `json:"potassium" schema:"potassium"`
	Conductivity  fieldValue `json:"conductivity" schema:"conductivity"`
	Contamination fieldValue `json:"contamination" schema:"contamination"`
	Hour          *int       `json:"hour,omitempty" schema:"hour"`
	Day           *int       `json:"day,omitempty" schema:"day"`
	Month         *int       `json:"month,omitempty" schema:"month"`
}

func (req *AnalyzeRequest) values() map[string]string {
	return map[string]string{
		models.FieldMoisture:      string(req.Moisture),
		models.FieldTemperature:   string(req.Temperature),
		models.FieldHumidity:      string(req.Humidity),
		models.FieldLight:         string(req.Light),
		models.FieldPH:            string(req.PH),
		models.FieldNitrogen:      string(req.Nitrogen),
		models.FieldPhosphorus:    string(req.Phosphorus),
		models.FieldPotassium:     string(req.Potassium),
		models.FieldConductivity:  string(req.Conductivity),
		models.FieldContamination: string(req.Contamination),
	}
}

// reading builds the draft for the requested schema, ignoring values of
// fields the schema does not contain
func (req *AnalyzeRequest) reading(defaultSchema string) (*models.SensorReading, error) {
	name := req.Schema
	if name == "" {
		name = defaultSchema
	}
	s, err := resolveSchema(name)
	if err != nil {
		return nil, err
	}

	r := models.NewSensorReading(s)
	for field, value := range req.values() {
		if s.Has(field) {
			r.Values[field] = value
		}
	}
	if req.Hour != nil {
		r.Hour = *req.Hour
	}
	if req.Day != nil {
		r.Day = *req.Day
	}
	if req.Month != nil {
		r.Month = *req.Month
	}
	return r, nil
}

// AnalyzeResponse is returned by the analyze endpoints
type AnalyzeResponse struct {
	Success bool                   `json:"success"`
	State   *orchestrator.Snapshot `json:"state,omitempty"`
	Report  *models.Report         `json:"report,omitempty"`
	Error   *orchestrator.Error    `json:"error,omitempty"`
	Message string                 `json:"message,omitempty"`
}

func decodeAnalyzeRequest(r *http.Request) (*AnalyzeRequest, error) {
	var req AnalyzeRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxAnalyzeBodyBytes); err != nil {
				return nil, err
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, err
		}
		if err := formDecoder.Decode(&req, r.PostForm); err != nil {
			return nil, err
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// sessionFor returns the caller's session, issuing a cookie for new ones
func (rm *RouteManager) sessionFor(w http.ResponseWriter, r *http.Request) *session {
	id := ""
	if c, err := r.Cookie(sessionCookieName); err == nil {
		id = c.Value
	}

	sess, created := rm.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sess.id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// analyzeHandler runs one submission for the caller's session
func (rm *RouteManager) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBodyBytes)

	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, AnalyzeResponse{Message: "Invalid request body"})
		return
	}

	reading, err := req.reading(rm.defaultSchema)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, AnalyzeResponse{Message: err.Error()})
		return
	}

	sess := rm.sessionFor(w, r)
	report, err := sess.orch.Submit(r.Context(), reading)
	if err != nil {
		var orchErr *orchestrator.Error
		if !errors.As(err, &orchErr) {
			orchErr = &orchestrator.Error{Message: err.Error(), Code: http.StatusInternalServerError}
		}
		if orchErr.Type != orchestrator.ErrorTypeValidation && orchErr.Type != orchestrator.ErrorTypeBusy {
			rm.logger.Warn("analysis failed", zap.String("session_id", sess.id), zap.Error(err))
		}
		respondJSON(w, orchestrator.StatusCode(err), AnalyzeResponse{Report: report, Error: orchErr})
		return
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Report: report})
}

// analyzeStateHandler returns the caller's current submission state
func (rm *RouteManager) analyzeStateHandler(w http.ResponseWriter, r *http.Request) {
	var snap orchestrator.Snapshot
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if sess, ok := rm.sessions.Get(c.Value); ok {
			snap = sess.orch.Snapshot()
		}
	}

	resp := AnalyzeResponse{Success: true, State: &snap, Report: snap.Report}
	var orchErr *orchestrator.Error
	if errors.As(snap.Err, &orchErr) {
		resp.Error = orchErr
	}
	respondJSON(w, http.StatusOK, resp)
}

// schemaHandler describes the form fields of a schema
func (rm *RouteManager) schemaHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = rm.defaultSchema
	}
	s, err := resolveSchema(name)
	if err != nil {
		respondJSON(w, http.StatusNotFound, AnalyzeResponse{Message: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
