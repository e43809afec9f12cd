package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Default capture-time values used by the sensor form
const (
	DefaultHour  = 24
	DefaultDay   = 1
	DefaultMonth = 1
)

// SensorReading is the editable draft behind a soil reading form.
// Values stay strings until Payload is called at submission time.
type SensorReading struct {
	Schema Schema
	Values map[string]string
	Hour   int
	Day    int
	Month  int
}

// ClassificationRequest is the JSON body sent to the classification service
type ClassificationRequest map[string]float64

// NewSensorReading creates an empty draft for the given schema
func NewSensorReading(schema Schema) *SensorReading {
	return &SensorReading{
		Schema: schema,
		Values: make(map[string]string, len(schema.Fields)),
		Hour:   DefaultHour,
		Day:    DefaultDay,
		Month:  DefaultMonth,
	}
}

// Set stores the raw value of a field
func (r *SensorReading) Set(field, value string) error {
	if !r.Schema.Has(field) {
		return fmt.Errorf("unknown field %q for schema %s", field, r.Schema.Name)
	}
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	r.Values[field] = value
	return nil
}

// Get returns the raw value of a field
func (r *SensorReading) Get(field string) string {
	return r.Values[field]
}

// Clone returns a copy that shares no mutable state with r
func (r *SensorReading) Clone() *SensorReading {
	c := *r
	c.Values = make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return &c
}

// MissingFieldsError lists required fields without a value
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("please fill all the fields: missing %s", strings.Join(e.Fields, ", "))
}

// InvalidValueError reports a field whose value is not a number
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %q is not a number", e.Field, e.Value)
}

// MissingFields returns the required fields that are empty, in form order
func (r *SensorReading) MissingFields() []string {
	var missing []string
	for _, f := range r.Schema.Fields {
		if r.Values[f.Name] == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Validate checks that every required field has a value.
// Only presence is checked, ranges and types are not.
func (r *SensorReading) Validate() error {
	if missing := r.MissingFields(); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Payload coerces the draft into the classification request body
func (r *SensorReading) Payload() (ClassificationRequest, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	payload := make(ClassificationRequest, len(r.Schema.Fields)+3)
	for _, f := range r.Schema.Fields {
		raw := strings.TrimSpace(r.Values[f.Name])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &InvalidValueError{Field: f.Name, Value: raw}
		}
		payload[f.Name] = v
	}
	payload[FieldHour] = float64(r.Hour)
	payload[FieldDay] = float64(r.Day)
	payload[FieldMonth] = float64(r.Month)

	return payload, nil
}
