package models

// Field names as sent to the classification service
const (
	FieldMoisture      = "moisture"
	FieldTemperature   = "temperature"
	FieldHumidity      = "humidity"
	FieldLight         = "light"
	FieldPH            = "ph"
	FieldNitrogen      = "nitrogen"
	FieldPhosphorus    = "phosphorus"
	FieldPotassium     = "potassium"
	FieldConductivity  = "conductivity"
	FieldContamination = "contamination"
)

// Capture-time fields appended to every classification payload
const (
	FieldHour  = "hour"
	FieldDay   = "day"
	FieldMonth = "month"
)

// Schema names
const (
	SchemaNameFull    = "full"
	SchemaNameReduced = "reduced"
)

// SensorField describes one numeric input of a soil reading form
type SensorField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Unit        string `json:"unit,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Schema is an ordered set of required sensor fields
type Schema struct {
	Name   string        `json:"name"`
	Fields []SensorField `json:"fields"`
}

// SensorFieldRegistry maps field names to their display information
var SensorFieldRegistry = map[string]SensorField{
	FieldMoisture: {
		Name:        FieldMoisture,
		Label:       "Moisture Level",
		Placeholder: "0-100%",
	},
	FieldTemperature: {
		Name:  FieldTemperature,
		Label: "Temperature",
		Unit:  "°C",
	},
	FieldHumidity: {
		Name:  FieldHumidity,
		Label: "Humidity",
		Unit:  "%",
	},
	FieldLight: {
		Name:  FieldLight,
		Label: "Light Intensity",
	},
	FieldPH: {
		Name:        FieldPH,
		Label:       "pH Level",
		Placeholder: "0-14",
	},
	FieldNitrogen: {
		Name:        FieldNitrogen,
		Label:       "Nitrogen Content",
		Placeholder: "0-100 mg/kg",
	},
	FieldPhosphorus: {
		Name:        FieldPhosphorus,
		Label:       "Phosphorus Content",
		Placeholder: "0-100 mg/kg",
	},
	FieldPotassium: {
		Name:        FieldPotassium,
		Label:       "Potassium Content",
		Placeholder: "0-100 mg/kg",
	},
	FieldConductivity: {
		Name:  FieldConductivity,
		Label: "Electrical Conductivity",
	},
	FieldContamination: {
		Name:        FieldContamination,
		Label:       "Contamination Level",
		Placeholder: "0-10",
	},
}

// SchemaFull is the nine-field sensor form
var SchemaFull = newSchema(SchemaNameFull,
	FieldMoisture, FieldTemperature, FieldHumidity, FieldLight, FieldPH,
	FieldNitrogen, FieldPhosphorus, FieldPotassium, FieldConductivity,
)

// SchemaReduced is the six-field variant form
var SchemaReduced = newSchema(SchemaNameReduced,
	FieldPH, FieldNitrogen, FieldPhosphorus, FieldPotassium, FieldMoisture, FieldContamination,
)

func newSchema(name string, fields ...string) Schema {
	s := Schema{Name: name, Fields: make([]SensorField, 0, len(fields))}
	for _, f := range fields {
		s.Fields = append(s.Fields, SensorFieldRegistry[f])
	}
	return s
}

// SchemaByName resolves "full" or "reduced"; an empty name means full
func SchemaByName(name string) (Schema, bool) {
	switch name {
	case "", SchemaNameFull:
		return SchemaFull, true
	case SchemaNameReduced:
		return SchemaReduced, true
	}
	return Schema{}, false
}

// Has reports whether the schema contains the named field
func (s Schema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldNames returns the field names in form order
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
