package narrative

import (
	"fmt"
	"strings"

	"github.com/sguter90/soilmaestro/pkg/models"
)

// SystemPrompt is the soil-science expert persona
const SystemPrompt = `You are an expert in soil health analysis and sustainable agriculture.
Your goal is to help farmers improve soil fertility, optimize fertilizer usage,
and enhance crop productivity through practical and scientific recommendations`

// Sections requested from the narrative service, in order
var Sections = []struct {
	Title string
	Ask   string
}{
	{"Soil Health Diagnosis", "A summary of my soil's current condition."},
	{"Actionable Improvement Tips", "Steps I can take to enhance soil fertility."},
	{"Fertilizer Recommendations", "Optimal nutrient management strategies."},
	{"Sustainable Farming Practices", "Techniques to ensure long-term soil health."},
	{"Crop-Specific Advice", "*(if possible)*: Best crops suitable for my soil conditions."},
}

// BuildUserPrompt interpolates the classification label, every raw field
// value and the capture time into the improvement plan request.
func BuildUserPrompt(label string, reading *models.SensorReading) string {
	var b strings.Builder

	b.WriteString("I am a farmer looking for guidance on maintaining and improving my soil health.\n")
	fmt.Fprintf(&b, "Based on a predictive analysis, my soil condition is classified as %q.\n", label)
	b.WriteString("Here is the data collected from my soil:\n\n")

	for _, f := range reading.Schema.Fields {
		fmt.Fprintf(&b, "- **%s**: %s%s\n", f.Label, strings.TrimSpace(reading.Values[f.Name]), f.Unit)
	}
	fmt.Fprintf(&b, "- **Time of Data Collection**: %d:00 on %d/%d\n\n", reading.Hour, reading.Day, reading.Month)

	b.WriteString("Based on this data, please provide me with:\n\n")
	for i, s := range Sections {
		sep := ": "
		if strings.HasPrefix(s.Ask, "*") {
			sep = " "
		}
		fmt.Fprintf(&b, "%d. **%s**%s%s\n", i+1, s.Title, sep, s.Ask)
	}

	b.WriteString("\nPlease ensure that the recommendations are **practical, region-independent, and scientifically backed.**")
	return b.String()
}
