package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sguter90/soilmaestro/pkg/models"
	"go.uber.org/zap"
)

// predictResponse is the body returned by the predict endpoint. The service
// reports model failures as a 200 with an error field.
type predictResponse struct {
	SoilHealth *string `json:"soil_health"`
	Error      string  `json:"error,omitempty"`
}

// Classify submits a reading payload and returns the soil-health label.
// A response without a label yields models.FallbackLabel.
func (c *Client) Classify(ctx context.Context, payload models.ClassificationRequest) (string, error) {
	resp, err := c.doRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if data.SoilHealth == nil || *data.SoilHealth == "" {
		if data.Error != "" {
			c.logger.Warn("classification service reported an error", zap.String("error", data.Error))
		}
		return models.FallbackLabel, nil
	}

	c.logger.Debug("classified reading", zap.String("label", *data.SoilHealth))
	return *data.SoilHealth, nil
}
