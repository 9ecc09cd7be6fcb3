package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Mode selects how the completion text is fetched.
type Mode string

const (
	ModeBlocking    Mode = "blocking"
	ModeIncremental Mode = "incremental"
)

// ParseMode accepts the config spelling of a Mode. "stream" is an alias of incremental.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeBlocking):
		return ModeBlocking, nil
	case string(ModeIncremental), "stream", "streaming":
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("unknown completion mode %q", raw)
	}
}

// Options are the per-call completion settings.
type Options struct {
	Model           string
	MaxOutputTokens int
	Temperature     float32
	Mode            Mode
}

// EndpointConfig configures one assessment endpoint.
type EndpointConfig struct {
	Options
	SystemPrompt string
}

// Config wires runtime settings for the assessment domain.
type Config struct {
	Mole EndpointConfig
	Plan EndpointConfig
}

// Prompt is the role-tagged instruction pair sent upstream.
type Prompt struct {
	System string
	User   string
}

// MoleRequest carries the ABCD observations for a mole.
type MoleRequest struct {
	Asymmetry string `json:"asymmetry"`
	Border    string `json:"border"`
	Color     string `json:"color"`
	Diameter  string `json:"diameter"`
}

// PlanRequest carries the demographic and skin attributes for a skincare plan.
type PlanRequest struct {
	Age        FlexString `json:"age"`
	Gender     string     `json:"gender"`
	SkinType   string     `json:"skinType"`
	SkinIssues string     `json:"skinIssues,omitempty"`
}

// MoleResult is the structured reply for a mole assessment.
type MoleResult struct {
	Type       string `json:"type,omitempty"`
	Likelihood string `json:"likelihood,omitempty"`
}

// Product is a single product recommendation.
type Product struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// SkinCarePlan is the structured reply for a skincare plan.
type SkinCarePlan struct {
	Advice              string    `json:"advice,omitempty"`
	RecommendedProducts []Product `json:"recommendedProducts,omitempty"`
	SkinCarePlan        string    `json:"skinCarePlan,omitempty"`
}

// FlexString decodes from a JSON string or number. Form inputs of type number
// arrive either way depending on the client.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	default:
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
}

func (f FlexString) String() string {
	return string(f)
}
