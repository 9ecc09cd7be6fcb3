package assessment

import (
	"fmt"
	"strings"

	apperrors "github.com/yanqian/derma-advisor/pkg/errors"
)

const (
	// DefaultMoleSystemPrompt fixes the assistant role for mole assessments.
	DefaultMoleSystemPrompt = "You are an AI assistant that analyzes mole characteristics to determine type and likelihood of cancer risk. Respond only in JSON."
	// DefaultPlanSystemPrompt fixes the assistant role for skincare plans.
	DefaultPlanSystemPrompt = "You are an AI assistant providing skincare advice. Respond only in valid JSON."
)

const moleUserTemplate = `Based on the following characteristics, determine the type of mole and the likelihood of cancer risk.
- Asymmetry: %s
- Border: %s
- Color: %s
- Diameter: %s
Provide the result strictly in JSON format:
{
  "type": "mole type",
  "likelihood": "likelihood of cancer"
}`

const planUserTemplate = `- Age: %s
- Gender: %s
- Skin Type: %s
- Skin Issues: %s

Provide a concise JSON response:
{
  "advice": "A short sentence.",
  "recommendedProducts": [
    {"name": "string", "type": "string", "description": "string"}
  ],
  "skinCarePlan": "One sentence."
}

Only respond with JSON and no extra text.`

// PromptBuilder renders deterministic prompts from validated requests.
type PromptBuilder struct {
	MoleSystem string
	PlanSystem string
}

// Mole validates req and renders the mole assessment prompt.
func (b PromptBuilder) Mole(req MoleRequest) (Prompt, error) {
	fields := []field{
		{"asymmetry", req.Asymmetry},
		{"border", req.Border},
		{"color", req.Color},
		{"diameter", req.Diameter},
	}
	if err := requireFields(fields); err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: orDefault(b.MoleSystem, DefaultMoleSystemPrompt),
		User:   fmt.Sprintf(moleUserTemplate, clean(req.Asymmetry), clean(req.Border), clean(req.Color), clean(req.Diameter)),
	}, nil
}

// Plan validates req and renders the skincare plan prompt. SkinIssues is optional.
func (b PromptBuilder) Plan(req PlanRequest) (Prompt, error) {
	fields := []field{
		{"age", req.Age.String()},
		{"gender", req.Gender},
		{"skinType", req.SkinType},
	}
	if err := requireFields(fields); err != nil {
		return Prompt{}, err
	}
	issues := clean(req.SkinIssues)
	if issues == "" {
		issues = "None"
	}
	return Prompt{
		System: orDefault(b.PlanSystem, DefaultPlanSystemPrompt),
		User:   fmt.Sprintf(planUserTemplate, clean(req.Age.String()), clean(req.Gender), clean(req.SkinType), issues),
	}, nil
}

type field struct {
	name  string
	value string
}

func requireFields(fields []field) error {
	var missing []string
	for _, f := range fields {
		if clean(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeInvalidInput, "missing required fields: "+strings.Join(missing, ", "), nil)
}

func clean(value string) string {
	return strings.TrimSpace(value)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
