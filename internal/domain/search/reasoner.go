package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/medreview/medreview/internal/platform/llm"
	"github.com/medreview/medreview/internal/platform/openfda"
)

// Reasoner extracts drug names and judges whether a drug suits a patient.
type Reasoner interface {
	ExtractFromText(ctx context.Context, text string) (string, error)
	ExtractFromImage(ctx context.Context, data []byte) (string, error)
	// Assess never fails; problems yield a fail-closed Verdict.
	Assess(ctx context.Context, label *openfda.Label, patient PatientContext) Verdict
}

const extractionSentinel = "error"

const extractionRules = `You are a pharmaceutical expert. Extract the generic drug name (active ingredient) from the input.

Rules:
- If a brand name is given, convert it to its generic name (e.g. Tylenol -> acetaminophen)
- Return ONLY the generic name in lowercase, with no explanation or punctuation
- Use the international generic name where one exists (e.g. paracetamol -> acetaminophen)
- If several ingredients are present, return only the primary one
- If no medicine can be identified, return exactly "error"`

const textExamples = `
Examples:
Input: "I have some Tylenol for my headache"
Output: acetaminophen

Input: "Taking 500mg paracetamol tablets"
Output: acetaminophen

Input: "Random text with no medicine"
Output: error`

const assessmentPrompt = `You are a medical safety assistant. Decide whether the patient can take the medicine described by the FDA label below.

Return ONLY a JSON object of the form {"can_take": true|false, "warning": string|null}.

Policy:
- Lean toward can_take true. Only warn when the patient's allergies or conditions directly and literally match the label's warnings or contraindications
- Allergies or conditions of "none", "healthy" or empty mean there is nothing to match: return {"can_take": true, "warning": null}
- Never assume conditions the profile does not state, such as pregnancy
- Keep any warning to one short sentence

Examples:
Medicine: aspirin. Profile allergies: "aspirin, penicillin"
{"can_take": false, "warning": "Patient has aspirin allergy - DO NOT TAKE"}

Medicine: ibuprofen. Profile conditions: "peptic ulcer"
{"can_take": false, "warning": "NSAIDs can worsen peptic ulcers - avoid use"}

Medicine: acetaminophen. Profile allergies: "none", conditions: "none"
{"can_take": true, "warning": null}

Medicine: %s
Profile: %s`

// ModelReasoner implements Reasoner on top of a language model.
type ModelReasoner struct {
	gen     llm.Generator
	timeout time.Duration
	logger  zerolog.Logger
}

func NewModelReasoner(gen llm.Generator, timeout time.Duration, logger zerolog.Logger) *ModelReasoner {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ModelReasoner{
		gen:     gen,
		timeout: timeout,
		logger:  logger.With().Str("component", "reasoner").Logger(),
	}
}

func (r *ModelReasoner) ExtractFromText(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	prompt := extractionRules + "\n" + textExamples + "\n\nInput: " + text + "\nOutput:"
	return r.extract(ctx, llm.Request{Prompt: prompt})
}

// ExtractFromImage rejects bytes that do not decode as an image before any
// model call is made.
func (r *ModelReasoner) ExtractFromImage(ctx context.Context, data []byte) (string, error) {
	mimeType, err := detectImage(data)
	if err != nil {
		return "", err
	}
	prompt := extractionRules + "\n\nThe input is the attached photo of a medicine package or label."
	return r.extract(ctx, llm.Request{
		Prompt: prompt,
		Image:  &llm.Image{Data: data, MIMEType: mimeType},
	})
}

func (r *ModelReasoner) extract(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req.Temperature = 0
	answer, err := r.gen.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	name := normalizeName(answer)
	if name == "" || name == extractionSentinel {
		r.logger.Debug().Str("answer", answer).Msg("no medicine identified")
		return "", ErrExtractionFailed
	}
	return name, nil
}

func (r *ModelReasoner) Assess(ctx context.Context, label *openfda.Label, patient PatientContext) Verdict {
	labelJSON, err := json.Marshal(label)
	if err != nil {
		return failClosed(warningCallFailed + err.Error())
	}
	patientJSON, err := json.Marshal(patient)
	if err != nil {
		return failClosed(warningCallFailed + err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer, err := r.gen.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(assessmentPrompt, labelJSON, patientJSON),
		JSON:        true,
		Temperature: 0,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("safety assessment call failed")
		return failClosed(warningCallFailed + err.Error())
	}

	v, ok := parseVerdict(answer)
	if !ok {
		r.logger.Warn().Str("answer", truncate(answer, 200)).Msg("unusable safety assessment")
	}
	return v
}

// normalizeName reduces a model answer to a single lower-case ASCII name.
func normalizeName(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(strings.Trim(s, "\"'`"))

	// transform.Chain keeps state, so build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
