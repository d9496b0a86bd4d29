package search

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/medreview/medreview/internal/domain/identity"
)

const (
	warningUnparsable    = "Error analyzing medicine safety - please consult a healthcare provider"
	warningInvalidFormat = "Error analyzing medicine safety - invalid response format"
	warningCallFailed    = "Error analyzing medicine safety: "

	NoProfilePlaceholder     = "No profile data available"
	NoMedicalDataPlaceholder = "No medical data available"
)

// Verdict is the safety decision returned with every search. It is never
// stored.
type Verdict struct {
	CanTake bool    `json:"can_take"`
	Warning *string `json:"warning"`
}

func failClosed(msg string) Verdict {
	return Verdict{CanTake: false, Warning: &msg}
}

// PatientContext is the patient information handed to the reasoner. Absent
// records are replaced by fixed placeholder strings.
type PatientContext struct {
	Profile     any `json:"profile"`
	MedicalData any `json:"medical_data"`
}

func NewPatientContext(p *identity.Profile, md *identity.MedicalData) PatientContext {
	pc := PatientContext{Profile: NoProfilePlaceholder, MedicalData: NoMedicalDataPlaceholder}
	if p != nil {
		pc.Profile = map[string]any{
			"age":    p.Age,
			"gender": p.Gender,
		}
	}
	if md != nil {
		pc.MedicalData = map[string]any{
			"allergies":                 md.Allergies,
			"conditions":                md.Conditions,
			"preferred_medication_type": md.PreferredMedicationType,
		}
	}
	return pc
}

type rawVerdict struct {
	CanTake json.RawMessage `json:"can_take"`
	Warning json.RawMessage `json:"warning"`
}

// parseVerdict coerces a model answer into a Verdict. ok is false when the
// answer could not be used and a fail-closed verdict was returned instead.
func parseVerdict(answer string) (v Verdict, ok bool) {
	payload := stripCodeFence(answer)
	if !strings.HasPrefix(payload, "{") {
		return failClosed(warningUnparsable), false
	}
	var raw rawVerdict
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return failClosed(warningUnparsable), false
	}

	canTake, valid := coerceBool(raw.CanTake)
	if !valid {
		return failClosed(warningInvalidFormat), false
	}
	return Verdict{CanTake: canTake, Warning: coerceWarning(raw.Warning)}, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// coerceBool accepts a JSON bool or a "true"/"false" string. null is not
// a boolean.
func coerceBool(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func coerceWarning(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		s = string(trimmed)
		return &s
	}
	s = buf.String()
	return &s
}
