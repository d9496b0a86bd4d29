package search

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/platform/llm"
	"github.com/medreview/medreview/internal/platform/openfda"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func staticGenerator(answer string, err error, calls *int32) llm.Generator {
	return llm.GeneratorFunc(func(context.Context, llm.Request) (string, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return answer, err
	})
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Ibuprofen":           "ibuprofen",
		"  acetaminophen.\n":  "acetaminophen",
		"\"Aspirin\"":         "aspirin",
		"'naproxen sodium'.":  "naproxen sodium",
		"insulin\n  glargine": "insulin glargine",
		"paracétamol":         "paracetamol",
		"ÉRROR":               "error",
		"":                    "",
	}
	for in, want := range tests {
		if got := normalizeName(in); got != want {
			t.Errorf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModelReasoner_ExtractFromText(t *testing.T) {
	var got llm.Request
	r := NewModelReasoner(llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return " Ibuprofen\n", nil
	}), time.Second, zerolog.Nop())

	name, err := r.ExtractFromText(context.Background(), "Advil")
	if err != nil {
		t.Fatalf("ExtractFromText() error: %v", err)
	}
	if name != "ibuprofen" {
		t.Errorf("expected ibuprofen, got %q", name)
	}
	if got.Temperature != 0 || got.JSON || got.Image != nil {
		t.Errorf("unexpected request options %+v", got)
	}
	if !strings.Contains(got.Prompt, "Input: Advil") {
		t.Errorf("query missing from prompt")
	}
}

func TestModelReasoner_ExtractFromText_Failures(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
	}{
		{"sentinel", "error", nil},
		{"sentinel with punctuation", "\"Error.\"", nil},
		{"empty answer", "   ", nil},
		{"generator failure", "", errors.New("deadline exceeded")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewModelReasoner(staticGenerator(tt.answer, tt.err, nil), time.Second, zerolog.Nop())
			_, err := r.ExtractFromText(context.Background(), "asdkjh")
			if !errors.Is(err, ErrExtractionFailed) {
				t.Errorf("expected ErrExtractionFailed, got %v", err)
			}
		})
	}

	r := NewModelReasoner(staticGenerator("aspirin", nil, nil), time.Second, zerolog.Nop())
	if _, err := r.ExtractFromText(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank text, got %v", err)
	}
}

func TestModelReasoner_ExtractFromImage(t *testing.T) {
	var got llm.Request
	r := NewModelReasoner(llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return "acetaminophen", nil
	}), time.Second, zerolog.Nop())

	name, err := r.ExtractFromImage(context.Background(), pngBytes(t))
	if err != nil || name != "acetaminophen" {
		t.Fatalf("ExtractFromImage() = %q, %v", name, err)
	}
	if got.Image == nil || got.Image.MIMEType != "image/png" {
		t.Errorf("expected png image in request, got %+v", got.Image)
	}
}

func TestModelReasoner_ExtractFromImage_InvalidBytes(t *testing.T) {
	var calls int32
	r := NewModelReasoner(staticGenerator("aspirin", nil, &calls), time.Second, zerolog.Nop())

	for _, data := range [][]byte{nil, []byte("not an image"), []byte("\x89PNG\r\n\x1a\ntruncated")} {
		if _, err := r.ExtractFromImage(context.Background(), data); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %q, got %v", data, err)
		}
	}
	if calls != 0 {
		t.Errorf("expected no generator calls, got %d", calls)
	}
}

func TestModelReasoner_Assess(t *testing.T) {
	var got llm.Request
	r := NewModelReasoner(llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return `{"can_take": true, "warning": null}`, nil
	}), time.Second, zerolog.Nop())

	label := &openfda.Label{ID: "123456", OpenFDA: openfda.OpenFDA{GenericName: []string{"IBUPROFEN"}}}
	v := r.Assess(context.Background(), label, NewPatientContext(nil, nil))
	if !v.CanTake || v.Warning != nil {
		t.Errorf("expected safe verdict, got %+v", v)
	}
	if !got.JSON || got.Temperature != 0 {
		t.Errorf("expected JSON request at temperature 0, got %+v", got)
	}
	for _, want := range []string{NoProfilePlaceholder, NoMedicalDataPlaceholder, "IBUPROFEN"} {
		if !strings.Contains(got.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestModelReasoner_Assess_FailClosed(t *testing.T) {
	label := &openfda.Label{ID: "1"}

	r := NewModelReasoner(staticGenerator("", errors.New("boom"), nil), time.Second, zerolog.Nop())
	v := r.Assess(context.Background(), label, NewPatientContext(nil, nil))
	if v.CanTake || v.Warning == nil || *v.Warning != "Error analyzing medicine safety: boom" {
		t.Errorf("unexpected verdict for generator error: %+v", v)
	}

	r = NewModelReasoner(staticGenerator("invalid json", nil, nil), time.Second, zerolog.Nop())
	v = r.Assess(context.Background(), label, NewPatientContext(nil, nil))
	if v.CanTake || v.Warning == nil || *v.Warning != warningUnparsable {
		t.Errorf("unexpected verdict for invalid json: %+v", v)
	}
}

func TestModelReasoner_Assess_Timeout(t *testing.T) {
	r := NewModelReasoner(llm.GeneratorFunc(func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 10*time.Millisecond, zerolog.Nop())

	v := r.Assess(context.Background(), &openfda.Label{ID: "1"}, NewPatientContext(nil, nil))
	if v.CanTake || v.Warning == nil || !strings.HasPrefix(*v.Warning, "Error analyzing medicine safety: ") {
		t.Errorf("expected fail-closed verdict on timeout, got %+v", v)
	}
}
