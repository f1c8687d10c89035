package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/gemini"
	"github.com/Slydexx/esthetica-app/internal/media"
	"github.com/Slydexx/esthetica-app/internal/models"
)

// fakeModelServer stands in for the generative API: the text model answers
// with a canned analysis, the image model replies per configured script.
type fakeModelServer struct {
	mu            sync.Mutex
	analysisBody  string
	analysisFails int
	imageReplies  []string // "" means no image payload in the reply
	imageCalls    int
	textCalls     int
}

func (f *fakeModelServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.Contains(r.URL.Path, "text-model"):
			f.textCalls++
			if f.analysisFails > 0 {
				f.analysisFails--
				http.Error(w, "upstream hiccup", http.StatusInternalServerError)
				return
			}
			writeTextCandidate(w, f.analysisBody)
		case strings.Contains(r.URL.Path, "image-model"):
			reply := ""
			if f.imageCalls < len(f.imageReplies) {
				reply = f.imageReplies[f.imageCalls]
			}
			f.imageCalls++
			if reply == "" {
				writeTextCandidate(w, "no image this time")
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"parts": []map[string]any{{
							"inlineData": map[string]string{"data": reply, "mimeType": "image/jpeg"},
						}},
					},
				}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func writeTextCandidate(w http.ResponseWriter, text string) {
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
}

const twoPromptAnalysis = `{
	"summary": "viso ovale, lineamenti regolari",
	"recommendations": ["taglio scalato", "barba corta"],
	"imageEditingPrompts": [
		{"prompt": "front harmonious", "changes": ["frangia"]},
		{"prompt": "front bold", "changes": ["volume"]}
	]
}`

func newTestAnalysisService(t *testing.T, fake *fakeModelServer) *AnalysisService {
	t.Helper()

	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.AppConfig{
		Gemini: config.GeminiConfig{
			APIKey:     "test-key",
			BaseURL:    srv.URL,
			APIVersion: "v1beta",
			TextModel:  "text-model",
			ImageModel: "image-model",
			Timeout:    5 * time.Second,
		},
		Analysis: config.AnalysisConfig{
			RetryAttempts: 2,
			RetryBackoff:  time.Millisecond,
		},
	}

	client := gemini.NewClient(cfg.Gemini, zerolog.Nop())
	return NewAnalysisService(client, nil, nil, cfg, zerolog.Nop())
}

func testSlots() media.SlotSet {
	return media.SlotSet{
		"data:image/jpeg;base64,RlJPTlQ=",
		"data:image/jpeg;base64,UklHSFQ=",
		"data:image/jpeg;base64,TEVGVA==",
	}
}

func testAttrs() models.UserAttributes {
	return models.UserAttributes{Name: "Marco", Age: 34, Gender: models.GenderMale}
}

func TestRunProducesFullArtifact(t *testing.T) {
	fake := &fakeModelServer{
		analysisBody: twoPromptAnalysis,
		// Diagnostic, then four enhancements; the second enhancement
		// produces no payload and must fall back to its source photo.
		imageReplies: []string{"RElBRw==", "R0VOMQ==", "", "R0VOMw==", "R0VONA=="},
	}
	svc := newTestAnalysisService(t, fake)

	var progress []string
	artifact, err := svc.Run(context.Background(), testSlots(), testAttrs(), models.LocaleIT, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if artifact.ID == "" {
		t.Error("artifact missing id")
	}
	if artifact.Summary != "viso ovale, lineamenti regolari" {
		t.Errorf("summary = %q", artifact.Summary)
	}
	if artifact.DiagnosticImage != "data:image/jpeg;base64,RElBRw==" {
		t.Errorf("diagnostic = %q", artifact.DiagnosticImage)
	}

	if len(artifact.EnhancedImages) != models.EnhancementSlots {
		t.Fatalf("enhanced images = %d, want %d", len(artifact.EnhancedImages), models.EnhancementSlots)
	}

	slots := testSlots()
	wantSources := []media.NormalizedImage{
		slots[media.SlotFront],
		slots[media.SlotFront],
		slots[media.SlotRightProfile],
		slots[media.SlotLeftProfile],
	}
	for i, item := range artifact.EnhancedImages {
		if item.Original != string(wantSources[i]) {
			t.Errorf("enhancement %d original = %q, want %q", i, item.Original, wantSources[i])
		}
	}

	// Two prompts padded to four by duplicating the last.
	wantPrompts := []string{"front harmonious", "front bold", "front bold", "front bold"}
	for i, item := range artifact.EnhancedImages {
		if item.Prompt != wantPrompts[i] {
			t.Errorf("enhancement %d prompt = %q, want %q", i, item.Prompt, wantPrompts[i])
		}
	}

	// The failed render keeps the source photo as its result.
	if artifact.EnhancedImages[1].Generated != artifact.EnhancedImages[1].Original {
		t.Error("enhancement 2 should fall back to its source photo")
	}
	if artifact.EnhancedImages[0].Generated != "data:image/jpeg;base64,R0VOMQ==" {
		t.Errorf("enhancement 1 generated = %q", artifact.EnhancedImages[0].Generated)
	}

	wantProgress := []string{
		"analyzing facial features",
		"rendering diagnostic blueprint",
		"rendering image 1 of 4",
		"rendering image 2 of 4",
		"rendering image 3 of 4",
		"rendering image 4 of 4",
		"finalizing your results",
	}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress = %v", progress)
	}
	for i, msg := range wantProgress {
		if progress[i] != msg {
			t.Errorf("progress[%d] = %q, want %q", i, progress[i], msg)
		}
	}

	if fake.imageCalls != 5 {
		t.Errorf("image calls = %d, want 5", fake.imageCalls)
	}
}

func TestRunRetriesTransientAnalysisFailure(t *testing.T) {
	fake := &fakeModelServer{
		analysisBody:  twoPromptAnalysis,
		analysisFails: 2,
		imageReplies:  []string{"RElBRw==", "QQ==", "Qg==", "Qw==", "RA=="},
	}
	svc := newTestAnalysisService(t, fake)

	_, err := svc.Run(context.Background(), testSlots(), testAttrs(), models.LocaleEN, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.textCalls != 3 {
		t.Errorf("text calls = %d, want 3", fake.textCalls)
	}
}

func TestRunFailsFastOnPermissionDenied(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.AppConfig{
		Gemini: config.GeminiConfig{
			APIKey:     "bad-key",
			BaseURL:    srv.URL,
			TextModel:  "text-model",
			ImageModel: "image-model",
			Timeout:    5 * time.Second,
		},
		Analysis: config.AnalysisConfig{RetryAttempts: 3, RetryBackoff: time.Hour},
	}
	svc := NewAnalysisService(gemini.NewClient(cfg.Gemini, zerolog.Nop()), nil, nil, cfg, zerolog.Nop())

	start := time.Now()
	_, err := svc.Run(context.Background(), testSlots(), testAttrs(), models.LocaleEN, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !gemini.IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("auth failure waited on backoff")
	}
}

func TestRunRejectsIncompleteSlots(t *testing.T) {
	svc := newTestAnalysisService(t, &fakeModelServer{analysisBody: twoPromptAnalysis})

	slots := testSlots()
	slots[media.SlotLeftProfile] = ""

	_, err := svc.Run(context.Background(), slots, testAttrs(), models.LocaleEN, nil)
	if !errors.Is(err, ErrIncompleteInput) {
		t.Fatalf("err = %v, want ErrIncompleteInput", err)
	}
}

func TestRunRejectsInvalidAttributes(t *testing.T) {
	svc := newTestAnalysisService(t, &fakeModelServer{analysisBody: twoPromptAnalysis})

	attrs := testAttrs()
	attrs.Age = 12

	if _, err := svc.Run(context.Background(), testSlots(), attrs, models.LocaleEN, nil); err == nil {
		t.Fatal("underage attributes accepted")
	}
}

func TestPadEditInstructions(t *testing.T) {
	p := func(s string) gemini.EditInstruction { return gemini.EditInstruction{Prompt: s} }

	tests := []struct {
		name string
		in   []gemini.EditInstruction
		want []string
	}{
		{"pads by duplicating last", []gemini.EditInstruction{p("a"), p("b")}, []string{"a", "b", "b", "b"}},
		{"single entry", []gemini.EditInstruction{p("a")}, []string{"a", "a", "a", "a"}},
		{"exact four", []gemini.EditInstruction{p("a"), p("b"), p("c"), p("d")}, []string{"a", "b", "c", "d"}},
		{"truncates extras", []gemini.EditInstruction{p("a"), p("b"), p("c"), p("d"), p("e")}, []string{"a", "b", "c", "d"}},
		{"empty stays empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padEditInstructions(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if got[i].Prompt != want {
					t.Errorf("prompt[%d] = %q, want %q", i, got[i].Prompt, want)
				}
			}
		})
	}
}
