package visagism

import (
	"strings"
	"testing"

	"github.com/Slydexx/esthetica-app/internal/media"
	"github.com/Slydexx/esthetica-app/internal/models"
)

func TestEnhancementSourcesMapping(t *testing.T) {
	want := [4]int{media.SlotFront, media.SlotFront, media.SlotRightProfile, media.SlotLeftProfile}
	if EnhancementSources != want {
		t.Errorf("EnhancementSources = %v, want %v", EnhancementSources, want)
	}
}

func TestEnhancementPromptVariesByPosition(t *testing.T) {
	base := "add textured french crop"

	first := EnhancementPrompt(base, 0)
	second := EnhancementPrompt(base, 1)
	third := EnhancementPrompt(base, 2)
	fourth := EnhancementPrompt(base, 3)

	for i, p := range []string{first, second, third, fourth} {
		if !strings.Contains(p, base) {
			t.Errorf("prompt %d missing base instruction", i)
		}
		if !strings.Contains(p, negativePrompt) {
			t.Errorf("prompt %d missing negative prompt", i)
		}
		if !strings.Contains(p, "Maintain facial identity") {
			t.Errorf("prompt %d missing identity clause", i)
		}
	}

	if !strings.Contains(first, "Harmonious") {
		t.Error("index 0 should use the harmonious modifier")
	}
	if !strings.Contains(second, "Celebrity") {
		t.Error("index 1 should use the celebrity modifier")
	}
	if !strings.Contains(third, "profile") || third != fourth {
		t.Error("indexes 2 and 3 should share the profile modifier")
	}
}

func TestVariationPromptAppendsVariantTag(t *testing.T) {
	base := "soft waves with curtain bangs"

	got := VariationPrompt(base)

	if !strings.HasPrefix(got, base) {
		t.Errorf("variation should start with the base prompt, got %q", got)
	}
	if !strings.Contains(got, "Variant ") {
		t.Errorf("variation missing variant tag: %q", got)
	}
}

func TestAnalysisInstructions(t *testing.T) {
	yes := true

	tests := []struct {
		name     string
		attrs    models.UserAttributes
		locale   models.Locale
		contains []string
		excludes []string
	}{
		{
			name:     "male italian",
			attrs:    models.UserAttributes{Name: "Marco", Age: 34, Gender: models.GenderMale},
			locale:   models.LocaleIT,
			contains: []string{"REGOLE VISAGISMO UOMO", "ITALIAN", "Cliente: Marco, 34, male."},
			excludes: []string{"REGOLE VISAGISMO DONNA", "ENGLISH"},
		},
		{
			name:     "female english",
			attrs:    models.UserAttributes{Name: "Ada", Age: 29, Gender: models.GenderFemale},
			locale:   models.LocaleEN,
			contains: []string{"REGOLE VISAGISMO DONNA", "ENGLISH", "Cliente: Ada, 29, female."},
			excludes: []string{"REGOLE VISAGISMO UOMO"},
		},
		{
			name:     "neutral with makeup",
			attrs:    models.UserAttributes{Name: "Kim", Age: 22, Gender: models.GenderUnspecified, MakeupPreference: &yes},
			locale:   models.LocaleEN,
			contains: []string{"REGOLE VISAGISMO DONNA", "Gender Neutral/Fluid. Makeup Preference: YES"},
		},
		{
			name:     "neutral without makeup",
			attrs:    models.UserAttributes{Name: "Kim", Age: 22, Gender: models.GenderUnspecified},
			locale:   models.LocaleEN,
			contains: []string{"Makeup Preference: NO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalysisInstructions(tt.attrs, tt.locale)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("instructions missing %q", s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("instructions unexpectedly contain %q", s)
				}
			}
		})
	}
}
