package handlers

import (
	"testing"

	"github.com/Slydexx/esthetica-app/internal/models"
)

func sampleArtifact() models.AnalysisArtifact {
	return models.AnalysisArtifact{
		ID:              "art_1",
		Summary:         "Oval face, warm undertone.",
		DiagnosticImage: "data:image/png;base64,RElBRw==",
		Recommendations: []string{"soft layers", "warm copper tones"},
		EnhancedImages: []models.EnhancedImage{
			{Original: "data:image/jpeg;base64,Rk9UTw==", Generated: "data:image/png;base64,R0VOMQ==", Prompt: "harmonious", Changes: []string{"layered cut"}},
			{Original: "data:image/jpeg;base64,Rk9UTw==", Generated: "data:image/png;base64,R0VOMg==", Prompt: "bold", Changes: []string{"undercut"}},
		},
	}
}

// A free account can run the full workflow; only the generated visuals are
// withheld from the response until the account upgrades.
func TestAnalysisPayloadLocksVisualsForFreeTier(t *testing.T) {
	cases := []struct {
		name  string
		state *models.Entitlement
	}{
		{name: "no entitlement row", state: nil},
		{name: "free tier", state: &models.Entitlement{Premium: false}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := analysisPayload(sampleArtifact(), tc.state)

			if locked, _ := resp["locked"].(bool); !locked {
				t.Fatal("expected locked payload")
			}
			artifact, ok := resp["analysis"].(models.AnalysisArtifact)
			if !ok {
				t.Fatalf("unexpected analysis payload type %T", resp["analysis"])
			}
			if artifact.DiagnosticImage != "" {
				t.Error("diagnostic image leaked to free tier")
			}
			for i, img := range artifact.EnhancedImages {
				if img.Generated != "" {
					t.Errorf("generated portrait %d leaked to free tier", i)
				}
				if img.Original == "" {
					t.Errorf("source photo %d missing from locked payload", i)
				}
				if img.Prompt == "" || len(img.Changes) == 0 {
					t.Errorf("edit description %d missing from locked payload", i)
				}
			}
			if artifact.Summary == "" || len(artifact.Recommendations) == 0 {
				t.Error("textual report missing from locked payload")
			}
		})
	}
}

func TestAnalysisPayloadUnlockedForPremium(t *testing.T) {
	plan := models.PlanPro
	state := &models.Entitlement{Premium: true, Plan: &plan, Credits: models.PremiumCredits()}

	resp := analysisPayload(sampleArtifact(), state)

	if locked, _ := resp["locked"].(bool); locked {
		t.Fatal("premium payload should not be locked")
	}
	artifact := resp["analysis"].(models.AnalysisArtifact)
	if artifact.DiagnosticImage == "" {
		t.Error("diagnostic image missing for premium account")
	}
	for i, img := range artifact.EnhancedImages {
		if img.Generated == "" {
			t.Errorf("generated portrait %d missing for premium account", i)
		}
	}
}

// Redacting never mutates the cached artifact itself; the worker archives the
// full payload regardless of the viewer's tier.
func TestRedactedLeavesSourceArtifactIntact(t *testing.T) {
	artifact := sampleArtifact()
	_ = artifact.Redacted()

	if artifact.DiagnosticImage == "" {
		t.Error("redaction mutated the source diagnostic image")
	}
	for i, img := range artifact.EnhancedImages {
		if img.Generated == "" {
			t.Errorf("redaction mutated source portrait %d", i)
		}
	}
}
