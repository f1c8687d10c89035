package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Locale string

const (
	LocaleIT Locale = "it"
	LocaleEN Locale = "en"
)

func ParseLocale(s string) Locale {
	if strings.EqualFold(strings.TrimSpace(s), "it") {
		return LocaleIT
	}
	return LocaleEN
}

type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender maps any locale-specific form label onto the internal
// enumeration once, at the boundary, so nothing downstream ever compares
// localized strings.
func ParseGender(label string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "male", "man", "uomo":
		return GenderMale, nil
	case "female", "woman", "donna":
		return GenderFemale, nil
	case "unspecified", "non specificato", "neutral":
		return GenderUnspecified, nil
	default:
		return "", fmt.Errorf("unknown gender label %q", label)
	}
}

const MinAge = 16

// UserAttributes is the biographical input of one analysis session.
// MakeupPreference is meaningful only when Gender is unspecified.
type UserAttributes struct {
	Name             string `json:"name"`
	Age              int    `json:"age"`
	Gender           Gender `json:"gender"`
	MakeupPreference *bool  `json:"makeupPreference,omitempty"`
}

func (a UserAttributes) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("name required")
	}
	if a.Age < MinAge {
		return fmt.Errorf("age must be at least %d", MinAge)
	}
	switch a.Gender {
	case GenderMale, GenderFemale, GenderUnspecified:
	default:
		return fmt.Errorf("invalid gender %q", a.Gender)
	}
	if a.Gender != GenderUnspecified && a.MakeupPreference != nil {
		return errors.New("makeup preference only applies to unspecified gender")
	}
	return nil
}

// EnhancedImage pairs one generated portrait variant with the source photo
// it was derived from, the English edit instruction used to produce it, and
// the localized change descriptions shown to the user.
type EnhancedImage struct {
	Original  string   `json:"original"`
	Generated string   `json:"generated"`
	Prompt    string   `json:"prompt"`
	Changes   []string `json:"changes"`
}

// AnalysisArtifact is the aggregate output of one successful orchestration
// run. It is replaced wholesale on reset or regeneration.
type AnalysisArtifact struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Summary         string          `json:"summary"`
	DiagnosticImage string          `json:"diagnosticImage"`
	Recommendations []string        `json:"recommendations"`
	EnhancedImages  []EnhancedImage `json:"enhancedImages"`
	Locale          Locale          `json:"locale"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Redacted returns a copy with the paid visuals stripped: the diagnostic
// overlay and the generated portraits. The summary, the recommendations and
// the user's own source photos stay readable so the paywalled results view
// can still render the report around the locked images.
func (a AnalysisArtifact) Redacted() AnalysisArtifact {
	a.DiagnosticImage = ""
	images := make([]EnhancedImage, len(a.EnhancedImages))
	for i, img := range a.EnhancedImages {
		img.Generated = ""
		images[i] = img
	}
	a.EnhancedImages = images
	return a
}

type AnalysisStatus string

const (
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusArchived  AnalysisStatus = "archived"
)

// AnalysisRecord is the metadata row persisted for a completed run; the
// image payloads themselves live in the continuity cache and, once the
// worker has swept them, in the object store.
type AnalysisRecord struct {
	ID        string
	UserID    string
	Summary   string
	Locale    Locale
	Status    AnalysisStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
