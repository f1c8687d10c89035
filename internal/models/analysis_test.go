package models

import "testing"

func TestParseGender(t *testing.T) {
	tests := []struct {
		label   string
		want    Gender
		wantErr bool
	}{
		{"male", GenderMale, false},
		{"Uomo", GenderMale, false},
		{"man", GenderMale, false},
		{"female", GenderFemale, false},
		{"Donna", GenderFemale, false},
		{"woman", GenderFemale, false},
		{"unspecified", GenderUnspecified, false},
		{"Non Specificato", GenderUnspecified, false},
		{"  neutral  ", GenderUnspecified, false},
		{"robot", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseGender(tt.label)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseGender(%q) succeeded, want error", tt.label)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseGender(%q): %v", tt.label, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGender(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestParseLocale(t *testing.T) {
	if ParseLocale("IT") != LocaleIT {
		t.Error("IT should map to the italian locale")
	}
	if ParseLocale("fr") != LocaleEN {
		t.Error("unknown locales should fall back to english")
	}
}

func TestUserAttributesValidate(t *testing.T) {
	yes := true

	tests := []struct {
		name    string
		attrs   UserAttributes
		wantErr bool
	}{
		{"valid male", UserAttributes{Name: "Marco", Age: 34, Gender: GenderMale}, false},
		{"valid at minimum age", UserAttributes{Name: "Ada", Age: MinAge, Gender: GenderFemale}, false},
		{"valid neutral with makeup", UserAttributes{Name: "Kim", Age: 20, Gender: GenderUnspecified, MakeupPreference: &yes}, false},
		{"missing name", UserAttributes{Age: 30, Gender: GenderMale}, true},
		{"blank name", UserAttributes{Name: "   ", Age: 30, Gender: GenderMale}, true},
		{"underage", UserAttributes{Name: "Kid", Age: MinAge - 1, Gender: GenderMale}, true},
		{"bogus gender", UserAttributes{Name: "X", Age: 30, Gender: "alien"}, true},
		{"makeup on binary gender", UserAttributes{Name: "Ada", Age: 30, Gender: GenderFemale, MakeupPreference: &yes}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attrs.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestCreditDefaults(t *testing.T) {
	if DefaultCredits() != [EnhancementSlots]int{2, 2, 2, 2} {
		t.Errorf("DefaultCredits = %v", DefaultCredits())
	}
	if PremiumCredits() != [EnhancementSlots]int{10, 10, 10, 10} {
		t.Errorf("PremiumCredits = %v", PremiumCredits())
	}
}
