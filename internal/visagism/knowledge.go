package visagism

import (
	"fmt"

	"github.com/Slydexx/esthetica-app/internal/models"
)

// Gender-conditioned styling rule sets. Prompts produced from these rules are
// always English; only summary/recommendations/changes follow the locale.

const maleRules = `
REGOLE VISAGISMO UOMO (ELEGANZA E CLASSE):
1.  **Stempiatura/Fronte Alta**: Prompt DEVE includere "sophisticated textured french crop", "soft messy fringe". EVITARE "blunt straight bangs".
2.  **Viso Tondo**: Prompt DEVE includere "classic voluminous quiff", "structured side fade".
3.  **Viso Quadrato**: Prompt DEVE includere "gentle layers on top", "groomed rounded beard".
4.  **Viso Lungo**: Prompt DEVE includere "balanced side volume", "classic scissor cut".
5.  **Mento Debole**: Prompt DEVE includere "perfectly sculpted full beard", "heavy stubble to define jawline".
6.  **Mento Prominente**: Prompt DEVE includere "volume on crown and back", "short neat beard".
`

const femaleRules = `
REGOLE VISAGISMO DONNA (ARMONIA E MODA):
1.  **Viso Tondo**: Prompt DEVE includere "face-framing long layers", "chic side part".
2.  **Viso Quadrato**: Prompt DEVE includere "romantic soft waves", "curtain bangs".
3.  **Viso Lungo**: Prompt DEVE includere "modern textured bob", "horizontal volume".
4.  **Fronte Alta**: Prompt DEVE includere "wispy curtain bangs", "long bottleneck bangs".
5.  **Mento Appuntito**: Prompt DEVE includere "volume at jawline", "wavy lob".
6.  **Occhi Piccoli**: Prompt DEVE includere "illuminating eyeliner", "curled lashes".
`

func rulesFor(gender models.Gender) string {
	if gender == models.GenderMale {
		return maleRules
	}
	// Neutral sessions reuse the harmony-oriented rule set.
	return femaleRules
}

func targetLanguage(locale models.Locale) string {
	if locale == models.LocaleIT {
		return "ITALIAN"
	}
	return "ENGLISH"
}

func genderContext(attrs models.UserAttributes) string {
	if attrs.Gender == models.GenderUnspecified {
		makeup := "NO"
		if attrs.MakeupPreference != nil && *attrs.MakeupPreference {
			makeup = "YES"
		}
		return fmt.Sprintf("Gender Neutral/Fluid. Makeup Preference: %s", makeup)
	}
	return string(attrs.Gender)
}

// AnalysisInstructions builds the full structured-analysis prompt: the expert
// persona, the output contract (always exactly four edit-prompt objects over
// the fixed shot plan), the active rule set, and the client line.
func AnalysisInstructions(attrs models.UserAttributes, locale models.Locale) string {
	lang := targetLanguage(locale)

	instructions := fmt.Sprintf(`
Sei un Visagista Esperto.
Analizza il viso e crea 4 strategie di miglioramento.

REGOLE DI OUTPUT:
1. **summary**: Analisi generale in %s.
2. **recommendations**: Lista consigli in %s.
3. **imageEditingPrompts**: Array di 4 oggetti.
   - **prompt**: DEVE ESSERE IN INGLESE (per il generatore di immagini). Dettagliato, tecnico, estetico.
   - **changes**: DEVE ESSERE IN %s (per l'utente). Lista puntata delle modifiche fatte.

STRUTTURA PROMPTS (4 Oggetti):
1. Front View (Balanced/Elegant)
2. Front View (Bold/Fashion Variant)
3. Right Profile (Jawline & Hair focus)
4. Left Profile (Jawline & Hair focus)

KNOWLEDGE BASE:
%s`, lang, lang, lang, rulesFor(attrs.Gender))

	return fmt.Sprintf("%s\nCliente: %s, %d, %s.\n", instructions, attrs.Name, attrs.Age, genderContext(attrs))
}
