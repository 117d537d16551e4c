package analysis

import "strings"

// Language is a supported output language.
type Language uint8

const (
	// English is the fallback for any unrecognized x-lang value.
	English Language = iota
	// Spanish is selected by x-lang: es.
	Spanish
)

// ParseLanguage resolves an x-lang header value. Only a case-insensitive "es"
// selects Spanish.
func ParseLanguage(raw string) Language {
	if strings.ToLower(raw) == "es" {
		return Spanish
	}
	return English
}

// Code returns the two-letter tag.
func (l Language) Code() string {
	switch l {
	case Spanish:
		return "es"
	default:
		return "en"
	}
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return l.Code()
}

// Sections holds the localized pieces of a document.
type Sections struct {
	Title     string
	TLDR      string
	KeyPoints string
	Sources   string
}

func (l Language) sections() Sections {
	switch l {
	case Spanish:
		return spanishSections()
	default:
		return englishSections()
	}
}

func (l Language) modeHeading(mode string) string {
	switch l {
	case Spanish:
		return "## Modo: " + mode
	default:
		return "## Mode: " + mode
	}
}

func (l Language) articleLine(url string) string {
	switch l {
	case Spanish:
		return "**Artículo:** " + url
	default:
		return "**Article:** " + url
	}
}

func englishSections() Sections {
	return Sections{
		Title:     "# News Helper (Stub)",
		TLDR:      "## TL;DR\nThis is a placeholder response. Real analysis will appear here.",
		KeyPoints: "## Key Points\n- Paste a valid URL\n- Choose a mode\n- Get Markdown output",
		Sources:   "## Sources\n- (live search & citations will go here)",
	}
}

func spanishSections() Sections {
	return Sections{
		Title:     "# News Helper (Borrador)",
		TLDR:      "## Resumen\nEsta es una respuesta de prueba. El análisis real aparecerá aquí.",
		KeyPoints: "## Puntos clave\n- Pega un URL válido\n- Elige un modo\n- Obtén salida en Markdown",
		Sources:   "## Fuentes\n- (la búsqueda en vivo y citas irán aquí)",
	}
}
