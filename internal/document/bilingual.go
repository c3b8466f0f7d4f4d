package document

// Lang selects a display language for bilingual content.
type Lang string

const (
	LangEN Lang = "en"
	LangZH Lang = "zh"
)

// Bilingual holds the same logical content in up to two languages. Either
// side may be absent; a completed block must carry at least one.
type Bilingual struct {
	EN InlineList `json:"en,omitempty"`
	ZH InlineList `json:"zh,omitempty"`
}

// IsEmpty reports whether neither language has content.
func (b Bilingual) IsEmpty() bool {
	return len(b.EN) == 0 && len(b.ZH) == 0
}

// Resolve returns the content for the requested language, falling back to
// the other language when the requested one is absent. Returns nil when both
// are empty; renderers show a placeholder in that case. Every renderer goes
// through this method so the fallback behaves identically everywhere.
func (b Bilingual) Resolve(lang Lang) InlineList {
	switch lang {
	case LangZH:
		if len(b.ZH) > 0 {
			return b.ZH
		}
		return b.EN
	default:
		if len(b.EN) > 0 {
			return b.EN
		}
		return b.ZH
	}
}

// PlainBilingual builds a Bilingual with a single unstyled text run on the
// given side.
func PlainBilingual(lang Lang, text string) Bilingual {
	nodes := InlineList{NewText(text)}
	if lang == LangZH {
		return Bilingual{ZH: nodes}
	}
	return Bilingual{EN: nodes}
}
