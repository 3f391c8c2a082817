package store

import "github.com/marcus/storeconf/internal/models"

// Language codes a value map may be keyed by. A nested document whose keys
// are all language codes is a translated value, not a sub-document.
var langCodes = map[string]bool{
	"en": true, "es": true, "fr": true, "de": true,
	"it": true, "pt": true, "ar": true, "zh": true,
}

// Localized returns a projection of the snapshot with per-language value
// maps resolved to the flat value for lang, falling back to English and then
// to any available language.
func (s *Store) Localized(lang string) models.Document {
	doc := s.Document()
	out, _ := localizeValue(doc, lang).(models.Document)
	return out
}

func localizeValue(v any, lang string) any {
	switch val := v.(type) {
	case models.Document:
		return localizeDoc(val, lang)
	case map[string]any:
		return localizeDoc(models.Document(val), lang)
	case []any:
		for i, item := range val {
			val[i] = localizeValue(item, lang)
		}
		return val
	default:
		return v
	}
}

func localizeDoc(doc models.Document, lang string) any {
	if isTranslatedValue(doc) {
		if v, ok := doc[lang]; ok {
			return v
		}
		if v, ok := doc["en"]; ok {
			return v
		}
		for _, v := range doc {
			return v
		}
		return nil
	}
	for k, v := range doc {
		doc[k] = localizeValue(v, lang)
	}
	return doc
}

func isTranslatedValue(doc models.Document) bool {
	if len(doc) == 0 {
		return false
	}
	for k := range doc {
		if !langCodes[k] {
			return false
		}
	}
	return true
}
