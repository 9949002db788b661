package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

// DefaultLang is used for unknown or empty language codes.
const DefaultLang = "vn"

// Translator holds one flat key/format table per language.
type Translator struct {
	langs map[string]map[string]string
}

// NewTranslator loads every locales/<lang>.yaml found in fsys. The default language must be present.
func NewTranslator(fsys fs.FS) (*Translator, error) {
	files, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, err
	}
	t := &Translator{langs: map[string]map[string]string{}}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", f, err)
		}
		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s: %w", f, err)
		}
		t.langs[strings.TrimSuffix(path.Base(f), ".yaml")] = table
	}
	if _, ok := t.langs[DefaultLang]; !ok {
		return nil, fmt.Errorf("missing default locale %q", DefaultLang)
	}
	return t, nil
}

// Default loads the embedded locales.
func Default() (*Translator, error) { return NewTranslator(LocalesFS) }

// T formats key in lang, falling back to the default language and then to the key itself.
func (t *Translator) T(lang, key string, args ...any) string {
	format, ok := t.langs[strings.ToLower(lang)][key]
	if !ok {
		format, ok = t.langs[DefaultLang][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
