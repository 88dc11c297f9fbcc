package validator

import (
	"context"
	"embed"
	"sync"

	"github.com/dmitrymomot/formrules/pkg/i18n"
)

// Messages resolves message templates by locale and key.
// *i18n.Translator implements it.
type Messages interface {
	Lookup(locale, key string) (string, bool)
}

//go:embed messages/*.yaml
var catalog embed.FS

var builtinMessages = sync.OnceValues(func() (*i18n.Translator, error) {
	return i18n.NewTranslator(context.Background(), BuiltinCatalog())
})

// BuiltinCatalog returns the adapter for the bundled messages, so callers can
// layer their own catalogs over it with i18n.ChainAdapter.
func BuiltinCatalog() i18n.TranslationAdapter {
	return i18n.NewFSAdapter(catalog, "messages")
}

// DefaultMessages returns the bundled English and German messages.
func DefaultMessages() Messages {
	tr, err := builtinMessages()
	if err != nil {
		// The catalog is embedded; failing to parse it is a build defect.
		panic(err)
	}
	return tr
}

const fallbackKey = "validation.invalid"
