// Package i18n loads validation message catalogs and looks messages up by
// language and dotted key.
//
// Catalog documents are YAML or JSON with language codes at the top level:
//
//	en:
//	  validation:
//	    required: "The :attribute field is required."
//	    between:
//	      numeric: "The :attribute must be between :min and :max."
//
// Catalogs come from a TranslationAdapter: MapAdapter for in-memory data,
// FSAdapter for a directory inside any fs.FS (embed.FS included),
// NewDirectoryAdapter for a directory on disk and ChainAdapter to layer user
// catalogs over built-in ones.
//
// Lookup tries the requested language, its shorter prefixes and then the
// default language, so "de-AT" finds "de" messages and anything missing
// falls back to English:
//
//	tr, _ := i18n.NewTranslator(ctx, i18n.NewFSAdapter(messages, "messages"))
//	msg := tr.T("de-AT", "validation.required", map[string]any{"attribute": "email"})
//
// Interpolate replaces :token and {token} placeholders and is shared with the
// validator runtime for per-field custom messages.
package i18n
