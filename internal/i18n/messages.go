// Package i18n localizes boundary error messages. Only the client-facing
// strings live here; error taxonomy codes are locale-independent.
package i18n

import "golang.org/x/text/language"

var supported = []language.Tag{
	language.English,
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

// Pick chooses a supported locale from an Accept-Language header, falling
// back to the configured default.
func Pick(acceptLanguage, fallback string) string {
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			_, idx, _ := matcher.Match(tags...)
			if idx == 1 {
				return "id"
			}
			return "en"
		}
	}
	if fallback == "id" {
		return "id"
	}
	return "en"
}

var messages = map[string]map[string]string{
	"en": {
		"rate_limited":  "too many requests, slow down",
		"not_found":     "job not found",
		"invalid_state": "job cannot be cancelled",
		"invalid_body":  "request body is invalid",
		"internal":      "something went wrong",
	},
	"id": {
		"rate_limited":  "terlalu banyak permintaan, coba lagi nanti",
		"not_found":     "job tidak ditemukan",
		"invalid_state": "job tidak dapat dibatalkan",
		"invalid_body":  "isi permintaan tidak valid",
		"internal":      "terjadi kesalahan",
	},
}

// T returns the message for a key in the given locale, falling back to
// English, then to the key itself.
func T(locale, key string) string {
	if m, ok := messages[locale]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages["en"][key]; ok {
		return s
	}
	return key
}
