package httpx

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference before and after login.
	LangCookieName = "fyke_lang"
)

// supportedTags are the UI languages; the first is the fallback.
//
//nolint:gochecknoglobals // fixed language table
var supportedTags = []language.Tag{
	language.English,
	language.Hindi,
	language.Tamil,
	language.Telugu,
	language.Kannada,
	language.Malayalam,
	language.Bengali,
	language.Marathi,
	language.Gujarati,
	language.Punjabi,
}

//nolint:gochecknoglobals // built once from supportedTags
var languageMatcher = language.NewMatcher(supportedTags)

// LanguageOption is one entry of the language picker.
type LanguageOption struct {
	Tag    string `json:"tag"`
	Label  string `json:"label"`
	Native string `json:"native"`
	Active bool   `json:"active"`
}

// DefaultLanguage returns the fallback UI language.
func DefaultLanguage() language.Tag { return supportedTags[0] }

// MatchLanguage maps any BCP 47 input onto a supported tag. ok is false when
// the input does not parse or only matches with low confidence.
func MatchLanguage(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultLanguage(), false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultLanguage(), false
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf < language.High {
		return DefaultLanguage(), false
	}
	return supportedTags[idx], true
}

// ResolveLanguage picks the request language: query param, then cookie, then
// the session's stored choice, then Accept-Language.
func ResolveLanguage(r *http.Request, sessionLang string) language.Tag {
	if tag, ok := MatchLanguage(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if c, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := MatchLanguage(c.Value); ok {
			return tag
		}
	}
	if tag, ok := MatchLanguage(sessionLang); ok {
		return tag
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := languageMatcher.Match(tags...)
			if conf >= language.Low {
				return supportedTags[idx]
			}
		}
	}
	return DefaultLanguage()
}

// LanguageOptions lists the supported languages with active marked.
func LanguageOptions(active language.Tag) []LanguageOption {
	names := display.English.Languages()
	out := make([]LanguageOption, 0, len(supportedTags))
	for _, tag := range supportedTags {
		out = append(out, LanguageOption{
			Tag:    tag.String(),
			Label:  names.Name(tag),
			Native: display.Self.Name(tag),
			Active: tag == active,
		})
	}
	return out
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, r *http.Request, domain string, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		Domain:   domain,
		Secure:   isSecureRequest(r),
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports HTTPS, accounting for a TLS-terminating proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
