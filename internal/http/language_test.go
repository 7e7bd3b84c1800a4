package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
		ok   bool
	}{
		{in: "hi", want: language.Hindi, ok: true},
		{in: "hi-IN", want: language.Hindi, ok: true},
		{in: " ta ", want: language.Tamil, ok: true},
		{in: "", want: language.English, ok: false},
		{in: "not a tag!!", want: language.English, ok: false},
		{in: "ja", want: language.English, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := MatchLanguage(tt.in)
			assert.Equal(t, tt.ok, ok)
			base, _ := got.Base()
			wantBase, _ := tt.want.Base()
			assert.Equal(t, wantBase, base)
		})
	}
}

func TestResolveLanguagePrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/language?lang=kn", nil)
	r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "ta"})
	assert.Equal(t, language.Kannada, ResolveLanguage(r, "hi"))

	r = httptest.NewRequest(http.MethodGet, "/language", nil)
	r.AddCookie(&http.Cookie{Name: LangCookieName, Value: "ta"})
	assert.Equal(t, language.Tamil, ResolveLanguage(r, "hi"))

	r = httptest.NewRequest(http.MethodGet, "/language", nil)
	assert.Equal(t, language.Hindi, ResolveLanguage(r, "hi"))

	r = httptest.NewRequest(http.MethodGet, "/language", nil)
	r.Header.Set("Accept-Language", "te-IN,te;q=0.9,en;q=0.5")
	assert.Equal(t, language.Telugu, ResolveLanguage(r, ""))

	r = httptest.NewRequest(http.MethodGet, "/language", nil)
	assert.Equal(t, DefaultLanguage(), ResolveLanguage(r, ""))
}

func TestLanguageOptions(t *testing.T) {
	opts := LanguageOptions(language.Hindi)
	require.Len(t, opts, len(supportedTags))

	var active []string
	for _, o := range opts {
		assert.NotEmpty(t, o.Label)
		if o.Active {
			active = append(active, o.Tag)
		}
	}
	assert.Equal(t, []string{"hi"}, active)
	assert.Equal(t, "English", opts[0].Label)
}
