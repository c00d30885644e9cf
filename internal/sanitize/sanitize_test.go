package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", EscapeHTML("<b>hi</b>"))
	assert.Equal(t, "a &amp; b", EscapeHTML("a & b"))
	assert.Equal(t, "&quot;x&quot; &#x27;y&#x27;", EscapeHTML(`"x" 'y'`))
	assert.Equal(t, "plain", EscapeHTML("plain"))
}

func TestEscapeAttribute(t *testing.T) {
	assert.Equal(t, "abc123", EscapeAttribute("abc123"))
	assert.Equal(t, "a&#x20;b", EscapeAttribute("a b"))
	assert.Equal(t, "&#x22;", EscapeAttribute(`"`))
}

func TestEscapeCSS(t *testing.T) {
	assert.Equal(t, "red", EscapeCSS("red"))
	assert.Equal(t, `url\28 `, EscapeCSS("url("))
}

func TestEscapeJS(t *testing.T) {
	assert.Equal(t, "abc", EscapeJS("abc"))
	assert.Equal(t, `\u005B`+"a"+`\u005D`, EscapeJS("[a]"))
	assert.Equal(t, `\u0027`, EscapeJS("'"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("creator@example.com"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("a b@example.com"))
	assert.False(t, ValidEmail("a@b"))
}

func TestValidRedirectURL(t *testing.T) {
	assert.True(t, ValidRedirectURL("https://example.com/thanks"))
	assert.True(t, ValidRedirectURL("http://localhost:3000/ok"))
	assert.False(t, ValidRedirectURL("javascript:alert(1)"))
	assert.False(t, ValidRedirectURL("//evil.com/x"))
	assert.False(t, ValidRedirectURL("/relative"))
}

func TestValidLuhn(t *testing.T) {
	assert.True(t, ValidLuhn("4242424242424242"))
	assert.True(t, ValidLuhn("4242 4242 4242 4242"))
	assert.True(t, ValidLuhn("5555-5555-5555-4444"))
	assert.False(t, ValidLuhn("4242424242424241"))
	assert.False(t, ValidLuhn("42424242abc"))
	assert.False(t, ValidLuhn(""))
}
