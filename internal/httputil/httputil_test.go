package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected bool
	}{
		{"default keyword", "default", true},
		{"extension", "x-custom", true},
		{"wildcard 2XX", "2XX", true},
		{"wildcard 5XX", "5XX", true},
		{"wildcard out of range", "6XX", false},
		{"partial wildcard", "20X", false},
		{"numeric 200", "200", true},
		{"numeric 599", "599", true},
		{"below range", "099", false},
		{"above range", "600", false},
		{"too long", "2000", false},
		{"empty", "", false},
		{"alphabetic", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateStatusCode(tt.code), "ValidateStatusCode(%q)", tt.code)
		})
	}
}

func TestIsStandardStatusCode(t *testing.T) {
	assert.True(t, IsStandardStatusCode("200"))
	assert.True(t, IsStandardStatusCode("418"))
	assert.False(t, IsStandardStatusCode("299"))
	assert.False(t, IsStandardStatusCode("2XX"))
	assert.False(t, IsStandardStatusCode("default"))
}

func TestStatusRange(t *testing.T) {
	assert.Equal(t, "2XX", StatusRange(204))
	assert.Equal(t, "4XX", StatusRange(404))
	assert.Equal(t, "5XX", StatusRange(599))
}

func TestIsValidMediaType(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		expected  bool
	}{
		{"universal wildcard", "*/*", true},
		{"type wildcard", "application/*", true},
		{"standard", "application/json", true},
		{"with charset", "text/html; charset=utf-8", true},
		{"vendor json", "application/vnd.api+json", true},
		{"missing subtype", "application/", false},
		{"missing type", "/json", false},
		{"multiple slashes", "application/json/extra", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidMediaType(tt.mediaType), "IsValidMediaType(%q)", tt.mediaType)
		})
	}
}

func TestParseMediaType(t *testing.T) {
	base, params := ParseMediaType("Application/JSON; charset=UTF-8")
	assert.Equal(t, "application/json", base)
	assert.Equal(t, "UTF-8", params["charset"])

	base, params = ParseMediaType("")
	assert.Empty(t, base)
	assert.Nil(t, params)

	base, _ = ParseMediaType("text/plain; =broken")
	assert.Equal(t, "text/plain", base)
}

func TestMatchMediaType(t *testing.T) {
	tests := []struct {
		pattern   string
		mediaType string
		expected  bool
	}{
		{"application/json", "application/json", true},
		{"application/json", "application/json; charset=utf-8", true},
		{"application/json", "APPLICATION/JSON", true},
		{"application/*", "application/xml", true},
		{"image/*", "application/json", false},
		{"*/*", "anything/else", true},
		{"text/plain", "text/html", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchMediaType(tt.pattern, tt.mediaType))
		})
	}
}

func TestMediaTypeSpecificity(t *testing.T) {
	assert.Equal(t, 2, MediaTypeSpecificity("application/json"))
	assert.Equal(t, 1, MediaTypeSpecificity("application/*"))
	assert.Equal(t, 0, MediaTypeSpecificity("*/*"))
}

func TestMediaTypeClassifiers(t *testing.T) {
	tests := []struct {
		mediaType string
		json      bool
		xml       bool
		form      bool
		multipart bool
		text      bool
	}{
		{"application/json", true, false, false, false, false},
		{"application/problem+json; charset=utf-8", true, false, false, false, false},
		{"application/xml", false, true, false, false, false},
		{"text/xml", false, true, false, false, false},
		{"application/atom+xml", false, true, false, false, false},
		{"application/x-www-form-urlencoded", false, false, true, false, false},
		{"multipart/form-data; boundary=abc", false, false, false, true, false},
		{"text/plain", false, false, false, false, true},
		{"application/octet-stream", false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.json, IsJSON(tt.mediaType), "IsJSON")
			assert.Equal(t, tt.xml, IsXML(tt.mediaType), "IsXML")
			assert.Equal(t, tt.form, IsForm(tt.mediaType), "IsForm")
			assert.Equal(t, tt.multipart, IsMultipart(tt.mediaType), "IsMultipart")
			assert.Equal(t, tt.text, IsText(tt.mediaType), "IsText")
		})
	}
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, IsWildcard("*/*"))
	assert.True(t, IsWildcard("text/*"))
	assert.False(t, IsWildcard("text/plain"))
}

func TestMethods(t *testing.T) {
	assert.Len(t, Methods, 8)
	assert.Equal(t, MethodGet, Methods[0])
}
