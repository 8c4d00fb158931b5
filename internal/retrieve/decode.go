package retrieve

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// decodeBody returns body as UTF-8 text. UTF-8 bodies are returned as is.
// Anything else is decoded with the charset named by contentType or the
// document's meta tags, falling back to windows-1252; bytes that still do
// not decode become U+FFFD. The result survives a JSON round trip through
// the cache unchanged.
func decodeBody(body []byte, contentType string) string {
	if utf8.Valid(body) {
		return string(body)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return strings.ToValidUTF8(string(body), string(utf8.RuneError))
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return strings.ToValidUTF8(string(body), string(utf8.RuneError))
	}
	return strings.ToValidUTF8(string(decoded), string(utf8.RuneError))
}
