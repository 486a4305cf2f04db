package logscan

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText returns log bytes as a UTF-8 string. Valid UTF-8 passes
// through untouched; anything else is decoded as Latin-1, which maps
// every byte to a rune and so never fails. This keeps legacy syslog and
// Windows-exported logs matchable without a byte-exact charset guess.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		// Latin-1 decoding cannot fail on arbitrary bytes; this path
		// exists only to satisfy the transform API.
		return string(data)
	}
	return string(decoded)
}
