package bodycodec

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

func isUTF8(charset string) bool {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii":
		return true
	}
	return false
}

// toUTF8 transcodes data from charset to UTF-8.
func toUTF8(data []byte, charset string) ([]byte, error) {
	if isUTF8(charset) {
		return data, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s data: %w", charset, err)
	}
	return out, nil
}

// fromUTF8 transcodes UTF-8 data into charset.
func fromUTF8(data []byte, charset string) ([]byte, error) {
	if isUTF8(charset) {
		return data, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	out, err := enc.NewEncoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("cannot encode as %s: %w", charset, err)
	}
	return out, nil
}
