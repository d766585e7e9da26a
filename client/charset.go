package client

import (
	"fmt"
	"net/url"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding resolves an IANA character set name, case-insensitively.
func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidEncoding, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w %q: not supported", ErrInvalidEncoding, name)
	}

	return enc, nil
}

// encodeText converts s to the named character set. Runes the set cannot
// represent are replaced rather than rejected.
func encodeText(s, charset string) ([]byte, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}

	b, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding text as %s: %w", charset, err)
	}

	return b, nil
}

// decodeText converts b from the named character set to a string.
func decodeText(b []byte, charset string) (string, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return "", err
	}

	s, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding text as %s: %w", charset, err)
	}

	return string(s), nil
}

// queryEscape form-encodes s after converting it to the named character set.
func queryEscape(s, charset string) (string, error) {
	b, err := encodeText(s, charset)
	if err != nil {
		return "", err
	}

	return url.QueryEscape(string(b)), nil
}
