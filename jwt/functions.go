// Package jwt decodes bearer token payloads without verifying signatures.
//
// Signature verification is done by the API gateway in front of this service.
// Nothing in this package establishes trust in a token; callers must only feed
// it tokens that arrived through the gateway.
package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/lsiproject/propertyhub/internal/domain"
)

// Create builds an unsigned token from claims. The signature segment is
// carried verbatim; it is never inspected by Decode.
func Create(claims Claims, signature string) (string, error) {
	header := Header{
		Type:      "JWT",
		Algorithm: "none",
	}
	headerStr, err := json.Marshal(header)
	if err != nil {
		return "", err
	}

	payloadStr, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	headerB64 := base64.RawURLEncoding.EncodeToString(headerStr)
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadStr)

	return headerB64 + "." + payloadB64 + "." + signature, nil
}

// Decode parses the payload segment of a three-segment token into claims.
// Trailing empty segments are not counted, so "header.payload." has two.
// Every failure is a domain.ErrMalformedToken rejection.
func Decode(token string) (Claims, error) {

	split := strings.Split(token, ".")
	for len(split) > 0 && split[len(split)-1] == "" {
		split = split[:len(split)-1]
	}
	if len(split) != 3 {
		return nil, domain.Malformed("expected 3 segments, got %d", len(split))
	}

	payloadBytes, err := decodeSegment(split[1])
	if err != nil {
		return nil, domain.Malformed("payload is not base64: %v", err)
	}

	if !utf8.Valid(payloadBytes) {
		return nil, domain.Malformed("payload is not valid utf-8")
	}

	decoder := json.NewDecoder(bytes.NewReader(payloadBytes))
	decoder.UseNumber()

	var claims Claims
	err = decoder.Decode(&claims)
	if err != nil {
		return nil, domain.Malformed("payload is not a json object: %v", err)
	}
	if claims == nil {
		return nil, domain.Malformed("payload is null")
	}
	if decoder.More() {
		return nil, domain.Malformed("trailing data after payload object")
	}

	return claims, nil
}

// decodeSegment maps the URL-safe alphabet onto the standard one and restores
// padding before decoding.
func decodeSegment(segment string) ([]byte, error) {
	padded := strings.NewReplacer("-", "+", "_", "/").Replace(segment)
	for len(padded)%4 != 0 {
		padded += "="
	}
	return base64.StdEncoding.DecodeString(padded)
}
