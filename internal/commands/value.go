package commands

import (
	"encoding/base64"
	"unicode/utf8"
)

// valueJSON carries a stored value through the JSON envelope. Binary values
// that are not valid UTF-8 travel base64-encoded.
type valueJSON struct {
	Value    string `json:"value"`
	Encoding string `json:"encoding"`
}

func encodeValue(b []byte) valueJSON {
	if utf8.Valid(b) {
		return valueJSON{Value: string(b), Encoding: "utf8"}
	}
	return valueJSON{Value: base64.StdEncoding.EncodeToString(b), Encoding: "base64"}
}

func decodeValue(s string, isBase64 bool) ([]byte, error) {
	if isBase64 {
		return base64.StdEncoding.DecodeString(s)
	}
	return []byte(s), nil
}
