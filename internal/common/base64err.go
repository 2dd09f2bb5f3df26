package common

import "encoding/base64"

// WrapErrorText base64-encodes an error message so it can survive a round
// trip through a UTF-8 text column even if the original message contains
// arbitrary bytes (e.g. a path with invalid UTF-8, or a decoder's raw
// diagnostic output).
func WrapErrorText(msg string) string {
	return base64.StdEncoding.EncodeToString([]byte(msg))
}

// UnwrapErrorText reverses WrapErrorText. If the input is not valid
// base64 it is returned unchanged, so callers reading rows written before
// this encoding was introduced (or written by a future format) degrade
// gracefully instead of failing.
func UnwrapErrorText(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return encoded
	}
	return string(decoded)
}
