package invite

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Scene strings ride inside scannable-code payloads which cap the payload at
// 32 characters, so a (sessionId, token) pair is reduced to two fixed-width
// 6-char codes. The codes are lookup keys, not a lossless encoding: decoding
// goes through a server-side side table.

const (
	// SceneMaxLen is the hard payload ceiling of the scannable-code channel.
	SceneMaxLen = 32
	// ShortCodeLen is the fixed width of one short code.
	ShortCodeLen = 6

	fnvSeed  = 2166136261
	fnvPrime = 16777619
)

// ErrBadScene means the scene string matches neither accepted encoding.
var ErrBadScene = errors.New("invite: unparseable scene string")

// ShortCode reduces an arbitrary string to a 6-char base-36 code via a
// 32-bit FNV-1a rolling hash over its UTF-16 code units. Deterministic but
// not collision-free; callers resolve codes through the side table.
func ShortCode(s string) string {
	h := uint32(fnvSeed)
	for _, u := range utf16.Encode([]rune(s)) {
		h ^= uint32(u)
		h *= fnvPrime
	}

	code := strconv.FormatUint(uint64(h), 36)
	if len(code) > ShortCodeLen {
		code = code[len(code)-ShortCodeLen:]
	}
	for len(code) < ShortCodeLen {
		code = "0" + code
	}
	return code
}

// BuildScene assembles the key-value scene string for a session and its
// invite token. The result is always within SceneMaxLen.
func BuildScene(sid, token string) string {
	return "s=" + ShortCode(sid) + "&t=" + ShortCode(token)
}

// BuildCompactScene assembles the dot-joined positional form used by
// channels that reject '&' and '=' in payloads.
func BuildCompactScene(sid, token string) string {
	return ShortCode(sid) + "." + ShortCode(token)
}

// ParseScene extracts the short-code pair from a scene string. The explicit
// key-value form (s=<code>&t=<code>) is tried first, then the dot-joined
// positional form (<code>.<code>).
func ParseScene(scene string) (shortSid, shortToken string, err error) {
	if scene == "" || len(scene) > SceneMaxLen {
		return "", "", ErrBadScene
	}

	if strings.Contains(scene, "=") {
		params := map[string]string{}
		for _, pair := range strings.Split(scene, "&") {
			k, v, ok := strings.Cut(pair, "=")
			if ok && k != "" && v != "" {
				params[k] = v
			}
		}
		if params["s"] != "" && params["t"] != "" {
			return params["s"], params["t"], nil
		}
		return "", "", ErrBadScene
	}

	s, t, ok := strings.Cut(scene, ".")
	if !ok || s == "" || t == "" {
		return "", "", ErrBadScene
	}
	return s, t, nil
}
