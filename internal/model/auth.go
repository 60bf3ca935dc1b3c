package model

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the JWT payload for an authenticated caller. Identity is
// an opaque marker compared only for equality.
type IdentityClaims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// LoginResponse is returned by POST /v1/auth/login.
type LoginResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
}
