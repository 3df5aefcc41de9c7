// Package testhelpers provides utilities for testing projectvault components.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
)

// GenerateTestJWT creates an unsigned test JWT (alg: none) for use when
// verification is disabled.
func GenerateTestJWT(sub, name, username string, roles ...string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	claims := map[string]any{"sub": sub}
	if name != "" {
		claims["name"] = name
	}
	if username != "" {
		claims["preferred_username"] = username
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}
	payload, _ := json.Marshal(claims)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for Authorization header.
func GenerateTestJWTWithBearer(sub, name, username string, roles ...string) string {
	return "Bearer " + GenerateTestJWT(sub, name, username, roles...)
}
