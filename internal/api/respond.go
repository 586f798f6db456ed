// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// respondWithJSON writes the payload as a JSON response with the given status.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError writes a flat JSON error object.
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// decodeJSONBody decodes the request body into dst, responding 400 on a
// malformed body. Returns false when the caller should stop.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// bearerToken extracts the access token from the Authorization header,
// responding 401 with a re-login hint when it is missing. Returns false when
// the caller should stop.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == "" || token == auth {
		respondWithJSON(w, http.StatusUnauthorized, map[string]any{
			"error":     "Not authenticated. Please login first",
			"needLogin": true,
		})
		return "", false
	}
	return token, true
}
