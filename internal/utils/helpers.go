package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// Identity headers supplied by the authentication collaborator. The core
// trusts them as given.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	RoleRetailer   = "retailer"
	RoleWholesaler = "wholesaler"
)

// SendErrorResponse sends an error as JSON.
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendError(w, models.NewErrorResponse(statusCode, message))
}

// SendError sends an ErrorResponse as JSON, preserving its kind so
// clients can distinguish validation failures from stale-state conflicts.
func SendError(w http.ResponseWriter, errResp *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errResp.StatusCode)
	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Println(err)
	}
}

// ParseLimitOffset parses limit and offset query parameters.
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}

// Identity extracts the caller's opaque identity and role from the
// trusted headers.
func Identity(r *http.Request) (userID, role string) {
	return r.Header.Get(HeaderUserID), r.Header.Get(HeaderUserRole)
}

// RequireRole extracts the identity and checks the role, writing an
// Unauthorized response when the caller does not match.
func RequireRole(w http.ResponseWriter, r *http.Request, wantRole string) (string, bool) {
	userID, role := Identity(r)
	if userID == "" || role != wantRole {
		SendError(w, models.NewKindError(models.KindUnauthorized, http.StatusUnauthorized,
			fmt.Sprintf("a %s identity is required", wantRole)))
		return "", false
	}
	return userID, true
}
