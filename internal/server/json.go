package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// newPersonaID mints an id for registrations that omit one.
func newPersonaID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
