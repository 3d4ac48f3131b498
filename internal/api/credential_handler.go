package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mentora-learn/mentora-api/internal/api/shared"
	"github.com/mentora-learn/mentora-api/internal/service"
)

// CredentialHandler handles provider API key management requests.
type CredentialHandler struct {
	credentialService service.CredentialService
	validator         *validator.Validate
}

// NewCredentialHandler creates a new CredentialHandler with the given dependencies.
func NewCredentialHandler(credentialService service.CredentialService) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		validator:         validator.New(),
	}
}

// Store handles PUT /credentials.
// The submitted key is encrypted before it is persisted and is never
// echoed back in any response or log.
func (h *CredentialHandler) Store(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req StoreCredentialRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.credentialService.StoreKey(r.Context(), userID, req.APIKey); err != nil {
		HandleAPIError(w, r, err, "Failed to store API key")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
