package http

import (
	"net/http"

	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/httpx"
)

// MeHandler serves GET /v1/auth/me: the identity behind the presented
// access token, read fresh from the store so enrichment fields and the
// reauth flag are current rather than frozen into the token.
type MeHandler struct {
	Directory *service.DirectoryService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		authsdk.ErrCouldNotAuthenticate.WriteError(w)
		return
	}

	identity, err := h.Directory.GetBySubjectID(ctx, claims.SubjectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.MeResponse{
		Email:               identity.Email,
		DisplayName:         identity.DisplayName,
		AvatarURL:           identity.AvatarURL,
		Gender:              identity.Gender,
		Synthetic:           identity.Synthetic,
		NeedsProviderReauth: identity.NeedsReauth,
	}
	if identity.BirthDate != nil {
		resp.BirthDate = identity.BirthDate.Format("2006-01-02")
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
