package http

import (
	"net/http"

	"github.com/openfit/healthsync/internal/auth/service"
	"github.com/openfit/healthsync/pkg/authsdk"
	"github.com/openfit/healthsync/pkg/httpx"
)

// IntegrationsHandler serves GET /v1/integrations: which data sources the
// authenticated user has connected.
type IntegrationsHandler struct {
	Directory    *service.DirectoryService
	Integrations *service.IntegrationService
}

func (h *IntegrationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	integrations, err := h.Integrations.List(ctx, identity.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.IntegrationsResponse{
		Integrations: make([]authsdk.IntegrationResponse, 0, len(integrations)),
	}
	for _, in := range integrations {
		resp.Integrations = append(resp.Integrations, authsdk.IntegrationResponse{
			Source:      in.Source,
			ConnectedAt: in.CreatedAt,
		})
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}
