package httpx

import (
	"context"

	"github.com/openfit/healthsync/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubjectID ctxKey = "subject_id"
	CtxKeyClaims    ctxKey = "claims"
)

// ClaimsFromContext returns the verified session claims attached by
// AuthnMiddleware, and whether any were present.
func ClaimsFromContext(ctx context.Context) (jwtx.SessionClaims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.SessionClaims)
	return c, ok
}
