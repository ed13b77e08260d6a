package sqlite

import (
	"context"

	"github.com/openfit/healthsync/internal/auth/domain"
)

type integrationsRepo struct {
	db dbtx
}

func (r *integrationsRepo) RecordIntegration(ctx context.Context, in domain.Integration) error {
	// ON CONFLICT DO NOTHING keeps re-login and re-pairing idempotent.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO integrations (id, identity_id, source)
		VALUES (?, ?, ?)
		ON CONFLICT(identity_id, source) DO NOTHING`,
		in.ID, in.IdentityID, in.Source)
	return err
}

func (r *integrationsRepo) ListIntegrationsByIdentity(ctx context.Context, identityID string) ([]domain.Integration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, identity_id, source, created_at
		FROM integrations WHERE identity_id = ? ORDER BY created_at`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Integration
	for rows.Next() {
		var in domain.Integration
		if err := rows.Scan(&in.ID, &in.IdentityID, &in.Source, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
