package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
)

type providerTokensRepo struct {
	db dbtx
}

func (r *providerTokensRepo) GetProviderTokensByIdentity(ctx context.Context, identityID string) (domain.ProviderTokens, error) {
	var t domain.ProviderTokens
	err := r.db.QueryRowContext(ctx, `
		SELECT id, identity_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM provider_tokens WHERE identity_id = ?`, identityID).Scan(
		&t.ID,
		&t.IdentityID,
		&t.AccessToken,
		&t.RefreshToken,
		&t.ExpiresAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.ProviderTokens{}, mapNotFound(err)
	}
	return t, nil
}

func (r *providerTokensRepo) UpsertProviderTokens(ctx context.Context, t domain.ProviderTokens) error {
	// One row per identity. Empty halves keep the stored value so a
	// refresh-only or access-only write never clobbers the other token.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO provider_tokens (id, identity_id, access_token, refresh_token, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(identity_id) DO UPDATE SET
			access_token = CASE WHEN excluded.access_token != '' THEN excluded.access_token ELSE access_token END,
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE refresh_token END,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP`,
		t.ID,
		t.IdentityID,
		t.AccessToken,
		t.RefreshToken,
		t.ExpiresAt.UTC(),
	)
	return err
}

func (r *providerTokensRepo) UpdateAccessToken(ctx context.Context, identityID, accessToken string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE provider_tokens
		SET access_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE identity_id = ?`,
		accessToken, expiresAt.UTC(), identityID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
