package sqlite

import (
	"context"
	"database/sql"

	"github.com/openfit/healthsync/internal/auth/domain"
)

type identitiesRepo struct {
	db dbtx
}

const identityColumns = `id, subject_id, email, display_name, avatar_url, gender, birth_date, synthetic, needs_reauth, created_at, updated_at`

func scanIdentity(row interface{ Scan(...any) error }) (domain.Identity, error) {
	var (
		id        domain.Identity
		birthDate sql.NullTime
	)
	err := row.Scan(
		&id.ID,
		&id.SubjectID,
		&id.Email,
		&id.DisplayName,
		&id.AvatarURL,
		&id.Gender,
		&birthDate,
		&id.Synthetic,
		&id.NeedsReauth,
		&id.CreatedAt,
		&id.UpdatedAt,
	)
	if err != nil {
		return domain.Identity{}, err
	}
	id.BirthDate = mapNullTimePtr(birthDate)
	return id, nil
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	out, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return out, nil
}

func (r *identitiesRepo) GetIdentityBySubjectID(ctx context.Context, subjectID string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE subject_id = ?`, subjectID)
	out, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return out, nil
}

func (r *identitiesRepo) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	out, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	return out, nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (id, subject_id, email, display_name, avatar_url, gender, birth_date, synthetic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.ID,
		id.SubjectID,
		id.Email,
		id.DisplayName,
		id.AvatarURL,
		id.Gender,
		mapOptionalTime(id.BirthDate),
		id.Synthetic,
	)
	return mapConflict(err)
}

func (r *identitiesRepo) UpdateProfile(ctx context.Context, subjectID string, id domain.Identity) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET email = ?, display_name = ?, avatar_url = ?, gender = ?, birth_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE subject_id = ?`,
		id.Email,
		id.DisplayName,
		id.AvatarURL,
		id.Gender,
		mapOptionalTime(id.BirthDate),
		subjectID,
	)
	if err != nil {
		return mapConflict(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *identitiesRepo) MarkNeedsReauth(ctx context.Context, identityID string, needsReauth bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET needs_reauth = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, needsReauth, identityID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *identitiesRepo) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
