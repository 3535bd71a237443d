package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pennypilot/auth/internal/store/core"
)

const tokenColumns = `id, user_id, token_hash, expires_at, revoked_at, rotated_from, created_at`

func scanToken(row pgx.Row) (*core.RefreshToken, error) {
	var t core.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.RotatedFrom, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, in core.CreateRefreshTokenInput) (*core.RefreshToken, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, rotated_from)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+tokenColumns,
		in.UserID, in.TokenHash, in.ExpiresAt, in.RotatedFrom,
	)
	return scanToken(row)
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash=$1`, tokenHash)
	return scanToken(row)
}

// RotateRefreshToken revoca la fila vieja y crea la sucesora en una única
// transacción. El UPDATE condicionado a revoked_at IS NULL decide la carrera:
// si afecta cero filas, otro llamador ya consumió el token y retornamos
// core.ErrRevoked sin crear nada.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID string, in core.CreateRefreshTokenInput) (*core.RefreshToken, error) {
	var out *core.RefreshToken

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked_at=now() WHERE id=$1 AND revoked_at IS NULL`, oldID)
		if err != nil {
			return fmt.Errorf("revoke old token: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return core.ErrRevoked
		}

		t, err := scanToken(tx.QueryRow(ctx,
			`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, rotated_from)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+tokenColumns,
			in.UserID, in.TokenHash, in.ExpiresAt, in.RotatedFrom,
		))
		if err != nil {
			return fmt.Errorf("insert successor: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrRevoked) {
			return nil, core.ErrRevoked
		}
		return nil, err
	}
	return out, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at=now() WHERE id=$1 AND revoked_at IS NULL`, id)
	return err
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	ct, err := s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at=now() WHERE user_id=$1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
