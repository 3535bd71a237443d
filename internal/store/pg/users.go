package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pennypilot/auth/internal/store/core"
)

const userColumns = `id, email, first_name, last_name, created_at, updated_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return scanUser(row)
}

// ResolveIdentity ejecuta el algoritmo del resolver en una sola transacción:
//  1. vínculo existente (provider, provider_user_id) → user vinculado
//  2. email existente → nuevo vínculo al user
//  3. nada → user nuevo + vínculo nuevo
//
// Una violación de unicidad (otro llamador ganó la carrera sobre el mismo
// vínculo o email) se traduce a core.ErrConflict; el caller debe re-intentar.
// Retorna created=true cuando se creó un User nuevo.
func (s *Store) ResolveIdentity(ctx context.Context, in core.ResolveIdentityInput) (*core.User, bool, error) {
	var out *core.User
	created := false

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// 1) vínculo existente
		var userID string
		err := tx.QueryRow(ctx,
			`SELECT user_id FROM account_providers WHERE provider=$1 AND provider_user_id=$2`,
			in.Provider, in.ProviderUserID,
		).Scan(&userID)

		switch {
		case err == nil:
			u, err := s.fillMissingNames(ctx, tx, userID, in)
			if err != nil {
				return err
			}
			out = u
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			// seguir
		default:
			return fmt.Errorf("select link: %w", err)
		}

		// 2) user existente por email → account linking
		var u core.User
		err = tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, in.Email,
		).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)

		switch {
		case err == nil:
			if err := insertLink(ctx, tx, u.ID, in); err != nil {
				return err
			}
			filled, err := s.fillMissingNames(ctx, tx, u.ID, in)
			if err != nil {
				return err
			}
			out = filled
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			// seguir
		default:
			return fmt.Errorf("select user by email: %w", err)
		}

		// 3) user nuevo + vínculo nuevo
		err = tx.QueryRow(ctx,
			`INSERT INTO users (email, first_name, last_name)
			 VALUES ($1, $2, $3)
			 RETURNING `+userColumns,
			strings.ToLower(in.Email), in.FirstName, in.LastName,
		).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrConflict
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if err := insertLink(ctx, tx, u.ID, in); err != nil {
			return err
		}
		out = &u
		created = true
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, false, core.ErrConflict
		}
		return nil, false, err
	}
	return out, created, nil
}

func insertLink(ctx context.Context, tx pgx.Tx, userID string, in core.ResolveIdentityInput) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO account_providers (user_id, provider, provider_user_id) VALUES ($1, $2, $3)`,
		userID, in.Provider, in.ProviderUserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// fillMissingNames completa first/last name si el perfil los trae y la fila
// no los tenía (Apple solo los manda en el primer sign-in).
func (s *Store) fillMissingNames(ctx context.Context, tx pgx.Tx, userID string, in core.ResolveIdentityInput) (*core.User, error) {
	var u core.User
	err := tx.QueryRow(ctx,
		`UPDATE users
		 SET first_name = COALESCE(first_name, $2),
		     last_name  = COALESCE(last_name, $3),
		     updated_at = now()
		 WHERE id=$1
		 RETURNING `+userColumns,
		userID, in.FirstName, in.LastName,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update user names: %w", err)
	}
	return &u, nil
}
