// Package session implementa el ledger de refresh tokens: emisión, rotación
// de un solo uso, revocación y barrido de expirados.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/metrics"
	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/security/token"
	"github.com/pennypilot/auth/internal/store/core"
)

const (
	DefaultRefreshTTL   = 30 * 24 * time.Hour
	refreshTokenEntropy = 32 // bytes
)

// Errores del ledger. Rotación perdida y logout de token desconocido se
// distinguen acá aunque el HTTP colapse ambos a 401.
var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
)

// Pair es el resultado de un login o una rotación exitosa.
type Pair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string // valor crudo; solo viaja al cliente, nunca se persiste
}

// Ledger es el dueño exclusivo de las filas refresh_tokens.
type Ledger struct {
	store      core.Store
	issuer     *jwt.Issuer
	refreshTTL time.Duration
}

func NewLedger(store core.Store, issuer *jwt.Issuer, refreshTTL time.Duration) *Ledger {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Ledger{store: store, issuer: issuer, refreshTTL: refreshTTL}
}

// RefreshTTL expone el TTL configurado (el transport lo necesita para Max-Age).
func (l *Ledger) RefreshTTL() time.Duration { return l.refreshTTL }

// IssuePair firma un access token y crea un refresh token nuevo para el user.
func (l *Ledger) IssuePair(ctx context.Context, userID, email string) (*Pair, error) {
	access, exp, err := l.issuer.IssueAccess(userID, email)
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}
	raw, err := token.GenerateOpaque(refreshTokenEntropy)
	if err != nil {
		return nil, fmt.Errorf("generate refresh: %w", err)
	}

	_, err = l.store.CreateRefreshToken(ctx, core.CreateRefreshTokenInput{
		UserID:    userID,
		TokenHash: token.SHA256Hex(raw),
		ExpiresAt: time.Now().UTC().Add(l.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("persist refresh: %w", err)
	}
	return &Pair{AccessToken: access, AccessExpiresAt: exp, RefreshToken: raw}, nil
}

// Validate hashea el token crudo y chequea la fila: ausente → NotFound,
// revocada → Revoked, vencida → Expired. La expiración siempre gana sobre el
// estado de revocación a efectos del reporte de reuse.
func (l *Ledger) Validate(ctx context.Context, raw string) (string, error) {
	rt, err := l.lookup(ctx, raw)
	if err != nil {
		return "", err
	}
	return rt.UserID, nil
}

func (l *Ledger) lookup(ctx context.Context, raw string) (*core.RefreshToken, error) {
	rt, err := l.store.GetRefreshTokenByHash(ctx, token.SHA256Hex(raw))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	now := time.Now().UTC()
	if rt.Active(now) {
		return rt, nil
	}
	// La expiración gana sobre la revocación a efectos del reporte de reuse.
	if !now.Before(rt.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	l.reportReuse(ctx, rt)
	return nil, ErrTokenRevoked
}

// Rotate consume el token exactamente una vez: revoca la fila vieja y crea la
// sucesora en una transacción. De dos llamadores concurrentes con el mismo
// token crudo gana exactamente uno; el perdedor observa la fila ya revocada.
func (l *Ledger) Rotate(ctx context.Context, raw string) (*Pair, *core.User, error) {
	rt, err := l.lookup(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	user, err := l.store.GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, err
	}

	access, exp, err := l.issuer.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access: %w", err)
	}
	newRaw, err := token.GenerateOpaque(refreshTokenEntropy)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh: %w", err)
	}

	oldID := rt.ID
	_, err = l.store.RotateRefreshToken(ctx, oldID, core.CreateRefreshTokenInput{
		UserID:      rt.UserID,
		TokenHash:   token.SHA256Hex(newRaw),
		ExpiresAt:   time.Now().UTC().Add(l.refreshTTL),
		RotatedFrom: &oldID,
	})
	if err != nil {
		if errors.Is(err, core.ErrRevoked) {
			// Perdimos la transacción contra otra rotación del mismo token.
			l.reportReuse(ctx, rt)
			return nil, nil, ErrTokenRevoked
		}
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, fmt.Errorf("rotate refresh: %w", err)
	}

	return &Pair{AccessToken: access, AccessExpiresAt: exp, RefreshToken: newRaw}, user, nil
}

// reportReuse registra la presentación de un token ya consumido: señal de
// replay o robo, con severidad y métrica propias para que operaciones lo
// distinga de un token simplemente inválido. No se cascadea la revocación de
// la familia; rotated_from queda para forense.
func (l *Ledger) reportReuse(ctx context.Context, rt *core.RefreshToken) {
	metrics.RefreshReuseDetected.Inc()
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session.ledger"),
		logger.UserID(rt.UserID),
		logger.TokenID(rt.ID),
	)
	if rt.RotatedFrom != nil {
		log = log.With(logger.String("rotated_from", *rt.RotatedFrom))
	}
	log.Warn("revoked refresh token presented again (possible replay)")
}

// Revoke marca la fila como revocada. Idempotente: revocar un token ya
// revocado o desconocido no es error (logout idempotente).
func (l *Ledger) Revoke(ctx context.Context, raw string) error {
	rt, err := l.store.GetRefreshTokenByHash(ctx, token.SHA256Hex(raw))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return err
	}
	return l.store.RevokeRefreshToken(ctx, rt.ID)
}

// RevokeAll revoca toda fila activa del user (logout-all).
func (l *Ledger) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := l.store.RevokeAllRefreshTokens(ctx, userID)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("all refresh tokens revoked",
		logger.Layer("service"),
		logger.Component("session.ledger"),
		logger.UserID(userID),
		logger.Int("revoked", int(n)),
	)
	return n, nil
}

// SweepExpired borra filas vencidas. Higiene de storage, sin peso de
// seguridad: una fila vencida ya no pasa validación.
func (l *Ledger) SweepExpired(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteExpiredRefreshTokens(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.TokensSwept.Add(float64(n))
	}
	return n, nil
}
