package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar para mantener nombres consistentes en todos los logs.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Layer identifica la capa: "controller" | "service" | "store" | "provider".
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Component identifica el componente dentro de la capa (ej: "session.ledger").
func Component(v string) zap.Field { return zap.String("component", v) }

// Op identifica la operación (ej: "Rotate").
func Op(v string) zap.Field { return zap.String("op", v) }

func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func Provider(v string) zap.Field { return zap.String("provider", v) }

// TokenID es el id de fila del refresh token. Nunca loguear el token crudo.
func TokenID(v string) zap.Field { return zap.String("token_id", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(k, v string) zap.Field  { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }
func Bool(k string, v bool) zap.Field { return zap.Bool(k, v) }
