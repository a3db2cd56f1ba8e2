package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	ParamsKey  ContextKey = "params"
	LoggerKey  ContextKey = "logger"
	PoolKey    ContextKey = "pool"
	TxKey      ContextKey = "tx"
	UserKey    ContextKey = "user"
	SessionKey ContextKey = "session"
)

// Validate is the shared validator instance used by all DTOs.
var Validate = validator.New()
