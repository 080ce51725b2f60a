package auth

import (
	"github.com/smallbiznis/zyra/internal/auth/repository"
	"github.com/smallbiznis/zyra/internal/auth/service"
	"github.com/smallbiznis/zyra/internal/auth/session"
	"go.uber.org/fx"
)

// Module provides accounts, sessions and the session cookie manager.
var Module = fx.Module("auth",
	fx.Provide(
		repository.New,
		service.New,
		session.NewManager,
	),
)
