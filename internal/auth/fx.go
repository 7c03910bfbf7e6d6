package auth

import (
	"github.com/smallbiznis/rastro/internal/auth/repository"
	"github.com/smallbiznis/rastro/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
