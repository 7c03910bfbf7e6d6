package auction

import (
	"github.com/smallbiznis/rastro/internal/auction/repository"
	"github.com/smallbiznis/rastro/internal/auction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auction.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
