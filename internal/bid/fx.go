package bid

import (
	"github.com/smallbiznis/rastro/internal/bid/repository"
	"github.com/smallbiznis/rastro/internal/bid/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bid.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
