package shippingaddress

import (
	"github.com/smallbiznis/rastro/internal/shippingaddress/repository"
	"github.com/smallbiznis/rastro/internal/shippingaddress/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shippingaddress.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
