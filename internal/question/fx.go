package question

import (
	"github.com/smallbiznis/rastro/internal/question/repository"
	"github.com/smallbiznis/rastro/internal/question/service"
	"go.uber.org/fx"
)

var Module = fx.Module("question.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
