package workorder

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/workorder/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/workorder/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workorder.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
