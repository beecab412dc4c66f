package handball

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/handball/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/handball/service"
	"go.uber.org/fx"
)

var Module = fx.Module("handball.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
