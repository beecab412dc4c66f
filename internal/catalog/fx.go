package catalog

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/catalog/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
