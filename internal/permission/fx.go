package permission

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/permission/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/permission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("permission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
