package auth

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/service"
	"github.com/AndreaSpaggiari/sito-andrea/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(session.NewManager),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
