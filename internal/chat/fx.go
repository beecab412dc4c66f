package chat

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/chat/hub"
	"github.com/AndreaSpaggiari/sito-andrea/internal/chat/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/chat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("chat.service",
	fx.Provide(hub.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
