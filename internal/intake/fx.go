package intake

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/config"
	"github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/intake/gemini"
	"github.com/AndreaSpaggiari/sito-andrea/internal/intake/repository"
	"github.com/AndreaSpaggiari/sito-andrea/internal/intake/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("intake.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideExtractor),
	fx.Provide(service.New),
)

// provideExtractor returns nil when no scan provider is configured; the
// service then rejects analysis calls instead of failing startup.
func provideExtractor(cfg config.Config, log *zap.Logger) domain.Extractor {
	switch cfg.Scan.Provider {
	case "gemini":
		extractor, err := gemini.New(gemini.Config{
			Endpoint: cfg.Scan.Endpoint,
			APIKey:   cfg.Scan.APIKey,
			Model:    cfg.Scan.Model,
		})
		if err != nil {
			log.Warn("scan extractor unavailable", zap.Error(err))
			return nil
		}
		return extractor
	default:
		return nil
	}
}
