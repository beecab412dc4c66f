package production

import (
	"github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/production/service"
	"go.uber.org/fx"
)

var Module = fx.Module("production.service",
	fx.Provide(domain.WeekdayAlwaysWeekendIfActive),
	fx.Provide(service.New),
)
