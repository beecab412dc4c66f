package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"

	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
)

// Service renders the printable daily production sheet handed to the
// shop-floor supervisor.
type Service interface {
	DailyProduction(ctx context.Context, date time.Time) (io.Reader, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Production productiondomain.Service
}

type ServiceImpl struct {
	log        *zap.Logger
	production productiondomain.Service
}

func New(p Params) Service {
	return &ServiceImpl{
		log:        p.Log.Named("report.service"),
		production: p.Production,
	}
}

func (s *ServiceImpl) DailyProduction(ctx context.Context, date time.Time) (io.Reader, error) {
	outputs, err := s.production.DailyOutput(ctx, date)
	if err != nil {
		return nil, err
	}
	backlog, err := s.production.Backlog(ctx)
	if err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} di {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Produzione giornaliera", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, date.Format("02/01/2006"), props.Text{Size: 11}),
	)

	m.AddRow(8,
		text.NewCol(6, "Macchina", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Ordini", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Peso (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	var totalOrders int
	var totalWeight float64
	for _, out := range outputs {
		totalOrders += out.OrderCount
		totalWeight += out.TotalWeight
		m.AddRow(7,
			text.NewCol(6, out.MachineName, props.Text{Size: 9}),
			text.NewCol(3, fmt.Sprintf("%d", out.OrderCount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, formatWeight(out.TotalWeight), props.Text{Size: 9, Align: align.Right}),
		)
	}
	if len(outputs) == 0 {
		m.AddRow(7,
			text.NewCol(12, "Nessun ordine terminato", props.Text{Size: 9}),
		)
	}

	m.AddRow(9,
		text.NewCol(6, "Totale", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, fmt.Sprintf("%d", totalOrders), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, formatWeight(totalWeight), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(12,
		text.NewCol(12, "Coda di lavorazione", props.Text{
			Size:  13,
			Style: fontstyle.Bold,
			Top:   4,
		}),
	)
	m.AddRow(8,
		text.NewCol(6, "Macchina", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "In attesa", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Peso richiesto (kg)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, entry := range backlog {
		m.AddRow(7,
			text.NewCol(6, entry.MachineName, props.Text{Size: 9}),
			text.NewCol(3, fmt.Sprintf("%d", entry.OrderCount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, formatWeight(entry.RequestedWeight), props.Text{Size: 9, Align: align.Right}),
		)
	}
	if len(backlog) == 0 {
		m.AddRow(7,
			text.NewCol(12, "Coda vuota", props.Text{Size: 9}),
		)
	}

	m.AddRow(6, col.New(12))

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func formatWeight(w float64) string {
	return fmt.Sprintf("%.1f", w)
}
