package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Policy productiondomain.DayCountPolicy
}

// Service recomputes every view from the current order snapshot on
// each call. Nothing is cached or materialized; the result is a pure
// function of the rows and the query window.
type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	policy productiondomain.DayCountPolicy
}

func New(p Params) productiondomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("production.service"),
		clock:  p.Clock,
		policy: p.Policy,
	}
}

type finishedRow struct {
	MachineID       snowflake.ID
	MachineName     string
	PhaseID         snowflake.ID
	ProcessedWeight float64
	FinishedAt      time.Time
}

func (s *Service) finishedBetween(ctx context.Context, from, to time.Time) ([]finishedRow, error) {
	var rows []finishedRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT w.machine_id, m.name AS machine_name, w.phase_id,
		        w.processed_weight, w.finished_at
		 FROM work_orders w
		 JOIN machines m ON m.id = w.machine_id
		 WHERE w.status = ? AND w.finished_at >= ? AND w.finished_at < ?
		 ORDER BY w.finished_at ASC`,
		workorderdomain.StatusFinished, from, to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) DailyOutput(ctx context.Context, date time.Time) ([]productiondomain.MachineOutput, error) {
	day := startOfDay(date)
	rows, err := s.finishedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	byMachine := map[snowflake.ID]*productiondomain.MachineOutput{}
	var order []snowflake.ID
	for _, row := range rows {
		out, ok := byMachine[row.MachineID]
		if !ok {
			out = &productiondomain.MachineOutput{MachineID: row.MachineID, MachineName: row.MachineName}
			byMachine[row.MachineID] = out
			order = append(order, row.MachineID)
		}
		out.OrderCount++
		out.TotalWeight += row.ProcessedWeight
	}

	results := make([]productiondomain.MachineOutput, 0, len(order))
	for _, id := range order {
		results = append(results, *byMachine[id])
	}
	return results, nil
}

func (s *Service) RollingAverage(ctx context.Context, days int) ([]productiondomain.MachineAverage, error) {
	if days <= 0 {
		days = 30
	}
	today := startOfDay(s.clock.Now())
	from := today.AddDate(0, 0, -(days - 1))

	rows, err := s.finishedBetween(ctx, from, today.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	// Every machine reports, so an idle one shows an average of zero
	// instead of vanishing from the view.
	var machines []struct {
		ID   snowflake.ID
		Name string
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT id, name FROM machines ORDER BY name ASC`,
	).Scan(&machines).Error; err != nil {
		return nil, err
	}

	perMachineDay := map[snowflake.ID]map[time.Time]float64{}
	for _, row := range rows {
		day := startOfDay(row.FinishedAt)
		if _, ok := perMachineDay[row.MachineID]; !ok {
			perMachineDay[row.MachineID] = map[time.Time]float64{}
		}
		perMachineDay[row.MachineID][day] += row.ProcessedWeight
	}

	results := make([]productiondomain.MachineAverage, 0, len(machines))
	for _, machine := range machines {
		avg := productiondomain.MachineAverage{MachineID: machine.ID, MachineName: machine.Name}
		for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
			weight := perMachineDay[machine.ID][day]
			if !s.policy.Counts(day, weight) {
				continue
			}
			avg.CountedDays++
			avg.TotalWeight += weight
		}
		if avg.CountedDays > 0 {
			avg.Average = avg.TotalWeight / float64(avg.CountedDays)
		}
		results = append(results, avg)
	}
	return results, nil
}

func (s *Service) Backlog(ctx context.Context) ([]productiondomain.BacklogEntry, error) {
	var rows []struct {
		MachineID       snowflake.ID
		MachineName     string
		OrderCount      int
		RequestedWeight float64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT w.machine_id, m.name AS machine_name,
		        COUNT(*) AS order_count, SUM(w.requested_weight) AS requested_weight
		 FROM work_orders w
		 JOIN machines m ON m.id = w.machine_id
		 WHERE w.status = ?
		 GROUP BY w.machine_id, m.name
		 ORDER BY m.name ASC`,
		workorderdomain.StatusAwaiting,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]productiondomain.BacklogEntry, 0, len(rows))
	for _, row := range rows {
		results = append(results, productiondomain.BacklogEntry{
			MachineID:       row.MachineID,
			MachineName:     row.MachineName,
			OrderCount:      row.OrderCount,
			RequestedWeight: row.RequestedWeight,
		})
	}
	return results, nil
}

func (s *Service) Matrix(ctx context.Context, from, to time.Time) (*productiondomain.Matrix, error) {
	from = startOfDay(from)
	to = startOfDay(to)
	if to.Before(from) {
		return nil, productiondomain.ErrInvalidRange
	}

	rows, err := s.finishedBetween(ctx, from, to.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	matrix := &productiondomain.Matrix{
		From:          from,
		To:            to,
		MachineTotals: map[snowflake.ID]float64{},
		PhaseTotals:   map[snowflake.ID]float64{},
	}

	type key struct {
		machine snowflake.ID
		phase   snowflake.ID
	}
	cells := map[key]int{}
	for _, row := range rows {
		k := key{machine: row.MachineID, phase: row.PhaseID}
		idx, ok := cells[k]
		if !ok {
			idx = len(matrix.Cells)
			cells[k] = idx
			matrix.Cells = append(matrix.Cells, productiondomain.MatrixCell{
				MachineID: row.MachineID,
				PhaseID:   row.PhaseID,
			})
		}
		matrix.Cells[idx].Weight += row.ProcessedWeight
		matrix.MachineTotals[row.MachineID] += row.ProcessedWeight
		matrix.PhaseTotals[row.PhaseID] += row.ProcessedWeight
		matrix.GrandTotal += row.ProcessedWeight
	}
	return matrix, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
