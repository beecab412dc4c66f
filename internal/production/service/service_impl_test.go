package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	productiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/production/domain"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

type testEnv struct {
	svc   productiondomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node

	slitter  snowflake.ID
	rewinder snowflake.ID
	phaseCut snowflake.ID
	phaseTin snowflake.ID
	client   snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, ddl := range []string{
		`CREATE TABLE machines (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			disposal INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE work_orders (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER,
			machine_id INTEGER NOT NULL,
			phase_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			scheda TEXT NOT NULL DEFAULT 'N/D',
			coil_code TEXT NOT NULL DEFAULT 'N/D',
			alloy TEXT NOT NULL DEFAULT 'N/D',
			physical_state TEXT NOT NULL DEFAULT 'N/D',
			thickness REAL NOT NULL DEFAULT 0,
			width REAL NOT NULL DEFAULT 0,
			measure REAL NOT NULL DEFAULT 0,
			requested_weight REAL NOT NULL DEFAULT 0,
			theoretical_weight REAL NOT NULL DEFAULT 0,
			processed_weight REAL,
			piece_count INTEGER,
			pass_count INTEGER,
			wound_length INTEGER,
			queued_at DATETIME NOT NULL,
			started_at DATETIME,
			finished_at DATETIME,
			delivery_date DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	env := &testEnv{
		db: db,
		// A Wednesday, so the trailing window has predictable weekdays.
		clock:    clock.NewFakeClock(time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)),
		node:     node,
		slitter:  node.Generate(),
		rewinder: node.Generate(),
		phaseCut: node.Generate(),
		phaseTin: node.Generate(),
		client:   node.Generate(),
	}

	for _, m := range []struct {
		id   snowflake.ID
		code string
		name string
	}{
		{env.slitter, "M01", "Taglierina 1"},
		{env.rewinder, "M02", "Ribobinatrice"},
	} {
		if err := db.Exec(
			`INSERT INTO machines (id, code, name, disposal) VALUES (?, ?, ?, 0)`,
			m.id, m.code, m.name,
		).Error; err != nil {
			t.Fatalf("insert machine: %v", err)
		}
	}

	env.svc = New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  env.clock,
		Policy: productiondomain.WeekdayAlwaysWeekendIfActive(),
	})
	return env
}

func (e *testEnv) insertFinished(t *testing.T, machine, phase snowflake.ID, weight float64, finishedAt time.Time) {
	t.Helper()
	started := finishedAt.Add(-2 * time.Hour)
	if err := e.db.Exec(
		`INSERT INTO work_orders (
			id, machine_id, phase_id, client_id, status,
			requested_weight, processed_weight, piece_count, pass_count,
			queued_at, started_at, finished_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, 1, ?, ?, ?, ?, ?)`,
		e.node.Generate(), machine, phase, e.client, workorderdomain.StatusFinished,
		weight, weight,
		started.Add(-time.Hour), started, finishedAt, started, finishedAt,
	).Error; err != nil {
		t.Fatalf("insert finished order: %v", err)
	}
}

func (e *testEnv) insertAwaiting(t *testing.T, machine snowflake.ID, requested float64) {
	t.Helper()
	now := e.clock.Now()
	if err := e.db.Exec(
		`INSERT INTO work_orders (
			id, machine_id, phase_id, client_id, status,
			requested_weight, queued_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.node.Generate(), machine, e.phaseCut, e.client, workorderdomain.StatusAwaiting,
		requested, now, now, now,
	).Error; err != nil {
		t.Fatalf("insert awaiting order: %v", err)
	}
}

func TestDailyOutput(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	env.insertFinished(t, env.slitter, env.phaseCut, 400, day.Add(9*time.Hour))
	env.insertFinished(t, env.slitter, env.phaseCut, 600, day.Add(15*time.Hour))
	env.insertFinished(t, env.rewinder, env.phaseTin, 250, day.Add(11*time.Hour))
	// Yesterday's order must not leak into today's view.
	env.insertFinished(t, env.slitter, env.phaseCut, 999, day.Add(-6*time.Hour))

	outputs, err := env.svc.DailyOutput(context.Background(), day.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("daily output: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("expected 2 machines, got %d", len(outputs))
	}

	byMachine := map[snowflake.ID]productiondomain.MachineOutput{}
	for _, out := range outputs {
		byMachine[out.MachineID] = out
	}
	if got := byMachine[env.slitter]; got.TotalWeight != 1000 || got.OrderCount != 2 {
		t.Fatalf("slitter output = %+v, want 1000 over 2 orders", got)
	}
	if got := byMachine[env.rewinder]; got.TotalWeight != 250 || got.OrderCount != 1 {
		t.Fatalf("rewinder output = %+v, want 250 over 1 order", got)
	}
}

func TestRollingAverageWeekendRule(t *testing.T) {
	env := newTestEnv(t)

	// Window: Mon 2024-03-04 .. Wed 2024-03-06 (3 weekdays). Output
	// only on Monday and Tuesday; the idle Wednesday still counts.
	env.insertFinished(t, env.slitter, env.phaseCut, 300, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	env.insertFinished(t, env.slitter, env.phaseCut, 600, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))

	averages, err := env.svc.RollingAverage(context.Background(), 3)
	if err != nil {
		t.Fatalf("rolling average: %v", err)
	}
	byMachine := map[snowflake.ID]productiondomain.MachineAverage{}
	for _, avg := range averages {
		byMachine[avg.MachineID] = avg
	}

	got := byMachine[env.slitter]
	if got.CountedDays != 3 {
		t.Fatalf("counted days = %d, want 3 (idle weekday still counts)", got.CountedDays)
	}
	if got.Average != 300 {
		t.Fatalf("average = %v, want 900/3 = 300", got.Average)
	}
}

func TestRollingAverageSkipsIdleWeekend(t *testing.T) {
	env := newTestEnv(t)

	// Window: Fri 2024-03-01 .. Wed 2024-03-06. The idle Saturday and
	// Sunday drop out of the denominator; an active weekend would not.
	env.insertFinished(t, env.slitter, env.phaseCut, 400, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	env.insertFinished(t, env.slitter, env.phaseCut, 400, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))

	averages, err := env.svc.RollingAverage(context.Background(), 6)
	if err != nil {
		t.Fatalf("rolling average: %v", err)
	}
	byMachine := map[snowflake.ID]productiondomain.MachineAverage{}
	for _, avg := range averages {
		byMachine[avg.MachineID] = avg
	}

	// Counted: Fri, Mon, Tue, Wed = 4 days; Sat+Sun idle and skipped.
	got := byMachine[env.slitter]
	if got.CountedDays != 4 {
		t.Fatalf("counted days = %d, want 4", got.CountedDays)
	}
	if got.Average != 200 {
		t.Fatalf("average = %v, want 800/4 = 200", got.Average)
	}
}

func TestRollingAverageIdleMachineIsZero(t *testing.T) {
	env := newTestEnv(t)

	averages, err := env.svc.RollingAverage(context.Background(), 30)
	if err != nil {
		t.Fatalf("rolling average: %v", err)
	}
	if len(averages) != 2 {
		t.Fatalf("every machine must report, got %d entries", len(averages))
	}
	for _, avg := range averages {
		if avg.Average != 0 {
			t.Fatalf("idle machine average = %v, want 0", avg.Average)
		}
	}
}

func TestBacklog(t *testing.T) {
	env := newTestEnv(t)

	env.insertAwaiting(t, env.slitter, 500)
	env.insertAwaiting(t, env.slitter, 700)
	env.insertAwaiting(t, env.rewinder, 200)
	// Finished orders are not backlog.
	env.insertFinished(t, env.slitter, env.phaseCut, 999, env.clock.Now().Add(-time.Hour))

	backlog, err := env.svc.Backlog(context.Background())
	if err != nil {
		t.Fatalf("backlog: %v", err)
	}
	if len(backlog) != 2 {
		t.Fatalf("expected 2 machines with backlog, got %d", len(backlog))
	}

	byMachine := map[snowflake.ID]productiondomain.BacklogEntry{}
	for _, entry := range backlog {
		byMachine[entry.MachineID] = entry
	}
	if got := byMachine[env.slitter]; got.OrderCount != 2 || got.RequestedWeight != 1200 {
		t.Fatalf("slitter backlog = %+v, want 2 orders / 1200", got)
	}
	if got := byMachine[env.rewinder]; got.OrderCount != 1 || got.RequestedWeight != 200 {
		t.Fatalf("rewinder backlog = %+v, want 1 order / 200", got)
	}
}

func TestMatrixTotals(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	env.insertFinished(t, env.slitter, env.phaseCut, 100, day.Add(8*time.Hour))
	env.insertFinished(t, env.slitter, env.phaseCut, 200, day.Add(26*time.Hour))
	env.insertFinished(t, env.slitter, env.phaseTin, 50, day.Add(10*time.Hour))
	env.insertFinished(t, env.rewinder, env.phaseTin, 300, day.Add(12*time.Hour))
	// Out of range.
	env.insertFinished(t, env.rewinder, env.phaseTin, 999, day.AddDate(0, 0, 10))

	matrix, err := env.svc.Matrix(context.Background(), day, day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}

	if matrix.GrandTotal != 650 {
		t.Fatalf("grand total = %v, want 650", matrix.GrandTotal)
	}
	if matrix.MachineTotals[env.slitter] != 350 {
		t.Fatalf("slitter row total = %v, want 350", matrix.MachineTotals[env.slitter])
	}
	if matrix.PhaseTotals[env.phaseTin] != 350 {
		t.Fatalf("tin column total = %v, want 350", matrix.PhaseTotals[env.phaseTin])
	}
	if len(matrix.Cells) != 3 {
		t.Fatalf("expected 3 populated cells, got %d", len(matrix.Cells))
	}
}

func TestMatrixRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)

	from := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	if _, err := env.svc.Matrix(context.Background(), from, from.AddDate(0, 0, -1)); err != productiondomain.ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
