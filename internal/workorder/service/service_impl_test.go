package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	workorderrepo "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/repository"

	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

type stubCatalog struct {
	machines map[snowflake.ID]catalogdomain.Machine
	phases   map[snowflake.ID]catalogdomain.Phase
	clients  map[string]catalogdomain.Client
	disposal snowflake.ID
	sentinel snowflake.ID
	nextID   snowflake.ID
}

func (s *stubCatalog) ListMachines(context.Context) ([]catalogdomain.Machine, error) {
	return nil, nil
}
func (s *stubCatalog) ListPhases(context.Context) ([]catalogdomain.Phase, error) { return nil, nil }
func (s *stubCatalog) ListClients(context.Context) ([]catalogdomain.Client, error) {
	return nil, nil
}

func (s *stubCatalog) GetMachine(_ context.Context, id string) (*catalogdomain.Machine, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	m, ok := s.machines[parsed]
	if !ok {
		return nil, catalogdomain.ErrNotFound
	}
	return &m, nil
}

func (s *stubCatalog) GetPhase(_ context.Context, id string) (*catalogdomain.Phase, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	p, ok := s.phases[parsed]
	if !ok {
		return nil, catalogdomain.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) EnsureClient(_ context.Context, name string) (*catalogdomain.Client, error) {
	if c, ok := s.clients[name]; ok {
		return &c, nil
	}
	s.nextID++
	c := catalogdomain.Client{ID: s.nextID, Name: name}
	s.clients[name] = c
	return &c, nil
}

func (s *stubCatalog) DisposalMachine(context.Context) (*catalogdomain.Machine, error) {
	m := s.machines[s.disposal]
	return &m, nil
}

func (s *stubCatalog) SentinelPhase(context.Context) (*catalogdomain.Phase, error) {
	p := s.phases[s.sentinel]
	return &p, nil
}

type testEnv struct {
	svc     workorderdomain.Service
	db      *gorm.DB
	clock   *clock.FakeClock
	catalog *stubCatalog

	slitter  snowflake.ID // TAGLIO X SBAVATURA runs here
	rewinder snowflake.ID
	disposal snowflake.ID

	sentinelPhase snowflake.ID
	normalPhase   snowflake.ID
	multiOutPhase snowflake.ID
	multiSame     snowflake.ID
	exitPhase     snowflake.ID
	scrapPhase    snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// SQLite support hack: remove FOR UPDATE clauses
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate)

	if err := db.Exec(`
		CREATE TABLE work_orders (
			id INTEGER PRIMARY KEY,
			parent_id INTEGER,
			machine_id INTEGER NOT NULL,
			phase_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			scheda TEXT NOT NULL,
			coil_code TEXT NOT NULL,
			alloy TEXT NOT NULL,
			physical_state TEXT NOT NULL,
			thickness REAL NOT NULL,
			width REAL NOT NULL,
			measure REAL NOT NULL,
			requested_weight REAL NOT NULL,
			theoretical_weight REAL NOT NULL,
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
		)
	`).Error; err != nil {
		t.Fatalf("create work_orders table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	env := &testEnv{
		db:    db,
		clock: clock.NewFakeClock(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)),

		slitter:  node.Generate(),
		rewinder: node.Generate(),
		disposal: node.Generate(),

		sentinelPhase: node.Generate(),
		normalPhase:   node.Generate(),
		multiOutPhase: node.Generate(),
		multiSame:     node.Generate(),
		exitPhase:     node.Generate(),
		scrapPhase:    node.Generate(),
	}

	env.catalog = &stubCatalog{
		machines: map[snowflake.ID]catalogdomain.Machine{
			env.slitter:  {ID: env.slitter, Code: "M01", Name: "Taglierina 1"},
			env.rewinder: {ID: env.rewinder, Code: "M02", Name: "Ribobinatrice"},
			env.disposal: {ID: env.disposal, Code: "M99", Name: "Smaltimento", Disposal: true},
		},
		phases: map[snowflake.ID]catalogdomain.Phase{
			env.sentinelPhase: {ID: env.sentinelPhase, Name: catalogdomain.SentinelPhaseName, Category: catalogdomain.CategoryNormal, Sentinel: true},
			env.normalPhase:   {ID: env.normalPhase, Name: "TAGLIO", Category: catalogdomain.CategoryNormal},
			env.multiOutPhase: {ID: env.multiOutPhase, Name: "TAGLIO X SBAVATURA", Category: catalogdomain.CategoryMultiOut},
			env.multiSame:     {ID: env.multiSame, Name: "MOLTEPLICE", Category: catalogdomain.CategoryMultiSame},
			env.exitPhase:     {ID: env.exitPhase, Name: "STAGNATURA", Category: catalogdomain.CategoryExitStep},
			env.scrapPhase:    {ID: env.scrapPhase, Name: "SCARTO", Category: catalogdomain.CategoryScrap},
		},
		clients:  map[string]catalogdomain.Client{},
		disposal: env.disposal,
		sentinel: env.sentinelPhase,
		nextID:   node.Generate(),
	}

	env.svc = New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   env.clock,
		GenID:   node,
		Repo:    workorderrepo.Provide(),
		Catalog: env.catalog,
	})
	return env
}

func (e *testEnv) enqueue(t *testing.T, machineID snowflake.ID) *workorderdomain.WorkOrder {
	t.Helper()
	order, err := e.svc.Enqueue(context.Background(), workorderdomain.EnqueueRequest{
		MachineID:         machineID.String(),
		ClientName:        "Rossi SRL",
		Scheda:            "S-100",
		CoilCode:          "C-42",
		Alloy:             "Cu-DHP",
		PhysicalState:     "crudo",
		Thickness:         0.5,
		Width:             300,
		Measure:           10,
		RequestedWeight:   1000,
		TheoreticalWeight: 1000,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return order
}

func (e *testEnv) start(t *testing.T, orderID, phaseID snowflake.ID) *workorderdomain.WorkOrder {
	t.Helper()
	order, err := e.svc.Start(context.Background(), workorderdomain.StartRequest{
		OrderID: orderID.String(),
		PhaseID: phaseID.String(),
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return order
}

func TestEnqueue(t *testing.T) {
	env := newTestEnv(t)

	order := env.enqueue(t, env.slitter)

	if order.Status != workorderdomain.StatusAwaiting {
		t.Fatalf("expected awaiting, got %s", order.Status)
	}
	if order.PhaseID != env.sentinelPhase {
		t.Fatalf("new order must sit on the sentinel phase")
	}
	if !order.QueuedAt.Equal(env.clock.Now()) {
		t.Fatalf("queued_at = %v, want %v", order.QueuedAt, env.clock.Now())
	}
	if order.StartedAt != nil || order.FinishedAt != nil || order.ProcessedWeight != nil {
		t.Fatalf("lifecycle fields must be unset on a queued order")
	}

	got, err := env.svc.GetByID(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClientID == 0 {
		t.Fatalf("client must be resolved on enqueue")
	}
}

func TestEnqueueDefaultsDescriptor(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.svc.Enqueue(context.Background(), workorderdomain.EnqueueRequest{
		MachineID: env.slitter.String(),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if order.Scheda != "N/D" || order.CoilCode != "N/D" || order.Alloy != "N/D" || order.PhysicalState != "N/D" {
		t.Fatalf("blank descriptor strings must default to N/D, got %+v", order)
	}
	if env.catalog.clients["N/D"].ID == 0 {
		t.Fatalf("blank client must resolve to the N/D client")
	}
}

func TestEnqueueRejectsMissingMachine(t *testing.T) {
	env := newTestEnv(t)

	cases := []string{"", "not-a-number"}
	for _, machineID := range cases {
		_, err := env.svc.Enqueue(context.Background(), workorderdomain.EnqueueRequest{MachineID: machineID})
		if err != workorderdomain.ErrInvalidDescriptor {
			t.Fatalf("machine %q: expected ErrInvalidDescriptor, got %v", machineID, err)
		}
	}
}

func TestStart(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)

	env.clock.Advance(30 * time.Minute)
	started := env.start(t, order.ID, env.normalPhase)

	if started.Status != workorderdomain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}
	if started.PhaseID != env.normalPhase {
		t.Fatalf("phase not assigned on start")
	}
	if started.StartedAt == nil || !started.StartedAt.Equal(env.clock.Now()) {
		t.Fatalf("started_at = %v, want %v", started.StartedAt, env.clock.Now())
	}
}

func TestStartRejectsSentinelPhase(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)

	_, err := env.svc.Start(context.Background(), workorderdomain.StartRequest{
		OrderID: order.ID.String(),
		PhaseID: env.sentinelPhase.String(),
	})
	if err != workorderdomain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStartTwiceLeavesOrderUntouched(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.normalPhase)

	before, err := env.svc.GetByID(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	env.clock.Advance(time.Hour)
	_, err = env.svc.Start(context.Background(), workorderdomain.StartRequest{
		OrderID: order.ID.String(),
		PhaseID: env.multiSame.String(),
	})
	if err != workorderdomain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	after, err := env.svc.GetByID(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.PhaseID != before.PhaseID || after.Status != before.Status || !after.StartedAt.Equal(*before.StartedAt) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("rejected start must not modify the order: before %+v after %+v", before, after)
	}
}

func TestFinishNormalPhase(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.normalPhase)

	env.clock.Advance(2 * time.Hour)
	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     1000,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	got := result.Order
	if got.Status != workorderdomain.StatusFinished {
		t.Fatalf("expected finished, got %s", got.Status)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(env.clock.Now()) {
		t.Fatalf("finished_at not recorded")
	}
	if got.ProcessedWeight == nil || *got.ProcessedWeight != 1000 {
		t.Fatalf("processed weight not recorded")
	}
	// 1000 kg of copper, 0.5 mm thick, 10 mm wide, one pass.
	if got.WoundLength == nil || *got.WoundLength != 22321 {
		t.Fatalf("wound length = %v, want 22321", got.WoundLength)
	}
	if result.Successor != nil {
		t.Fatalf("a normal phase must not spawn a successor")
	}
}

func TestWoundLengthBrass(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.svc.Enqueue(context.Background(), workorderdomain.EnqueueRequest{
		MachineID: env.slitter.String(),
		Alloy:     "OT63",
		Thickness: 0.5,
		Measure:   10,
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	env.start(t, order.ID, env.normalPhase)

	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     1000,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	// Same coil in brass: 1000/8.41*1000/(0.5*10) = 23781.21... -> 23781
	if *result.Order.WoundLength != 23781 {
		t.Fatalf("wound length = %d, want 23781", *result.Order.WoundLength)
	}
}

func TestFinishMultiOutSpawnsOnTargetMachine(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.multiOutPhase)

	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:            order.ID.String(),
		Weight:             950,
		PassCount:          2,
		PieceCount:         4,
		SuccessorMachineID: env.rewinder.String(),
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	succ := result.Successor
	if succ == nil {
		t.Fatalf("multi-out finish must spawn a successor")
	}
	if succ.MachineID != env.rewinder {
		t.Fatalf("successor machine = %s, want %s", succ.MachineID, env.rewinder)
	}
	if succ.Status != workorderdomain.StatusAwaiting {
		t.Fatalf("successor must queue as awaiting, got %s", succ.Status)
	}
	if succ.PhaseID != env.sentinelPhase {
		t.Fatalf("successor must sit on the sentinel phase")
	}
	if succ.ParentID == nil || *succ.ParentID != order.ID {
		t.Fatalf("successor must point at its parent")
	}
	if succ.Scheda != order.Scheda || succ.Alloy != order.Alloy || succ.Thickness != order.Thickness {
		t.Fatalf("descriptor must carry over unchanged")
	}
	if succ.TheoreticalWeight != 950 {
		t.Fatalf("successor incoming weight = %v, want the measured 950", succ.TheoreticalWeight)
	}
	if succ.ProcessedWeight != nil || succ.FinishedAt != nil {
		t.Fatalf("successor must not carry finish data")
	}
}

func TestFinishMultiOutWithoutTargetRollsBack(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.multiOutPhase)

	_, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     950,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != workorderdomain.ErrMissingTarget {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}

	got, err := env.svc.GetByID(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != workorderdomain.StatusInProgress || got.ProcessedWeight != nil || got.FinishedAt != nil {
		t.Fatalf("failed finish must leave the order untouched, got %+v", got)
	}

	orders, err := env.svc.List(context.Background(), workorderdomain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("no successor may survive a rolled back finish, found %d orders", len(orders))
	}
}

func TestFinishMultiSameSpawnsOnSameMachine(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.multiSame)

	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     980,
		PassCount:  1,
		PieceCount: 2,
		// A stray target must not divert a same-machine successor.
		SuccessorMachineID: env.rewinder.String(),
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Successor == nil || result.Successor.MachineID != env.slitter {
		t.Fatalf("successor must stay on the parent machine")
	}
	if result.Successor.Status != workorderdomain.StatusAwaiting {
		t.Fatalf("successor must queue as awaiting")
	}
}

func TestFinishExitStepSpawnsExitingOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.exitPhase)

	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     990,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	succ := result.Successor
	if succ == nil {
		t.Fatalf("exit step must spawn a tracking order")
	}
	if succ.Status != workorderdomain.StatusExiting {
		t.Fatalf("successor status = %s, want exiting", succ.Status)
	}
	if succ.MachineID != env.slitter {
		t.Fatalf("exiting order must remain attached to the parent machine")
	}
	if succ.PhaseID != env.exitPhase {
		t.Fatalf("exiting order must keep the exit phase, not the sentinel")
	}
	if succ.StartedAt == nil {
		t.Fatalf("an exiting order counts as already started")
	}

	// Coming back from the external step finishes the run for good.
	env.clock.Advance(48 * time.Hour)
	back, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    succ.ID.String(),
		Weight:     985,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != nil {
		t.Fatalf("finish exiting: %v", err)
	}
	if back.Order.Status != workorderdomain.StatusFinished {
		t.Fatalf("exiting order must finish, got %s", back.Order.Status)
	}
	if back.Successor != nil {
		t.Fatalf("finishing an exiting order must not spawn again")
	}
}

func TestFinishScrapRoutesToDisposal(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)
	env.start(t, order.ID, env.scrapPhase)

	result, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     100,
		PassCount:  1,
		PieceCount: 1,
		// The operator's choice is irrelevant for scrap.
		SuccessorMachineID: env.rewinder.String(),
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Successor == nil || result.Successor.MachineID != env.disposal {
		t.Fatalf("scrap must route to the disposal machine")
	}
}

func TestFinishRejectsAwaitingOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.enqueue(t, env.slitter)

	_, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    order.ID.String(),
		Weight:     100,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != workorderdomain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinishUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Finish(context.Background(), workorderdomain.FinishRequest{
		OrderID:    "123456789",
		Weight:     100,
		PassCount:  1,
		PieceCount: 1,
	})
	if err != workorderdomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	a := env.enqueue(t, env.slitter)
	env.enqueue(t, env.rewinder)
	env.start(t, a.ID, env.normalPhase)

	byMachine, err := env.svc.List(context.Background(), workorderdomain.ListRequest{MachineID: env.slitter.String()})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byMachine) != 1 || byMachine[0].ID != a.ID {
		t.Fatalf("machine filter returned %d orders", len(byMachine))
	}

	awaiting, err := env.svc.List(context.Background(), workorderdomain.ListRequest{Status: string(workorderdomain.StatusAwaiting)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(awaiting) != 1 {
		t.Fatalf("status filter returned %d orders", len(awaiting))
	}
}
