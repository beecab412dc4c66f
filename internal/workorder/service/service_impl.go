package service

import (
	"context"
	"strings"
	"time"

	catalogdomain "github.com/AndreaSpaggiari/sito-andrea/internal/catalog/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/clock"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Unknown string fields on a scanned form are stored as "N/D".
const notAvailable = "N/D"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Repo    workorderdomain.Repository
	Catalog catalogdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    workorderdomain.Repository
	catalog catalogdomain.Service
}

func New(p Params) workorderdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("workorder.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

func (s *Service) Enqueue(ctx context.Context, req workorderdomain.EnqueueRequest) (*workorderdomain.WorkOrder, error) {
	machineID, err := snowflake.ParseString(strings.TrimSpace(req.MachineID))
	if err != nil || machineID == 0 {
		// The target machine is the one descriptor field with no safe default.
		return nil, workorderdomain.ErrInvalidDescriptor
	}
	if _, err := s.catalog.GetMachine(ctx, machineID.String()); err != nil {
		return nil, workorderdomain.ErrInvalidDescriptor
	}

	sentinel, err := s.catalog.SentinelPhase(ctx)
	if err != nil {
		return nil, err
	}

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		clientName = notAvailable
	}
	client, err := s.catalog.EnsureClient(ctx, clientName)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	order := &workorderdomain.WorkOrder{
		ID:                s.genID.Generate(),
		MachineID:         machineID,
		PhaseID:           sentinel.ID,
		ClientID:          client.ID,
		Status:            workorderdomain.StatusAwaiting,
		Scheda:            defaultString(req.Scheda),
		CoilCode:          defaultString(req.CoilCode),
		Alloy:             defaultString(req.Alloy),
		PhysicalState:     defaultString(req.PhysicalState),
		Thickness:         req.Thickness,
		Width:             req.Width,
		Measure:           req.Measure,
		RequestedWeight:   req.RequestedWeight,
		TheoreticalWeight: req.TheoreticalWeight,
		QueuedAt:          now,
		DeliveryDate:      req.DeliveryDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.log.Info("work order enqueued",
		zap.String("order_id", order.ID.String()),
		zap.String("machine_id", machineID.String()),
		zap.Float64("requested_weight", order.RequestedWeight),
	)
	return order, nil
}

func (s *Service) Start(ctx context.Context, req workorderdomain.StartRequest) (*workorderdomain.WorkOrder, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return nil, workorderdomain.ErrInvalidID
	}

	phase, err := s.catalog.GetPhase(ctx, req.PhaseID)
	if err != nil {
		if err == catalogdomain.ErrNotFound || err == catalogdomain.ErrInvalidID {
			return nil, workorderdomain.ErrNotFound
		}
		return nil, err
	}
	if phase.Sentinel {
		return nil, workorderdomain.ErrInvalidTransition
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorderdomain.ErrNotFound
	}
	if order.Status != workorderdomain.StatusAwaiting {
		// A second start observes the conflict instead of silently
		// succeeding; deduplication belongs to the calling layer.
		return nil, workorderdomain.ErrInvalidTransition
	}

	now := s.clock.Now().UTC()
	order.Status = workorderdomain.StatusInProgress
	order.PhaseID = phase.ID
	order.StartedAt = &now

	if err := s.repo.Update(ctx, s.db, order); err != nil {
		return nil, err
	}

	s.log.Info("work order started",
		zap.String("order_id", order.ID.String()),
		zap.String("phase", phase.Name),
	)
	return order, nil
}

func (s *Service) Finish(ctx context.Context, req workorderdomain.FinishRequest) (*workorderdomain.FinishResult, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		return nil, workorderdomain.ErrInvalidID
	}

	now := s.clock.Now().UTC()
	result := &workorderdomain.FinishResult{}

	// The parent update and the conditional successor insert must land
	// together; a finished order with a missing required successor is a
	// correctness bug, not a degraded mode.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return workorderdomain.ErrNotFound
		}

		wasExiting := order.Status == workorderdomain.StatusExiting
		if order.Status != workorderdomain.StatusInProgress && !wasExiting {
			return workorderdomain.ErrInvalidTransition
		}

		phase, err := s.catalog.GetPhase(ctx, order.PhaseID.String())
		if err != nil {
			return err
		}

		weight := req.Weight
		passCount := req.PassCount
		pieceCount := req.PieceCount
		length := computeWoundLength(weight, pieceCount, passCount, order.Alloy, order.Thickness, order.Measure)

		order.Status = workorderdomain.StatusFinished
		order.FinishedAt = &now
		order.ProcessedWeight = &weight
		order.PassCount = &passCount
		order.PieceCount = &pieceCount
		order.WoundLength = &length

		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}
		result.Order = order

		// An order returning from the external finishing step is done;
		// only in-progress completions fan out.
		if wasExiting {
			return nil
		}

		successor, err := s.buildSuccessor(ctx, order, phase, req, now)
		if err != nil {
			return err
		}
		if successor == nil {
			return nil
		}
		if err := s.repo.Insert(ctx, tx, successor); err != nil {
			return err
		}
		result.Successor = successor
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("order_id", result.Order.ID.String()),
		zap.Float64("processed_weight", req.Weight),
	}
	if result.Successor != nil {
		fields = append(fields, zap.String("successor_id", result.Successor.ID.String()))
	}
	s.log.Info("work order finished", fields...)
	return result, nil
}

// buildSuccessor applies the phase-category fan-out rules. It returns
// nil when the completion is terminal.
func (s *Service) buildSuccessor(
	ctx context.Context,
	parent *workorderdomain.WorkOrder,
	phase *catalogdomain.Phase,
	req workorderdomain.FinishRequest,
	now time.Time,
) (*workorderdomain.WorkOrder, error) {
	var (
		machineID snowflake.ID
		status    = workorderdomain.StatusAwaiting
		phaseID   snowflake.ID
		startedAt *time.Time
	)

	switch phase.Category {
	case catalogdomain.CategoryMultiOut:
		target, err := snowflake.ParseString(strings.TrimSpace(req.SuccessorMachineID))
		if err != nil || target == 0 {
			return nil, workorderdomain.ErrMissingTarget
		}
		machineID = target
	case catalogdomain.CategoryMultiSame:
		machineID = parent.MachineID
	case catalogdomain.CategoryExitStep:
		machineID = parent.MachineID
		status = workorderdomain.StatusExiting
		// An exiting order is past its sentinel phase and counts as
		// started the moment it leaves the machine.
		phaseID = parent.PhaseID
		t := now
		startedAt = &t
	case catalogdomain.CategoryScrap:
		disposal, err := s.catalog.DisposalMachine(ctx)
		if err != nil {
			return nil, err
		}
		machineID = disposal.ID
	default:
		return nil, nil
	}

	if phaseID == 0 {
		sentinel, err := s.catalog.SentinelPhase(ctx)
		if err != nil {
			return nil, err
		}
		phaseID = sentinel.ID
	}

	parentID := parent.ID
	return &workorderdomain.WorkOrder{
		ID:            s.genID.Generate(),
		ParentID:      &parentID,
		MachineID:     machineID,
		PhaseID:       phaseID,
		ClientID:      parent.ClientID,
		Status:        status,
		Scheda:        parent.Scheda,
		CoilCode:      parent.CoilCode,
		Alloy:         parent.Alloy,
		PhysicalState: parent.PhysicalState,
		Thickness:     parent.Thickness,
		Width:         parent.Width,
		Measure:       parent.Measure,

		RequestedWeight: parent.RequestedWeight,
		// The measured output of this step is what the next step will
		// receive, so it seeds the successor's incoming weight.
		TheoreticalWeight: req.Weight,

		QueuedAt:     now,
		StartedAt:    startedAt,
		DeliveryDate: parent.DeliveryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*workorderdomain.WorkOrder, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, workorderdomain.ErrInvalidID
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorderdomain.ErrNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, req workorderdomain.ListRequest) ([]workorderdomain.WorkOrder, error) {
	filter := workorderdomain.ListFilter{}
	if machineID := strings.TrimSpace(req.MachineID); machineID != "" {
		parsed, err := snowflake.ParseString(machineID)
		if err != nil {
			return nil, workorderdomain.ErrInvalidID
		}
		filter.MachineID = parsed
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = workorderdomain.Status(status)
	}
	return s.repo.List(ctx, s.db, filter)
}

func defaultString(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return notAvailable
	}
	return value
}
