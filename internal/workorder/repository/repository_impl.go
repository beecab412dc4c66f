package repository

import (
	"context"
	"strings"
	"time"

	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() workorderdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, o *workorderdomain.WorkOrder) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO work_orders (
			id, parent_id, machine_id, phase_id, client_id, status,
			scheda, coil_code, alloy, physical_state, thickness, width, measure,
			requested_weight, theoretical_weight, processed_weight,
			piece_count, pass_count, wound_length,
			queued_at, started_at, finished_at, delivery_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.ParentID,
		o.MachineID,
		o.PhaseID,
		o.ClientID,
		o.Status,
		o.Scheda,
		o.CoilCode,
		o.Alloy,
		o.PhysicalState,
		o.Thickness,
		o.Width,
		o.Measure,
		o.RequestedWeight,
		o.TheoreticalWeight,
		o.ProcessedWeight,
		o.PieceCount,
		o.PassCount,
		o.WoundLength,
		o.QueuedAt,
		o.StartedAt,
		o.FinishedAt,
		o.DeliveryDate,
		o.CreatedAt,
		o.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, o *workorderdomain.WorkOrder) error {
	o.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`UPDATE work_orders
		 SET machine_id = ?, phase_id = ?, status = ?,
		     processed_weight = ?, piece_count = ?, pass_count = ?, wound_length = ?,
		     started_at = ?, finished_at = ?, updated_at = ?
		 WHERE id = ?`,
		o.MachineID,
		o.PhaseID,
		o.Status,
		o.ProcessedWeight,
		o.PieceCount,
		o.PassCount,
		o.WoundLength,
		o.StartedAt,
		o.FinishedAt,
		o.UpdatedAt,
		o.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*workorderdomain.WorkOrder, error) {
	var order workorderdomain.WorkOrder
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM work_orders WHERE id = ?`, id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*workorderdomain.WorkOrder, error) {
	var order workorderdomain.WorkOrder
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM work_orders WHERE id = ? FOR UPDATE`, id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter workorderdomain.ListFilter) ([]workorderdomain.WorkOrder, error) {
	query := `SELECT * FROM work_orders`
	var conditions []string
	var args []interface{}
	if filter.MachineID != 0 {
		conditions = append(conditions, "machine_id = ?")
		args = append(args, filter.MachineID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY queued_at ASC"

	var orders []workorderdomain.WorkOrder
	err := db.WithContext(ctx).Raw(query, args...).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
