package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// SystemManagerRepository stores the profile attached to system managers.
type SystemManagerRepository interface {
	Save(ctx context.Context, profile *domain.SystemManagerProfile) error
	GetByStaffID(ctx context.Context, staffID string) (*domain.SystemManagerProfile, error)
}

type systemManagerRepository struct {
	pool *pgxpool.Pool
}

// NewSystemManagerRepository instantiates repository.
func NewSystemManagerRepository(pool *pgxpool.Pool) SystemManagerRepository {
	return &systemManagerRepository{pool: pool}
}

// Save upserts the profile and replaces its technician list.
func (r *systemManagerRepository) Save(ctx context.Context, profile *domain.SystemManagerProfile) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const upsert = `
            INSERT INTO system_manager_profiles (staff_id, job_title, departments) VALUES ($1,$2,$3)
            ON CONFLICT (staff_id) DO UPDATE SET job_title=EXCLUDED.job_title, departments=EXCLUDED.departments`
		if _, err := tx.Exec(ctx, upsert, profile.StaffID, profile.JobTitle, profile.DepartmentsCSV()); err != nil {
			return translate(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM system_manager_technicians WHERE manager_id=$1`, profile.StaffID); err != nil {
			return err
		}
		for _, technicianID := range profile.TechnicianIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO system_manager_technicians (manager_id, technician_id) VALUES ($1,$2)`,
				profile.StaffID, technicianID); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *systemManagerRepository) GetByStaffID(ctx context.Context, staffID string) (*domain.SystemManagerProfile, error) {
	profile := domain.SystemManagerProfile{StaffID: staffID}
	var departments string
	err := r.pool.QueryRow(ctx,
		`SELECT job_title, departments FROM system_manager_profiles WHERE staff_id=$1`, staffID,
	).Scan(&profile.JobTitle, &departments)
	if err != nil {
		return nil, translate(err)
	}
	profile.Departments = domain.ParseDepartments(departments)

	rows, err := r.pool.Query(ctx,
		`SELECT technician_id FROM system_manager_technicians WHERE manager_id=$1 ORDER BY technician_id`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		profile.TechnicianIDs = append(profile.TechnicianIDs, id)
	}
	return &profile, rows.Err()
}
