package repo

import (
	"context"
	"database/sql"

	"sitecheck/internal/domain"
)

const inspectionCols = `id,project_id,checklist_id,mode,current_section,status,created_at,updated_at,completed_at`

func scanInspection(row *sql.Row) (domain.Inspection, error) {
	var in domain.Inspection
	var current, completedAt sql.NullString
	err := row.Scan(&in.ID, &in.ProjectID, &in.ChecklistID, &in.Mode, &current, &in.Status, &in.CreatedAt, &in.UpdatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return in, ErrNotFound
	}
	if err != nil {
		return in, err
	}
	if current.Valid {
		in.CurrentSection = &current.String
	}
	if completedAt.Valid {
		in.CompletedAt = &completedAt.String
	}
	return in, nil
}

func (r Repo) InsertInspectionTx(ctx context.Context, tx *sql.Tx, in domain.Inspection) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO inspections(`+inspectionCols+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		in.ID, in.ProjectID, in.ChecklistID, in.Mode, nullableStrPtr(in.CurrentSection), in.Status, in.CreatedAt, in.UpdatedAt, nullableStrPtr(in.CompletedAt))
	return err
}

func (r Repo) GetInspection(ctx context.Context, id string) (domain.Inspection, error) {
	return scanInspection(r.DB.QueryRowContext(ctx, `SELECT `+inspectionCols+` FROM inspections WHERE id=?`, id))
}

func (r Repo) ListInspections(ctx context.Context, projectID string) ([]domain.Inspection, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+inspectionCols+` FROM inspections WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Inspection
	for rows.Next() {
		var in domain.Inspection
		var current, completedAt sql.NullString
		if err := rows.Scan(&in.ID, &in.ProjectID, &in.ChecklistID, &in.Mode, &current, &in.Status, &in.CreatedAt, &in.UpdatedAt, &completedAt); err != nil {
			return nil, err
		}
		if current.Valid {
			in.CurrentSection = &current.String
		}
		if completedAt.Valid {
			in.CompletedAt = &completedAt.String
		}
		res = append(res, in)
	}
	return res, rows.Err()
}

// UpdateInspectionTx writes the navigation-owned columns.
func (r Repo) UpdateInspectionTx(ctx context.Context, tx *sql.Tx, in domain.Inspection) error {
	res, err := tx.ExecContext(ctx, `UPDATE inspections SET current_section=?, status=?, updated_at=?, completed_at=? WHERE id=?`,
		nullableStrPtr(in.CurrentSection), in.Status, in.UpdatedAt, nullableStrPtr(in.CompletedAt), in.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteInspection(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM inspections WHERE id=?`, id)
	return err
}

// --- inspection sections ---

func (r Repo) UpsertInspectionSectionTx(ctx context.Context, tx *sql.Tx, s domain.InspectionSection) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO inspection_sections(inspection_id,section_id,status,updated_at) VALUES (?,?,?,?)
ON CONFLICT(inspection_id,section_id) DO UPDATE SET status=excluded.status, updated_at=excluded.updated_at`,
		s.InspectionID, s.SectionID, s.Status, s.UpdatedAt)
	return err
}

// SectionStatuses returns persisted statuses keyed by section id.
func (r Repo) SectionStatuses(ctx context.Context, inspectionID string) (map[string]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT section_id,status FROM inspection_sections WHERE inspection_id=?`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]string{}
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		res[id] = status
	}
	return res, rows.Err()
}

// SectionFindingCounts returns recorded-finding counts keyed by section id.
func (r Repo) SectionFindingCounts(ctx context.Context, inspectionID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT section_id, count(*) FROM findings WHERE inspection_id=? GROUP BY section_id`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		res[id] = count
	}
	return res, rows.Err()
}

// --- findings ---

func (r Repo) InsertFindingTx(ctx context.Context, tx *sql.Tx, f domain.Finding) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO findings(id,inspection_id,section_id,note,item_label,created_at) VALUES (?,?,?,?,?,?)`,
		f.ID, f.InspectionID, f.SectionID, f.Note, nullable(f.ItemLabel), f.CreatedAt)
	return err
}

func (r Repo) ListFindings(ctx context.Context, inspectionID, sectionID string) ([]domain.Finding, error) {
	query := `SELECT id,inspection_id,section_id,note,item_label,created_at FROM findings WHERE inspection_id=?`
	args := []any{inspectionID}
	if sectionID != "" {
		query += ` AND section_id=?`
		args = append(args, sectionID)
	}
	query += ` ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Finding
	for rows.Next() {
		var f domain.Finding
		var label sql.NullString
		if err := rows.Scan(&f.ID, &f.InspectionID, &f.SectionID, &f.Note, &label, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ItemLabel = label.String
		res = append(res, f)
	}
	return res, rows.Err()
}

// AddressedItemLabels returns the item labels findings reference in a section.
func (r Repo) AddressedItemLabels(ctx context.Context, inspectionID, sectionID string) (map[string]bool, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT item_label FROM findings WHERE inspection_id=? AND section_id=? AND item_label IS NOT NULL`, inspectionID, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]bool{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		res[label] = true
	}
	return res, rows.Err()
}
