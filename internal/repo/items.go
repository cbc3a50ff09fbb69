package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"sitecheck/internal/domain"
)

func marshalStrings(in []string) any {
	if len(in) == 0 {
		return nil
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func unmarshalStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return nil
	}
	return out
}

// --- checklist items ---

const checklistItemCols = `id,inspection_id,category,label,decision,notes,sort_order,created_at,updated_at`

func (r Repo) InsertChecklistItemTx(ctx context.Context, tx *sql.Tx, it domain.ChecklistItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO checklist_items(`+checklistItemCols+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		it.ID, it.InspectionID, it.Category, it.Label, it.Decision, nullable(it.Notes), it.SortOrder, it.CreatedAt, it.UpdatedAt)
	return err
}

func (r Repo) UpdateChecklistItemTx(ctx context.Context, tx *sql.Tx, it domain.ChecklistItem) error {
	res, err := tx.ExecContext(ctx, `UPDATE checklist_items SET category=?, label=?, decision=?, notes=?, sort_order=?, updated_at=? WHERE id=?`,
		it.Category, it.Label, it.Decision, nullable(it.Notes), it.SortOrder, it.UpdatedAt, it.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetChecklistItem(ctx context.Context, id string) (domain.ChecklistItem, error) {
	var it domain.ChecklistItem
	var notes sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT `+checklistItemCols+` FROM checklist_items WHERE id=?`, id).
		Scan(&it.ID, &it.InspectionID, &it.Category, &it.Label, &it.Decision, &notes, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	if err != nil {
		return it, err
	}
	it.Notes = notes.String
	it.PhotoIDs, err = r.photoIDsForItem(ctx, it.ID)
	return it, err
}

func (r Repo) ListChecklistItems(ctx context.Context, inspectionID string) ([]domain.ChecklistItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+checklistItemCols+` FROM checklist_items WHERE inspection_id=? ORDER BY sort_order ASC, created_at ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ChecklistItem
	for rows.Next() {
		var it domain.ChecklistItem
		var notes sql.NullString
		if err := rows.Scan(&it.ID, &it.InspectionID, &it.Category, &it.Label, &it.Decision, &notes, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.Notes = notes.String
		res = append(res, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].PhotoIDs, err = r.photoIDsForItem(ctx, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) DeleteChecklistItemTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM checklist_items WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- clause reviews ---

const clauseReviewCols = `id,inspection_id,clause_code,clause_category,applicability,na_reason,observations,remedial_works,document_ids_json,created_at,updated_at`

func (r Repo) InsertClauseReviewTx(ctx context.Context, tx *sql.Tx, cr domain.ClauseReview) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO clause_reviews(`+clauseReviewCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		cr.ID, cr.InspectionID, cr.ClauseCode, cr.ClauseCategory, cr.Applicability,
		nullable(cr.NAReason), nullable(cr.Observations), nullable(cr.RemedialWorks),
		marshalStrings(cr.DocumentIDs), cr.CreatedAt, cr.UpdatedAt)
	return err
}

func (r Repo) UpdateClauseReviewTx(ctx context.Context, tx *sql.Tx, cr domain.ClauseReview) error {
	res, err := tx.ExecContext(ctx, `UPDATE clause_reviews SET applicability=?, na_reason=?, observations=?, remedial_works=?, document_ids_json=?, updated_at=? WHERE id=?`,
		cr.Applicability, nullable(cr.NAReason), nullable(cr.Observations), nullable(cr.RemedialWorks),
		marshalStrings(cr.DocumentIDs), cr.UpdatedAt, cr.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetClauseReview(ctx context.Context, id string) (domain.ClauseReview, error) {
	var cr domain.ClauseReview
	var naReason, obs, remedial, docIDs sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT `+clauseReviewCols+` FROM clause_reviews WHERE id=?`, id).
		Scan(&cr.ID, &cr.InspectionID, &cr.ClauseCode, &cr.ClauseCategory, &cr.Applicability,
			&naReason, &obs, &remedial, &docIDs, &cr.CreatedAt, &cr.UpdatedAt)
	if err == sql.ErrNoRows {
		return cr, ErrNotFound
	}
	if err != nil {
		return cr, err
	}
	cr.NAReason = naReason.String
	cr.Observations = obs.String
	cr.RemedialWorks = remedial.String
	cr.DocumentIDs = unmarshalStrings(docIDs)
	cr.PhotoIDs, err = r.photoIDsForItem(ctx, cr.ID)
	return cr, err
}

func (r Repo) ListClauseReviews(ctx context.Context, inspectionID string) ([]domain.ClauseReview, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+clauseReviewCols+` FROM clause_reviews WHERE inspection_id=? ORDER BY clause_code ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ClauseReview
	for rows.Next() {
		var cr domain.ClauseReview
		var naReason, obs, remedial, docIDs sql.NullString
		if err := rows.Scan(&cr.ID, &cr.InspectionID, &cr.ClauseCode, &cr.ClauseCategory, &cr.Applicability,
			&naReason, &obs, &remedial, &docIDs, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
		cr.NAReason = naReason.String
		cr.Observations = obs.String
		cr.RemedialWorks = remedial.String
		cr.DocumentIDs = unmarshalStrings(docIDs)
		res = append(res, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].PhotoIDs, err = r.photoIDsForItem(ctx, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) DeleteClauseReviewTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM clause_reviews WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- documents ---

const documentCols = `id,project_id,type,description,status,verified,linked_clause_codes_json,created_at,updated_at`

func (r Repo) InsertDocumentTx(ctx context.Context, tx *sql.Tx, d domain.Document) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO documents(`+documentCols+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		d.ID, d.ProjectID, d.Type, nullable(d.Description), d.Status, boolInt(d.Verified),
		marshalStrings(d.LinkedClauseCodes), d.CreatedAt, d.UpdatedAt)
	return err
}

func (r Repo) UpdateDocumentTx(ctx context.Context, tx *sql.Tx, d domain.Document) error {
	res, err := tx.ExecContext(ctx, `UPDATE documents SET type=?, description=?, status=?, verified=?, linked_clause_codes_json=?, updated_at=? WHERE id=?`,
		d.Type, nullable(d.Description), d.Status, boolInt(d.Verified),
		marshalStrings(d.LinkedClauseCodes), d.UpdatedAt, d.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var d domain.Document
	var desc, linked sql.NullString
	var verified int
	err := r.DB.QueryRowContext(ctx, `SELECT `+documentCols+` FROM documents WHERE id=?`, id).
		Scan(&d.ID, &d.ProjectID, &d.Type, &desc, &d.Status, &verified, &linked, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	d.Description = desc.String
	d.Verified = verified != 0
	d.LinkedClauseCodes = unmarshalStrings(linked)
	return d, nil
}

func (r Repo) ListDocuments(ctx context.Context, projectID string) ([]domain.Document, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+documentCols+` FROM documents WHERE project_id=? ORDER BY type ASC, created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Document
	for rows.Next() {
		var d domain.Document
		var desc, linked sql.NullString
		var verified int
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Type, &desc, &d.Status, &verified, &linked, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Description = desc.String
		d.Verified = verified != 0
		d.LinkedClauseCodes = unmarshalStrings(linked)
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) DeleteDocumentTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- photos ---

func (r Repo) InsertPhotoTx(ctx context.Context, tx *sql.Tx, p domain.Photo) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO photos(id,inspection_id,item_id,caption,object_key,created_at) VALUES (?,?,?,?,?,?)`,
		p.ID, p.InspectionID, nullable(p.ItemID), nullable(p.Caption), p.ObjectKey, p.CreatedAt)
	return err
}

func (r Repo) ListPhotos(ctx context.Context, inspectionID string) ([]domain.Photo, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,inspection_id,item_id,caption,object_key,created_at FROM photos WHERE inspection_id=? ORDER BY created_at ASC`, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Photo
	for rows.Next() {
		var p domain.Photo
		var itemID, caption sql.NullString
		if err := rows.Scan(&p.ID, &p.InspectionID, &itemID, &caption, &p.ObjectKey, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ItemID = itemID.String
		p.Caption = caption.String
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeletePhoto(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM photos WHERE id=?`, id)
	return err
}

func (r Repo) photoIDsForItem(ctx context.Context, itemID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM photos WHERE item_id=? ORDER BY created_at ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
