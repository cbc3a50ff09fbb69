package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gopkg.in/yaml.v3"

	"sitecheck/internal/config"
	"sitecheck/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStrPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- projects ---

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO projects(id,client_id,property_id,name,status,description,created_at) VALUES (?,?,?,?,?,?,?)`,
		p.ID, nullable(p.ClientID), nullable(p.PropertyID), p.Name, p.Status, nullable(p.Description), p.CreatedAt)
	return err
}

func (r Repo) InsertProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(id,client_id,property_id,name,status,description,created_at) VALUES (?,?,?,?,?,?,?)`,
		p.ID, nullable(p.ClientID), nullable(p.PropertyID), p.Name, p.Status, nullable(p.Description), p.CreatedAt)
	return err
}

func scanProject(row *sql.Row) (domain.Project, error) {
	var p domain.Project
	var clientID, propertyID, desc, completedAt sql.NullString
	err := row.Scan(&p.ID, &clientID, &propertyID, &p.Name, &p.Status, &desc, &p.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.ClientID = clientID.String
	p.PropertyID = propertyID.String
	p.Description = desc.String
	if completedAt.Valid {
		p.CompletedAt = &completedAt.String
	}
	return p, nil
}

const projectCols = `id,client_id,property_id,name,status,description,created_at,completed_at`

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id=?`, id))
}

func (r Repo) SingleProject(ctx context.Context) (domain.Project, error) {
	projects, err := r.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) == 0 {
		return domain.Project{}, ErrNotFound
	}
	if len(projects) > 1 {
		return domain.Project{}, errors.New("multiple projects exist; specify --project")
	}
	return projects[0], nil
}

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectCols+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		var p domain.Project
		var clientID, propertyID, desc, completedAt sql.NullString
		if err := rows.Scan(&p.ID, &clientID, &propertyID, &p.Name, &p.Status, &desc, &p.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		p.ClientID = clientID.String
		p.PropertyID = propertyID.String
		p.Description = desc.String
		if completedAt.Valid {
			p.CompletedAt = &completedAt.String
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdateProject(ctx context.Context, id, status string, description *string) error {
	if status != "" {
		if _, err := r.DB.ExecContext(ctx, `UPDATE projects SET status=? WHERE id=?`, status, id); err != nil {
			return err
		}
	}
	if description != nil {
		if _, err := r.DB.ExecContext(ctx, `UPDATE projects SET description=? WHERE id=?`, nullable(*description), id); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) CompleteProjectTx(ctx context.Context, tx *sql.Tx, id, completedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE projects SET status='completed', completed_at=? WHERE id=?`, completedAt, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteProject(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	return err
}

// --- project config ---

func (r Repo) GetProjectConfig(ctx context.Context, projectID string) (*config.Config, error) {
	var raw string
	err := r.DB.QueryRowContext(ctx, `SELECT config_yaml FROM project_configs WHERE project_id=?`, projectID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return config.FromYAML([]byte(raw))
}

func (r Repo) UpsertProjectConfig(ctx context.Context, projectID string, cfg *config.Config) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.UpsertProjectConfigTx(ctx, tx, projectID, cfg); err != nil {
		return err
	}
	return tx.Commit()
}

func (r Repo) UpsertProjectConfigTx(ctx context.Context, tx *sql.Tx, projectID string, cfg *config.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO project_configs(project_id,config_yaml,updated_at) VALUES (?,?,?)
ON CONFLICT(project_id) DO UPDATE SET config_yaml=excluded.config_yaml, updated_at=excluded.updated_at`,
		projectID, string(raw), nowRFC3339())
	return err
}

// --- clients ---

func (r Repo) InsertClient(ctx context.Context, c domain.Client) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO clients(id,name,email,phone,created_at) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Email), nullable(c.Phone), c.CreatedAt)
	return err
}

func (r Repo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	var c domain.Client
	var email, phone sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,email,phone,created_at FROM clients WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &email, &phone, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	c.Email = email.String
	c.Phone = phone.String
	return c, err
}

func (r Repo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,email,phone,created_at FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Client
	for rows.Next() {
		var c domain.Client
		var email, phone sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Email = email.String
		c.Phone = phone.String
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM clients WHERE id=?`, id)
	return err
}

// --- properties ---

func (r Repo) InsertProperty(ctx context.Context, p domain.Property) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO properties(id,address_line,suburb,city,postal_code,property_type,created_at) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.AddressLine, nullable(p.Suburb), nullable(p.City), nullable(p.PostalCode), nullable(p.PropertyType), p.CreatedAt)
	return err
}

func (r Repo) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	var p domain.Property
	var suburb, city, postal, ptype sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,address_line,suburb,city,postal_code,property_type,created_at FROM properties WHERE id=?`, id).
		Scan(&p.ID, &p.AddressLine, &suburb, &city, &postal, &ptype, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	p.Suburb = suburb.String
	p.City = city.String
	p.PostalCode = postal.String
	p.PropertyType = ptype.String
	return p, err
}

func (r Repo) ListProperties(ctx context.Context) ([]domain.Property, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,address_line,suburb,city,postal_code,property_type,created_at FROM properties ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Property
	for rows.Next() {
		var p domain.Property
		var suburb, city, postal, ptype sql.NullString
		if err := rows.Scan(&p.ID, &p.AddressLine, &suburb, &city, &postal, &ptype, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Suburb = suburb.String
		p.City = city.String
		p.PostalCode = postal.String
		p.PropertyType = ptype.String
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeleteProperty(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM properties WHERE id=?`, id)
	return err
}
