package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitecheck/internal/config"
	"sitecheck/internal/domain"
	"sitecheck/internal/repo"
)

// ResolveProjectAndConfig picks the active project and ensures a project +
// config exist in DB, seeding defaults if missing. It prefers overrides, then
// single-project DB. If the project does not exist, it is created on the fly.
func ResolveProjectAndConfig(ctx context.Context, workspace, projectOverride string, r repo.Repo) (string, *config.Config, error) {
	projectID := projectOverride
	if projectID == "" {
		if p, err := r.SingleProject(ctx); err == nil {
			projectID = p.ID
		} else {
			return "", nil, fmt.Errorf("project not specified; use --project")
		}
	}

	// a workspace sitecheck.yml overrides whatever is stored
	if fileCfg, err := config.LoadOptional(workspace); err != nil {
		return "", nil, err
	} else if fileCfg != nil {
		fileCfg.Project.ID = projectID
		if err := ensureProject(ctx, r, projectID, fileCfg); err != nil {
			return "", nil, err
		}
		return projectID, fileCfg, nil
	}

	seedCfg := config.Default(projectID)
	if err := ensureProject(ctx, r, projectID, seedCfg); err != nil {
		return "", nil, err
	}
	cfg, err := r.GetProjectConfig(ctx, projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertProjectConfig(ctx, projectID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed project config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Project.ID = projectID
	return projectID, cfg, nil
}

func ensureProject(ctx context.Context, r repo.Repo, projectID string, seedCfg *config.Config) error {
	if _, err := r.GetProject(ctx, projectID); err == nil {
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	p := domain.Project{
		ID:        projectID,
		Name:      projectID,
		Status:    "active",
		CreatedAt: now,
	}
	if err := r.InsertProjectTx(ctx, tx, p); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	if err := r.UpsertProjectConfigTx(ctx, tx, projectID, seedCfg); err != nil {
		return fmt.Errorf("insert project config: %w", err)
	}
	return tx.Commit()
}
