package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sitecheck/internal/app"
	"sitecheck/internal/config"
	"sitecheck/internal/db"
	"sitecheck/internal/domain"
	"sitecheck/internal/engine"
	"sitecheck/internal/migrate"
	"sitecheck/internal/navigator"
	"sitecheck/internal/repo"
	"sitecheck/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "sitecheck",
	Short: "Sitecheck CLI",
	Long: `Sitecheck runs building inspections as guided checklist walk-throughs.
Core concepts:
- Workspace: your .sitecheck directory holding the database; config lives in the DB and is imported explicitly.
- Project: one job (a property, a client) that owns inspections and documents.
- Checklist: an ordered list of sections (exterior, interior, roof, ...) each with expected items.
- Inspection: a single walk-through of a checklist; move with next/back/skip/jump.
- Mode: 'simple' records pass/fail/na checklist items; 'clause_review' records code-clause assessments.
- Findings: free-text observations tied to a section, optionally naming the item they address.
- Documents: project paperwork (consent, title, LIM) whose status gates finalization.
- Finalization: inspections and projects close only when their gates report no blockers (or --force).
- Event log: diary of changes, view with 'sitecheck log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SITECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().Bool("force", false, "force operation")
	rootCmd.PersistentFlags().String("project", "", "project id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(propertyCmd())
	rootCmd.AddCommand(inspectionCmd())
	rootCmd.AddCommand(findingCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(clauseCmd())
	rootCmd.AddCommand(docCmd())
	rootCmd.AddCommand(photoCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectConfigCmd())
	prj.AddCommand(projectCanFinalizeCmd())
	prj.AddCommand(projectFinalizeCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var id, name, desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg := config.Default(id)
			e := engine.New(conn, cfg)
			p, err := e.InitProject(cmd.Context(), id, name, desc, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(p)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project id")
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("project")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Project.ID
				}
				p, err := e.Repo.GetProject(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var status, desc string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update project status or description",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("project")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Project.ID
				}
				if err := e.Repo.UpdateProject(ctx, target, status, optionalString(desc)); err != nil {
					return err
				}
				p, err := e.Repo.GetProject(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status (active|completed|archived)")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteProject(ctx, args[0])
			})
		},
	}
	return cmd
}

func projectConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage project config",
	}
	cfg.AddCommand(projectConfigShowCmd())
	cfg.AddCommand(projectConfigImportCmd())
	return cfg
}

func projectConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show project config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func projectConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import project config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			cfg, err := config.FromYAML(data)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			projectID := cfg.Project.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if projectID == "" {
					projectID = e.Config.Project.ID
				}
				if err := e.Repo.UpsertProjectConfig(ctx, projectID, cfg); err != nil {
					return err
				}
				fmt.Printf("Imported config for project %s\n", projectID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "sitecheck.yml", "config file path")
	return cmd
}

func projectCanFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can-finalize",
		Short: "Check whether the project can be finalized",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("project")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Project.ID
				}
				gate, err := e.CanFinalizeProject(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(gate)
			})
		},
	}
	return cmd
}

func projectFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Finalize the project (use --force to override blockers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("project")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Project.ID
				}
				p, err := e.FinalizeProject(ctx, target, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect project config",
		Long:  "Config is the rulebook (stored in DB): checklist templates, clause catalog, document catalog, and the thresholds that decide when an inspection may be finalized. Import from sitecheck.yml if desired.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stored config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func statusCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show project status",
		Long:  "See the scoreboard for your project: inspections by status and the document gate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				projectID = strings.TrimSpace(projectID)
				if projectID == "" {
					projectID = e.Config.Project.ID
				}
				p, err := e.Repo.GetProject(ctx, projectID)
				if err != nil {
					return err
				}
				inspections, err := e.Repo.ListInspections(ctx, projectID)
				if err != nil {
					return err
				}
				counts := map[string]int{}
				for _, in := range inspections {
					counts[in.Status]++
				}
				docs, err := e.DocumentSummary(ctx, projectID)
				if err != nil {
					return err
				}
				out := map[string]any{
					"project_id":        p.ID,
					"status":            p.Status,
					"inspection_counts": counts,
					"documents":         docs,
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("Project: %s (%s)\n", p.ID, p.Status)
				fmt.Println("Inspections:")
				for status, c := range counts {
					fmt.Printf("  %s: %d\n", status, c)
				}
				fmt.Printf("Documents: %d%% resolved (%d of %d)\n", docs.CompletionPercentage, docs.Resolved, docs.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project-id", "", "project id")
	return cmd
}

func clientCmd() *cobra.Command {
	c := &cobra.Command{Use: "client", Short: "Manage clients"}
	c.AddCommand(clientCreateCmd())
	c.AddCommand(clientListCmd())
	c.AddCommand(clientShowCmd())
	c.AddCommand(clientDeleteCmd())
	return c
}

func clientCreateCmd() *cobra.Command {
	var name, email, phone string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				c := domain.Client{
					ID:        uuid.New().String(),
					Name:      name,
					Email:     email,
					Phone:     phone,
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertClient(ctx, c); err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client name")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func clientListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListClients(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func clientShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				c, err := r.GetClient(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func clientDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteClient(ctx, args[0])
			})
		},
	}
	return cmd
}

func propertyCmd() *cobra.Command {
	p := &cobra.Command{Use: "property", Short: "Manage properties"}
	p.AddCommand(propertyCreateCmd())
	p.AddCommand(propertyListCmd())
	p.AddCommand(propertyShowCmd())
	p.AddCommand(propertyDeleteCmd())
	return p
}

func propertyCreateCmd() *cobra.Command {
	var address, suburb, city, postal, ptype string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create property",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p := domain.Property{
					ID:           uuid.New().String(),
					AddressLine:  address,
					Suburb:       suburb,
					City:         city,
					PostalCode:   postal,
					PropertyType: ptype,
					CreatedAt:    time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertProperty(ctx, p); err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "address line")
	cmd.Flags().StringVar(&suburb, "suburb", "", "suburb")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&postal, "postal-code", "", "postal code")
	cmd.Flags().StringVar(&ptype, "type", "", "property type")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func propertyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProperties(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func propertyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProperty(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func propertyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteProperty(ctx, args[0])
			})
		},
	}
	return cmd
}

func inspectionCmd() *cobra.Command {
	in := &cobra.Command{Use: "inspection", Short: "Run inspections"}
	in.AddCommand(inspectionStartCmd())
	in.AddCommand(inspectionListCmd())
	in.AddCommand(inspectionShowCmd())
	in.AddCommand(inspectionNavigateCmd("next", "Advance to the next section", navigator.ActionNext))
	in.AddCommand(inspectionNavigateCmd("back", "Return to the previous section", navigator.ActionBack))
	in.AddCommand(inspectionNavigateCmd("skip", "Skip the current section", navigator.ActionSkip))
	in.AddCommand(inspectionJumpCmd())
	in.AddCommand(inspectionStatusCmd())
	in.AddCommand(inspectionSuggestCmd())
	in.AddCommand(inspectionSummaryCmd())
	in.AddCommand(inspectionCanFinalizeCmd())
	in.AddCommand(inspectionFinalizeCmd())
	in.AddCommand(inspectionDeleteCmd())
	return in
}

func inspectionStartCmd() *cobra.Command {
	var id, checklistID, mode string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.StartInspection(ctx, engine.StartInspectionOptions{
					ID:          id,
					ProjectID:   e.Config.Project.ID,
					ChecklistID: checklistID,
					Mode:        mode,
					ActorID:     viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "inspection id (generated when empty)")
	cmd.Flags().StringVar(&checklistID, "checklist", "residential-standard", "checklist id")
	cmd.Flags().StringVar(&mode, "mode", "simple", "mode (simple|clause_review)")
	return cmd
}

func inspectionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inspections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				inspections, err := e.Repo.ListInspections(ctx, e.Config.Project.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(inspections)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Checklist", "Mode", "Section", "Status"})
				for _, in := range inspections {
					section := ""
					if in.CurrentSection != nil {
						section = *in.CurrentSection
					}
					tw.AppendRow(table.Row{in.ID, in.ChecklistID, in.Mode, section, in.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func inspectionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.Repo.GetInspection(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	return cmd
}

func inspectionNavigateCmd(use, short string, action navigator.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <inspection-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Navigate(ctx, args[0], action, "", viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	return cmd
}

func inspectionJumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jump <inspection-id> <section-id>",
		Short: "Jump to a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Navigate(ctx, args[0], navigator.ActionJump, args[1], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	return cmd
}

func inspectionStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show sections and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				st, err := e.Status(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Section", "Name", "Status", "Findings"})
				for _, s := range st.Sections {
					tw.AppendRow(table.Row{s.ID, s.Name, s.Status, s.FindingsCount})
				}
				tw.Render()
				fmt.Printf("Progress: %d of %d sections (%d%%)\n",
					st.Progress.Completed, st.Progress.Total, st.Progress.Percentage)
				return nil
			})
		},
	}
	return cmd
}

func inspectionSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <id>",
		Short: "Suggest items still to check in the current section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Suggest(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func inspectionSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <id>",
		Short: "Show the mode-specific roll-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sum, err := e.Summary(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(sum)
			})
		},
	}
	return cmd
}

func inspectionCanFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "can-finalize <id>",
		Short: "Check the finalization gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				gate, err := e.CanFinalize(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(gate)
			})
		},
	}
	return cmd
}

func inspectionFinalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalize <id>",
		Short: "Finalize an inspection (use --force to override blockers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				in, err := e.FinalizeInspection(ctx, args[0], viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(in)
			})
		},
	}
	return cmd
}

func inspectionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteInspection(ctx, args[0])
			})
		},
	}
	return cmd
}

func findingCmd() *cobra.Command {
	f := &cobra.Command{Use: "finding", Short: "Record observations"}
	f.AddCommand(findingAddCmd())
	f.AddCommand(findingListCmd())
	return f
}

func findingAddCmd() *cobra.Command {
	var section, note, itemLabel string
	cmd := &cobra.Command{
		Use:   "add <inspection-id>",
		Short: "Record a finding against a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f, err := e.RecordFinding(ctx, engine.FindingOptions{
					InspectionID: args[0],
					SectionID:    section,
					Note:         note,
					ItemLabel:    itemLabel,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(f)
			})
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "section id (defaults to current)")
	cmd.Flags().StringVar(&note, "note", "", "observation text")
	cmd.Flags().StringVar(&itemLabel, "item", "", "checklist item label this addresses")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func findingListCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "list <inspection-id>",
		Short: "List findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListFindings(ctx, args[0], section)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().StringVar(&section, "section", "", "section filter")
	return cmd
}

func itemCmd() *cobra.Command {
	it := &cobra.Command{Use: "item", Short: "Record checklist item decisions (simple mode)"}
	it.AddCommand(itemRecordCmd())
	it.AddCommand(itemListCmd())
	it.AddCommand(itemUpdateCmd())
	it.AddCommand(itemDeleteCmd())
	return it
}

func itemRecordCmd() *cobra.Command {
	var category, label, decision, notes string
	var sortOrder int
	cmd := &cobra.Command{
		Use:   "record <inspection-id>",
		Short: "Record a pass/fail/na decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.RecordChecklistItem(ctx, engine.ChecklistItemOptions{
					InspectionID: args[0],
					Category:     category,
					Label:        label,
					Decision:     decision,
					Notes:        notes,
					SortOrder:    sortOrder,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "item category (section)")
	cmd.Flags().StringVar(&label, "label", "", "item label")
	cmd.Flags().StringVar(&decision, "decision", "", "decision (pass|fail|na)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "sort order")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func itemListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <inspection-id>",
		Short: "List checklist items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListChecklistItems(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func itemUpdateCmd() *cobra.Command {
	var decision, notes string
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Update a checklist item decision or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.UpdateChecklistItem(ctx, args[0], optionalString(decision), optionalString(notes), viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "decision (pass|fail|na)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func itemDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete a checklist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteChecklistItem(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func clauseCmd() *cobra.Command {
	c := &cobra.Command{Use: "clause", Short: "Record clause reviews (clause_review mode)"}
	c.AddCommand(clauseRecordCmd())
	c.AddCommand(clauseListCmd())
	c.AddCommand(clauseUpdateCmd())
	c.AddCommand(clauseDeleteCmd())
	return c
}

func clauseRecordCmd() *cobra.Command {
	var code, applicability, naReason, observations, remedial string
	var docIDs []string
	cmd := &cobra.Command{
		Use:   "record <inspection-id>",
		Short: "Record a code-clause assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cr, err := e.RecordClauseReview(ctx, engine.ClauseReviewOptions{
					InspectionID:  args[0],
					ClauseCode:    code,
					Applicability: applicability,
					NAReason:      naReason,
					Observations:  observations,
					RemedialWorks: remedial,
					DocumentIDs:   docIDs,
					ActorID:       viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(cr)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "clause code (e.g. B1, E2)")
	cmd.Flags().StringVar(&applicability, "applicability", "", "applicable|not_applicable")
	cmd.Flags().StringVar(&naReason, "na-reason", "", "reason when not applicable")
	cmd.Flags().StringVar(&observations, "observations", "", "observations")
	cmd.Flags().StringVar(&remedial, "remedial-works", "", "remedial works required")
	cmd.Flags().StringArrayVar(&docIDs, "document-id", []string{}, "linked document id (repeatable)")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func clauseListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <inspection-id>",
		Short: "List clause reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListClauseReviews(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func clauseUpdateCmd() *cobra.Command {
	var applicability, naReason, observations, remedial string
	var docIDs []string
	cmd := &cobra.Command{
		Use:   "update <clause-review-id>",
		Short: "Update a clause review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cr, err := e.UpdateClauseReview(ctx, args[0], engine.ClauseReviewUpdate{
					Applicability: optionalString(applicability),
					NAReason:      optionalString(naReason),
					Observations:  optionalString(observations),
					RemedialWorks: optionalString(remedial),
					DocumentIDs:   docIDs,
				}, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(cr)
			})
		},
	}
	cmd.Flags().StringVar(&applicability, "applicability", "", "applicable|not_applicable")
	cmd.Flags().StringVar(&naReason, "na-reason", "", "reason when not applicable")
	cmd.Flags().StringVar(&observations, "observations", "", "observations")
	cmd.Flags().StringVar(&remedial, "remedial-works", "", "remedial works required")
	cmd.Flags().StringArrayVar(&docIDs, "document-id", []string{}, "linked document id (repeatable)")
	return cmd
}

func clauseDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <clause-review-id>",
		Short: "Delete a clause review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteClauseReview(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func docCmd() *cobra.Command {
	d := &cobra.Command{Use: "doc", Short: "Track project documents"}
	d.AddCommand(docAddCmd())
	d.AddCommand(docListCmd())
	d.AddCommand(docUpdateCmd())
	d.AddCommand(docDeleteCmd())
	d.AddCommand(docSummaryCmd())
	return d
}

func docAddCmd() *cobra.Command {
	var docType, desc, status string
	var clauseCodes []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a document to the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.AddDocument(ctx, engine.DocumentOptions{
					ProjectID:         e.Config.Project.ID,
					Type:              docType,
					Description:       desc,
					Status:            status,
					LinkedClauseCodes: clauseCodes,
					ActorID:           viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "document type (e.g. consent, title, lim)")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "status (required|received|outstanding|na)")
	cmd.Flags().StringArrayVar(&clauseCodes, "clause", []string{}, "linked clause code (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func docListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List project documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				docs, err := e.Repo.ListDocuments(ctx, e.Config.Project.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(docs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Status", "Verified", "Description"})
				for _, d := range docs {
					tw.AppendRow(table.Row{d.ID, d.Type, d.Status, d.Verified, d.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func docUpdateCmd() *cobra.Command {
	var status, desc string
	var verified bool
	cmd := &cobra.Command{
		Use:   "update <document-id>",
		Short: "Update a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				upd := engine.DocumentUpdate{
					Status:      optionalString(status),
					Description: optionalString(desc),
				}
				if cmd.Flags().Changed("verified") {
					upd.Verified = &verified
				}
				d, err := e.UpdateDocument(ctx, args[0], upd, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status (required|received|outstanding|na)")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().BoolVar(&verified, "verified", false, "mark verified")
	return cmd
}

func docDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteDocument(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func docSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the document completion roll-up",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sum, err := e.DocumentSummary(ctx, e.Config.Project.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(sum)
			})
		},
	}
	return cmd
}

func photoCmd() *cobra.Command {
	p := &cobra.Command{Use: "photo", Short: "Attach photo references"}
	p.AddCommand(photoAttachCmd())
	p.AddCommand(photoListCmd())
	p.AddCommand(photoDeleteCmd())
	return p
}

func photoAttachCmd() *cobra.Command {
	var itemID, caption, objectKey string
	cmd := &cobra.Command{
		Use:   "attach <inspection-id>",
		Short: "Attach a stored-object reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.AttachPhoto(ctx, engine.PhotoOptions{
					InspectionID: args[0],
					ItemID:       itemID,
					Caption:      caption,
					ObjectKey:    objectKey,
					ActorID:      viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item-id", "", "checklist item or clause review id")
	cmd.Flags().StringVar(&caption, "caption", "", "caption")
	cmd.Flags().StringVar(&objectKey, "object-key", "", "storage object key")
	_ = cmd.MarkFlagRequired("object-key")
	return cmd
}

func photoListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <inspection-id>",
		Short: "List photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListPhotos(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func photoDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Delete a photo reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeletePhoto(ctx, args[0])
			})
		},
	}
	return cmd
}

func apikeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	k.AddCommand(apikeyCreateCmd())
	k.AddCommand(apikeyListCmd())
	k.AddCommand(apikeyDeleteCmd())
	return k
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (the raw key is printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw := uuid.NewString() + uuid.NewString()
				key := domain.APIKey{
					ID:        uuid.New().String(),
					ActorID:   viper.GetString("actor-id"),
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: time.Now().UTC().Format(time.RFC3339),
				}
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"id":       key.ID,
					"actor_id": key.ActorID,
					"name":     key.Name,
					"key":      raw,
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				for i := range keys {
					keys[i].KeyHash = ""
				}
				return printJSONOrTable(keys)
			})
		},
	}
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, e.Config.Project.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			_, cfg, err := app.ResolveProjectAndConfig(cmd.Context(), workspace, viper.GetString("project"), r)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("SITECHECK_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("SITECHECK_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Sitecheck API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveProjectAndConfig(ctx, workspace, viper.GetString("project"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
