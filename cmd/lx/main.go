package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lexline/internal/config"
	"lexline/internal/db"
	"lexline/internal/domain"
	"lexline/internal/engine"
	"lexline/internal/migrate"
	"lexline/internal/monitor"
	"lexline/internal/repo"
	"lexline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "lx",
	Short: "Lexline CLI",
	Long: `Lexline tracks a law firm's case workflows in one place.
Case types and their lifecycles:
- Executions: enforcement cases walking draft -> registered -> in_progress -> pending_closure -> closed, with urgent_review when a statutory response deadline slips and suspended as a parking state.
- Estates: liquidation cases; an estate closes only when every asset is completed, and an asset completes only when every linked task is closed.
- Intake: potential clients walking six stages toward signing; stages only advance, and signing happens only at stage six.
- Assignments: department work that ends done or incomplete.
- Tasks: operational work items; a result is required to complete, and approval-gated tasks pass through a reviewer.
- Pipeline: business-development proposals walking the stages from first review to follow-up; the reviewer gate archives, the assignee gate cycles back.
- Projects: engagements; an unsigned contract carries a follow-up obligation until the contract number arrives.
Every transition is recorded in an append-only activity log ('lx log list').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initViper)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initViper() {
	viper.SetEnvPrefix("LEXLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(executionCmd())
	rootCmd.AddCommand(estateCmd())
	rootCmd.AddCommand(intakeCmd())
	rootCmd.AddCommand(assignmentCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(pipelineCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var firmID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace with a default lexline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if firmID == "" {
				firmID = "default-firm"
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(firmID)), 0o644); err != nil {
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
			fmt.Printf("Initialized workspace: %s, database: %s\n", path, db.Path(workspace))
			return nil
		},
	}
	cmd.Flags().StringVar(&firmID, "firm", "", "firm identifier")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Workload overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts, err := e.Repo.CountExecutionsByStatus(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"firm_id":    e.Config.Firm.ID,
					"executions": counts,
				})
			})
		},
	}
}

func executionCmd() *cobra.Command {
	exe := &cobra.Command{Use: "execution", Short: "Manage execution requests"}
	exe.AddCommand(executionCreateCmd())
	exe.AddCommand(executionListCmd())
	exe.AddCommand(executionShowCmd())
	exe.AddCommand(executionEventCmd("register", "Register a draft execution", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.RegisterExecution(ctx, id, actorID())
	}))
	exe.AddCommand(executionDecisionCmd())
	exe.AddCommand(executionCollectCmd())
	exe.AddCommand(executionSuspendCmd())
	exe.AddCommand(executionEventCmd("reactivate", "Reactivate a suspended execution", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.ReactivateExecution(ctx, id, actorID())
	}))
	exe.AddCommand(executionEventCmd("complete", "Mark a direct or personal execution ready to close", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.CompleteExecution(ctx, id, actorID())
	}))
	exe.AddCommand(executionCloseCmd())
	exe.AddCommand(executionScanCmd())
	return exe
}

func executionCreateCmd() *cobra.Command {
	var (
		clientID, clientName, contact, opponent, typ    string
		court, circuit, submissionDate, auditStatus, id string
		claim                                           float64
		draft                                           bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "File an execution request",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				opts := engine.ExecutionCreateOptions{
					ID:             id,
					ClientID:       clientID,
					ClientName:     clientName,
					ContactNumber:  contact,
					OpponentName:   opponent,
					Type:           typ,
					CourtName:      court,
					CircuitName:    circuit,
					SubmissionDate: submissionDate,
					AuditStatus:    auditStatus,
					Draft:          draft,
					ActorID:        actorID(),
				}
				if cmd.Flags().Changed("claim") {
					opts.ClaimAmount = &claim
				}
				req, err := e.CreateExecution(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "execution id (generated when empty)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "client identifier")
	cmd.Flags().StringVar(&clientName, "client-name", "", "client name")
	cmd.Flags().StringVar(&contact, "contact", "", "client contact number")
	cmd.Flags().StringVar(&opponent, "opponent", "", "opponent name")
	cmd.Flags().StringVar(&typ, "type", "financial", "execution type (financial|direct|personal)")
	cmd.Flags().Float64Var(&claim, "claim", 0, "claim amount (financial only)")
	cmd.Flags().StringVar(&court, "court", "", "court name")
	cmd.Flags().StringVar(&circuit, "circuit", "", "circuit name")
	cmd.Flags().StringVar(&submissionDate, "submitted", "", "submission date (RFC3339, defaults to now)")
	cmd.Flags().StringVar(&auditStatus, "audit", "complete", "audit status (complete|incomplete)")
	cmd.Flags().BoolVar(&draft, "draft", false, "file as draft")
	return cmd
}

func executionListCmd() *cobra.Command {
	var status, typ, client string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List execution requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListExecutions(ctx, repo.ExecutionFilters{Status: status, Type: typ, Client: client, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Client", "Opponent", "Type", "Status", "Collected", "Submitted"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.ClientName, x.OpponentName, x.Type, x.Status, fmt.Sprintf("%.2f", x.TotalCollected()), x.SubmissionDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&typ, "type", "", "filter by type")
	cmd.Flags().StringVar(&client, "client", "", "filter by client id")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func executionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an execution request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				req, err := r.GetExecution(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
}

func executionEventCmd(use, short string, apply func(engine.Engine, context.Context, string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				out, err := apply(e, ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
}

func executionDecisionCmd() *cobra.Command {
	var typ, customType, date string
	cmd := &cobra.Command{
		Use:   "decision <id>",
		Short: "Record a judicial decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				req, err := e.AddDecision(ctx, args[0], typ, customType, date, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "decision type (34|46|other)")
	cmd.Flags().StringVar(&customType, "custom-type", "", "custom decision label (type=other)")
	cmd.Flags().StringVar(&date, "date", "", "decision date (RFC3339, defaults to now)")
	return cmd
}

func executionCollectCmd() *cobra.Command {
	var amount float64
	var date, method, reference string
	cmd := &cobra.Command{
		Use:   "collect <id>",
		Short: "Record a collected amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				req, err := e.AddCollection(ctx, args[0], amount, date, method, reference, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "collected amount")
	cmd.Flags().StringVar(&date, "date", "", "collection date (RFC3339, defaults to now)")
	cmd.Flags().StringVar(&method, "method", "", "collection method")
	cmd.Flags().StringVar(&reference, "reference", "", "payment reference")
	return cmd
}

func executionSuspendCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "suspend <id>",
		Short: "Suspend an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				req, err := e.SuspendExecution(ctx, args[0], note, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "suspension note")
	return cmd
}

func executionCloseCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an execution awaiting closure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				req, err := e.CloseExecution(ctx, args[0], reason, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(req)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "closing reason")
	return cmd
}

func executionScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a deadline escalation sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				escalated, err := e.EscalateOverdue(ctx, actorID())
				if err != nil {
					return err
				}
				if escalated == nil {
					escalated = []string{}
				}
				return printJSONOrTable(map[string]any{"escalated": escalated})
			})
		},
	}
}

func estateCmd() *cobra.Command {
	est := &cobra.Command{Use: "estate", Short: "Manage estate liquidations"}
	est.AddCommand(estateCreateCmd())
	est.AddCommand(estateListCmd())
	est.AddCommand(estateShowCmd())
	est.AddCommand(estateAssetAddCmd())
	est.AddCommand(estateTaskCloseCmd())
	est.AddCommand(estateCloseCmd())
	return est
}

// parseHeir reads "name|identity_no|iban[|phone[|birth_date]]".
func parseHeir(spec string) (domain.Heir, error) {
	parts := strings.Split(spec, "|")
	if len(parts) < 3 {
		return domain.Heir{}, fmt.Errorf("heir %q: want name|identity_no|iban[|phone[|birth_date]]", spec)
	}
	h := domain.Heir{Name: parts[0], IdentityNo: parts[1], IBAN: parts[2]}
	if len(parts) > 3 {
		h.Phone = parts[3]
	}
	if len(parts) > 4 {
		h.BirthDate = parts[4]
	}
	return h, nil
}

func estateCreateCmd() *cobra.Command {
	var deceased, method, id string
	var heirSpecs []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an estate liquidation case",
		RunE: func(cmd *cobra.Command, args []string) error {
			heirs := make([]domain.Heir, 0, len(heirSpecs))
			for _, spec := range heirSpecs {
				h, err := parseHeir(spec)
				if err != nil {
					return err
				}
				heirs = append(heirs, h)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				est, err := e.CreateEstate(ctx, engine.EstateCreateOptions{
					ID:           id,
					DeceasedName: deceased,
					Method:       method,
					Heirs:        heirs,
					ActorID:      actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(est)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "estate id (generated when empty)")
	cmd.Flags().StringVar(&deceased, "deceased", "", "deceased person's name")
	cmd.Flags().StringVar(&method, "method", "", "method (entrustment_center|court_assignment|direct_client)")
	cmd.Flags().StringArrayVar(&heirSpecs, "heir", nil, "heir as name|identity_no|iban[|phone[|birth_date]] (repeatable)")
	return cmd
}

func estateListCmd() *cobra.Command {
	var status, method string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List estates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListEstates(ctx, repo.EstateFilters{Status: status, Method: method, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Deceased", "Method", "Status", "Heirs", "Assets"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.DeceasedName, x.Method, x.Status, len(x.Heirs), len(x.Assets)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&method, "method", "", "filter by method")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func estateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an estate with heirs, assets and linked tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				est, err := r.GetEstate(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(est)
			})
		},
	}
}

func estateAssetAddCmd() *cobra.Command {
	var typ, name, details string
	var ownership float64
	var requirements []string
	cmd := &cobra.Command{
		Use:   "asset-add <estate-id>",
		Short: "Register an asset under liquidation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				asset, err := e.AddEstateAsset(ctx, engine.AssetCreateOptions{
					EstateID:         args[0],
					Type:             typ,
					Name:             name,
					OwnershipPercent: ownership,
					DetailsJSON:      details,
					Requirements:     requirements,
					ActorID:          actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(asset)
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "asset type (real_estate|investment|bank_funds|other)")
	cmd.Flags().StringVar(&name, "name", "", "asset name")
	cmd.Flags().Float64Var(&ownership, "ownership", 100, "deceased's ownership percentage")
	cmd.Flags().StringVar(&details, "details", "", "asset details JSON")
	cmd.Flags().StringArrayVar(&requirements, "requirement", nil, "liquidation requirement (repeatable)")
	return cmd
}

func estateTaskCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "task-close <task-id>",
		Short: "Close a liquidation task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CloseLiquidationTask(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func estateCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close an estate once every asset is completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				est, err := e.CloseEstate(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(est)
			})
		},
	}
}

func intakeCmd() *cobra.Command {
	in := &cobra.Command{Use: "intake", Short: "Manage client-intake assignments"}
	in.AddCommand(intakeCreateCmd())
	in.AddCommand(intakeListCmd())
	in.AddCommand(intakeShowCmd())
	in.AddCommand(intakeAcceptCmd())
	in.AddCommand(intakeAdvanceCmd())
	in.AddCommand(intakeMissingInfoCmd())
	in.AddCommand(intakeCloseCmd())
	return in
}

func intakeCreateCmd() *cobra.Command {
	var department, clientName, clientPhone, subject, nextStep, deadline, id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a client-intake assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateIntake(ctx, engine.IntakeCreateOptions{
					ID:           id,
					Department:   department,
					ClientName:   clientName,
					ClientPhone:  clientPhone,
					Subject:      subject,
					NextStep:     nextStep,
					DeadlineDate: deadline,
					ActorID:      actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "assignment id (generated when empty)")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&clientName, "client-name", "", "potential client name")
	cmd.Flags().StringVar(&clientPhone, "client-phone", "", "potential client phone")
	cmd.Flags().StringVar(&subject, "subject", "", "engagement subject")
	cmd.Flags().StringVar(&nextStep, "next-step", "", "next step description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339)")
	return cmd
}

func intakeListCmd() *cobra.Command {
	var department, status, employee string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List intake assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListIntakes(ctx, repo.IntakeFilters{Department: department, Status: status, Employee: employee, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Department", "Client", "Stage", "Status"})
				for _, x := range items {
					stage := fmt.Sprintf("%d/%d %s", x.CurrentStage, domain.IntakeStageCount, domain.IntakeStageLabels[x.CurrentStage])
					tw.AppendRow(table.Row{x.ID, x.Department, x.ClientName, stage, x.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "filter by department")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&employee, "employee", "", "filter by employee")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func intakeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an intake assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				a, err := r.GetIntake(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func intakeAcceptCmd() *cobra.Command {
	var employee string
	cmd := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept an intake assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AcceptIntake(ctx, args[0], employee, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "employee taking the assignment")
	return cmd
}

func intakeAdvanceCmd() *cobra.Command {
	var nextStep, deadline string
	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Advance an intake assignment one stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AdvanceIntake(ctx, args[0], nextStep, deadline, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&nextStep, "next-step", "", "next step description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339)")
	return cmd
}

func intakeMissingInfoCmd() *cobra.Command {
	var missing string
	cmd := &cobra.Command{
		Use:   "missing-info <id>",
		Short: "Park an intake assignment on missing information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.IntakeMissingInfo(ctx, args[0], missing, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&missing, "info", "", "what information is missing")
	return cmd
}

func intakeCloseCmd() *cobra.Command {
	var result, contractID, reason string
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close an intake assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CloseIntake(ctx, args[0], engine.IntakeOutcome{
					Result:          result,
					ContractID:      contractID,
					RejectionReason: reason,
					ActorID:         actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "outcome (signed|rejected|expired)")
	cmd.Flags().StringVar(&contractID, "contract", "", "contract id (signed outcome)")
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (rejected outcome)")
	return cmd
}

func assignmentCmd() *cobra.Command {
	asg := &cobra.Command{Use: "assignment", Short: "Manage department assignments"}
	asg.AddCommand(assignmentCreateCmd())
	asg.AddCommand(assignmentListCmd())
	asg.AddCommand(assignmentShowCmd())
	asg.AddCommand(assignmentAcceptCmd())
	asg.AddCommand(assignmentMissingInfoCmd())
	asg.AddCommand(assignmentResumeCmd())
	asg.AddCommand(assignmentCloseCmd())
	return asg
}

func assignmentCreateCmd() *cobra.Command {
	var department, contractRef, clientRef, taskType, subject, nextStep, deadline, id string
	var weight int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Hand work to a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CreateDept(ctx, engine.DeptCreateOptions{
					ID:           id,
					Department:   department,
					ContractRef:  contractRef,
					ClientRef:    clientRef,
					TaskType:     taskType,
					Weight:       weight,
					Subject:      subject,
					NextStep:     nextStep,
					DeadlineDate: deadline,
					ActorID:      actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "assignment id (generated when empty)")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&contractRef, "contract", "", "contract reference")
	cmd.Flags().StringVar(&clientRef, "client", "", "client reference")
	cmd.Flags().StringVar(&taskType, "type", "", "task type (review|study|other)")
	cmd.Flags().IntVar(&weight, "weight", 1, "assignment weight")
	cmd.Flags().StringVar(&subject, "subject", "", "assignment subject")
	cmd.Flags().StringVar(&nextStep, "next-step", "", "next step description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339)")
	return cmd
}

func assignmentListCmd() *cobra.Command {
	var department, status, employee string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List department assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListDepts(ctx, repo.DeptFilters{Department: department, Status: status, Employee: employee, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Department", "Type", "Subject", "Status"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.Department, x.TaskType, x.Subject, x.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "filter by department")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&employee, "employee", "", "filter by employee")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func assignmentShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a department assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				a, err := r.GetDept(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func assignmentAcceptCmd() *cobra.Command {
	var employee string
	cmd := &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a department assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.AcceptDept(ctx, args[0], employee, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "employee taking the assignment")
	return cmd
}

func assignmentMissingInfoCmd() *cobra.Command {
	var missing string
	cmd := &cobra.Command{
		Use:   "missing-info <id>",
		Short: "Park a department assignment on missing information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.DeptMissingInfo(ctx, args[0], missing, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&missing, "info", "", "what information is missing")
	return cmd
}

func assignmentResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a parked department assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.ResumeDept(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func assignmentCloseCmd() *cobra.Command {
	var result, reason string
	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Close a department assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.CloseDept(ctx, args[0], result, reason, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "outcome (done|incomplete)")
	cmd.Flags().StringVar(&reason, "reason", "", "incomplete reason")
	return cmd
}

func taskCmd() *cobra.Command {
	tsk := &cobra.Command{Use: "task", Short: "Manage operational tasks"}
	tsk.AddCommand(taskCreateCmd())
	tsk.AddCommand(taskListCmd())
	tsk.AddCommand(taskShowCmd())
	tsk.AddCommand(taskStatusCmd())
	tsk.AddCommand(taskCompleteCmd())
	tsk.AddCommand(taskApproveCmd())
	tsk.AddCommand(taskReturnCmd())
	return tsk
}

func taskCreateCmd() *cobra.Command {
	var name, origin, refID, refLabel, executor, reviewer, nextStep, nextStepDate, id string
	var load int
	var requiresApproval bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operational task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					ID:               id,
					Name:             name,
					Origin:           origin,
					ReferenceID:      refID,
					ReferenceLabel:   refLabel,
					ExecutorID:       executor,
					ReviewerID:       reviewer,
					Load:             load,
					NextStep:         nextStep,
					NextStepDate:     nextStepDate,
					RequiresApproval: requiresApproval,
					ActorID:          actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "task id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&origin, "origin", "", "origin (assignments|cases|execution|projects|liquidation|contracts)")
	cmd.Flags().StringVar(&refID, "ref", "", "referenced entity id")
	cmd.Flags().StringVar(&refLabel, "ref-label", "", "referenced entity label")
	cmd.Flags().StringVar(&executor, "executor", "", "executor id")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "reviewer id (approval-gated tasks)")
	cmd.Flags().IntVar(&load, "load", 1, "task load")
	cmd.Flags().StringVar(&nextStep, "next-step", "", "next step description")
	cmd.Flags().StringVar(&nextStepDate, "next-step-date", "", "next step date (RFC3339)")
	cmd.Flags().BoolVar(&requiresApproval, "requires-approval", false, "route completion through a reviewer")
	return cmd
}

func taskListCmd() *cobra.Command {
	var status, origin, executor string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operational tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListTasks(ctx, repo.TaskFilters{Status: status, Origin: origin, Executor: executor, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Origin", "Executor", "Status"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.Name, x.Origin, x.ExecutorID, x.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&origin, "origin", "", "filter by origin")
	cmd.Flags().StringVar(&executor, "executor", "", "filter by executor")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskStatusCmd() *cobra.Command {
	var nextStep, nextStepDate string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task between working statuses",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.SetTaskStatus(ctx, args[0], args[1], nextStep, nextStepDate, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&nextStep, "next-step", "", "next step description")
	cmd.Flags().StringVar(&nextStepDate, "next-step-date", "", "next step date (RFC3339)")
	return cmd
}

func taskCompleteCmd() *cobra.Command {
	var result string
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a task with its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CompleteTask(ctx, args[0], result, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "task result")
	return cmd
}

func taskApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.ApproveTask(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskReturnCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "return <id>",
		Short: "Return a completed task to its executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.ReturnTask(ctx, args[0], note, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "what needs rework")
	return cmd
}

func pipelineCmd() *cobra.Command {
	pl := &cobra.Command{Use: "pipeline", Short: "Manage the project pipeline"}
	pl.AddCommand(pipelineCreateCmd())
	pl.AddCommand(pipelineListCmd())
	pl.AddCommand(pipelineShowCmd())
	pl.AddCommand(pipelineReviewCmd())
	pl.AddCommand(pipelineAssigneeCmd())
	pl.AddCommand(pipelineEventCmd("escalate", "Escalate past the assignee gate", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.EscalatePipelineItem(ctx, id, actorID())
	}))
	pl.AddCommand(pipelineEventCmd("advance", "Advance to the next proposal stage", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.AdvancePipelineItem(ctx, id, actorID())
	}))
	pl.AddCommand(pipelineEventCmd("archive", "Archive an item from follow-up", func(e engine.Engine, ctx context.Context, id string) (any, error) {
		return e.ArchivePipelineItem(ctx, id, actorID())
	}))
	return pl
}

func pipelineCreateCmd() *cobra.Command {
	var name, entity, proposalDate, reviewer, id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Propose a business-development opportunity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePipelineItem(ctx, engine.PipelineCreateOptions{
					ID:           id,
					Name:         name,
					Entity:       entity,
					ProposalDate: proposalDate,
					ReviewerID:   reviewer,
					ActorID:      actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "item id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "opportunity name")
	cmd.Flags().StringVar(&entity, "entity", "", "target entity")
	cmd.Flags().StringVar(&proposalDate, "proposed", "", "proposal date (RFC3339, defaults to now)")
	cmd.Flags().StringVar(&reviewer, "reviewer", "", "reviewer id")
	return cmd
}

func pipelineListCmd() *cobra.Command {
	var status, stage string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipeline items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListPipelineItems(ctx, repo.PipelineFilters{Status: status, Stage: stage, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Entity", "Stage", "Status"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.Name, x.Entity, x.CurrentStage, x.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&stage, "stage", "", "filter by stage")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func pipelineShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a pipeline item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetPipelineItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func pipelineReviewCmd() *cobra.Command {
	var opinion, assigneeType, assignee string
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Record the reviewer's gate decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.ReviewerDecision(ctx, args[0], opinion, assigneeType, assignee, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opinion, "opinion", "", "accept or reject")
	cmd.Flags().StringVar(&assigneeType, "assignee-type", "", "dept or emp (accept)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee id (accept)")
	return cmd
}

func pipelineAssigneeCmd() *cobra.Command {
	var opinion, reason string
	cmd := &cobra.Command{
		Use:   "decide <id>",
		Short: "Record the assignee's gate decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.AssigneeDecision(ctx, args[0], opinion, reason, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opinion, "opinion", "", "accept or reject")
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (reject)")
	return cmd
}

func pipelineEventCmd(use, short string, apply func(engine.Engine, context.Context, string) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				out, err := apply(e, ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage engagements"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectContractCmd())
	prj.AddCommand(projectCloseCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var name, manager, clientName, contractStatus, contractNo, id string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreateProject(ctx, engine.ProjectCreateOptions{
					ID:             id,
					Name:           name,
					ManagerID:      manager,
					ClientName:     clientName,
					ContractStatus: contractStatus,
					ContractNo:     contractNo,
					ActorID:        actorID(),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&manager, "manager", "", "manager id")
	cmd.Flags().StringVar(&clientName, "client-name", "", "client name")
	cmd.Flags().StringVar(&contractStatus, "contract-status", "", "signed or not_signed")
	cmd.Flags().StringVar(&contractNo, "contract-no", "", "contract number (signed)")
	return cmd
}

func projectListCmd() *cobra.Command {
	var status, followUp string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List engagements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx, repo.ProjectFilters{Status: status, FollowUp: followUp, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Client", "Contract", "Follow-up", "Status"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.ID, x.Name, x.ClientName, x.ContractStatus, x.ContractFollowUp, x.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&followUp, "follow-up", "", "filter by contract follow-up")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an engagement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func projectContractCmd() *cobra.Command {
	var contractNo string
	cmd := &cobra.Command{
		Use:   "contract <id>",
		Short: "Record the signed contract number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SetProjectContract(ctx, args[0], contractNo, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&contractNo, "contract-no", "", "contract number")
	return cmd
}

func projectCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close an engagement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CloseProject(ctx, args[0], actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Inspect the activity log"}
	var entityKind, entityID, actor string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List activity-log entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListLog(ctx, repo.LogFilters{EntityKind: entityKind, EntityID: entityID, ActorID: actor, Limit: limit})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Entity", "Actor", "Action", "Details"})
				for _, x := range items {
					tw.AppendRow(table.Row{x.TS, x.EntityKind + "/" + x.EntityID, x.ActorID, x.Action, x.Details})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&entityKind, "entity-kind", "", "filter by entity kind")
	list.Flags().StringVar(&entityID, "entity-id", "", "filter by entity id")
	list.Flags().StringVar(&actor, "actor", "", "filter by actor")
	list.Flags().IntVar(&limit, "limit", 50, "limit results")
	lg.AddCommand(list)
	return lg
}

func monitorCmd() *cobra.Command {
	var daemon bool
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the deadline monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				m := monitor.New(e)
				if !daemon {
					escalated := m.Sweep(ctx)
					return printJSONOrTable(map[string]any{"escalated": escalated})
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				fmt.Printf("Deadline monitor running every %s\n", m.Interval)
				m.Start(ctx)
				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep sweeping on the configured interval")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var withMonitor bool
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
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:              cfg.Server.JWTSecret,
				AllowLegacyActorHeader: cfg.Server.AllowLegacyActorHeader,
			}
			if env := os.Getenv("LEXLINE_JWT_SECRET"); env != "" {
				authCfg.JWTSecret = env
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("LEXLINE_JWT_SECRET or server.jwt_secret is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if withMonitor {
				monitor.New(e).Start(ctx)
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			fmt.Printf("Serving Lexline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&withMonitor, "monitor", true, "run the deadline monitor alongside the server")
	return cmd
}

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
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.Default("default-firm")
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

func actorID() string {
	return viper.GetString("actor-id")
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
