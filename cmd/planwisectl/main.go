// planwisectl is a command-line companion to the planwise server. It talks
// to the database and the generation pipeline directly, without going
// through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/planwise/planwise/internal/auth"
	"github.com/planwise/planwise/internal/database"
	"github.com/planwise/planwise/internal/planner"
	"github.com/planwise/planwise/pkg/config"
)

const version = "1.0.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "planwisectl",
		Short:   "Planwise CLI - manage users and generate plans",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	rootCmd.AddCommand(newUserCommand())
	rootCmd.AddCommand(newPlanCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (*database.Database, error) {
	if cfg.Database.Type == "postgres" {
		return database.NewPostgres(cfg.Database.DSN)
	}
	return database.New(cfg.Database.Path)
}

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var email, fullName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account, prompting for the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			fmt.Fprint(os.Stderr, "Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			cfg := config.LoadConfig(configPath)
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			am := auth.NewManager(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			session, err := am.Register(email, string(password), fullName)
			if err != nil {
				return err
			}

			fmt.Printf("Created user %s (%s)\n", session.User.Email, session.User.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "Email address")
	create.Flags().StringVar(&fullName, "name", "", "Full name")
	cmd.AddCommand(create)

	return cmd
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate plans from the command line",
	}

	var (
		goal         string
		timeframe    string
		prior        string
		availability float64
		full         bool
		completed    []string
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(goal) == "" {
				return fmt.Errorf("--goal is required")
			}

			cfg := config.LoadConfig(configPath)
			client := planner.NewClient(planner.ClientConfig{
				APIKey:  cfg.Gemini.APIKey,
				Model:   cfg.Gemini.Model,
				BaseURL: cfg.Gemini.BaseURL,
				Timeout: cfg.Gemini.Timeout,
			})
			p := planner.New(client)

			req := planner.Request{
				Goal:              goal,
				Timeframe:         timeframe,
				PriorKnowledge:    prior,
				DailyAvailability: availability,
				CompletedTopics:   completed,
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			var resp *planner.Response
			var err error
			if full {
				resp, err = p.GenerateCurriculum(ctx, req)
			} else {
				resp, err = p.GeneratePlan(ctx, req, nil)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	generate.Flags().StringVar(&goal, "goal", "", "What to plan for")
	generate.Flags().StringVar(&timeframe, "timeframe", "", "Overall timeframe, e.g. \"3 months\"")
	generate.Flags().StringVar(&prior, "prior-knowledge", "", "What the learner already knows")
	generate.Flags().Float64Var(&availability, "hours", 0, "Available hours per day")
	generate.Flags().BoolVar(&full, "full", false, "Generate a full curriculum instead of a daily plan")
	generate.Flags().StringSliceVar(&completed, "completed", nil, "Topics already completed (full mode)")
	cmd.AddCommand(generate)

	return cmd
}
