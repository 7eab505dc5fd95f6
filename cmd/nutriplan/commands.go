package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/nutriplan/internal/analytics"
	"github.com/hammamikhairi/nutriplan/internal/config"
	"github.com/hammamikhairi/nutriplan/internal/display"
	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/nutrition"
	"github.com/hammamikhairi/nutriplan/internal/plan"
	"github.com/hammamikhairi/nutriplan/internal/planapi"
	"github.com/hammamikhairi/nutriplan/internal/planner"
	"github.com/hammamikhairi/nutriplan/internal/server"
	"github.com/hammamikhairi/nutriplan/internal/storage"
)

// ── Profile flags ────────────────────────────────────────────────

type profileFlags struct {
	file     string
	age      int
	sex      string
	height   float64
	weight   float64
	activity string
	goals    []string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "profile", "p", "", "profile file (.yaml or .json); other profile flags override it")
	cmd.Flags().IntVar(&f.age, "age", 0, "age in years")
	cmd.Flags().StringVar(&f.sex, "sex", "", "Male, Female or Other")
	cmd.Flags().Float64Var(&f.height, "height", 0, "height in cm")
	cmd.Flags().Float64Var(&f.weight, "weight", 0, "weight in kg")
	cmd.Flags().StringVar(&f.activity, "activity", "", "activity level, e.g. \"Moderately Active\"")
	cmd.Flags().StringSliceVar(&f.goals, "goal", nil, "goal tag, repeatable (e.g. \"Weight Loss\")")
}

// profile builds the profile from the file, if any, then the flags.
func (f *profileFlags) profile(cmd *cobra.Command) (*domain.UserProfile, error) {
	p := &domain.UserProfile{}
	if f.file != "" {
		var err error
		if p, err = config.LoadProfile(f.file); err != nil {
			return nil, err
		}
	}

	set := cmd.Flags().Changed
	if set("age") {
		p.Age = f.age
	}
	if set("sex") {
		p.Sex = domain.ParseSex(f.sex)
	}
	if set("height") {
		p.HeightCm = f.height
	}
	if set("weight") {
		p.WeightKg = f.weight
	}
	if set("activity") {
		p.ActivityLevel = domain.ActivityLevel(f.activity)
	}
	if set("goal") {
		p.Goals = f.goals
	}

	if f.file == "" && !set("age") && !set("height") && !set("weight") {
		return nil, errors.New("no profile: pass --profile or --age/--height/--weight")
	}
	return p, nil
}

// ── targets ──────────────────────────────────────────────────────

var targetsFlags profileFlags

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Print the daily nutrition targets for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := targetsFlags.profile(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), display.TargetsCard(nutrition.Compute(*p)))
		return nil
	},
}

// ── plan ─────────────────────────────────────────────────────────

var (
	planFlags     profileFlags
	planUserID    string
	planOutDir    string
	planFormat    string
	planNoService bool
	planNoRender  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a diet plan and write its sections to disk",
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := planFlags.profile(cmd)
	if err != nil {
		return err
	}
	format, err := plan.ParseFormat(planFormat)
	if err != nil {
		return err
	}

	var gen domain.PlanGenerator
	if !planNoService && !cfg.PlanService.Disabled {
		gen = planapi.NewClient(cfg.PlanService.BaseURL, log, planapi.WithTimeout(cfg.PlanService.Timeout))
	}

	st, closeStore, err := openStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := planner.New(gen, st, log).Generate(ctx, planner.Request{Profile: p, UserID: planUserID})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !planNoRender {
		width := display.TermWidth()
		fmt.Fprintln(out, display.RenderBanner())
		fmt.Fprintln(out, display.TargetsCard(res.Targets))
		if res.Source == domain.SourceFallback {
			fmt.Fprintln(out, display.Notice("plan service unavailable, showing the built-in plan"))
		}
		for _, kind := range plan.Sections {
			fmt.Fprint(out, display.Markdown(plan.Get(res.Sections, kind), width))
		}
	}

	if planOutDir == "" {
		return nil
	}
	if err := os.MkdirAll(planOutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", planOutDir, err)
	}
	for _, kind := range plan.Sections {
		exp := plan.ExportSection(res.Sections, kind, format)
		path := filepath.Join(planOutDir, exp.FileName)
		if err := os.WriteFile(path, []byte(exp.Body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info("wrote %s", path)
	}
	fmt.Fprintf(out, "plan %s saved to %s\n", res.PlanID, planOutDir)
	return nil
}

// ── serve ────────────────────────────────────────────────────────

var (
	serveAddr     string
	serveWithStub bool
	serveStubAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	st, closeStore, err := openStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	baseURL := cfg.PlanService.BaseURL
	if serveWithStub {
		if baseURL, err = localURL(serveStubAddr); err != nil {
			return fmt.Errorf("--stub-addr: %w", err)
		}
	}

	var gen domain.PlanGenerator
	if !cfg.PlanService.Disabled {
		client := planapi.NewClient(baseURL, log, planapi.WithTimeout(cfg.PlanService.Timeout))
		gen = client
		log.Info("plan service at %s", client.BaseURL())
	} else {
		log.Info("plan service disabled, every plan uses the fallback")
	}

	srv := server.New(
		planner.New(gen, st, log),
		analytics.NewTracker(st, log),
		analytics.NewWaitlist(st, log),
		log,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr, cfg.Server.ShutdownTimeout)
	})
	if serveWithStub {
		stub := server.NewStub(planapi.ShapePlainString, log)
		g.Go(func() error {
			return stub.ListenAndServe(ctx, serveStubAddr, cfg.Server.ShutdownTimeout)
		})
	}
	return g.Wait()
}

// localURL turns a listen address into a URL a local client can dial.
// Wildcard and empty hosts become localhost.
func localURL(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// ── stub ─────────────────────────────────────────────────────────

var (
	stubAddr  string
	stubShape string
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run a local plan service that always returns the sample plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, err := server.ParseShape(stubShape)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.NewStub(shape, log).ListenAndServe(ctx, stubAddr, cfg.Server.ShutdownTimeout)
	},
}

// ── health ───────────────────────────────────────────────────────

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the plan service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planapi.NewClient(cfg.PlanService.BaseURL, log)
		ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
		defer cancel()

		if !client.Health(ctx) {
			return fmt.Errorf("plan service at %s is not healthy", client.BaseURL())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "plan service at %s is healthy\n", client.BaseURL())
		return nil
	},
}

func init() {
	targetsFlags.register(targetsCmd)

	planFlags.register(planCmd)
	planCmd.Flags().StringVarP(&planUserID, "user", "u", "", "user id (default: user-<unix millis>)")
	planCmd.Flags().StringVarP(&planOutDir, "out", "o", "", "directory to write the section files to")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "md", "section file format: md or txt")
	planCmd.Flags().BoolVar(&planNoService, "no-service", false, "skip the plan service and use the built-in plan")
	planCmd.Flags().BoolVar(&planNoRender, "no-render", false, "do not print the plan to the terminal")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (default: config server.addr)")
	serveCmd.Flags().BoolVar(&serveWithStub, "with-stub", false, "also run the stub plan service and use it")
	serveCmd.Flags().StringVar(&serveStubAddr, "stub-addr", ":8001", "listen address of the stub plan service")

	stubCmd.Flags().StringVar(&stubAddr, "addr", ":8001", "listen address")
	stubCmd.Flags().StringVar(&stubShape, "shape", "plain", "response shape: plain, raw or tasks")

	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "health check timeout")
}

// ── storage ──────────────────────────────────────────────────────

// store is everything the commands need from a backend.
type store interface {
	domain.PlanStore
	domain.VisitStore
	domain.WaitlistStore
}

// openStore returns SQLite when dbPath is set, else an in-memory store.
func openStore(dbPath string) (store, func(), error) {
	if dbPath == "" {
		return storage.NewMemoryStore(log), func() {}, nil
	}
	s, err := storage.OpenSQLite(dbPath, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using SQLite store at %s", dbPath)
	return s, func() { s.Close() }, nil
}
