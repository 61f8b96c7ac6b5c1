package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"go.uber.org/zap"

	contacts "github.com/smileynet/contacts"
	"github.com/smileynet/contacts/internal/config"
	"github.com/smileynet/contacts/internal/fixture"
	"github.com/smileynet/contacts/internal/harness"
	"github.com/smileynet/contacts/internal/logging"
	"github.com/smileynet/contacts/internal/report"
	"github.com/smileynet/contacts/internal/suites"
	"github.com/smileynet/contacts/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for contacts.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Verify   VerifyCmd        `cmd:"" help:"Run the contact registry suites."`
	Fixtures FixturesCmd      `cmd:"" help:"Show the fixture rows used by parameterized checks."`
	Suites   SuitesCmd        `cmd:"" help:"List suites and their checks."`
	Report   ReportCmd        `cmd:"" help:"Show a saved verify run report."`
}

// VerifyCmd runs registry suites and reports each check.
type VerifyCmd struct {
	Suite     []string `help:"Suite to run; repeatable. Runs every suite when omitted." short:"s" placeholder:"NAME"`
	Env       string   `help:"Environment name. DEV enables developer-machine checks."`
	Repeat    int      `help:"Repetitions for repeated checks (0 keeps the configured value)."`
	Only      []string `name:"run" help:"Run only checks whose ID matches REGEX; repeatable." placeholder:"REGEX" sep:"none"`
	Skip      []string `help:"Skip checks whose ID matches REGEX; repeatable." placeholder:"REGEX" sep:"none"`
	Fixtures  string   `help:"Directory searched for fixture files before the embedded defaults." placeholder:"DIR"`
	ReportDir string   `help:"Directory to save a JSON report of the run in." placeholder:"DIR"`
	NoTUI     bool     `help:"Force plain text output even if stdout is a TTY." default:"false"`
}

// FixturesCmd renders the valid and invalid fixture rows as tables.
type FixturesCmd struct {
	Fixtures string `help:"Directory searched for fixture files before the embedded defaults." placeholder:"DIR"`
}

// SuitesCmd lists registered suites and their cases.
type SuitesCmd struct{}

// ReportCmd prints a report saved by verify --report-dir.
type ReportCmd struct {
	RunID string `arg:"" help:"Run ID printed by verify."`
	Dir   string `help:"Directory holding run reports." default:".contacts/reports"`
}

// loadConfig loads layered config from user and project paths with env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(
		os.ExpandEnv("$HOME/.config/contacts/config.yaml"),
		".contacts/config.yaml",
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// suiteOptions loads the configured fixtures, local directory first.
func suiteOptions(cfg *config.Config, log *zap.Logger) (suites.Options, error) {
	fsys := contacts.OverlayFS(cfg.Fixtures.Dir, contacts.Fixtures)
	valid, err := fixture.Load(fsys, cfg.Fixtures.Valid)
	if err != nil {
		return suites.Options{}, err
	}
	invalid, err := fixture.Load(fsys, cfg.Fixtures.Invalid)
	if err != nil {
		return suites.Options{}, err
	}
	return suites.Options{
		Logger:  log,
		Repeat:  cfg.Suite.Repeat,
		Valid:   valid,
		Invalid: invalid,
	}, nil
}

// newRegistry registers every suite; fixtures load once per registry.
func newRegistry(cfg *config.Config, log *zap.Logger) *harness.Registry {
	reg := harness.NewRegistry()
	suites.Register(reg, sync.OnceValues(func() (suites.Options, error) {
		return suiteOptions(cfg, log)
	}))
	return reg
}

// applyFlags applies CLI flag overrides on top of file and env config.
func (v *VerifyCmd) applyFlags(cfg *config.Config) {
	if v.Env != "" {
		cfg.Environment.Name = v.Env
	}
	if v.Repeat != 0 {
		cfg.Suite.Repeat = v.Repeat
	}
	if v.Fixtures != "" {
		cfg.Fixtures.Dir = v.Fixtures
	}
}

func (v *VerifyCmd) filters() (harness.RegexFilters, error) {
	run, err := harness.ParseRegexList(v.Only)
	if err != nil {
		return harness.RegexFilters{}, err
	}
	skip, err := harness.ParseRegexList(v.Skip)
	if err != nil {
		return harness.RegexFilters{}, err
	}
	return harness.RegexFilters{MustMatch: run, MustNotMatch: skip}, nil
}

// Run executes the verify command.
func (v *VerifyCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	v.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	filters, err := v.filters()
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	// The cancel func is passed to the TUI so keyboard abort (q / Ctrl+C)
	// skips the remaining checks.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	ctx, stop := signal.NotifyContext(runCtx, os.Interrupt)
	defer stop()

	bridge := tui.NewBridge()
	display := tui.NewDisplay(tui.DisplayOptions{
		Writer:     os.Stdout,
		ForcePlain: v.NoTUI,
		CancelFunc: runCancel,
	})

	// Console logs would corrupt the TUI; it gets the log file only.
	var console io.Writer = os.Stderr
	if _, ok := display.(*tui.TUIDisplay); ok {
		console = nil
	}
	logger, closeLog, err := logging.New(logging.Options{Log: cfg.Log, Dev: cfg.IsDev(), Writer: console})
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer closeLog()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	ss, err := newRegistry(cfg, logger).NewSuites(v.Suite...)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	env := harness.DefaultEnvironment(cfg.Environment.Name)
	runner := harness.NewRunner(
		harness.WithEnvironment(env),
		harness.WithFilter(filters.AsFilter),
		harness.WithReporter(&bridgeReporter{bridge: bridge, log: logger}),
	)

	_, _ = fmt.Fprintf(os.Stdout, "run %s\n", runID)
	if d := filters.Describe(); d != "" {
		_, _ = fmt.Fprintln(os.Stdout, d)
	}
	started := time.Now()
	res, runErr := v.run(ctx, os.Stdout, runner, ss, display, bridge, logger)

	if v.ReportDir != "" {
		if err := saveReport(os.Stdout, report.NewFileStore(v.ReportDir), report.New(runID, env, started, res)); err != nil {
			return errors.Join(runErr, fmt.Errorf("verify: %w", err))
		}
	}
	return runErr
}

// run executes the suites with display lifecycle management, enabling testable wiring.
func (v *VerifyCmd) run(ctx context.Context, w io.Writer, runner *harness.Runner, ss []*harness.Suite, display tui.Display, bridge *tui.Bridge, log *zap.Logger) (harness.Results, error) {
	displayDone := make(chan error, 1)
	go func() {
		displayDone <- display.Run(context.Background(), bridge.Events())
	}()

	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.Name
	}
	log.Info("verify started", zap.Strings("suites", names))

	res := runner.Run(ctx, ss...)

	runErr := resultError(res)
	if runErr != nil {
		bridge.Error(runErr)
	} else {
		bridge.Done()
	}

	// Wait for display to finish (so it releases the terminal).
	<-displayDone

	_, _ = fmt.Fprintln(w, summary(res))
	log.Info("verify finished",
		zap.Int("passed", res.Count(harness.StatusPassed)),
		zap.Int("failed", res.Count(harness.StatusFailed)),
		zap.Int("skipped", res.Count(harness.StatusSkipped)),
		zap.Int("aborted", res.Count(harness.StatusAborted)),
	)
	return res, runErr
}

func saveReport(w io.Writer, store *report.FileStore, r report.Report) error {
	p, err := store.Save(r)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "report saved to %s\n", p)
	return nil
}

// resultError turns a run with failed checks into a *harness.FailedError.
func resultError(res harness.Results) error {
	if res.OK() {
		return nil
	}
	return &harness.FailedError{Failed: res.Count(harness.StatusFailed), Total: len(res.Tests)}
}

func summary(res harness.Results) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped, %d aborted",
		res.Count(harness.StatusPassed),
		res.Count(harness.StatusFailed),
		res.Count(harness.StatusSkipped),
		res.Count(harness.StatusAborted),
	)
}

// bridgeReporter converts harness events to tui.StatusUpdateMsg and sends
// them through the bridge.
type bridgeReporter struct {
	bridge *tui.Bridge
	log    *zap.Logger
}

func (r *bridgeReporter) TestStarted(id harness.TestID, displayName string) {
	r.bridge.Send(tui.StatusUpdateMsg{
		ID:     id.String(),
		Name:   displayName,
		Status: tui.StatusRunning,
	})
}

func (r *bridgeReporter) TestError(id harness.TestID, err error) {
	r.log.Debug("check error", zap.String("check", id.String()), zap.Error(err))
}

func (r *bridgeReporter) TestFinished(res harness.Result) {
	msg := tui.StatusUpdateMsg{
		ID:       res.ID.String(),
		Name:     res.DisplayName,
		Status:   tui.CheckStatus(res.Status),
		Duration: res.Duration,
		Reason:   res.Reason,
	}
	for _, err := range res.Errors {
		msg.Errors = append(msg.Errors, err.Error())
	}
	r.bridge.Send(msg)

	fields := []zap.Field{zap.String("check", res.ID.String()), zap.Duration("duration", res.Duration)}
	switch res.Status {
	case harness.StatusFailed:
		r.log.Warn("check failed", append(fields, zap.Errors("errors", res.Errors))...)
	case harness.StatusSkipped, harness.StatusAborted:
		r.log.Debug("check "+string(res.Status), append(fields, zap.String("reason", res.Reason))...)
	default:
		r.log.Debug("check passed", fields...)
	}
}

// Run executes the fixtures command.
func (f *FixturesCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	if f.Fixtures != "" {
		cfg.Fixtures.Dir = f.Fixtures
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	return f.run(os.Stdout, cfg)
}

func (f *FixturesCmd) run(w io.Writer, cfg *config.Config) error {
	fsys := contacts.OverlayFS(cfg.Fixtures.Dir, contacts.Fixtures)
	for _, name := range []string{cfg.Fixtures.Valid, cfg.Fixtures.Invalid} {
		rows, err := fixture.Load(fsys, name)
		if err != nil {
			return fmt.Errorf("fixtures: %w", err)
		}
		_, _ = fmt.Fprintf(w, "%s (%d rows)\n%s\n", name, len(rows), fixtureTable(rows))
	}
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func fixtureTable(rows []fixture.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("LINE", "FIRST NAME", "LAST NAME", "PHONE NUMBER")
	for _, r := range rows {
		t.Row(strconv.Itoa(r.Line), cell(r.FirstName), cell(r.LastName), cell(r.PhoneNumber))
	}
	return t.Render()
}

func cell(s string) string {
	if s == "" {
		return "<null>"
	}
	return strconv.Quote(s)
}

// Run executes the suites command.
func (s *SuitesCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("suites: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("suites: %w", err)
	}
	return s.run(os.Stdout, newRegistry(cfg, zap.NewNop()))
}

func (s *SuitesCmd) run(w io.Writer, reg *harness.Registry) error {
	ss, err := reg.NewSuites()
	if err != nil {
		return fmt.Errorf("suites: %w", err)
	}
	for _, suite := range ss {
		_, _ = fmt.Fprintln(w, suite.Name)
		for _, c := range suite.Cases {
			_, _ = fmt.Fprintf(w, "  %s/%s\t%s\n", suite.Name, c.Name, c.DisplayName)
		}
	}
	return nil
}

// ErrReportNotFound indicates no saved report has the requested run ID.
var ErrReportNotFound = errors.New("report not found")

// Run executes the report command.
func (c *ReportCmd) Run() error {
	return c.run(os.Stdout, report.NewFileStore(c.Dir))
}

func (c *ReportCmd) run(w io.Writer, store *report.FileStore) error {
	r, found, err := store.Load(c.RunID)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if !found {
		return fmt.Errorf("report: %w: %q in %s", ErrReportNotFound, c.RunID, c.Dir)
	}

	_, _ = fmt.Fprintf(w, "run %s on %s (environment %q) at %s\n",
		r.RunID, r.GOOS, r.Environment, r.StartedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintln(w, reportTable(r.Checks))
	_, _ = fmt.Fprintf(w, "%d passed, %d failed, %d skipped, %d aborted\n",
		r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped, r.Summary.Aborted)
	return nil
}

func reportTable(checks []report.Check) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("CHECK", "STATUS", "DETAIL")
	for _, c := range checks {
		detail := c.Reason
		if len(c.Errors) > 0 {
			detail, _, _ = strings.Cut(strings.TrimSpace(c.Errors[0]), "\n")
		}
		t.Row(c.ID, c.Status, detail)
	}
	return t.Render()
}

// Exit codes.
const (
	exitSuccess = 0
	exitFailed  = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var fe *harness.FailedError
	if errors.As(err, &fe) {
		return exitFailed
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Description("Contract checks for the in-memory contact registry."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
