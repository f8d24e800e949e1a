// Command controller is the distributed fault-injection scheduler's
// command-line front end: one scheduling engine per configuration FILE
// argument, each driving a SystemUnderTest against its own fixed
// 1-second tick loop until shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/config"
	"github.com/jihwankim/faultsched/pkg/discovery/docker"
	"github.com/jihwankim/faultsched/pkg/emergency"
	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/jihwankim/faultsched/pkg/faultactions"
	"github.com/jihwankim/faultsched/pkg/logging"
	"github.com/jihwankim/faultsched/pkg/metrics"
	"github.com/jihwankim/faultsched/pkg/reporting"
	"github.com/jihwankim/faultsched/pkg/scheduler"
	"github.com/jihwankim/faultsched/pkg/sut"
)

// Exit codes per SPEC_FULL.md §7: 0 clean, 1 configuration/action-module
// content failure, 2 file not found / I/O error opening a configuration
// file.
const (
	exitOK            = 0
	exitContentError  = 1
	exitConfigIOError = 2
)

var opts struct {
	debug      bool
	export     bool
	dryRun     bool
	duration   int
	configPath string
	yes        bool
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "controller [OPTIONS] FILE [FILE ...]",
		Short: "Distributed fault-injection scheduler",
		Long: `controller drives controlled failures into one or more systems under
test according to declarative, probabilistic reliability models. Each
FILE names a per-SUT configuration document ("-" reads stdin); each
gets its own scheduling engine.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
	}

	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "debug logging")
	cmd.Flags().BoolVarP(&opts.export, "export", "e", false, "export log format (unix timestamp|thread name|message) instead of terminal format")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "r", false, "report intended fault dispatches but do not execute them")
	cmd.Flags().IntVarP(&opts.duration, "duration", "t", 0, "total session duration in seconds (0 = unbounded)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the ambient framework settings document (default ./config.yaml)")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "confirm running when safety.require_confirmation is set")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(exitContentError)
	}
}

// exitError carries the process exit code a run-time failure maps to,
// per the classes in SPEC_FULL.md §7.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func run(files []string) error {
	fwConfig, err := config.LoadFrameworkConfig(opts.configPath)
	if err != nil {
		return &exitError{code: exitContentError, err: fmt.Errorf("framework config: %w", err)}
	}

	if fwConfig.Safety.RequireConfirmation && !opts.yes {
		return &exitError{code: exitContentError, err: fmt.Errorf("safety.require_confirmation is set; re-run with --yes")}
	}

	logLevel := logging.Level(fwConfig.Framework.LogLevel)
	if opts.debug {
		logLevel = logging.LevelDebug
	}
	logger := logging.NewLogger(logging.Config{
		Level:  logLevel,
		Format: logging.Format(fwConfig.Framework.LogFormat),
		Output: os.Stdout,
	})
	logging.InitGlobal(logging.Config{Level: logLevel, Format: logging.Format(fwConfig.Framework.LogFormat), Output: os.Stdout})

	traceFormat := logging.TraceTerminal
	if opts.export {
		traceFormat = logging.TraceExport
	}
	trace := logging.NewTraceLogger(os.Stdout, traceFormat)

	duration := time.Duration(opts.duration) * time.Second
	if fwConfig.Safety.MaxDuration > 0 && (duration == 0 || duration > fwConfig.Safety.MaxDuration) {
		logger.Warn("clamping session duration to safety.max_duration", "requested", duration.String(), "max", fwConfig.Safety.MaxDuration.String())
		duration = fwConfig.Safety.MaxDuration
	}

	promReg := prometheus.NewRegistry()
	metricRegistry := metrics.NewRegistry(promReg)
	if fwConfig.Metrics.ListenAddr != "" {
		go func() {
			if err := metrics.Serve(fwConfig.Metrics.ListenAddr, promReg); err != nil {
				logger.Error("metrics server stopped", "error", err.Error())
			}
		}()
	}

	storage, err := reporting.NewStorage(fwConfig.Reporting.OutputDir, fwConfig.Reporting.KeepLastN, logger)
	if err != nil {
		return &exitError{code: exitContentError, err: fmt.Errorf("reporting storage: %w", err)}
	}

	registry := buildRegistry(logger)

	schedulers := make([]*scheduler.Scheduler, 0, len(files))
	runInfo := make([]runSummaryInfo, 0, len(files))

	for _, file := range files {
		doc, loadErr := config.Load(file, os.Stdin)
		if loadErr != nil {
			var valErr *config.ValidationError
			if errors.As(loadErr, &valErr) {
				return &exitError{code: exitContentError, err: valErr}
			}
			return &exitError{code: exitConfigIOError, err: fmt.Errorf("opening %s: %w", file, loadErr)}
		}

		if !registry.HasModule(doc.FaultModule) {
			return &exitError{code: exitContentError, err: fmt.Errorf("%s: fault_module %q is not registered", file, doc.FaultModule)}
		}

		s := sut.Build(doc, event.SystemClock{}, time.Now().UnixNano())
		sched := scheduler.New(s, registry, opts.dryRun, logger, trace, metricRegistry)

		schedulers = append(schedulers, sched)
		runInfo = append(runInfo, runSummaryInfo{systemName: doc.SystemName, faultModule: doc.FaultModule})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emCtrl := emergency.New(emergency.Config{
		EnableSignalHandlers: true,
		MaxDuration:          duration,
	})
	for _, sched := range schedulers {
		sched := sched
		emCtrl.OnStop(sched.Shutdown)
	}
	emCtrl.Start(ctx)

	var wg sync.WaitGroup
	startTimes := make([]time.Time, len(schedulers))
	for i, sched := range schedulers {
		startTimes[i] = time.Now()
		wg.Add(1)
		go func(i int, sched *scheduler.Scheduler) {
			defer wg.Done()
			sched.Run(ctx)
		}(i, sched)
	}
	wg.Wait()

	for i, sched := range schedulers {
		saveRunSummary(storage, logger, runInfo[i], sched.Stats(), startTimes[i])
	}

	return nil
}

type runSummaryInfo struct {
	systemName  string
	faultModule string
}

func saveRunSummary(storage *reporting.Storage, logger *logging.Logger, info runSummaryInfo, stats scheduler.Stats, start time.Time) {
	end := time.Now()
	summary := &reporting.RunSummary{
		RunID:         fmt.Sprintf("%s-%d", info.systemName, start.UnixNano()),
		SystemName:    info.systemName,
		FaultModule:   info.faultModule,
		StartTime:     start,
		EndTime:       end,
		Duration:      end.Sub(start).String(),
		DryRun:        opts.dryRun,
		Status:        reporting.StatusCompleted,
		Ticks:         stats.Ticks,
		EventsFired:   stats.EventsFired,
		ActionsFailed: stats.ActionsFailed,
		FaultCounts:   stats.FaultCounts,
	}

	if _, err := storage.Save(summary); err != nil {
		logger.Warn("failed to persist run summary", "system", info.systemName, "error", err.Error())
	}
}

// buildRegistry wires the demonstration fault-action modules
// (pkg/faultactions) against a real Docker client when one can be
// constructed; failing that, it logs a warning and returns an empty
// registry, against which run finds no SUT's fault_module registered
// and exits with code 1.
func buildRegistry(logger *logging.Logger) *action.Registry {
	dockerClient, err := docker.New()
	if err != nil {
		logger.Warn("docker client unavailable, fault-action modules will not be registered", "error", err.Error())
		return action.NewRegistry()
	}
	return action.NewRegistry(faultactions.RegisterAll(dockerClient)...)
}
