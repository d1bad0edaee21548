package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/bootstrap"
	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/core/formatter"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
)

var (
	jobView = formatter.View{
		Kind:    "job",
		Columns: []string{"job", "state", "running", "done", "exit_code", "error_message"},
	}
	queueView = formatter.View{
		Kind:    "queue",
		Columns: []string{"name", "error_message"},
	}
)

var (
	schedAdaptor  string
	schedLocation string

	submitName    string
	submitQueue   string
	submitWorkDir string
	submitEnv     []string
	submitStdout  string
	submitStderr  string
	submitWait    bool
	submitTimeout time.Duration
)

var schedCmd = &cobra.Command{
	Use:   "sched",
	Short: "Submit and manage jobs",
	Long: `Submit and manage jobs on a remote scheduler. Without --adaptor the local
scheduler of the service is used.`,
}

var schedAdaptorsCmd = &cobra.Command{
	Use:   "adaptors",
	Short: "List scheduler adaptors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		descs, err := a.Session.SchedulerAdaptorDescriptions(cmd.Context())
		if err != nil {
			return err
		}
		records := make([]map[string]any, 0, len(descs))
		for _, d := range descs {
			records = append(records, map[string]any{
				"name":                 d.Name,
				"description":          d.Description,
				"supported_locations":  d.SupportedLocations,
				"supports_batch":       d.SupportsBatch,
				"supports_interactive": d.SupportsInteractive,
				"is_embedded":          d.IsEmbedded,
			})
		}
		return printList(cmd, adaptorView, records)
	},
}

var schedSubmitCmd = &cobra.Command{
	Use:   "submit [flags] -- <executable> [args...]",
	Short: "Submit a batch job",
	Args:  cobra.MinimumNArgs(1),
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		desc, err := jobDescription(args)
		if err != nil {
			return err
		}
		desc.Stdout = submitStdout
		desc.Stderr = submitStderr

		ctx := cmd.Context()
		job, err := sc.SubmitBatchJob(ctx, desc)
		if err != nil {
			return err
		}
		if !submitWait {
			fmt.Fprintln(cmd.OutOrStdout(), job.ID())
			return nil
		}

		status, err := sc.WaitUntilDone(ctx, job, submitTimeout)
		if err != nil {
			return err
		}
		return printRecord(cmd, jobView, status.Fields())
	}),
}

var schedInteractiveCmd = &cobra.Command{
	Use:   "interactive [flags] -- <executable> [args...]",
	Short: "Run an interactive job attached to this terminal",
	Long: `Run an interactive job. Standard input is forwarded to the job through a
bounded queue of streams.queue_size chunks; its output is printed as it
arrives. A pull waiting longer than streams.pull_timeout aborts the job.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		desc, err := jobDescription(args)
		if err != nil {
			return err
		}
		streams := a.CurrentConfig().Streams

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		stdin := streaming.NewQueue[[]byte](streams.QueueSize)
		go forwardStdin(ctx, cmd.InOrStdin(), stdin, streams.ChunkSize)

		ij, err := sc.SubmitInteractiveJob(ctx, desc, streaming.Source[[]byte](stdin))
		if err != nil {
			return err
		}
		defer ij.Close()

		if err := copyOutput(ctx, ij.Output, cmd.OutOrStdout(), cmd.ErrOrStderr(), streams.PullTimeout); err != nil {
			abandonJob(ctx, a, sc, ij.Job)
			return err
		}

		status, err := sc.JobStatus(ctx, ij.Job)
		if err != nil {
			return err
		}
		if err := status.Err(); err != nil {
			return err
		}
		if code := status.ExitCode(); code != 0 {
			return fmt.Errorf("job exited with code %d", code)
		}
		return nil
	}),
}

// abandonJob cancels a job whose output could not be copied. The copy
// error is what the user sees; a failed cancel is only logged.
func abandonJob(ctx context.Context, a *bootstrap.App, sc app.Scheduler, job app.Job) {
	if _, err := sc.CancelJob(context.WithoutCancel(ctx), job); err != nil {
		a.Logger.Warn().Err(err).Str("job", job.ID()).Msg("failed to cancel abandoned job")
	}
}

var schedJobsCmd = &cobra.Command{
	Use:   "jobs [queue...]",
	Short: "List jobs and their status",
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		ctx := cmd.Context()
		jobs, err := sc.Jobs(ctx, args...)
		if err != nil {
			return err
		}
		records := make([]map[string]any, 0, len(jobs))
		for _, job := range jobs {
			status, err := sc.JobStatus(ctx, job)
			if err != nil {
				return err
			}
			records = append(records, status.Fields())
		}
		return printList(cmd, jobView, records)
	}),
}

var schedStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		status, err := sc.JobStatus(cmd.Context(), sc.JobByID(args[0]))
		if err != nil {
			return err
		}
		return printRecord(cmd, jobView, status.Fields())
	}),
}

var schedCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a job",
	Args:  cobra.ExactArgs(1),
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		status, err := sc.CancelJob(cmd.Context(), sc.JobByID(args[0]))
		if err != nil {
			return err
		}
		return printRecord(cmd, jobView, status.Fields())
	}),
}

var schedQueuesCmd = &cobra.Command{
	Use:   "queues [queue...]",
	Short: "Show queue status",
	RunE: withScheduler(func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error {
		statuses, err := sc.QueueStatuses(cmd.Context(), args...)
		if err != nil {
			return err
		}
		records := make([]map[string]any, 0, len(statuses))
		for _, q := range statuses {
			records = append(records, q.Fields())
		}
		return printList(cmd, queueView, records)
	}),
}

func init() {
	rootCmd.AddCommand(schedCmd)
	schedCmd.AddCommand(schedAdaptorsCmd, schedSubmitCmd, schedInteractiveCmd,
		schedJobsCmd, schedStatusCmd, schedCancelCmd, schedQueuesCmd)

	schedCmd.PersistentFlags().StringVar(&schedAdaptor, "adaptor", "", "scheduler adaptor (default: the local scheduler)")
	schedCmd.PersistentFlags().StringVar(&schedLocation, "location", "", "scheduler location")

	for _, c := range []*cobra.Command{schedSubmitCmd, schedInteractiveCmd} {
		c.Flags().StringVar(&submitName, "name", "", "job name")
		c.Flags().StringVarP(&submitQueue, "queue", "q", "", "queue name (default: the scheduler's default queue)")
		c.Flags().StringVarP(&submitWorkDir, "workdir", "w", "", "working directory of the job")
		c.Flags().StringArrayVarP(&submitEnv, "env", "e", nil, "environment variable as KEY=VALUE (repeatable)")
	}
	schedSubmitCmd.Flags().StringVar(&submitStdout, "stdout", "", "remote file receiving standard output")
	schedSubmitCmd.Flags().StringVar(&submitStderr, "stderr", "", "remote file receiving standard error")
	schedSubmitCmd.Flags().BoolVar(&submitWait, "wait", false, "wait for the job and print its status")
	schedSubmitCmd.Flags().DurationVar(&submitTimeout, "timeout", 0, "give up waiting after this long (0: no limit)")
}

func jobDescription(args []string) (app.JobDescription, error) {
	desc := app.JobDescription{
		Name:             submitName,
		Executable:       args[0],
		Arguments:        args[1:],
		QueueName:        submitQueue,
		WorkingDirectory: submitWorkDir,
	}
	if len(submitEnv) > 0 {
		desc.Environment = make(map[string]string, len(submitEnv))
		for _, kv := range submitEnv {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return desc, fmt.Errorf("--env %q: want KEY=VALUE", kv)
			}
			desc.Environment[k] = v
		}
	}
	return desc, nil
}

// forwardStdin copies r into q as data arrives and closes q at end of
// input.
func forwardStdin(ctx context.Context, r io.Reader, q *streaming.Queue[[]byte], chunk int) {
	defer q.Close()
	if chunk <= 0 {
		chunk = 32 * 1024
	}
	buf := make([]byte, chunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if q.Put(ctx, bytes.Clone(buf[:n])) != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// copyOutput writes job output until the job ends. A pull exceeding
// timeout fails; zero waits without bound.
func copyOutput(ctx context.Context, out streaming.Source[app.Output], stdout, stderr io.Writer, timeout time.Duration) error {
	for {
		o, err := streaming.NextWithin(ctx, out, timeout)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, streaming.ErrTimeout) {
			return fmt.Errorf("no output within %s", timeout)
		}
		if err != nil {
			return err
		}
		if _, err := stdout.Write(o.Stdout); err != nil {
			return err
		}
		if _, err := stderr.Write(o.Stderr); err != nil {
			return err
		}
	}
}

// withScheduler connects, opens the selected scheduler, and runs fn.
// A scheduler created here is closed afterwards.
func withScheduler(fn func(cmd *cobra.Command, a *bootstrap.App, sc app.Scheduler, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx := cmd.Context()
		if schedAdaptor == "" {
			sc, err := a.Session.LocalScheduler(ctx)
			if err != nil {
				return err
			}
			return fn(cmd, a, sc, args)
		}

		sc, err := a.Session.CreateScheduler(ctx, dispatch.Kw("adaptor", schedAdaptor).With("location", schedLocation))
		if err != nil {
			return err
		}
		defer sc.Close(ctx)
		return fn(cmd, a, sc, args)
	}
}
