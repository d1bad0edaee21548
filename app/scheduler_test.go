package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
)

func localScheduler(t *testing.T, s *app.Session) app.Scheduler {
	t.Helper()
	sc, err := s.LocalScheduler(context.Background())
	if err != nil {
		t.Fatalf("LocalScheduler: %v", err)
	}
	return sc
}

func TestScheduler_Statics(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	names, err := s.SchedulerAdaptorNames(ctx)
	if err != nil {
		t.Fatalf("SchedulerAdaptorNames: %v", err)
	}
	if !slices.Contains(names, "local") {
		t.Errorf("adaptor names = %v, want local", names)
	}
	desc, err := s.SchedulerAdaptorDescription(ctx, "local")
	if err != nil {
		t.Fatalf("SchedulerAdaptorDescription: %v", err)
	}
	if !desc.SupportsInteractive || !desc.SupportsBatch {
		t.Errorf("description = %+v", desc)
	}
	if _, err := s.SchedulerAdaptorDescriptions(ctx); err != nil {
		t.Fatalf("SchedulerAdaptorDescriptions: %v", err)
	}

	sc, err := s.CreateScheduler(ctx, dispatch.Kw("adaptor", "local"))
	if err != nil {
		t.Fatalf("CreateScheduler: %v", err)
	}
	all, err := s.ListSchedulers(ctx)
	if err != nil {
		t.Fatalf("ListSchedulers: %v", err)
	}
	if !slices.ContainsFunc(all, sc.Equal) {
		t.Errorf("ListSchedulers = %v, want it to contain %v", all, sc)
	}
	if name, _ := sc.AdaptorName(ctx); name != "local" {
		t.Errorf("adaptor = %q", name)
	}
}

func TestScheduler_Queues(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	names, err := sc.QueueNames(ctx)
	if err != nil {
		t.Fatalf("QueueNames: %v", err)
	}
	def, err := sc.DefaultQueueName(ctx)
	if err != nil {
		t.Fatalf("DefaultQueueName: %v", err)
	}
	if !slices.Contains(names, def) {
		t.Errorf("default queue %q not in %v", def, names)
	}

	statuses, err := sc.QueueStatuses(ctx)
	if err != nil {
		t.Fatalf("QueueStatuses: %v", err)
	}
	if len(statuses) != len(names) {
		t.Errorf("%d statuses for %d queues", len(statuses), len(names))
	}

	qs, err := sc.QueueStatus(ctx, def)
	if err != nil {
		t.Fatalf("QueueStatus: %v", err)
	}
	if qs.Name() != def || qs.Err() != nil {
		t.Errorf("queue status = %s, %v", qs.Name(), qs.Err())
	}
}

func TestScheduler_BatchJob(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	job, err := sc.SubmitBatchJob(ctx, app.JobDescription{
		Executable: "echo",
		Arguments:  []string{"hello", "batch"},
		Stdout:     "/stdout.txt",
	})
	if err != nil {
		t.Fatalf("SubmitBatchJob: %v", err)
	}

	st, err := sc.WaitUntilDone(ctx, job, time.Second)
	if err != nil {
		t.Fatalf("WaitUntilDone: %v", err)
	}
	if !st.Done() || st.ExitCode() != 0 || st.Err() != nil {
		t.Errorf("status done=%v exit=%d err=%v", st.Done(), st.ExitCode(), st.Err())
	}
	if st.Job().ID() != job.ID() {
		t.Errorf("status for %s, want %s", st.Job().ID(), job.ID())
	}

	fs, err := sc.FileSystem(ctx)
	if err != nil {
		t.Fatalf("FileSystem: %v", err)
	}
	out, err := fs.ReadFile(ctx, app.NewPath("/stdout.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(out) != "hello batch\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestScheduler_CancelRunningJob(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	job, err := sc.SubmitBatchJob(ctx, app.JobDescription{Executable: "sleep", Arguments: []string{"100"}})
	if err != nil {
		t.Fatalf("SubmitBatchJob: %v", err)
	}
	st, err := sc.WaitUntilRunning(ctx, job, time.Second)
	if err != nil {
		t.Fatalf("WaitUntilRunning: %v", err)
	}
	if !st.Running() {
		t.Errorf("state = %s, want running", st.State())
	}

	jobs, err := sc.Jobs(ctx)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID() != job.ID() {
		t.Errorf("Jobs = %v", jobs)
	}

	st, err = sc.CancelJob(ctx, job)
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if !st.Done() {
		t.Errorf("cancelled job not done: %s", st.State())
	}

	st, err = sc.JobStatus(ctx, job)
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if st.State() != "KILLED" {
		t.Errorf("state = %s, want KILLED", st.State())
	}
	if jobs, _ := sc.Jobs(ctx); len(jobs) != 0 {
		t.Errorf("Jobs after cancel = %v", jobs)
	}
}

func TestScheduler_UnknownQueue(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)

	_, err := sc.SubmitBatchJob(context.Background(), app.JobDescription{Executable: "echo", QueueName: "gpu"})
	var roe *dispatch.RemoteOperationError
	if !errors.As(err, &roe) {
		t.Fatalf("err = %v, want *RemoteOperationError", err)
	}
	if status.Code(roe.Err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(roe.Err))
	}
}

func TestScheduler_InteractiveCat(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	stdin := streaming.FromSlice([]byte("A\n"), []byte("B\n"), []byte("C\n"))
	ij, err := sc.SubmitInteractiveJob(ctx, app.JobDescription{Executable: "cat"}, stdin)
	if err != nil {
		t.Fatalf("SubmitInteractiveJob: %v", err)
	}
	defer ij.Close()
	if ij.Job.ID() == "" {
		t.Fatal("job has no id")
	}

	chunks, err := streaming.Collect(ctx, ij.Stdout())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var got []string
	for _, c := range chunks {
		got = append(got, string(c))
	}
	if want := []string{"A\n", "B\n", "C\n"}; !slices.Equal(got, want) {
		t.Errorf("stdout = %q, want %q", got, want)
	}

	st, err := sc.JobStatus(ctx, ij.Job)
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if !st.Done() || st.ExitCode() != 0 {
		t.Errorf("status done=%v exit=%d", st.Done(), st.ExitCode())
	}
}

func TestScheduler_InteractiveQueueWithTimeout(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	in := streaming.NewQueue[[]byte](1)
	ij, err := sc.SubmitInteractiveJob(ctx, app.JobDescription{Executable: "cat"}, streaming.Source[[]byte](in))
	if err != nil {
		t.Fatalf("SubmitInteractiveJob: %v", err)
	}
	defer ij.Close()
	out := ij.Stdout()

	for _, line := range []string{"one\n", "two\n"} {
		if err := in.Put(ctx, []byte(line)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		echo, err := streaming.NextWithin(ctx, out, time.Second)
		if err != nil {
			t.Fatalf("NextWithin: %v", err)
		}
		if string(echo) != line {
			t.Errorf("echo = %q, want %q", echo, line)
		}
	}

	// Nothing was sent, so nothing comes back in time.
	if _, err := streaming.NextWithin(ctx, out, 20*time.Millisecond); !errors.Is(err, streaming.ErrTimeout) {
		t.Errorf("idle pull = %v, want ErrTimeout", err)
	}
	in.Close()
}

func TestScheduler_InteractiveCancel(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	in := streaming.NewQueue[[]byte](1)
	ij, err := sc.SubmitInteractiveJob(ctx, app.JobDescription{Executable: "cat"}, streaming.Source[[]byte](in))
	if err != nil {
		t.Fatalf("SubmitInteractiveJob: %v", err)
	}
	defer ij.Close()

	if _, err := sc.CancelJob(ctx, ij.Job); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	_, err = ij.Output.Next(ctx)
	var roe *dispatch.RemoteOperationError
	if !errors.As(err, &roe) {
		t.Fatalf("err = %v, want *RemoteOperationError", err)
	}
	if status.Code(roe.Err) != codes.Aborted {
		t.Errorf("code = %v, want Aborted", status.Code(roe.Err))
	}
}

func TestScheduler_InteractiveCancelKeepsEchoes(t *testing.T) {
	s, _ := newTestSession(t)
	sc := localScheduler(t, s)
	ctx := context.Background()

	lines := make([][]byte, 200)
	for i := range lines {
		lines[i] = []byte(fmt.Sprintf("line-%03d\n", i))
	}
	ij, err := sc.SubmitInteractiveJob(ctx, app.JobDescription{Executable: "cat"}, streaming.FromSlice(lines...))
	if err != nil {
		t.Fatalf("SubmitInteractiveJob: %v", err)
	}
	defer ij.Close()

	// Let stdin back up in both directions before cancelling.
	time.Sleep(50 * time.Millisecond)
	if _, err := sc.CancelJob(ctx, ij.Job); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}

	var got []string
	for {
		out, err := ij.Output.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.Fatal("cancelled job ended cleanly")
			}
			var roe *dispatch.RemoteOperationError
			if !errors.As(err, &roe) {
				t.Fatalf("err = %v, want *RemoteOperationError", err)
			}
			if status.Code(roe.Err) != codes.Aborted {
				t.Errorf("code = %v, want Aborted", status.Code(roe.Err))
			}
			break
		}
		if len(out.Stdout) > 0 {
			got = append(got, string(out.Stdout))
		}
	}

	if len(got) == 0 {
		t.Fatal("no echoes delivered before the cancellation status")
	}
	for i, line := range got {
		if line != string(lines[i]) {
			t.Fatalf("echo %d = %q, want %q", i, line, lines[i])
		}
	}
}

func TestScheduler_InteractiveBadDescription(t *testing.T) {
	s, tr := newTestSession(t)
	sc := localScheduler(t, s)
	tr.ResetCalls()

	_, err := sc.Call(context.Background(), "submit_interactive_job", dispatch.Pos("cat"))
	if !dispatch.IsBindingError(err) {
		t.Fatalf("err = %v, want a binding error", err)
	}
	if !strings.Contains(err.Error(), "description") {
		t.Errorf("err = %v, want it to name the description", err)
	}
	if calls := tr.Calls(); len(calls) != 0 {
		t.Errorf("transport saw %v", calls)
	}
}

func TestScheduler_Close(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	sc, err := s.CreateScheduler(ctx, dispatch.Kw("adaptor", "local"))
	if err != nil {
		t.Fatalf("CreateScheduler: %v", err)
	}
	if err := sc.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if open, err := sc.IsOpen(ctx); err != nil || open {
		t.Errorf("IsOpen after close = %v, %v", open, err)
	}
}
