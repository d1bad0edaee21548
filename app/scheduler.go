package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// JobDescription describes a job to submit.
type JobDescription = wire.JobDescription

type schedDesc = dispatch.Descriptor[*Session]

var schedulerTable = dispatch.MustNewTable[*Session](wire.SchedulerService, "scheduler",
	schedDesc{Name: "local_scheduler", Static: true, Output: schedulerOutput()},
	schedDesc{Name: "list_schedulers", Static: true, Output: convert(func(s *Session, r *wire.Schedulers) any {
		out := make([]Scheduler, len(r.Schedulers))
		for i, sc := range r.Schedulers {
			out[i] = Scheduler{newProxy(s, sc)}
		}
		return out
	})},
	schedDesc{Name: "get_adaptor_descriptions", Static: true, Output: convert(func(_ *Session, r *wire.SchedulerAdaptorDescriptions) any {
		return r.Descriptions
	})},
	schedDesc{Name: "get_adaptor_names", Static: true, Output: namesOutput()},
	schedDesc{Name: "get_adaptor_description", Static: true, Request: "AdaptorName", Output: convert(func(_ *Session, r *wire.SchedulerAdaptorDescription) any {
		return *r
	})},
	schedDesc{Name: "create", Static: true, Request: "CreateSchedulerRequest", Output: schedulerOutput()},

	schedDesc{Name: "get_adaptor_name", Output: nameOutput()},
	schedDesc{Name: "get_location", Output: locationOutput()},
	schedDesc{Name: "get_properties", Output: propertiesOutput()},
	schedDesc{Name: "get_jobs", Request: "SchedulerAndQueues", Output: convert(func(s *Session, r *wire.Jobs) any {
		out := make([]Job, len(r.Jobs))
		for i, j := range r.Jobs {
			out[i] = Job{newProxy(s, j)}
		}
		return out
	})},
	schedDesc{Name: "get_queue_names", Output: convert(func(_ *Session, r *wire.Queues) any { return r.Name })},
	schedDesc{Name: "get_default_queue_name", Output: convert(func(_ *Session, r *wire.Queue) any { return r.Name })},
	schedDesc{Name: "is_open", Output: isOutput()},
	schedDesc{Name: "close"},
	schedDesc{Name: "submit_batch_job", UsesRequest: true, Output: jobOutput()},
	schedDesc{Name: "submit_interactive_job", Input: interactiveInput, Params: interactiveParams, Output: interactiveOutput},
	schedDesc{Name: "cancel_job", Request: "JobRequest", Output: jobStatusOutput()},
	schedDesc{Name: "get_job_status", Request: "JobRequest", Output: jobStatusOutput()},
	schedDesc{Name: "wait_until_done", Request: "WaitRequest", Output: jobStatusOutput()},
	schedDesc{Name: "wait_until_running", Request: "WaitRequest", Output: jobStatusOutput()},
	schedDesc{Name: "get_queue_status", UsesRequest: true, Output: convert(func(s *Session, r *wire.QueueStatus) any {
		return QueueStatus{newProxy(s, *r)}
	})},
	schedDesc{Name: "get_queue_statuses", Request: "SchedulerAndQueues", Output: convert(func(s *Session, r *wire.QueueStatuses) any {
		out := make([]QueueStatus, len(r.Statuses))
		for i, q := range r.Statuses {
			out[i] = QueueStatus{newProxy(s, q)}
		}
		return out
	})},
	schedDesc{Name: "get_file_system", Output: convert(func(s *Session, r *wire.FileSystem) any {
		return FileSystem{newProxy(s, *r)}
	})},
)

func schedulerOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.Scheduler) any { return Scheduler{newProxy(s, *r)} })
}

func jobOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.Job) any { return Job{newProxy(s, *r)} })
}

func jobStatusOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.JobStatus) any { return JobStatus{newProxy(s, *r)} })
}

var interactiveParams = []string{"description", "stdin"}

// interactiveInput sends the scheduler and description as the header
// fragment, then one fragment per stdin chunk.
func interactiveInput(recv dispatch.Receiver[*Session], args dispatch.Args) (dispatch.Outbound, error) {
	const name = "submit_interactive_job"
	values, err := dispatch.Bind(name, "", interactiveParams, args)
	if err != nil {
		return dispatch.Outbound{}, err
	}

	var desc wire.JobDescription
	switch d := values["description"].(type) {
	case wire.JobDescription:
		desc = d
	case *wire.JobDescription:
		if d == nil {
			return dispatch.Outbound{}, &dispatch.ArgumentBindingError{Method: name, Reason: "description is nil"}
		}
		desc = *d
	default:
		return dispatch.Outbound{}, &dispatch.ArgumentBindingError{Method: name, Reason: fmt.Sprintf("description: cannot use %T", d)}
	}
	stdin, err := chunkSource(name, values["stdin"])
	if err != nil {
		return dispatch.Outbound{}, err
	}

	sched, _ := recv.Wrapped().(wire.Scheduler)
	header := &wire.SubmitInteractiveJobRequest{Scheduler: sched, Description: desc}
	return dispatch.Fragments(header, streaming.Map(stdin, func(b []byte) (any, error) {
		return &wire.SubmitInteractiveJobRequest{Stdin: b}, nil
	})), nil
}

// interactiveOutput waits for the first response, which names the job, and
// returns the rest of the stream as the job's output.
func interactiveOutput(ctx context.Context, s *Session, raw any) (any, error) {
	rs, ok := raw.(*dispatch.ResponseStream)
	if !ok {
		return nil, fmt.Errorf("unexpected response %T, want a stream", raw)
	}
	first, err := rs.Next(ctx)
	if errors.Is(err, io.EOF) {
		err = &dispatch.RemoteOperationError{Method: rs.Method(), Err: errors.New("stream ended before the job was announced")}
	}
	if err != nil {
		rs.Close()
		return nil, err
	}
	header, ok := first.(*wire.SubmitInteractiveJobResponse)
	if !ok {
		rs.Close()
		return nil, fmt.Errorf("unexpected fragment %T on %s", first, rs.Method())
	}

	var src streaming.Source[any] = rs
	output := streaming.Map(src, func(msg any) (Output, error) {
		r, ok := msg.(*wire.SubmitInteractiveJobResponse)
		if !ok {
			return Output{}, fmt.Errorf("unexpected fragment %T on %s", msg, rs.Method())
		}
		return Output{Stdout: r.Stdout, Stderr: r.Stderr}, nil
	})
	return InteractiveJob{Job: Job{newProxy(s, header.Job)}, Output: output}, nil
}

// Output is one chunk of interactive job output.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// InteractiveJob is a running interactive job and its output, in arrival
// order. Closing Output ends the call and stops forwarding stdin.
type InteractiveJob struct {
	Job    Job
	Output streaming.Source[Output]
}

// Stdout narrows the output to its non-empty stdout chunks.
func (j InteractiveJob) Stdout() streaming.Source[[]byte] {
	nonEmpty := streaming.Filter(j.Output, func(o Output) (bool, error) { return len(o.Stdout) > 0, nil })
	return streaming.Map(nonEmpty, func(o Output) ([]byte, error) { return o.Stdout, nil })
}

// Close ends the call.
func (j InteractiveJob) Close() error { return streaming.Close(j.Output) }

// -----------------------------------------------------------------------------
// Scheduler
// -----------------------------------------------------------------------------

// Scheduler is a remote job scheduler.
type Scheduler struct {
	proxy[wire.Scheduler]
}

func (s Scheduler) ID() string { return s.value.ID }

func (s Scheduler) Equal(other Scheduler) bool { return s.value == other.value }

func (s Scheduler) String() string { return "Scheduler(" + s.value.ID + ")" }

// JobByID returns a handle for a job submitted earlier, e.g. by another
// process. The id is not checked until the handle is used.
func (s Scheduler) JobByID(id string) Job {
	return Job{newProxy(s.session, wire.Job{ID: id})}
}

// Call runs any scheduler method by its underscore name.
func (s Scheduler) Call(ctx context.Context, method string, args dispatch.Args) (any, error) {
	return schedulerTable.Call(ctx, method, s, args)
}

// SchedulerMethods lists the synthesized scheduler methods.
func SchedulerMethods() []*dispatch.Method[*Session] { return schedulerTable.Methods() }

// LocalScheduler returns the scheduler of the service host.
func (s *Session) LocalScheduler(ctx context.Context) (Scheduler, error) {
	return result[Scheduler](schedulerTable.Call(ctx, "local_scheduler", s, dispatch.Args{}))
}

func (s *Session) ListSchedulers(ctx context.Context) ([]Scheduler, error) {
	return result[[]Scheduler](schedulerTable.Call(ctx, "list_schedulers", s, dispatch.Args{}))
}

func (s *Session) SchedulerAdaptorDescriptions(ctx context.Context) ([]wire.SchedulerAdaptorDescription, error) {
	return result[[]wire.SchedulerAdaptorDescription](schedulerTable.Call(ctx, "get_adaptor_descriptions", s, dispatch.Args{}))
}

func (s *Session) SchedulerAdaptorNames(ctx context.Context) ([]string, error) {
	return result[[]string](schedulerTable.Call(ctx, "get_adaptor_names", s, dispatch.Args{}))
}

func (s *Session) SchedulerAdaptorDescription(ctx context.Context, name string) (wire.SchedulerAdaptorDescription, error) {
	return result[wire.SchedulerAdaptorDescription](schedulerTable.Call(ctx, "get_adaptor_description", s, dispatch.Pos(name)))
}

// CreateScheduler opens a scheduler. args bind against
// CreateSchedulerRequest.
func (s *Session) CreateScheduler(ctx context.Context, args dispatch.Args) (Scheduler, error) {
	return result[Scheduler](schedulerTable.Call(ctx, "create", s, args))
}

func (s Scheduler) AdaptorName(ctx context.Context) (string, error) {
	return result[string](s.Call(ctx, "get_adaptor_name", dispatch.Args{}))
}

func (s Scheduler) Location(ctx context.Context) (string, error) {
	return result[string](s.Call(ctx, "get_location", dispatch.Args{}))
}

func (s Scheduler) Properties(ctx context.Context) (map[string]string, error) {
	return result[map[string]string](s.Call(ctx, "get_properties", dispatch.Args{}))
}

// Jobs lists the unfinished jobs in queues, or in every queue when none
// are given.
func (s Scheduler) Jobs(ctx context.Context, queues ...string) ([]Job, error) {
	return result[[]Job](s.Call(ctx, "get_jobs", dispatch.Pos(queues)))
}

func (s Scheduler) QueueNames(ctx context.Context) ([]string, error) {
	return result[[]string](s.Call(ctx, "get_queue_names", dispatch.Args{}))
}

func (s Scheduler) DefaultQueueName(ctx context.Context) (string, error) {
	return result[string](s.Call(ctx, "get_default_queue_name", dispatch.Args{}))
}

func (s Scheduler) IsOpen(ctx context.Context) (bool, error) {
	is, err := result[Is](s.Call(ctx, "is_open", dispatch.Args{}))
	return is.Bool(), err
}

// Close closes the remote scheduler. The session stays open.
func (s Scheduler) Close(ctx context.Context) error {
	_, err := s.Call(ctx, "close", dispatch.Args{})
	return err
}

func (s Scheduler) SubmitBatchJob(ctx context.Context, desc JobDescription) (Job, error) {
	return result[Job](s.Call(ctx, "submit_batch_job", dispatch.Pos(desc)))
}

// SubmitInteractiveJob starts desc and forwards every chunk of stdin to it
// in order. It returns once the scheduler has announced the job. stdin may
// be a streaming.Source[[]byte], []byte, string, io.Reader or nil.
func (s Scheduler) SubmitInteractiveJob(ctx context.Context, desc JobDescription, stdin any) (InteractiveJob, error) {
	return result[InteractiveJob](s.Call(ctx, "submit_interactive_job", dispatch.Pos(desc, stdin)))
}

func (s Scheduler) CancelJob(ctx context.Context, job Job) (JobStatus, error) {
	return result[JobStatus](s.Call(ctx, "cancel_job", dispatch.Pos(job)))
}

func (s Scheduler) JobStatus(ctx context.Context, job Job) (JobStatus, error) {
	return result[JobStatus](s.Call(ctx, "get_job_status", dispatch.Pos(job)))
}

// WaitUntilDone blocks until job is done or timeout passes; zero waits
// without bound.
func (s Scheduler) WaitUntilDone(ctx context.Context, job Job, timeout time.Duration) (JobStatus, error) {
	return result[JobStatus](s.Call(ctx, "wait_until_done", dispatch.Pos(job, millis(timeout))))
}

// WaitUntilRunning blocks until job has left the pending state or timeout
// passes.
func (s Scheduler) WaitUntilRunning(ctx context.Context, job Job, timeout time.Duration) (JobStatus, error) {
	return result[JobStatus](s.Call(ctx, "wait_until_running", dispatch.Pos(job, millis(timeout))))
}

func (s Scheduler) QueueStatus(ctx context.Context, queue string) (QueueStatus, error) {
	return result[QueueStatus](s.Call(ctx, "get_queue_status", dispatch.Pos(queue)))
}

func (s Scheduler) QueueStatuses(ctx context.Context, queues ...string) ([]QueueStatus, error) {
	return result[[]QueueStatus](s.Call(ctx, "get_queue_statuses", dispatch.Pos(queues)))
}

// FileSystem returns the file system the scheduler reads job files from.
func (s Scheduler) FileSystem(ctx context.Context) (FileSystem, error) {
	return result[FileSystem](s.Call(ctx, "get_file_system", dispatch.Args{}))
}
