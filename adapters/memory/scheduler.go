package memory

import (
	"context"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// Job states reported by the in-memory scheduler.
const (
	StatePending = "PENDING"
	StateRunning = "RUNNING"
	StateDone    = "DONE"
	StateKilled  = "KILLED"
	StateError   = "ERROR"
)

var schedulerAdaptors = []wire.SchedulerAdaptorDescription{
	{
		Name:                "local",
		Description:         "Runs a small set of built-in executables inside the service process.",
		SupportedLocations:  []string{"local://"},
		IsEmbedded:          true,
		SupportsBatch:       true,
		SupportsInteractive: true,
		UsesFileSystem:      true,
	},
}

type memScheduler struct {
	id       string
	adaptor  string
	location string
	props    map[string]string
	fsID     string
	open     bool
	order    []string
	jobs     map[string]*memJob
}

func newMemScheduler(id, adaptor, location string, props map[string]string, fsID string) *memScheduler {
	return &memScheduler{
		id:       id,
		adaptor:  adaptor,
		location: location,
		props:    copyProps(props),
		fsID:     fsID,
		open:     true,
		jobs:     make(map[string]*memJob),
	}
}

type memJob struct {
	id    string
	name  string
	queue string

	state    string
	exitCode int32
	errMsg   string

	// changed is closed and replaced on every state transition.
	changed chan struct{}
	// kill is closed when an interactive job is cancelled.
	kill chan struct{}
}

func (j *memJob) set(state string, exit int32, msg string) {
	j.state, j.exitCode, j.errMsg = state, exit, msg
	close(j.changed)
	j.changed = make(chan struct{})
	if state == StateKilled {
		close(j.kill)
	}
}

func (j *memJob) done() bool {
	return j.state == StateDone || j.state == StateKilled || j.state == StateError
}

func (j *memJob) status() *wire.JobStatus {
	info := map[string]string{"queue": j.queue}
	if j.name != "" {
		info["name"] = j.name
	}
	return &wire.JobStatus{
		Job:                          wire.Job{ID: j.id},
		State:                        j.state,
		Running:                      j.state == StateRunning,
		Done:                         j.done(),
		ExitCode:                     j.exitCode,
		ErrorMessage:                 j.errMsg,
		SchedulerSpecificInformation: info,
	}
}

func (s *Service) addScheduler(sc *memScheduler) {
	s.scheds[sc.id] = sc
	s.schedOrder = append(s.schedOrder, sc.id)
}

// scheduler returns an open scheduler; callers hold s.mu.
func (s *Service) scheduler(ref wire.Scheduler) (*memScheduler, error) {
	sc, ok := s.scheds[ref.ID]
	if !ok {
		return nil, notFound("no such scheduler %q", ref.ID)
	}
	if !sc.open {
		return nil, status.Errorf(codes.FailedPrecondition, "scheduler %q is closed", ref.ID)
	}
	return sc, nil
}

func (s *Service) withScheduler(ref wire.Scheduler, fn func(sc *memScheduler) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.scheduler(ref)
	if err != nil {
		return nil, err
	}
	return fn(sc)
}

func (sc *memScheduler) job(ref wire.Job) (*memJob, error) {
	j, ok := sc.jobs[ref.ID]
	if !ok {
		return nil, notFound("no job %q on scheduler %q", ref.ID, sc.id)
	}
	return j, nil
}

// queues validates names, defaulting to every queue.
func queuesOf(names []string) ([]string, error) {
	if len(names) == 0 {
		return schedulerQueues, nil
	}
	for _, q := range names {
		if !slices.Contains(schedulerQueues, q) {
			return nil, notFound("no such queue %q", q)
		}
	}
	return names, nil
}

func (s *Service) newJob(sc *memScheduler, desc *wire.JobDescription) (*memJob, error) {
	if desc.Executable == "" {
		return nil, status.Error(codes.InvalidArgument, "job description has no executable")
	}
	queue := desc.QueueName
	if queue == "" {
		queue = schedulerQueues[0]
	} else if !slices.Contains(schedulerQueues, queue) {
		return nil, status.Errorf(codes.InvalidArgument, "no such queue %q", queue)
	}
	j := &memJob{
		id:      s.newID("job"),
		name:    desc.Name,
		queue:   queue,
		state:   StatePending,
		changed: make(chan struct{}),
		kill:    make(chan struct{}),
	}
	sc.jobs[j.id] = j
	sc.order = append(sc.order, j.id)
	return j, nil
}

func (s *Service) registerScheduler(t *Transport) {
	svc := wire.SchedulerService

	unary(t, svc, "localScheduler", func(ctx context.Context, _ *wire.Empty) (any, error) {
		return &wire.Scheduler{ID: LocalSchedulerID}, nil
	})
	unary(t, svc, "listSchedulers", func(ctx context.Context, _ *wire.Empty) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := &wire.Schedulers{}
		for _, id := range s.schedOrder {
			if s.scheds[id].open {
				out.Schedulers = append(out.Schedulers, wire.Scheduler{ID: id})
			}
		}
		return out, nil
	})
	unary(t, svc, "getAdaptorDescriptions", func(ctx context.Context, _ *wire.Empty) (any, error) {
		return &wire.SchedulerAdaptorDescriptions{Descriptions: schedulerAdaptors}, nil
	})
	unary(t, svc, "getAdaptorNames", func(ctx context.Context, _ *wire.Empty) (any, error) {
		out := &wire.AdaptorNames{}
		for _, d := range schedulerAdaptors {
			out.Name = append(out.Name, d.Name)
		}
		return out, nil
	})
	unary(t, svc, "getAdaptorDescription", func(ctx context.Context, req *wire.AdaptorName) (any, error) {
		for _, d := range schedulerAdaptors {
			if d.Name == req.Name {
				return &d, nil
			}
		}
		return nil, notFound("no scheduler adaptor %q", req.Name)
	})
	unary(t, svc, "create", func(ctx context.Context, req *wire.CreateSchedulerRequest) (any, error) {
		if !slices.ContainsFunc(schedulerAdaptors, func(d wire.SchedulerAdaptorDescription) bool { return d.Name == req.Adaptor }) {
			return nil, notFound("no scheduler adaptor %q", req.Adaptor)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		sc := newMemScheduler(s.newID("scheduler"), req.Adaptor, req.Location, req.Properties, LocalFileSystemID)
		s.addScheduler(sc)
		return &wire.Scheduler{ID: sc.id}, nil
	})
	unary(t, svc, "getAdaptorName", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) { return &wire.AdaptorName{Name: sc.adaptor}, nil })
	})
	unary(t, svc, "getLocation", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) { return &wire.Location{Location: sc.location}, nil })
	})
	unary(t, svc, "getProperties", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) { return &wire.Properties{Properties: copyProps(sc.props)}, nil })
	})
	unary(t, svc, "getQueueNames", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) {
			return &wire.Queues{Name: slices.Clone(schedulerQueues)}, nil
		})
	})
	unary(t, svc, "getDefaultQueueName", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) { return &wire.Queue{Name: schedulerQueues[0]}, nil })
	})
	unary(t, svc, "getFileSystem", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) { return &wire.FileSystem{ID: sc.fsID}, nil })
	})
	unary(t, svc, "isOpen", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		sc, ok := s.scheds[req.ID]
		if !ok {
			return nil, notFound("no such scheduler %q", req.ID)
		}
		return &wire.Is{Value: sc.open}, nil
	})
	unary(t, svc, "close", func(ctx context.Context, req *wire.Scheduler) (any, error) {
		return s.withScheduler(*req, func(sc *memScheduler) (any, error) {
			sc.open = false
			return &wire.Empty{}, nil
		})
	})
	unary(t, svc, "getJobs", func(ctx context.Context, req *wire.SchedulerAndQueues) (any, error) {
		return s.withScheduler(req.Scheduler, func(sc *memScheduler) (any, error) {
			queues, err := queuesOf(req.Queues)
			if err != nil {
				return nil, err
			}
			out := &wire.Jobs{}
			for _, id := range sc.order {
				if j := sc.jobs[id]; !j.done() && slices.Contains(queues, j.queue) {
					out.Jobs = append(out.Jobs, wire.Job{ID: id})
				}
			}
			return out, nil
		})
	})
	unary(t, svc, "getQueueStatus", func(ctx context.Context, req *wire.GetQueueStatusRequest) (any, error) {
		return s.withScheduler(req.Scheduler, func(sc *memScheduler) (any, error) {
			if _, err := queuesOf([]string{req.Queue}); err != nil {
				return nil, err
			}
			qs := sc.queueStatus(req.Queue)
			return &qs, nil
		})
	})
	unary(t, svc, "getQueueStatuses", func(ctx context.Context, req *wire.SchedulerAndQueues) (any, error) {
		return s.withScheduler(req.Scheduler, func(sc *memScheduler) (any, error) {
			queues, err := queuesOf(req.Queues)
			if err != nil {
				return nil, err
			}
			out := &wire.QueueStatuses{}
			for _, q := range queues {
				out.Statuses = append(out.Statuses, sc.queueStatus(q))
			}
			return out, nil
		})
	})
	unary(t, svc, "submitBatchJob", func(ctx context.Context, req *wire.SubmitBatchJobRequest) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.submitBatch(req)
	})
	unary(t, svc, "getJobStatus", func(ctx context.Context, req *wire.JobRequest) (any, error) {
		return s.withScheduler(req.Scheduler, func(sc *memScheduler) (any, error) {
			j, err := sc.job(req.Job)
			if err != nil {
				return nil, err
			}
			return j.status(), nil
		})
	})
	unary(t, svc, "cancelJob", func(ctx context.Context, req *wire.JobRequest) (any, error) {
		return s.withScheduler(req.Scheduler, func(sc *memScheduler) (any, error) {
			j, err := sc.job(req.Job)
			if err != nil {
				return nil, err
			}
			if !j.done() {
				j.set(StateKilled, -1, "job cancelled")
			}
			return j.status(), nil
		})
	})
	unary(t, svc, "waitUntilDone", func(ctx context.Context, req *wire.WaitRequest) (any, error) {
		return s.wait(ctx, req, (*memJob).done)
	})
	unary(t, svc, "waitUntilRunning", func(ctx context.Context, req *wire.WaitRequest) (any, error) {
		return s.wait(ctx, req, func(j *memJob) bool { return j.state != StatePending })
	})

	stream(t, svc, "submitInteractiveJob", s.interactive)
}

func (sc *memScheduler) queueStatus(q string) wire.QueueStatus {
	var active int
	for _, j := range sc.jobs {
		if j.queue == q && !j.done() {
			active++
		}
	}
	return wire.QueueStatus{
		Scheduler:                    wire.Scheduler{ID: sc.id},
		Name:                         q,
		SchedulerSpecificInformation: map[string]string{"jobs": strconv.Itoa(active)},
	}
}

// wait blocks until ready reports true for the job, the timeout (in
// milliseconds, zero meaning none) expires, or ctx ends. It returns the
// job's status at that point.
func (s *Service) wait(ctx context.Context, req *wire.WaitRequest, ready func(*memJob) bool) (any, error) {
	var deadline <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(time.Duration(req.Timeout) * time.Millisecond)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		s.mu.Lock()
		sc, err := s.scheduler(req.Scheduler)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		j, err := sc.job(req.Job)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		st, changed := j.status(), j.changed
		done := ready(j)
		s.mu.Unlock()

		if done {
			return st, nil
		}
		select {
		case <-changed:
		case <-deadline:
			return st, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// submitBatch runs the job to completion unless it is a sleep. Callers hold
// s.mu.
func (s *Service) submitBatch(req *wire.SubmitBatchJobRequest) (any, error) {
	sc, err := s.scheduler(req.Scheduler)
	if err != nil {
		return nil, err
	}
	desc := &req.Description
	j, err := s.newJob(sc, desc)
	if err != nil {
		return nil, err
	}
	j.set(StateRunning, 0, "")
	if desc.Executable == "sleep" {
		return &wire.Job{ID: j.id}, nil
	}

	fs, ok := s.fileSys[sc.fsID]
	if !ok || !fs.open {
		j.set(StateError, 1, "job file system is not available")
		return &wire.Job{ID: j.id}, nil
	}
	dir := fs.cwd
	if desc.WorkingDirectory != "" {
		dir = fs.resolve(wire.Path{Path: desc.WorkingDirectory})
	}
	at := func(name string) string {
		if path.IsAbs(name) {
			return path.Clean(name)
		}
		return path.Join(dir, name)
	}

	var stdin []byte
	if desc.Stdin != "" {
		if stdin, err = fs.get(at(desc.Stdin)); err != nil {
			j.set(StateError, 1, status.Convert(err).Message())
			return &wire.Job{ID: j.id}, nil
		}
	}
	stdout, stderr, exit := execute(desc, stdin)

	now := s.now()
	for _, out := range []struct {
		name string
		data []byte
	}{{desc.Stdout, stdout}, {desc.Stderr, stderr}} {
		if out.name == "" {
			continue
		}
		if err := fs.put(at(out.name), out.data, now); err != nil {
			j.set(StateError, 1, status.Convert(err).Message())
			return &wire.Job{ID: j.id}, nil
		}
	}
	j.set(StateDone, exit, "")
	return &wire.Job{ID: j.id}, nil
}

// execute runs a batch executable over its whole stdin.
func execute(desc *wire.JobDescription, stdin []byte) (stdout, stderr []byte, exit int32) {
	switch desc.Executable {
	case "echo":
		return []byte(strings.Join(desc.Arguments, " ") + "\n"), nil, 0
	case "cat":
		return stdin, nil, 0
	case "false":
		return nil, nil, 1
	default:
		return nil, nil, 0
	}
}

// interactive serves submitInteractiveJob. The first message carries the
// scheduler and description; the first reply carries only the job. Later
// messages carry stdin, and replies carry output.
func (s *Service) interactive(ctx context.Context, st ServerStream) error {
	var header wire.SubmitInteractiveJobRequest
	if err := st.Recv(&header); err != nil {
		return err
	}

	s.mu.Lock()
	sc, err := s.scheduler(header.Scheduler)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	j, err := s.newJob(sc, &header.Description)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	j.set(StateRunning, 0, "")
	kill := j.kill
	s.mu.Unlock()

	finish := func(exit int32) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !j.done() {
			j.set(StateDone, exit, "")
		}
	}

	if err := st.Send(&wire.SubmitInteractiveJobResponse{Job: wire.Job{ID: j.id}}); err != nil {
		finish(1)
		return err
	}

	desc := &header.Description
	reply := func(stdout []byte) error {
		if len(stdout) == 0 {
			return nil
		}
		return st.Send(&wire.SubmitInteractiveJobResponse{Job: wire.Job{ID: j.id}, Stdout: stdout})
	}
	if desc.Executable == "echo" {
		if err := reply([]byte(strings.Join(desc.Arguments, " ") + "\n")); err != nil {
			finish(1)
			return err
		}
	}
	echo := desc.Executable == "cat"
	if echo {
		if err := reply(header.Stdin); err != nil {
			finish(1)
			return err
		}
	}

	type input struct {
		data []byte
		err  error
	}
	in := make(chan input)
	go func() {
		for {
			var msg wire.SubmitInteractiveJobRequest
			err := st.Recv(&msg)
			select {
			case in <- input{msg.Stdin, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-in:
			if IsEOF(msg.err) {
				exit := int32(0)
				if desc.Executable == "false" {
					exit = 1
				}
				finish(exit)
				return nil
			}
			if msg.err != nil {
				finish(1)
				return msg.err
			}
			if echo {
				if err := reply(msg.data); err != nil {
					finish(1)
					return err
				}
			}
		case <-kill:
			return status.Errorf(codes.Aborted, "job %s was cancelled", j.id)
		case <-ctx.Done():
			s.mu.Lock()
			if !j.done() {
				j.set(StateKilled, -1, "client went away")
			}
			s.mu.Unlock()
			return ctx.Err()
		}
	}
}
