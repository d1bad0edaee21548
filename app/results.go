package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
	"github.com/xenon-middleware/xenon-go/domain/wire"
)

// -----------------------------------------------------------------------------
// Output transforms
// -----------------------------------------------------------------------------

// convert builds an output transform from a typed conversion of the raw
// response.
func convert[R any](fn func(s *Session, r *R) any) dispatch.OutputTransform[*Session] {
	return func(ctx context.Context, s *Session, raw any) (any, error) {
		r, ok := raw.(*R)
		if !ok {
			return nil, fmt.Errorf("unexpected response %T, want %T", raw, r)
		}
		return fn(s, r), nil
	}
}

// each maps every fragment of a response stream. The result is a lazy,
// single-pass source; closing it closes the stream.
func each[R, T any](fn func(s *Session, r *R) T) dispatch.OutputTransform[*Session] {
	return func(ctx context.Context, s *Session, raw any) (any, error) {
		rs, ok := raw.(*dispatch.ResponseStream)
		if !ok {
			return nil, fmt.Errorf("unexpected response %T, want a stream", raw)
		}
		var src streaming.Source[any] = rs
		return streaming.Map(src, func(msg any) (T, error) {
			r, ok := msg.(*R)
			if !ok {
				var zero T
				return zero, fmt.Errorf("unexpected fragment %T on %s", msg, rs.Method())
			}
			return fn(s, r), nil
		}), nil
	}
}

func isOutput() dispatch.OutputTransform[*Session] {
	return convert(func(s *Session, r *wire.Is) any { return Is{newProxy(s, *r)} })
}

func pathOutput() dispatch.OutputTransform[*Session] {
	return convert(func(_ *Session, r *wire.Path) any { return PathFromWire(*r) })
}

func nameOutput() dispatch.OutputTransform[*Session] {
	return convert(func(_ *Session, r *wire.AdaptorName) any { return r.Name })
}

func namesOutput() dispatch.OutputTransform[*Session] {
	return convert(func(_ *Session, r *wire.AdaptorNames) any { return r.Name })
}

func locationOutput() dispatch.OutputTransform[*Session] {
	return convert(func(_ *Session, r *wire.Location) any { return r.Location })
}

func propertiesOutput() dispatch.OutputTransform[*Session] {
	return convert(func(_ *Session, r *wire.Properties) any { return r.Properties })
}

// result asserts the value returned by a table call.
func result[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result %T, want %T", v, zero)
	}
	return t, nil
}

// millis converts a wait timeout; zero or negative means no timeout.
// Positive timeouts round up so they never become unbounded.
func millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64((d + time.Millisecond - 1) / time.Millisecond)
}

// -----------------------------------------------------------------------------
// Is
// -----------------------------------------------------------------------------

// Is wraps a boolean result.
type Is struct {
	proxy[wire.Is]
}

func (i Is) Bool() bool { return i.value.Value }

// -----------------------------------------------------------------------------
// PathAttributes
// -----------------------------------------------------------------------------

var pathAttributesPublic = []string{
	"path", "is_directory", "is_regular", "is_symbolic_link", "is_other",
	"is_hidden", "is_readable", "is_writable", "is_executable", "size",
	"creation_time", "last_access_time", "last_modified_time", "owner",
	"group", "permissions",
}

// PathAttributes describes one entry of a remote file system.
type PathAttributes struct {
	proxy[wire.PathAttributes]
}

func newPathAttributes(s *Session, r *wire.PathAttributes) PathAttributes {
	return PathAttributes{newProxy(s, *r)}
}

func (a PathAttributes) Path() Path { return PathFromWire(a.value.Path) }
func (a PathAttributes) IsDirectory() bool { return a.value.IsDirectory }
func (a PathAttributes) IsRegular() bool { return a.value.IsRegular }
func (a PathAttributes) IsSymbolicLink() bool { return a.value.IsSymbolicLink }
func (a PathAttributes) IsOther() bool { return a.value.IsOther }
func (a PathAttributes) IsHidden() bool { return a.value.IsHidden }
func (a PathAttributes) IsReadable() bool { return a.value.IsReadable }
func (a PathAttributes) IsWritable() bool { return a.value.IsWritable }
func (a PathAttributes) IsExecutable() bool { return a.value.IsExecutable }
func (a PathAttributes) Size() int64 { return a.value.Size }
func (a PathAttributes) Owner() string { return a.value.Owner }
func (a PathAttributes) Group() string { return a.value.Group }
func (a PathAttributes) Permissions() Permissions {
	return permissionsFromWire(a.value.Permissions)
}

// Times are reported in milliseconds since the epoch.
func (a PathAttributes) CreationTime() time.Time { return time.UnixMilli(a.value.CreationTime) }
func (a PathAttributes) LastAccessTime() time.Time { return time.UnixMilli(a.value.LastAccessTime) }
func (a PathAttributes) LastModifiedTime() time.Time { return time.UnixMilli(a.value.LastModifiedTime) }

// Attr returns a public field of the wrapped attributes by its wire name,
// e.g. "size" or "is_directory".
func (a PathAttributes) Attr(name string) (any, bool) {
	return a.attr("PathAttributes", pathAttributesPublic, name)
}

// Fields returns the public attributes keyed by wire name, with the path as
// a string and permissions by name.
func (a PathAttributes) Fields() map[string]any {
	m := attributeEnv(a.value)
	delete(m, "name")
	delete(m, "dir")
	return m
}

// -----------------------------------------------------------------------------
// CopyOperation and CopyStatus
// -----------------------------------------------------------------------------

// CopyOperation identifies a copy started by FileSystem.Copy.
type CopyOperation struct {
	proxy[wire.CopyOperation]
}

func (c CopyOperation) ID() string { return c.value.ID }

var copyStatusPublic = []string{"state", "running", "done", "bytes_to_copy", "bytes_copied", "error_message"}

// CopyStatus reports the progress of a copy.
type CopyStatus struct {
	proxy[wire.CopyStatus]
}

func (c CopyStatus) CopyOperation() CopyOperation {
	return CopyOperation{newProxy(c.session, c.value.CopyOperation)}
}
func (c CopyStatus) State() string { return c.value.State }
func (c CopyStatus) Running() bool { return c.value.Running }
func (c CopyStatus) Done() bool { return c.value.Done }
func (c CopyStatus) BytesToCopy() int64 { return c.value.BytesToCopy }
func (c CopyStatus) BytesCopied() int64 { return c.value.BytesCopied }

// Err returns the copy's failure, if any.
func (c CopyStatus) Err() error {
	if c.value.ErrorMessage == "" {
		return nil
	}
	return errors.New(c.value.ErrorMessage)
}

func (c CopyStatus) Attr(name string) (any, bool) {
	return c.attr("CopyStatus", copyStatusPublic, name)
}

func (c CopyStatus) Fields() map[string]any {
	m := c.fields("CopyStatus", copyStatusPublic)
	m["copy_operation"] = c.value.CopyOperation.ID
	return m
}

// -----------------------------------------------------------------------------
// Job, JobStatus and QueueStatus
// -----------------------------------------------------------------------------

// Job identifies a job submitted to a Scheduler.
type Job struct {
	proxy[wire.Job]
}

func (j Job) ID() string { return j.value.ID }

var jobStatusPublic = []string{"state", "running", "done", "exit_code", "error_message", "scheduler_specific_information"}

// JobStatus reports the state of a job.
type JobStatus struct {
	proxy[wire.JobStatus]
}

func (j JobStatus) Job() Job { return Job{newProxy(j.session, j.value.Job)} }
func (j JobStatus) State() string { return j.value.State }
func (j JobStatus) Running() bool { return j.value.Running }
func (j JobStatus) Done() bool { return j.value.Done }
func (j JobStatus) ExitCode() int32 { return j.value.ExitCode }
func (j JobStatus) Info() map[string]string {
	return j.value.SchedulerSpecificInformation
}

// Err returns the job's failure, if any. A non-zero exit code is not an
// error.
func (j JobStatus) Err() error {
	if j.value.ErrorMessage == "" {
		return nil
	}
	return errors.New(j.value.ErrorMessage)
}

func (j JobStatus) Attr(name string) (any, bool) {
	return j.attr("JobStatus", jobStatusPublic, name)
}

// Fields returns the public fields plus the job id under "job".
func (j JobStatus) Fields() map[string]any {
	m := j.fields("JobStatus", jobStatusPublic)
	m["job"] = j.value.Job.ID
	return m
}

var queueStatusPublic = []string{"name", "error_message", "scheduler_specific_information"}

// QueueStatus reports the state of one scheduler queue.
type QueueStatus struct {
	proxy[wire.QueueStatus]
}

func (q QueueStatus) Name() string { return q.value.Name }
func (q QueueStatus) Info() map[string]string { return q.value.SchedulerSpecificInformation }

func (q QueueStatus) Err() error {
	if q.value.ErrorMessage == "" {
		return nil
	}
	return errors.New(q.value.ErrorMessage)
}

func (q QueueStatus) Attr(name string) (any, bool) {
	return q.attr("QueueStatus", queueStatusPublic, name)
}

func (q QueueStatus) Fields() map[string]any {
	return q.fields("QueueStatus", queueStatusPublic)
}
