package wire

import "sort"

var registry = map[string]Schema{}

func register(schemas ...Schema) {
	for _, s := range schemas {
		if _, dup := registry[s.Name()]; dup {
			panic("wire: duplicate schema " + s.Name())
		}
		registry[s.Name()] = s
	}
}

// Lookup returns the schema registered under a message name.
func Lookup(name string) (Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// Schemas returns every registered schema ordered by name.
func Schemas() []Schema {
	out := make([]Schema, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func init() {
	register(
		// common
		newSchema[Empty]("Empty"),
		newSchema("Is",
			field("value", func(m *Is) *bool { return &m.Value }),
		),
		newSchema("AdaptorName",
			field("name", func(m *AdaptorName) *string { return &m.Name }),
		),
		newSchema("Path",
			field("path", func(m *Path) *string { return &m.Path }),
			field("separator", func(m *Path) *string { return &m.Separator }),
		),
		newSchema("Location",
			field("location", func(m *Location) *string { return &m.Location }),
		),
		newSchema("Properties",
			field("properties", func(m *Properties) *map[string]string { return &m.Properties }),
		),

		// file systems
		newSchema("FileSystem",
			field("id", func(m *FileSystem) *string { return &m.ID }),
		),
		newSchema("CreateFileSystemRequest",
			field("adaptor", func(m *CreateFileSystemRequest) *string { return &m.Adaptor }),
			field("location", func(m *CreateFileSystemRequest) *string { return &m.Location }),
			field("properties", func(m *CreateFileSystemRequest) *map[string]string { return &m.Properties }),
			optional("default_cred", func(m *CreateFileSystemRequest) **DefaultCredential { return &m.DefaultCred }),
			optional("password_cred", func(m *CreateFileSystemRequest) **PasswordCredential { return &m.PasswordCred }),
			optional("certificate_cred", func(m *CreateFileSystemRequest) **CertificateCredential { return &m.CertificateCred }),
		),
		newSchema("PathRequest",
			field("filesystem", func(m *PathRequest) *FileSystem { return &m.Filesystem }),
			field("path", func(m *PathRequest) *Path { return &m.Path }),
		),
		newSchema("RenameRequest",
			field("filesystem", func(m *RenameRequest) *FileSystem { return &m.Filesystem }),
			field("source", func(m *RenameRequest) *Path { return &m.Source }),
			field("target", func(m *RenameRequest) *Path { return &m.Target }),
		),
		newSchema("CreateSymbolicLinkRequest",
			field("filesystem", func(m *CreateSymbolicLinkRequest) *FileSystem { return &m.Filesystem }),
			field("link", func(m *CreateSymbolicLinkRequest) *Path { return &m.Link }),
			field("target", func(m *CreateSymbolicLinkRequest) *Path { return &m.Target }),
		),
		newSchema("DeleteRequest",
			field("filesystem", func(m *DeleteRequest) *FileSystem { return &m.Filesystem }),
			field("path", func(m *DeleteRequest) *Path { return &m.Path }),
			field("recursive", func(m *DeleteRequest) *bool { return &m.Recursive }),
		),
		newSchema("ListRequest",
			field("filesystem", func(m *ListRequest) *FileSystem { return &m.Filesystem }),
			field("dir", func(m *ListRequest) *Path { return &m.Dir }),
			field("recursive", func(m *ListRequest) *bool { return &m.Recursive }),
		),
		newSchema("PathAttributes",
			field("path", func(m *PathAttributes) *Path { return &m.Path }),
			field("is_directory", func(m *PathAttributes) *bool { return &m.IsDirectory }),
			field("is_regular", func(m *PathAttributes) *bool { return &m.IsRegular }),
			field("is_symbolic_link", func(m *PathAttributes) *bool { return &m.IsSymbolicLink }),
			field("is_other", func(m *PathAttributes) *bool { return &m.IsOther }),
			field("is_hidden", func(m *PathAttributes) *bool { return &m.IsHidden }),
			field("is_readable", func(m *PathAttributes) *bool { return &m.IsReadable }),
			field("is_writable", func(m *PathAttributes) *bool { return &m.IsWritable }),
			field("is_executable", func(m *PathAttributes) *bool { return &m.IsExecutable }),
			number("size", func(m *PathAttributes) *int64 { return &m.Size }),
			number("creation_time", func(m *PathAttributes) *int64 { return &m.CreationTime }),
			number("last_access_time", func(m *PathAttributes) *int64 { return &m.LastAccessTime }),
			number("last_modified_time", func(m *PathAttributes) *int64 { return &m.LastModifiedTime }),
			field("owner", func(m *PathAttributes) *string { return &m.Owner }),
			field("group", func(m *PathAttributes) *string { return &m.Group }),
			enumList("permissions", func(m *PathAttributes) *[]PosixFilePermission { return &m.Permissions }),
		),
		newSchema("SetPosixFilePermissionsRequest",
			field("filesystem", func(m *SetPosixFilePermissionsRequest) *FileSystem { return &m.Filesystem }),
			field("path", func(m *SetPosixFilePermissionsRequest) *Path { return &m.Path }),
			enumList("permissions", func(m *SetPosixFilePermissionsRequest) *[]PosixFilePermission { return &m.Permissions }),
		),
		newSchema("WriteToFileRequest",
			field("filesystem", func(m *WriteToFileRequest) *FileSystem { return &m.Filesystem }),
			field("path", func(m *WriteToFileRequest) *Path { return &m.Path }),
			field("buffer", func(m *WriteToFileRequest) *[]byte { return &m.Buffer }),
		),
		newSchema("AppendToFileRequest",
			field("filesystem", func(m *AppendToFileRequest) *FileSystem { return &m.Filesystem }),
			field("path", func(m *AppendToFileRequest) *Path { return &m.Path }),
			field("buffer", func(m *AppendToFileRequest) *[]byte { return &m.Buffer }),
		),
		newSchema("CopyRequest",
			field("filesystem", func(m *CopyRequest) *FileSystem { return &m.Filesystem }),
			field("source", func(m *CopyRequest) *Path { return &m.Source }),
			field("destination_filesystem", func(m *CopyRequest) *FileSystem { return &m.DestinationFilesystem }),
			field("destination", func(m *CopyRequest) *Path { return &m.Destination }),
			number("mode", func(m *CopyRequest) *CopyMode { return &m.Mode }),
			field("recursive", func(m *CopyRequest) *bool { return &m.Recursive }),
		),
		newSchema("CopyOperation",
			field("id", func(m *CopyOperation) *string { return &m.ID }),
		),
		newSchema("CopyOperationRequest",
			field("filesystem", func(m *CopyOperationRequest) *FileSystem { return &m.Filesystem }),
			field("copy_operation", func(m *CopyOperationRequest) *CopyOperation { return &m.CopyOperation }),
		),
		newSchema("WaitUntilDoneRequest",
			field("filesystem", func(m *WaitUntilDoneRequest) *FileSystem { return &m.Filesystem }),
			field("copy_operation", func(m *WaitUntilDoneRequest) *CopyOperation { return &m.CopyOperation }),
			number("timeout", func(m *WaitUntilDoneRequest) *uint64 { return &m.Timeout }),
		),
		newSchema("CopyStatus",
			field("copy_operation", func(m *CopyStatus) *CopyOperation { return &m.CopyOperation }),
			field("state", func(m *CopyStatus) *string { return &m.State }),
			field("running", func(m *CopyStatus) *bool { return &m.Running }),
			field("done", func(m *CopyStatus) *bool { return &m.Done }),
			number("bytes_to_copy", func(m *CopyStatus) *int64 { return &m.BytesToCopy }),
			number("bytes_copied", func(m *CopyStatus) *int64 { return &m.BytesCopied }),
			field("error_message", func(m *CopyStatus) *string { return &m.ErrorMessage }),
		),

		// schedulers
		newSchema("Scheduler",
			field("id", func(m *Scheduler) *string { return &m.ID }),
		),
		newSchema("CreateSchedulerRequest",
			field("adaptor", func(m *CreateSchedulerRequest) *string { return &m.Adaptor }),
			field("location", func(m *CreateSchedulerRequest) *string { return &m.Location }),
			field("properties", func(m *CreateSchedulerRequest) *map[string]string { return &m.Properties }),
			optional("default_cred", func(m *CreateSchedulerRequest) **DefaultCredential { return &m.DefaultCred }),
			optional("password_cred", func(m *CreateSchedulerRequest) **PasswordCredential { return &m.PasswordCred }),
			optional("certificate_cred", func(m *CreateSchedulerRequest) **CertificateCredential { return &m.CertificateCred }),
		),
		newSchema("SchedulerAndQueues",
			field("scheduler", func(m *SchedulerAndQueues) *Scheduler { return &m.Scheduler }),
			field("queues", func(m *SchedulerAndQueues) *[]string { return &m.Queues }),
		),
		newSchema("JobDescription",
			field("name", func(m *JobDescription) *string { return &m.Name }),
			field("executable", func(m *JobDescription) *string { return &m.Executable }),
			field("arguments", func(m *JobDescription) *[]string { return &m.Arguments }),
			field("working_directory", func(m *JobDescription) *string { return &m.WorkingDirectory }),
			field("environment", func(m *JobDescription) *map[string]string { return &m.Environment }),
			field("queue_name", func(m *JobDescription) *string { return &m.QueueName }),
			number("max_runtime", func(m *JobDescription) *uint32 { return &m.MaxRuntime }),
			number("max_memory", func(m *JobDescription) *uint32 { return &m.MaxMemory }),
			number("tasks", func(m *JobDescription) *uint32 { return &m.Tasks }),
			number("cores_per_task", func(m *JobDescription) *uint32 { return &m.CoresPerTask }),
			number("tasks_per_node", func(m *JobDescription) *uint32 { return &m.TasksPerNode }),
			field("start_per_task", func(m *JobDescription) *bool { return &m.StartPerTask }),
			field("scheduler_arguments", func(m *JobDescription) *[]string { return &m.SchedulerArguments }),
			field("stdin", func(m *JobDescription) *string { return &m.Stdin }),
			field("stdout", func(m *JobDescription) *string { return &m.Stdout }),
			field("stderr", func(m *JobDescription) *string { return &m.Stderr }),
			number("temp_space", func(m *JobDescription) *uint32 { return &m.TempSpace }),
		),
		newSchema("SubmitBatchJobRequest",
			field("scheduler", func(m *SubmitBatchJobRequest) *Scheduler { return &m.Scheduler }),
			field("description", func(m *SubmitBatchJobRequest) *JobDescription { return &m.Description }),
		),
		newSchema("SubmitInteractiveJobRequest",
			field("scheduler", func(m *SubmitInteractiveJobRequest) *Scheduler { return &m.Scheduler }),
			field("description", func(m *SubmitInteractiveJobRequest) *JobDescription { return &m.Description }),
			field("stdin", func(m *SubmitInteractiveJobRequest) *[]byte { return &m.Stdin }),
		),
		newSchema("Job",
			field("id", func(m *Job) *string { return &m.ID }),
		),
		newSchema("JobRequest",
			field("scheduler", func(m *JobRequest) *Scheduler { return &m.Scheduler }),
			field("job", func(m *JobRequest) *Job { return &m.Job }),
		),
		newSchema("WaitRequest",
			field("scheduler", func(m *WaitRequest) *Scheduler { return &m.Scheduler }),
			field("job", func(m *WaitRequest) *Job { return &m.Job }),
			number("timeout", func(m *WaitRequest) *uint64 { return &m.Timeout }),
		),
		newSchema("JobStatus",
			field("job", func(m *JobStatus) *Job { return &m.Job }),
			field("state", func(m *JobStatus) *string { return &m.State }),
			field("running", func(m *JobStatus) *bool { return &m.Running }),
			field("done", func(m *JobStatus) *bool { return &m.Done }),
			number("exit_code", func(m *JobStatus) *int32 { return &m.ExitCode }),
			field("error_message", func(m *JobStatus) *string { return &m.ErrorMessage }),
			field("scheduler_specific_information", func(m *JobStatus) *map[string]string { return &m.SchedulerSpecificInformation }),
		),
		newSchema("GetQueueStatusRequest",
			field("scheduler", func(m *GetQueueStatusRequest) *Scheduler { return &m.Scheduler }),
			field("queue", func(m *GetQueueStatusRequest) *string { return &m.Queue }),
		),
		newSchema("QueueStatus",
			field("scheduler", func(m *QueueStatus) *Scheduler { return &m.Scheduler }),
			field("name", func(m *QueueStatus) *string { return &m.Name }),
			field("error_message", func(m *QueueStatus) *string { return &m.ErrorMessage }),
			field("scheduler_specific_information", func(m *QueueStatus) *map[string]string { return &m.SchedulerSpecificInformation }),
		),
	)
}
