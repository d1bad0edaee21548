// Package wire holds the message records, enumerations and operation
// catalogs of the Xenon RPC service. Field names in tags and schemas are the
// service's own (snake_case) names.
package wire

// Empty is sent by operations that take no arguments.
type Empty struct{}

// Is carries a boolean result.
type Is struct {
	Value bool `cbor:"value,omitempty" json:"value,omitempty"`
}

// AdaptorName names a single adaptor.
type AdaptorName struct {
	Name string `cbor:"name,omitempty" json:"name,omitempty"`
}

// AdaptorNames lists adaptor names.
type AdaptorNames struct {
	Name []string `cbor:"name,omitempty" json:"name,omitempty"`
}

// Location is a resource location string.
type Location struct {
	Location string `cbor:"location,omitempty" json:"location,omitempty"`
}

// Properties is a string property map.
type Properties struct {
	Properties map[string]string `cbor:"properties,omitempty" json:"properties,omitempty"`
}

// PropertyDescription documents one adaptor property.
type PropertyDescription struct {
	Name         string `cbor:"name,omitempty" json:"name,omitempty"`
	Type         string `cbor:"type,omitempty" json:"type,omitempty"`
	DefaultValue string `cbor:"default_value,omitempty" json:"default_value,omitempty"`
	Description  string `cbor:"description,omitempty" json:"description,omitempty"`
}

// Path is a path on a remote file system.
type Path struct {
	Path      string `cbor:"path,omitempty" json:"path,omitempty"`
	Separator string `cbor:"separator,omitempty" json:"separator,omitempty"`
}

// DefaultCredential uses the adaptor's default authentication for Username.
type DefaultCredential struct {
	Username string `cbor:"username,omitempty" json:"username,omitempty"`
}

// PasswordCredential authenticates with a password.
type PasswordCredential struct {
	Username string `cbor:"username,omitempty" json:"username,omitempty"`
	Password string `cbor:"password,omitempty" json:"password,omitempty"`
}

// CertificateCredential authenticates with a key file.
type CertificateCredential struct {
	Username   string `cbor:"username,omitempty" json:"username,omitempty"`
	Certfile   string `cbor:"certfile,omitempty" json:"certfile,omitempty"`
	Passphrase string `cbor:"passphrase,omitempty" json:"passphrase,omitempty"`
}

// -----------------------------------------------------------------------------
// File systems
// -----------------------------------------------------------------------------

// FileSystem identifies an open remote file system.
type FileSystem struct {
	ID string `cbor:"id,omitempty" json:"id,omitempty"`
}

// FileSystems lists file systems.
type FileSystems struct {
	Filesystems []FileSystem `cbor:"filesystems,omitempty" json:"filesystems,omitempty"`
}

// FileSystemAdaptorDescription describes a file system adaptor.
type FileSystemAdaptorDescription struct {
	Name                             string                `cbor:"name,omitempty" json:"name,omitempty"`
	Description                      string                `cbor:"description,omitempty" json:"description,omitempty"`
	SupportedLocations               []string              `cbor:"supported_locations,omitempty" json:"supported_locations,omitempty"`
	SupportedProperties              []PropertyDescription `cbor:"supported_properties,omitempty" json:"supported_properties,omitempty"`
	IsConnectionless                 bool                  `cbor:"is_connectionless,omitempty" json:"is_connectionless,omitempty"`
	SupportsThirdPartyCopy           bool                  `cbor:"supports_third_party_copy,omitempty" json:"supports_third_party_copy,omitempty"`
	CanCreateSymbolicLinks           bool                  `cbor:"can_create_symboliclinks,omitempty" json:"can_create_symboliclinks,omitempty"`
	CanReadSymbolicLinks             bool                  `cbor:"can_read_symboliclinks,omitempty" json:"can_read_symboliclinks,omitempty"`
	CanSetPermissions                bool                  `cbor:"can_set_permissions,omitempty" json:"can_set_permissions,omitempty"`
	CanAppend                        bool                  `cbor:"can_append,omitempty" json:"can_append,omitempty"`
	SupportsReadingPosixPermissions  bool                  `cbor:"supports_reading_posix_permissions,omitempty" json:"supports_reading_posix_permissions,omitempty"`
	NeedsSizeBeforehand              bool                  `cbor:"needs_size_beforehand,omitempty" json:"needs_size_beforehand,omitempty"`
}

// FileSystemAdaptorDescriptions lists adaptor descriptions.
type FileSystemAdaptorDescriptions struct {
	Descriptions []FileSystemAdaptorDescription `cbor:"descriptions,omitempty" json:"descriptions,omitempty"`
}

// CreateFileSystemRequest opens a file system. At most one credential is set.
type CreateFileSystemRequest struct {
	Adaptor         string                 `cbor:"adaptor,omitempty" json:"adaptor,omitempty"`
	Location        string                 `cbor:"location,omitempty" json:"location,omitempty"`
	Properties      map[string]string      `cbor:"properties,omitempty" json:"properties,omitempty"`
	DefaultCred     *DefaultCredential     `cbor:"default_cred,omitempty" json:"default_cred,omitempty"`
	PasswordCred    *PasswordCredential    `cbor:"password_cred,omitempty" json:"password_cred,omitempty"`
	CertificateCred *CertificateCredential `cbor:"certificate_cred,omitempty" json:"certificate_cred,omitempty"`
}

// PathRequest addresses one path on a file system.
type PathRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Path       Path       `cbor:"path" json:"path"`
}

// RenameRequest moves Source to Target.
type RenameRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Source     Path       `cbor:"source" json:"source"`
	Target     Path       `cbor:"target" json:"target"`
}

// CreateSymbolicLinkRequest creates Link pointing at Target.
type CreateSymbolicLinkRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Link       Path       `cbor:"link" json:"link"`
	Target     Path       `cbor:"target" json:"target"`
}

// DeleteRequest removes a path.
type DeleteRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Path       Path       `cbor:"path" json:"path"`
	Recursive  bool       `cbor:"recursive,omitempty" json:"recursive,omitempty"`
}

// ListRequest lists the entries below Dir.
type ListRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Dir        Path       `cbor:"dir" json:"dir"`
	Recursive  bool       `cbor:"recursive,omitempty" json:"recursive,omitempty"`
}

// PathAttributes describes one file system entry.
type PathAttributes struct {
	Path             Path                  `cbor:"path" json:"path"`
	IsDirectory      bool                  `cbor:"is_directory,omitempty" json:"is_directory,omitempty"`
	IsRegular        bool                  `cbor:"is_regular,omitempty" json:"is_regular,omitempty"`
	IsSymbolicLink   bool                  `cbor:"is_symbolic_link,omitempty" json:"is_symbolic_link,omitempty"`
	IsOther          bool                  `cbor:"is_other,omitempty" json:"is_other,omitempty"`
	IsHidden         bool                  `cbor:"is_hidden,omitempty" json:"is_hidden,omitempty"`
	IsReadable       bool                  `cbor:"is_readable,omitempty" json:"is_readable,omitempty"`
	IsWritable       bool                  `cbor:"is_writable,omitempty" json:"is_writable,omitempty"`
	IsExecutable     bool                  `cbor:"is_executable,omitempty" json:"is_executable,omitempty"`
	Size             int64                 `cbor:"size,omitempty" json:"size,omitempty"`
	CreationTime     int64                 `cbor:"creation_time,omitempty" json:"creation_time,omitempty"`
	LastAccessTime   int64                 `cbor:"last_access_time,omitempty" json:"last_access_time,omitempty"`
	LastModifiedTime int64                 `cbor:"last_modified_time,omitempty" json:"last_modified_time,omitempty"`
	Owner            string                `cbor:"owner,omitempty" json:"owner,omitempty"`
	Group            string                `cbor:"group,omitempty" json:"group,omitempty"`
	Permissions      []PosixFilePermission `cbor:"permissions,omitempty" json:"permissions,omitempty"`
}

// SetPosixFilePermissionsRequest replaces the permissions of a path.
type SetPosixFilePermissionsRequest struct {
	Filesystem  FileSystem            `cbor:"filesystem" json:"filesystem"`
	Path        Path                  `cbor:"path" json:"path"`
	Permissions []PosixFilePermission `cbor:"permissions,omitempty" json:"permissions,omitempty"`
}

// ReadFromFileResponse is one fragment of a file's content.
type ReadFromFileResponse struct {
	Buffer []byte `cbor:"buffer,omitempty" json:"buffer,omitempty"`
}

// WriteToFileRequest is one fragment of a write stream. Only the first
// fragment carries Filesystem and Path.
type WriteToFileRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Path       Path       `cbor:"path" json:"path"`
	Buffer     []byte     `cbor:"buffer,omitempty" json:"buffer,omitempty"`
}

// AppendToFileRequest is one fragment of an append stream.
type AppendToFileRequest struct {
	Filesystem FileSystem `cbor:"filesystem" json:"filesystem"`
	Path       Path       `cbor:"path" json:"path"`
	Buffer     []byte     `cbor:"buffer,omitempty" json:"buffer,omitempty"`
}

// GetPathSeparatorResponse carries the separator of a file system.
type GetPathSeparatorResponse struct {
	Separator string `cbor:"separator,omitempty" json:"separator,omitempty"`
}

// CopyRequest copies Source to Destination, possibly across file systems.
type CopyRequest struct {
	Filesystem            FileSystem `cbor:"filesystem" json:"filesystem"`
	Source                Path       `cbor:"source" json:"source"`
	DestinationFilesystem FileSystem `cbor:"destination_filesystem" json:"destination_filesystem"`
	Destination           Path       `cbor:"destination" json:"destination"`
	Mode                  CopyMode   `cbor:"mode,omitempty" json:"mode,omitempty"`
	Recursive             bool       `cbor:"recursive,omitempty" json:"recursive,omitempty"`
}

// CopyOperation identifies a running copy.
type CopyOperation struct {
	ID string `cbor:"id,omitempty" json:"id,omitempty"`
}

// CopyOperationRequest addresses a copy on its file system.
type CopyOperationRequest struct {
	Filesystem    FileSystem    `cbor:"filesystem" json:"filesystem"`
	CopyOperation CopyOperation `cbor:"copy_operation" json:"copy_operation"`
}

// WaitUntilDoneRequest waits for a copy. Timeout is in milliseconds.
type WaitUntilDoneRequest struct {
	Filesystem    FileSystem    `cbor:"filesystem" json:"filesystem"`
	CopyOperation CopyOperation `cbor:"copy_operation" json:"copy_operation"`
	Timeout       uint64        `cbor:"timeout,omitempty" json:"timeout,omitempty"`
}

// CopyStatus reports progress of a copy.
type CopyStatus struct {
	CopyOperation CopyOperation `cbor:"copy_operation" json:"copy_operation"`
	State         string        `cbor:"state,omitempty" json:"state,omitempty"`
	Running       bool          `cbor:"running,omitempty" json:"running,omitempty"`
	Done          bool          `cbor:"done,omitempty" json:"done,omitempty"`
	BytesToCopy   int64         `cbor:"bytes_to_copy,omitempty" json:"bytes_to_copy,omitempty"`
	BytesCopied   int64         `cbor:"bytes_copied,omitempty" json:"bytes_copied,omitempty"`
	ErrorMessage  string        `cbor:"error_message,omitempty" json:"error_message,omitempty"`
}

// -----------------------------------------------------------------------------
// Schedulers
// -----------------------------------------------------------------------------

// Scheduler identifies an open remote scheduler.
type Scheduler struct {
	ID string `cbor:"id,omitempty" json:"id,omitempty"`
}

// Schedulers lists schedulers.
type Schedulers struct {
	Schedulers []Scheduler `cbor:"schedulers,omitempty" json:"schedulers,omitempty"`
}

// SchedulerAdaptorDescription describes a scheduler adaptor.
type SchedulerAdaptorDescription struct {
	Name                string                `cbor:"name,omitempty" json:"name,omitempty"`
	Description         string                `cbor:"description,omitempty" json:"description,omitempty"`
	SupportedLocations  []string              `cbor:"supported_locations,omitempty" json:"supported_locations,omitempty"`
	SupportedProperties []PropertyDescription `cbor:"supported_properties,omitempty" json:"supported_properties,omitempty"`
	IsEmbedded          bool                  `cbor:"is_embedded,omitempty" json:"is_embedded,omitempty"`
	SupportsBatch       bool                  `cbor:"supports_batch,omitempty" json:"supports_batch,omitempty"`
	SupportsInteractive bool                  `cbor:"supports_interactive,omitempty" json:"supports_interactive,omitempty"`
	UsesFileSystem      bool                  `cbor:"uses_file_system,omitempty" json:"uses_file_system,omitempty"`
}

// SchedulerAdaptorDescriptions lists scheduler adaptor descriptions.
type SchedulerAdaptorDescriptions struct {
	Descriptions []SchedulerAdaptorDescription `cbor:"descriptions,omitempty" json:"descriptions,omitempty"`
}

// CreateSchedulerRequest opens a scheduler. At most one credential is set.
type CreateSchedulerRequest struct {
	Adaptor         string                 `cbor:"adaptor,omitempty" json:"adaptor,omitempty"`
	Location        string                 `cbor:"location,omitempty" json:"location,omitempty"`
	Properties      map[string]string      `cbor:"properties,omitempty" json:"properties,omitempty"`
	DefaultCred     *DefaultCredential     `cbor:"default_cred,omitempty" json:"default_cred,omitempty"`
	PasswordCred    *PasswordCredential    `cbor:"password_cred,omitempty" json:"password_cred,omitempty"`
	CertificateCred *CertificateCredential `cbor:"certificate_cred,omitempty" json:"certificate_cred,omitempty"`
}

// Queue names one queue.
type Queue struct {
	Name string `cbor:"name,omitempty" json:"name,omitempty"`
}

// Queues lists queue names.
type Queues struct {
	Name []string `cbor:"name,omitempty" json:"name,omitempty"`
}

// SchedulerAndQueues restricts a scheduler call to Queues (all when empty).
type SchedulerAndQueues struct {
	Scheduler Scheduler `cbor:"scheduler" json:"scheduler"`
	Queues    []string  `cbor:"queues,omitempty" json:"queues,omitempty"`
}

// JobDescription describes a job to run.
type JobDescription struct {
	Name               string            `cbor:"name,omitempty" json:"name,omitempty"`
	Executable         string            `cbor:"executable,omitempty" json:"executable,omitempty"`
	Arguments          []string          `cbor:"arguments,omitempty" json:"arguments,omitempty"`
	WorkingDirectory   string            `cbor:"working_directory,omitempty" json:"working_directory,omitempty"`
	Environment        map[string]string `cbor:"environment,omitempty" json:"environment,omitempty"`
	QueueName          string            `cbor:"queue_name,omitempty" json:"queue_name,omitempty"`
	MaxRuntime         uint32            `cbor:"max_runtime,omitempty" json:"max_runtime,omitempty"`
	MaxMemory          uint32            `cbor:"max_memory,omitempty" json:"max_memory,omitempty"`
	Tasks              uint32            `cbor:"tasks,omitempty" json:"tasks,omitempty"`
	CoresPerTask       uint32            `cbor:"cores_per_task,omitempty" json:"cores_per_task,omitempty"`
	TasksPerNode       uint32            `cbor:"tasks_per_node,omitempty" json:"tasks_per_node,omitempty"`
	StartPerTask       bool              `cbor:"start_per_task,omitempty" json:"start_per_task,omitempty"`
	SchedulerArguments []string          `cbor:"scheduler_arguments,omitempty" json:"scheduler_arguments,omitempty"`
	Stdin              string            `cbor:"stdin,omitempty" json:"stdin,omitempty"`
	Stdout             string            `cbor:"stdout,omitempty" json:"stdout,omitempty"`
	Stderr             string            `cbor:"stderr,omitempty" json:"stderr,omitempty"`
	TempSpace          uint32            `cbor:"temp_space,omitempty" json:"temp_space,omitempty"`
}

// SubmitBatchJobRequest submits Description to a scheduler.
type SubmitBatchJobRequest struct {
	Scheduler   Scheduler      `cbor:"scheduler" json:"scheduler"`
	Description JobDescription `cbor:"description" json:"description"`
}

// Job identifies a submitted job.
type Job struct {
	ID string `cbor:"id,omitempty" json:"id,omitempty"`
}

// Jobs lists jobs.
type Jobs struct {
	Jobs []Job `cbor:"jobs,omitempty" json:"jobs,omitempty"`
}

// JobRequest addresses a job on its scheduler.
type JobRequest struct {
	Scheduler Scheduler `cbor:"scheduler" json:"scheduler"`
	Job       Job       `cbor:"job" json:"job"`
}

// WaitRequest waits for a job. Timeout is in milliseconds.
type WaitRequest struct {
	Scheduler Scheduler `cbor:"scheduler" json:"scheduler"`
	Job       Job       `cbor:"job" json:"job"`
	Timeout   uint64    `cbor:"timeout,omitempty" json:"timeout,omitempty"`
}

// JobStatus reports the state of a job.
type JobStatus struct {
	Job                          Job               `cbor:"job" json:"job"`
	State                        string            `cbor:"state,omitempty" json:"state,omitempty"`
	Running                      bool              `cbor:"running,omitempty" json:"running,omitempty"`
	Done                         bool              `cbor:"done,omitempty" json:"done,omitempty"`
	ExitCode                     int32             `cbor:"exit_code,omitempty" json:"exit_code,omitempty"`
	ErrorMessage                 string            `cbor:"error_message,omitempty" json:"error_message,omitempty"`
	SchedulerSpecificInformation map[string]string `cbor:"scheduler_specific_information,omitempty" json:"scheduler_specific_information,omitempty"`
}

// GetQueueStatusRequest addresses one queue.
type GetQueueStatusRequest struct {
	Scheduler Scheduler `cbor:"scheduler" json:"scheduler"`
	Queue     string    `cbor:"queue,omitempty" json:"queue,omitempty"`
}

// QueueStatus reports the state of a queue.
type QueueStatus struct {
	Scheduler                    Scheduler         `cbor:"scheduler" json:"scheduler"`
	Name                         string            `cbor:"name,omitempty" json:"name,omitempty"`
	ErrorMessage                 string            `cbor:"error_message,omitempty" json:"error_message,omitempty"`
	SchedulerSpecificInformation map[string]string `cbor:"scheduler_specific_information,omitempty" json:"scheduler_specific_information,omitempty"`
}

// QueueStatuses lists queue states.
type QueueStatuses struct {
	Statuses []QueueStatus `cbor:"statuses,omitempty" json:"statuses,omitempty"`
}

// SubmitInteractiveJobRequest is one fragment of an interactive submission.
// The first fragment carries Scheduler and Description, later ones Stdin.
type SubmitInteractiveJobRequest struct {
	Scheduler   Scheduler      `cbor:"scheduler" json:"scheduler"`
	Description JobDescription `cbor:"description" json:"description"`
	Stdin       []byte         `cbor:"stdin,omitempty" json:"stdin,omitempty"`
}

// SubmitInteractiveJobResponse is one fragment of interactive job output.
// The first fragment carries Job.
type SubmitInteractiveJobResponse struct {
	Job    Job    `cbor:"job" json:"job"`
	Stdout []byte `cbor:"stdout,omitempty" json:"stdout,omitempty"`
	Stderr []byte `cbor:"stderr,omitempty" json:"stderr,omitempty"`
}
