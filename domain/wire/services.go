package wire

// FileSystemService is the catalog of xenon.FileSystemService.
var FileSystemService = newService("xenon.FileSystemService",
	op[Empty, FileSystemAdaptorDescriptions]("getAdaptorDescriptions", Unary, "Descriptions of all file system adaptors."),
	op[Empty, AdaptorNames]("getAdaptorNames", Unary, "Names of all file system adaptors."),
	op[AdaptorName, FileSystemAdaptorDescription]("getAdaptorDescription", Unary, "Description of one file system adaptor."),
	op[CreateFileSystemRequest, FileSystem]("create", Unary, "Create a new file system."),
	op[Empty, FileSystems]("localFileSystems", Unary, "File systems of the local machine."),
	op[Empty, FileSystems]("listFileSystems", Unary, "File systems created in this session."),
	op[FileSystem, AdaptorName]("getAdaptorName", Unary, "Adaptor of the file system."),
	op[FileSystem, Location]("getLocation", Unary, "Location of the file system."),
	op[FileSystem, Properties]("getProperties", Unary, "Properties the file system was created with."),
	op[FileSystem, GetPathSeparatorResponse]("getPathSeparator", Unary, "Path separator of the file system."),
	op[RenameRequest, Empty]("rename", Unary, "Rename an existing source path to a non-existing target path."),
	op[CreateSymbolicLinkRequest, Empty]("createSymbolicLink", Unary, "Create a symbolic link to target."),
	op[FileSystem, Path]("getWorkingDirectory", Unary, "Current working directory."),
	op[PathRequest, Empty]("setWorkingDirectory", Unary, "Change the working directory."),
	op[FileSystem, Is]("isOpen", Unary, "Whether the file system is open."),
	op[FileSystem, Empty]("close", Unary, "Close the file system."),
	op[CopyOperationRequest, CopyStatus]("cancel", Unary, "Cancel a copy operation."),
	op[CopyOperationRequest, CopyStatus]("getStatus", Unary, "Status of a copy operation."),
	op[WaitUntilDoneRequest, CopyStatus]("waitUntilDone", Unary, "Wait until a copy operation is done or the timeout expires."),
	op[PathRequest, Empty]("createDirectories", Unary, "Create a directory and any missing parents."),
	op[PathRequest, Empty]("createDirectory", Unary, "Create a directory."),
	op[PathRequest, Empty]("createFile", Unary, "Create an empty file."),
	op[PathRequest, Is]("exists", Unary, "Whether a path exists."),
	op[PathRequest, ReadFromFileResponse]("readFromFile", ServerStream, "Stream the content of a file."),
	op[PathRequest, PathAttributes]("getAttributes", Unary, "Attributes of a path."),
	op[PathRequest, Path]("readSymbolicLink", Unary, "Target of a symbolic link."),
	op[WriteToFileRequest, Empty]("writeToFile", ClientStream, "Write a stream of buffers to a new file."),
	op[AppendToFileRequest, Empty]("appendToFile", ClientStream, "Append a stream of buffers to an existing file."),
	op[DeleteRequest, Empty]("delete", Unary, "Delete a path."),
	op[CopyRequest, CopyOperation]("copy", Unary, "Start an asynchronous copy."),
	op[SetPosixFilePermissionsRequest, Empty]("setPosixFilePermissions", Unary, "Replace the POSIX permissions of a path."),
	op[ListRequest, PathAttributes]("list", ServerStream, "List the entries of a directory."),
)

// SchedulerService is the catalog of xenon.SchedulerService.
var SchedulerService = newService("xenon.SchedulerService",
	op[Empty, Scheduler]("localScheduler", Unary, "Scheduler of the local machine."),
	op[Empty, Schedulers]("listSchedulers", Unary, "Schedulers created in this session."),
	op[Empty, SchedulerAdaptorDescriptions]("getAdaptorDescriptions", Unary, "Descriptions of all scheduler adaptors."),
	op[Empty, AdaptorNames]("getAdaptorNames", Unary, "Names of all scheduler adaptors."),
	op[AdaptorName, SchedulerAdaptorDescription]("getAdaptorDescription", Unary, "Description of one scheduler adaptor."),
	op[CreateSchedulerRequest, Scheduler]("create", Unary, "Create a new scheduler."),
	op[Scheduler, AdaptorName]("getAdaptorName", Unary, "Adaptor of the scheduler."),
	op[Scheduler, Location]("getLocation", Unary, "Location of the scheduler."),
	op[Scheduler, Properties]("getProperties", Unary, "Properties the scheduler was created with."),
	op[SchedulerAndQueues, Jobs]("getJobs", Unary, "Jobs in the given queues, or all queues."),
	op[Scheduler, Queues]("getQueueNames", Unary, "Names of the scheduler's queues."),
	op[Scheduler, Queue]("getDefaultQueueName", Unary, "Name of the default queue."),
	op[Scheduler, Is]("isOpen", Unary, "Whether the scheduler is open."),
	op[Scheduler, Empty]("close", Unary, "Close the scheduler."),
	op[SubmitBatchJobRequest, Job]("submitBatchJob", Unary, "Submit a batch job."),
	op[SubmitInteractiveJobRequest, SubmitInteractiveJobResponse]("submitInteractiveJob", BidiStream, "Submit an interactive job and exchange its stdin and output."),
	op[JobRequest, JobStatus]("cancelJob", Unary, "Cancel a job."),
	op[JobRequest, JobStatus]("getJobStatus", Unary, "Status of a job."),
	op[WaitRequest, JobStatus]("waitUntilDone", Unary, "Wait until a job is done or the timeout expires."),
	op[WaitRequest, JobStatus]("waitUntilRunning", Unary, "Wait until a job is running or the timeout expires."),
	op[GetQueueStatusRequest, QueueStatus]("getQueueStatus", Unary, "Status of one queue."),
	op[SchedulerAndQueues, QueueStatuses]("getQueueStatuses", Unary, "Status of the given queues, or all queues."),
	op[Scheduler, FileSystem]("getFileSystem", Unary, "File system the scheduler uses for job files."),
)

// Services lists every catalog.
func Services() []*Service {
	return []*Service{FileSystemService, SchedulerService}
}
