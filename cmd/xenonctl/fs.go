package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/bootstrap"
	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/core/formatter"
	"github.com/xenon-middleware/xenon-go/domain/streaming"
)

var (
	pathView = formatter.View{
		Kind:    "path",
		Columns: []string{"path", "is_directory", "size", "permissions"},
	}
	adaptorView = formatter.View{
		Kind:    "adaptor",
		Columns: []string{"name", "description", "supported_locations"},
	}
)

var (
	fsAdaptor  string
	fsLocation string

	lsRecursive bool
	lsWhere     string

	mkdirParents bool
	rmRecursive  bool
	putAppend    bool
)

var fsCmd = &cobra.Command{
	Use:   "fs",
	Short: "Work with remote file systems",
	Long: `Work with a remote file system. Without --adaptor the first local file
system of the service is used.

The --where expression of "ls" filters entries by attribute, for example:
  xenonctl fs ls /data -r --where 'is_regular && size > 1024'
  xenonctl fs ls /src -r --where 'ext(path) == ".go"'
  xenonctl fs ls / --where 'perm(permissions, "owner_execute")'`,
}

var fsAdaptorsCmd = &cobra.Command{
	Use:   "adaptors",
	Short: "List file system adaptors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		descs, err := a.Session.FileSystemAdaptorDescriptions(cmd.Context())
		if err != nil {
			return err
		}
		records := make([]map[string]any, 0, len(descs))
		for _, d := range descs {
			records = append(records, map[string]any{
				"name":                d.Name,
				"description":         d.Description,
				"supported_locations": d.SupportedLocations,
				"can_append":          d.CanAppend,
				"can_set_permissions": d.CanSetPermissions,
				"is_connectionless":   d.IsConnectionless,
			})
		}
		return printList(cmd, adaptorView, records)
	},
}

var fsLsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		dir := "/"
		if len(args) == 1 {
			dir = args[0]
		}

		var filter *app.AttributeFilter
		if lsWhere != "" {
			filter = app.NewAttributeFilter()
			if err := filter.Compile(lsWhere); err != nil {
				return fmt.Errorf("--where: %w", err)
			}
		}

		src, err := fs.List(cmd.Context(), app.NewPath(dir), lsRecursive)
		if err != nil {
			return err
		}
		if filter != nil {
			filtered, err := filter.Apply(src, lsWhere)
			if err != nil {
				streaming.Close(src)
				return err
			}
			src = filtered
		}

		var records []map[string]any
		for attrs, err := range streaming.All(cmd.Context(), src) {
			if err != nil {
				return err
			}
			records = append(records, attrs.Fields())
		}
		return printList(cmd, pathView, records)
	}),
}

var fsStatCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show the attributes of a path",
	Args:  cobra.ExactArgs(1),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		attrs, err := fs.Attributes(cmd.Context(), app.NewPath(args[0]))
		if err != nil {
			return err
		}
		return printRecord(cmd, formatter.View{Kind: "path"}, attrs.Fields())
	}),
}

var fsCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a file",
	Args:  cobra.ExactArgs(1),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		r, err := fs.Open(cmd.Context(), app.NewPath(args[0]))
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(cmd.OutOrStdout(), r)
		return err
	}),
}

var fsPutCmd = &cobra.Command{
	Use:   "put <path> [local-file|-]",
	Short: "Upload a file",
	Long: `Upload a local file, or standard input when the second argument is "-"
or missing. The remote file must not exist unless --append is set.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 2 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		data := streaming.FromReader(in, a.CurrentConfig().Streams.ChunkSize)
		target := app.NewPath(args[0])
		if putAppend {
			return fs.AppendToFile(cmd.Context(), target, data)
		}
		return fs.WriteToFile(cmd.Context(), target, data)
	}),
}

var fsMkdirCmd = &cobra.Command{
	Use:   "mkdir <dir>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		if mkdirParents {
			return fs.CreateDirectories(cmd.Context(), app.NewPath(args[0]))
		}
		return fs.CreateDirectory(cmd.Context(), app.NewPath(args[0]))
	}),
}

var fsRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: withFileSystem(func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error {
		return fs.Delete(cmd.Context(), app.NewPath(args[0]), rmRecursive)
	}),
}

func init() {
	rootCmd.AddCommand(fsCmd)
	fsCmd.AddCommand(fsAdaptorsCmd, fsLsCmd, fsStatCmd, fsCatCmd, fsPutCmd, fsMkdirCmd, fsRmCmd)

	fsCmd.PersistentFlags().StringVar(&fsAdaptor, "adaptor", "", "file system adaptor (default: the local file system)")
	fsCmd.PersistentFlags().StringVar(&fsLocation, "location", "", "file system location")

	fsLsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "list subdirectories too")
	fsLsCmd.Flags().StringVar(&lsWhere, "where", "", "attribute filter expression")
	fsMkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "create missing parents")
	fsRmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "delete directories with their content")
	fsPutCmd.Flags().BoolVar(&putAppend, "append", false, "append to an existing file")
}

// withFileSystem connects, opens the selected file system, and runs fn.
// A file system created here is closed afterwards.
func withFileSystem(fn func(cmd *cobra.Command, a *bootstrap.App, fs app.FileSystem, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := connect(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx := cmd.Context()
		if fsAdaptor == "" {
			fss, err := a.Session.LocalFileSystems(ctx)
			if err != nil {
				return err
			}
			if len(fss) == 0 {
				return fmt.Errorf("service has no local file system")
			}
			return fn(cmd, a, fss[0], args)
		}

		fs, err := a.Session.CreateFileSystem(ctx, dispatch.Kw("adaptor", fsAdaptor).With("location", fsLocation))
		if err != nil {
			return err
		}
		defer fs.Close(ctx)
		return fn(cmd, a, fs, args)
	}
}
