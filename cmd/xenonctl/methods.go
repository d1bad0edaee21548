package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xenon-middleware/xenon-go/app"
	"github.com/xenon-middleware/xenon-go/core/formatter"
)

var methodsView = formatter.View{
	Kind:    "method",
	Columns: []string{"group", "name", "kind", "static", "params"},
}

var methodsCmd = &cobra.Command{
	Use:       "methods [filesystem|scheduler]",
	Short:     "List the remote methods of each wrapper",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{app.GroupFileSystem, app.GroupScheduler},
	RunE:      runMethods,
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}

func runMethods(cmd *cobra.Command, args []string) error {
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}

	group := ""
	if len(args) == 1 {
		group = args[0]
	}
	entries := catalog.List(group)
	if len(entries) == 0 {
		return fmt.Errorf("unknown group %q (have %s)", group, strings.Join(catalog.Groups(), ", "))
	}

	records := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		m := e.Method
		records = append(records, map[string]any{
			"group":     e.Group,
			"name":      m.Name(),
			"operation": m.Operation(),
			"wire":      m.FullMethod(),
			"kind":      m.Kind().String(),
			"static":    m.Static(),
			"params":    m.Params(),
			"doc":       m.Doc(),
		})
	}
	return printList(cmd, methodsView, records)
}
