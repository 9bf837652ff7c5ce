package main

import (
	"github.com/joshuapare/objkit/rt"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newTypesCmd())
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered types",
		Long: `The types command lists every occupied slot of the runtime's class
table with its type id and registered name.

Example:
  rtctl types
  rtctl types --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes()
		},
	}
}

type typeEntry struct {
	ID   rt.TypeID `json:"id"`
	Name string    `json:"name"`
}

func runTypes() error {
	ids := rt.RegisteredTypes()
	entries := make([]typeEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, typeEntry{ID: id, Name: rt.TypeIDDescription(id)})
	}

	if jsonOut {
		return printJSON(map[string]any{
			"types": entries,
			"count": len(entries),
			"max":   rt.MaxTypes,
		})
	}

	printVerbose("Class table capacity: %d\n", rt.MaxTypes)
	for _, e := range entries {
		printInfo("%4d  %s\n", e.ID, e.Name)
	}
	printInfo("\n%d type(s) registered\n", len(entries))
	return nil
}
