package main

import (
	"github.com/dustin/go-humanize"

	"github.com/joshuapare/objkit/rt"
	"github.com/joshuapare/objkit/rt/zone"
	"github.com/spf13/cobra"
)

var allocProbe int

func init() {
	cmd := newAllocatorsCmd()
	cmd.Flags().IntVar(&allocProbe, "probe", 100, "Request size used to report preferred sizes")
	rootCmd.AddCommand(cmd)
}

func newAllocatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocators",
		Short: "Describe the built-in allocators",
		Long: `The allocators command describes the runtime's built-in allocators,
the preferred size each reports for a probe request, and the statistics of
the zone behind the process default allocator.

Example:
  rtctl allocators
  rtctl allocators --probe 300 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocators()
		},
	}
}

type allocatorEntry struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PreferredSize int    `json:"preferred_size"`
}

func runAllocators() error {
	builtins := []struct {
		name string
		a    *rt.Allocator
	}{
		{"SystemDefault", rt.SystemDefault},
		{"Malloc", rt.Malloc},
		{"Null", rt.Null},
	}

	entries := make([]allocatorEntry, 0, len(builtins))
	for _, b := range builtins {
		entries = append(entries, allocatorEntry{
			Name:          b.name,
			Description:   b.a.Description(),
			PreferredSize: b.a.PreferredSize(allocProbe, 0),
		})
	}
	z := rt.SystemZone()
	stats := z.Stats()

	if jsonOut {
		return printJSON(map[string]any{
			"probe":      allocProbe,
			"allocators": entries,
			"zone": map[string]any{
				"name":  z.Name(),
				"stats": stats,
			},
		})
	}

	for _, e := range entries {
		printInfo("%-14s preferred(%d)=%-6d %s\n", e.Name, allocProbe, e.PreferredSize, e.Description)
	}
	printInfo("\nZone %s:\n", z.Name())
	printZoneStats(stats)
	return nil
}

func printZoneStats(s zone.Stats) {
	printInfo("  malloc calls:   %d\n", s.MallocCalls)
	printInfo("  free calls:     %d\n", s.FreeCalls)
	printInfo("  realloc calls:  %d\n", s.ReallocCalls)
	printInfo("  reused blocks:  %d\n", s.Reused)
	printInfo("  in use:         %s\n", humanize.IBytes(uint64(s.BytesInUse)))
	if s.Capacity > 0 {
		printInfo("  capacity:       %s\n", humanize.IBytes(uint64(s.Capacity)))
	}
}
