package main

import (
	"fmt"
	"strconv"

	"github.com/joshuapare/objkit/rt/zone"
	"github.com/spf13/cobra"
)

var (
	zonePreset  string
	zoneClasses bool
)

func init() {
	cmd := newZoneCmd()
	cmd.Flags().StringVar(&zonePreset, "preset", zone.DefaultConfig.Name, "Size class preset (fine, balanced, coarse)")
	cmd.Flags().BoolVar(&zoneClasses, "classes", false, "List every size class of the preset")
	rootCmd.AddCommand(cmd)
}

func newZoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zone [size...]",
		Short: "Show zone size classes and preferred sizes",
		Long: `The zone command prints the block size a zone built from a size class
preset would use for each requested size.

Example:
  rtctl zone 24 100 5000
  rtctl zone --preset coarse --classes
  rtctl zone --preset fine 300 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZone(args)
		},
	}
}

type zoneEntry struct {
	Size     int `json:"size"`
	GoodSize int `json:"good_size"`
	Slack    int `json:"slack"`
}

func runZone(args []string) error {
	cfg, ok := zone.ConfigByName(zonePreset)
	if !ok {
		return fmt.Errorf("unknown preset %q", zonePreset)
	}
	z := zone.NewHeap(cfg)

	entries := make([]zoneEntry, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid size %q", arg)
		}
		good := z.GoodSize(n)
		entries = append(entries, zoneEntry{Size: n, GoodSize: good, Slack: good - n})
	}

	var classes []int
	if zoneClasses {
		classes = zone.ClassSizes(cfg)
	}

	if jsonOut {
		result := map[string]any{
			"preset": cfg.Name,
			"sizes":  entries,
		}
		if zoneClasses {
			result["classes"] = classes
		}
		return printJSON(result)
	}

	printInfo("Preset %s (growth %.2f, medium max %d)\n", cfg.Name, cfg.GrowthFactor, cfg.MediumMax)
	for _, e := range entries {
		printInfo("  %8d -> %-8d slack %d\n", e.Size, e.GoodSize, e.Slack)
	}
	if zoneClasses {
		printInfo("\n%d size classes:\n", len(classes))
		for i, c := range classes {
			printInfo("  %3d  %d\n", i, c)
		}
	}
	return nil
}
