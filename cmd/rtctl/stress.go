package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/objkit/rt"
	"github.com/spf13/cobra"
)

var (
	stressGoroutines int
	stressRetains    int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressGoroutines, "goroutines", "g", 8, "Number of concurrent goroutines")
	cmd.Flags().IntVarP(&stressRetains, "retains", "n", 10000, "Retains (and releases) per goroutine")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a concurrent retain/release workload",
		Long: `The stress command creates one instance and has every goroutine retain
it --retains times, then release it the same number of times. With enough
goroutines the count crosses the inline limit and spills into the overflow
table. The final release must finalize the instance exactly once.

Example:
  rtctl stress
  rtctl stress --goroutines 16 --retains 50000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// stressResult summarizes a stress run.
type stressResult struct {
	Goroutines    int           `json:"goroutines"`
	RetainsEach   int           `json:"retains_each"`
	PeakCount     int           `json:"peak_count"`
	PeakOverflow  bool          `json:"peak_overflow"`
	CountAfter    int           `json:"count_after"`
	OverflowAfter int           `json:"overflow_entries_after"`
	Finalized     int64         `json:"finalized"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	OpsPerSecond  float64       `json:"ops_per_second"`
	ExpectedPeak  int           `json:"expected_peak"`
	Consistent    bool          `json:"consistent"`
}

var (
	stressClassOnce sync.Once
	stressTypeID    rt.TypeID
	stressFinalized atomic.Int64
)

func stressType() (rt.TypeID, error) {
	stressClassOnce.Do(func() {
		stressTypeID = rt.RegisterClass(&rt.Class{
			Name:     "rtctl.StressObject",
			Finalize: func(*rt.Instance) { stressFinalized.Add(1) },
		})
	})
	if stressTypeID == rt.NotATypeID {
		return rt.NotATypeID, fmt.Errorf("failed to register stress type")
	}
	return stressTypeID, nil
}

func runStress() error {
	if stressGoroutines <= 0 || stressRetains < 0 {
		return fmt.Errorf("goroutines must be positive and retains non-negative")
	}
	id, err := stressType()
	if err != nil {
		return err
	}
	finalizedBefore := stressFinalized.Load()

	inst, err := rt.CreateInstance(nil, id, 0)
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	printVerbose("Created %s\n", rt.Description(inst))

	res := stressResult{
		Goroutines:   stressGoroutines,
		RetainsEach:  stressRetains,
		ExpectedPeak: 1 + stressGoroutines*stressRetains,
	}

	start := time.Now()
	var retained, released sync.WaitGroup
	proceed := make(chan struct{})
	retained.Add(stressGoroutines)
	released.Add(stressGoroutines)
	for range stressGoroutines {
		rt.Go(func() {
			defer released.Done()
			for range stressRetains {
				rt.Retain(inst)
			}
			retained.Done()
			<-proceed
			for range stressRetains {
				rt.Release(inst)
			}
		})
	}

	retained.Wait()
	res.PeakCount = rt.RetainCount(inst)
	res.PeakOverflow = rt.HasOverflowEntry(inst)
	close(proceed)
	released.Wait()
	res.Elapsed = time.Since(start)

	res.CountAfter = rt.RetainCount(inst)
	rt.Release(inst)
	res.OverflowAfter = rt.OverflowEntries()
	res.Finalized = stressFinalized.Load() - finalizedBefore

	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.OpsPerSecond = float64(2*stressGoroutines*stressRetains) / secs
	}
	res.Consistent = res.PeakCount == res.ExpectedPeak && res.CountAfter == 1 && res.Finalized == 1

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printInfo("Goroutines:        %d x %d retains\n", res.Goroutines, res.RetainsEach)
		printInfo("Peak count:        %d (expected %d)\n", res.PeakCount, res.ExpectedPeak)
		printInfo("Peak overflow:     %t\n", res.PeakOverflow)
		printInfo("Count after:       %d\n", res.CountAfter)
		printInfo("Overflow entries:  %d\n", res.OverflowAfter)
		printInfo("Finalized:         %d\n", res.Finalized)
		printVerbose("Elapsed:           %s (%.0f ops/s)\n", res.Elapsed, res.OpsPerSecond)
	}

	if !res.Consistent {
		return fmt.Errorf("reference counts inconsistent: peak %d, after %d, finalized %d",
			res.PeakCount, res.CountAfter, res.Finalized)
	}
	return nil
}
