package rt

import (
	"log/slog"
	"sync"

	"github.com/joshuapare/objkit/internal/config"
	"github.com/joshuapare/objkit/internal/logger"
)

var (
	initOnce sync.Once

	// logAlloc enables per-call allocator logging (OBJKIT_LOG_ALLOC).
	logAlloc bool
)

func init() {
	Init()
}

// Init brings the runtime up: configuration and logging, then the built-in
// allocators, then the class table. It runs automatically when the package
// is loaded; later calls do nothing.
func Init() {
	initOnce.Do(func() {
		cfg := config.Load()
		if cfg.LogEnabled {
			logger.Init(logger.Options{Enabled: true, JSON: cfg.LogJSON, Level: cfg.LogLevel})
		}
		logAlloc = cfg.LogAlloc

		initBuiltinAllocators(cfg.ZonePreset)
		registerBuiltinClasses()
		logger.Debug("rt: initialized", "zone", systemZone.Name(), "types", classCount)
	})
}

// Shutdown tears down every goroutine context, releasing their allocator
// overrides. Call it only once no other goroutine is using the runtime.
func Shutdown() {
	threads.Range(func(id int64, tc *threadContext) bool {
		threads.Delete(id)
		tc.teardown()
		return true
	})
}

// allocLogging reports whether allocator calls should be logged.
func allocLogging() bool {
	return logAlloc && logger.Enabled(slog.LevelDebug)
}
