package scheduler

import "fmt"

// Backend names a Pool implementation. New builds only the goroutine and
// semaphore backends from a Config; it rejects the ants, workerpool and conc
// names, whose pools are constructed directly and wrapped with FromPool.
type Backend string

const (
	BackendGoroutine Backend = "goroutine" // PoolOfNoPool
	BackendAnts      Backend = "ants"
	BackendWorkerpool Backend = "workerpool"
	BackendConc      Backend = "conc"
	BackendSemaphore Backend = "semaphore"
)

// Config describes a Scheduler to build from declarative configuration
// (e.g. loaded from YAML alongside the rest of an application's config).
type Config struct {
	Backend   Backend `yaml:"backend"`
	MaxWorker int     `yaml:"maxWorker"`
}

// New builds a Scheduler from cfg. The semaphore backend requires
// MaxWorker > 0; any backend other than goroutine (or empty) and semaphore
// is an error.
func New(cfg *Config) (Scheduler, error) {
	if cfg == nil {
		return Default(), nil
	}
	switch cfg.Backend {
	case "", BackendGoroutine:
		return FromPool(PoolOfNoPool()), nil
	case BackendSemaphore:
		if cfg.MaxWorker <= 0 {
			return nil, fmt.Errorf("scheduler: backend %q requires maxWorker > 0", cfg.Backend)
		}
		return FromPool(PoolOfSemaphore(int64(cfg.MaxWorker))), nil
	default:
		return nil, fmt.Errorf("scheduler: unknown backend %q; construct ants/workerpool/conc pools directly and wrap with FromPool", cfg.Backend)
	}
}
