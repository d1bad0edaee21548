package app

import (
	"sync"

	"github.com/xenon-middleware/xenon-go/core/dispatch"
	"github.com/xenon-middleware/xenon-go/core/registry"
)

// Wrapper kinds as registered in the method catalog.
const (
	GroupFileSystem = "filesystem"
	GroupScheduler  = "scheduler"
)

var (
	catalogOnce sync.Once
	catalog     *registry.Registry
	catalogErr  error
)

// Catalog returns the registry of every synthesized FileSystem and
// Scheduler method.
func Catalog() (*registry.Registry, error) {
	catalogOnce.Do(func() {
		r := registry.New()
		if err := r.Register(GroupFileSystem, asEntries(FileSystemMethods())...); err != nil {
			catalogErr = err
			return
		}
		if err := r.Register(GroupScheduler, asEntries(SchedulerMethods())...); err != nil {
			catalogErr = err
			return
		}
		catalog = r
	})
	return catalog, catalogErr
}

func asEntries(ms []*dispatch.Method[*Session]) []registry.Method {
	out := make([]registry.Method, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
