package jobs

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Job is a background loop that runs until its context is cancelled.
type Job interface {
	Name() string
	Start(ctx context.Context)
}

type Manager struct {
	jobs []Job
	log  *zap.Logger
}

func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

func (m *Manager) Register(job Job) {
	m.jobs = append(m.jobs, job)
}

// Start runs every registered job and blocks until ctx is done and all of
// them have returned. A panicking job is logged and stays stopped.
func (m *Manager) Start(ctx context.Context) {

	var wg sync.WaitGroup

	for _, job := range m.jobs {
		wg.Add(1)

		go func(j Job) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					m.log.Error("job panicked", zap.String("job", j.Name()), zap.String("panic", fmt.Sprint(r)))
				}
			}()
			m.log.Debug("job started", zap.String("job", j.Name()))
			j.Start(ctx)
			m.log.Debug("job stopped", zap.String("job", j.Name()))
		}(job)
	}

	<-ctx.Done()
	wg.Wait()
}
