package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cycles is what the scheduler fires. *Usecase implements it.
type Cycles interface {
	RunDueSoon(ctx context.Context) (Report, error)
	RunOverdue(ctx context.Context) (Report, error)
}

type JobStatus struct {
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	Next    *time.Time `json:"next_run"`
	Prev    *time.Time `json:"last_run"`
	Running bool       `json:"running"`
}

type SchedulerStatus struct {
	Running  bool        `json:"running"`
	Timezone string      `json:"timezone"`
	Jobs     []JobStatus `json:"jobs"`
}

type scheduledJob struct {
	name    string
	spec    string
	id      cron.EntryID
	run     func(context.Context) (Report, error)
	running bool
}

// Scheduler fires the notification cycles on their cron specs. It has no Stop:
// it halts when the context handed to Run is cancelled.
type Scheduler struct {
	cron  *cron.Cron
	loc   *time.Location
	jobs  []*scheduledJob
	drain time.Duration

	mu        sync.Mutex
	isRunning bool

	log *zap.Logger
}

func NewScheduler(c Cycles, jobs []JobConfig, loc *time.Location, drain time.Duration, l *zap.Logger) (*Scheduler, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if len(jobs) == 0 {
		jobs = DefaultJobs()
	}
	if drain <= 0 {
		drain = 30 * time.Second
	}
	log := l.With(zap.String("component", "notifier.scheduler"))
	cl := cronLogger{log: log.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		loc:   loc,
		drain: drain,
		log:   log,
	}

	for _, jc := range jobs {
		j := &scheduledJob{name: jc.Name, spec: jc.Spec}
		switch jc.Name {
		case JobDueSoon:
			j.run = c.RunDueSoon
		case JobOverdue:
			j.run = c.RunOverdue
		default:
			return nil, fmt.Errorf("scheduler: unknown job %q", jc.Name)
		}
		id, err := s.cron.AddFunc(jc.Spec, func() { s.runJob(j) })
		if err != nil {
			return nil, fmt.Errorf("scheduler: job %q spec %q: %w", jc.Name, jc.Spec, err)
		}
		j.id = id
		s.jobs = append(s.jobs, j)
	}
	return s, nil
}

// Start begins firing jobs. Calling it again while running does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name+"@"+j.spec)
	}
	s.log.Info("notification scheduler started", zap.Strings("jobs", names), zap.String("tz", s.loc.String()))
}

// Run starts the scheduler and blocks until ctx is done, then waits up to the drain timeout
// for in-flight cycles.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	t := time.NewTimer(s.drain)
	defer t.Stop()
	select {
	case <-stopped.Done():
		s.log.Info("notification scheduler stopped")
	case <-t.C:
		s.log.Warn("notification scheduler drain timed out", zap.Duration("drain", s.drain))
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{Running: s.isRunning, Timezone: s.loc.String()}
	for _, j := range s.jobs {
		js := JobStatus{Name: j.name, Spec: j.spec, Running: j.running}
		e := s.cron.Entry(j.id)
		if !e.Next.IsZero() {
			next := e.Next
			js.Next = &next
		}
		if !e.Prev.IsZero() {
			prev := e.Prev
			js.Prev = &prev
		}
		st.Jobs = append(st.Jobs, js)
	}
	return st
}

// runJob executes one cycle. Cycles run detached from any request; a cycle is never cancelled midway.
func (s *Scheduler) runJob(j *scheduledJob) {
	s.setJobRunning(j, true)
	defer s.setJobRunning(j, false)

	start := time.Now()
	rep, err := j.run(context.Background())
	if err != nil {
		s.log.Error("notification cycle failed", zap.String("job", j.name), zap.Error(err))
		return
	}
	s.log.Info("notification cycle done",
		zap.String("job", j.name),
		zap.Any("report", rep),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Scheduler) setJobRunning(j *scheduledJob, v bool) {
	s.mu.Lock()
	j.running = v
	s.mu.Unlock()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
