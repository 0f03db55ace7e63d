package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// scheduledJob is one registered cron entry for a time rule.
type scheduledJob struct {
	entryID cron.EntryID
	spec    string
}

// Scheduler keeps the cron runner in sync with the enabled time rules.
//
// Reconcile diffs the desired job set against the registered one, so it
// is safe to call after every rule mutation as well as at startup. Rules
// the scheduler cannot express (unsupported schedule strings) are logged
// and left out rather than failing the whole reconciliation.
type Scheduler struct {
	rules  Repository
	engine *Engine
	logger Logger

	cron *cron.Cron

	mu   sync.Mutex
	jobs map[int64]scheduledJob
}

// NewScheduler creates a scheduler driving the given engine.
func NewScheduler(rules Repository, engine *Engine) *Scheduler {
	return &Scheduler{
		rules:  rules,
		engine: engine,
		logger: noopLogger{},
		cron:   cron.New(),
		jobs:   make(map[int64]scheduledJob),
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron runner and waits for any running job callback.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Reconcile aligns the registered cron entries with the enabled time
// rules in the store. Disabled, deleted, or re-scheduled rules lose
// their entries; new rules gain them.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	rules, err := s.rules.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("listing rules for schedule reconcile: %w", err)
	}

	desired := make(map[int64]string)
	for _, rule := range rules {
		if rule.TriggerKind != TriggerTime {
			continue
		}
		spec, err := ParseSchedule(rule.Schedule)
		if err != nil {
			s.logger.Warn("rule has unsupported schedule, not registering",
				"rule_id", rule.ID,
				"rule", rule.Name,
				"schedule", rule.Schedule,
			)
			continue
		}
		desired[rule.ID] = spec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop entries for rules that are gone or whose spec changed.
	for ruleID, job := range s.jobs {
		spec, ok := desired[ruleID]
		if ok && spec == job.spec {
			continue
		}
		s.cron.Remove(job.entryID)
		delete(s.jobs, ruleID)
	}

	// Register what is missing.
	for ruleID, spec := range desired {
		if _, ok := s.jobs[ruleID]; ok {
			continue
		}
		id := ruleID
		entryID, err := s.cron.AddFunc(spec, func() {
			s.engine.RunScheduled(context.Background(), id)
		})
		if err != nil {
			s.logger.Error("registering schedule failed",
				"rule_id", ruleID,
				"spec", spec,
				"error", err,
			)
			continue
		}
		s.jobs[ruleID] = scheduledJob{entryID: entryID, spec: spec}
		s.logger.Debug("schedule registered", "rule_id", ruleID, "spec", spec)
	}

	return nil
}

// JobCount reports the number of registered cron entries.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
