package automation

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"homeline/internal/adapter"
)

// systemActorID marks audit entries produced by autonomous rule firings
// rather than a person.
const systemActorID = 0

// Queue and execution bounds.
const (
	// firingQueueSize bounds pending rule firings. Under sustained
	// overload new firings are dropped with a warning rather than
	// blocking the ingest goroutine.
	firingQueueSize = 256

	// firingTimeout is the hard limit for executing one firing,
	// command plus notification.
	firingTimeout = 30 * time.Second
)

// Commander executes device commands. Satisfied by *controller.Controller;
// rule actions go through the same choke point as user commands, so they
// appear in the audit trail like everything else.
type Commander interface {
	Control(ctx context.Context, deviceID int64, action string, actorID int64) (adapter.Result, error)
}

// Notifier delivers push notifications. Satisfied by *notify.Sender.
// May be nil; firings then skip the notification step.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, title, body string, data map[string]string) (map[string]error, error)
}

// Logger defines the logging interface used by the engine and scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// firing is one queued rule execution.
type firing struct {
	rule      Rule
	scheduled bool
}

// Engine matches device events against rules and executes the firings.
//
// Matching runs synchronously on the caller's goroutine (the ingest
// pipeline), after the triggering state has been persisted, so a firing
// always observes the store state that caused it. Execution is decoupled
// through a bounded queue drained by a single goroutine: firings execute
// one at a time, in the order their events were observed.
type Engine struct {
	rules     Repository
	commander Commander
	notifier  Notifier
	logger    Logger

	queue chan firing
	done  chan struct{}
	wg    sync.WaitGroup

	// inFlight tracks rules with a queued or executing scheduled firing,
	// so an interval shorter than the execution time skips instead of
	// piling up.
	inFlightMu sync.Mutex
	inFlight   map[int64]bool
}

// NewEngine creates an automation engine. notifier may be nil.
func NewEngine(rules Repository, commander Commander, notifier Notifier) *Engine {
	return &Engine{
		rules:     rules,
		commander: commander,
		notifier:  notifier,
		logger:    noopLogger{},
		queue:     make(chan firing, firingQueueSize),
		done:      make(chan struct{}),
		inFlight:  make(map[int64]bool),
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// Start launches the executor goroutine.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Stop drains no further firings and waits for the in-flight one to
// finish. Queued firings that have not started are discarded.
func (e *Engine) Stop() {
	close(e.done)
	e.wg.Wait()
}

// OnDeviceEvent matches an event against the enabled rules and enqueues
// a firing per match. Called by the ingest pipeline after the event's
// state has been persisted.
//
// A rule whose stored payload turns out malformed is logged and skipped;
// one bad row must not stop the rest from matching.
func (e *Engine) OnDeviceEvent(ctx context.Context, ev DeviceEvent) {
	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		e.logger.Error("loading rules for matching failed", "error", err)
		return
	}

	for i := range rules {
		rule := rules[i]
		if rule.TriggerKind != TriggerDeviceState {
			continue
		}
		if rule.Trigger == nil {
			e.logger.Warn("skipping rule with malformed trigger payload", "rule_id", rule.ID)
			continue
		}
		if !rule.Matches(ev) {
			continue
		}

		e.enqueue(firing{rule: rule})
	}
}

// RunScheduled executes a time rule by ID. Called by the scheduler on
// each cron firing.
//
// The rule is re-read on every firing: a rule disabled after the job was
// registered (but before reconciliation removed it) must not fire. If a
// previous firing of the same rule is still queued or executing, this
// one is skipped.
func (e *Engine) RunScheduled(ctx context.Context, ruleID int64) {
	rule, err := e.rules.GetByID(ctx, ruleID)
	if err != nil {
		e.logger.Warn("scheduled rule vanished", "rule_id", ruleID, "error", err)
		return
	}
	if !rule.Enabled {
		e.logger.Debug("scheduled rule disabled, skipping", "rule_id", ruleID)
		return
	}

	e.inFlightMu.Lock()
	if e.inFlight[ruleID] {
		e.inFlightMu.Unlock()
		e.logger.Warn("scheduled firing overlaps previous, skipping",
			"rule_id", ruleID,
			"rule", rule.Name,
		)
		return
	}
	e.inFlight[ruleID] = true
	e.inFlightMu.Unlock()

	e.enqueue(firing{rule: *rule, scheduled: true})
}

// enqueue adds a firing without blocking. Dropping under overload is
// deliberate: the ingest goroutine must keep consuming broker messages.
func (e *Engine) enqueue(f firing) {
	select {
	case e.queue <- f:
	default:
		if f.scheduled {
			e.clearInFlight(f.rule.ID)
		}
		e.logger.Warn("firing queue full, dropping",
			"rule_id", f.rule.ID,
			"rule", f.rule.Name,
		)
	}
}

// run is the executor loop.
func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.done:
			return
		case f := <-e.queue:
			e.execute(f)
			if f.scheduled {
				e.clearInFlight(f.rule.ID)
			}
		}
	}
}

func (e *Engine) clearInFlight(ruleID int64) {
	e.inFlightMu.Lock()
	delete(e.inFlight, ruleID)
	e.inFlightMu.Unlock()
}

// execute runs one firing: the device command, then a best-effort push
// notification to the rule's owner. A transport failure is logged and
// swallowed — an offline relay must not take the engine down with it.
func (e *Engine) execute(f firing) {
	ctx, cancel := context.WithTimeout(context.Background(), firingTimeout)
	defer cancel()

	rule := f.rule
	result, err := e.commander.Control(ctx, rule.Action.DeviceID, rule.Action.State, systemActorID)
	if err != nil {
		e.logger.Warn("rule action failed",
			"rule_id", rule.ID,
			"rule", rule.Name,
			"device_id", rule.Action.DeviceID,
			"error", err,
		)
		return
	}

	e.logger.Info("rule fired",
		"rule_id", rule.ID,
		"rule", rule.Name,
		"device_id", rule.Action.DeviceID,
		"state", result.State,
		"scheduled", f.scheduled,
	)

	e.notifyOwner(ctx, rule)
}

func (e *Engine) notifyOwner(ctx context.Context, rule Rule) {
	if e.notifier == nil || rule.OwnerID == 0 {
		return
	}

	title := "Automation executed"
	body := fmt.Sprintf("%s turned device %d %s", rule.Name, rule.Action.DeviceID, rule.Action.State)
	data := map[string]string{
		"rule_id":   strconv.FormatInt(rule.ID, 10),
		"device_id": strconv.FormatInt(rule.Action.DeviceID, 10),
		"state":     rule.Action.State,
	}

	if _, err := e.notifier.NotifyUser(ctx, rule.OwnerID, title, body, data); err != nil {
		e.logger.Warn("rule notification failed",
			"rule_id", rule.ID,
			"owner_id", rule.OwnerID,
			"error", err,
		)
	}
}
