// Package session implements the unit of work used by every request that
// mutates registration state. A Session keeps an identity map of the rows it
// has loaded or added, runs entity adjustments before writing, records the
// audit trail in the same transaction and holds the badge lock from the
// first numbering decision until the write has finished or failed.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gdg-garage/con-registration-api/internal/audit"
	"github.com/gdg-garage/con-registration-api/internal/lock"
	"github.com/gdg-garage/con-registration-api/internal/metrics"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = models.ErrNotFound
	ErrMultipleFound = models.ErrMultipleFound
	ErrNoOriginal    = errors.New("row has no committed state")
)

// Hook runs at a fixed point of Commit.
type Hook func(ctx context.Context, s *Session) error

// ErrorHook runs when Commit fails after it started flushing.
type ErrorHook func(ctx context.Context, s *Session, err error)

// Store owns everything sessions share: the database, the badge lock and
// the event policy.
type Store struct {
	db      *gorm.DB
	locker  lock.Locker
	policy  *models.Policy
	tracker *audit.Tracker
	logger  *slog.Logger

	afterFlush []Hook
	onClose    []Hook
}

func NewStore(db *gorm.DB, locker lock.Locker, policy *models.Policy) *Store {
	tracker := audit.New(db)
	tracker.Now = policy.Now
	return &Store{
		db:      db,
		locker:  locker,
		policy:  policy,
		tracker: tracker,
		logger:  slog.Default().With("component", "session"),
	}
}

// AfterFlush registers a hook run by every session after a successful write.
func (st *Store) AfterFlush(h Hook) {
	st.afterFlush = append(st.afterFlush, h)
}

// OnClose registers a hook run by every session's Close, whether or not it
// committed.
func (st *Store) OnClose(h Hook) {
	st.onClose = append(st.onClose, h)
}

func (st *Store) Policy() *models.Policy {
	return st.policy
}

func (st *Store) DB() *gorm.DB {
	return st.db
}

// Session starts a unit of work attributed to actor in the audit log.
func (st *Store) Session(actor string) *Session {
	s := &Session{
		store:       st,
		db:          st.db,
		actor:       actor,
		entries:     make(map[key]*entry),
		deletedKeys: make(map[key]bool),
		touched:     make(map[key]bool),
	}
	s.beforeFlush = []Hook{acquireBadgeLock, runPresave, planWrites, trackChanges}
	s.afterFlush = append([]Hook{releaseBadgeLock}, st.afterFlush...)
	s.onError = []ErrorHook{releaseBadgeLockOnError}
	return s
}

type key struct {
	table string
	id    string
}

func keyOf(m models.Model) key {
	return key{table: m.TableName(), id: m.GetID()}
}

type entry struct {
	m    models.Model
	orig audit.Snapshot
}

type flushPlan struct {
	creates []*entry
	updates []*entry
}

type Session struct {
	store *Store
	db    *gorm.DB
	actor string

	entries     map[key]*entry
	order       []key
	deleted     []models.Model
	deletedKeys map[key]bool
	touched     map[key]bool

	lockHeld bool

	beforeFlush []Hook
	afterFlush  []Hook
	onError     []ErrorHook

	plan      flushPlan
	pending   []*models.Tracking
	exhausted []models.BadgeType
	created   []models.Model
}

func (s *Session) Policy() *models.Policy {
	return s.store.policy
}

func (s *Session) Actor() string {
	return s.actor
}

// BeforeFlush appends a hook run after the built-in adjustment and audit steps.
func (s *Session) BeforeFlush(h Hook) {
	s.beforeFlush = append(s.beforeFlush, h)
}

func (s *Session) OnFlushError(h ErrorHook) {
	s.onError = append(s.onError, h)
}

// Created lists the rows inserted by the last successful Commit.
func (s *Session) Created() []models.Model {
	return s.created
}

// TakeExhausted returns and clears the badge types whose range ran out while
// numbering in this session.
func (s *Session) TakeExhausted() []models.BadgeType {
	out := s.exhausted
	s.exhausted = nil
	return out
}

func (s *Session) register(ctx context.Context, m models.Model) (*entry, error) {
	k := keyOf(m)
	if e, ok := s.entries[k]; ok {
		return e, nil
	}
	e := &entry{m: m}
	if !m.IsNew() {
		snap, err := s.store.tracker.Snapshot(ctx, m)
		if err != nil {
			return nil, err
		}
		e.orig = snap
	}
	s.entries[k] = e
	s.order = append(s.order, k)
	return e, nil
}

// Add puts m under the session's control. New rows are inserted on Commit;
// persisted rows are compared against their state at the time of Add.
func (s *Session) Add(ctx context.Context, m models.Model) error {
	m.EnsureID()
	if s.deletedKeys[keyOf(m)] {
		return nil
	}
	_, err := s.register(ctx, m)
	return err
}

// Delete queues m for removal. Rows that were never written are simply
// forgotten.
func (s *Session) Delete(m models.Model) {
	if m.GetID() == "" {
		return
	}
	k := keyOf(m)
	if m.IsNew() {
		s.expunge(k)
		return
	}
	if s.deletedKeys[k] {
		return
	}
	if e, ok := s.entries[k]; ok {
		m = e.m
	}
	s.deletedKeys[k] = true
	s.deleted = append(s.deleted, m)
}

func (s *Session) expunge(k key) {
	delete(s.entries, k)
	delete(s.touched, k)
	s.order = slices.DeleteFunc(s.order, func(o key) bool { return o == k })
}

// Touch forces adjustments to run on m at the next Commit even if none of its
// columns changed.
func (s *Session) Touch(m models.Model) {
	s.touched[keyOf(m)] = true
}

// OrigValueOf returns the committed value of column for a row loaded through
// this session.
func (s *Session) OrigValueOf(m models.Model, column string) (any, error) {
	e, ok := s.entries[keyOf(m)]
	if !ok || e.orig == nil {
		return nil, fmt.Errorf("%s %s: %w", m.TableName(), m.GetID(), ErrNoOriginal)
	}
	v, ok := e.orig[column]
	if !ok {
		return nil, fmt.Errorf("%s has no column %q", m.TableName(), column)
	}
	return v, nil
}

func (s *Session) live() []*entry {
	out := make([]*entry, 0, len(s.order))
	for _, k := range s.order {
		if !s.deletedKeys[k] {
			out = append(out, s.entries[k])
		}
	}
	return out
}

// Commit flushes every pending change in one transaction.
func (s *Session) Commit(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.flushFailed(ctx, fmt.Errorf("panic during commit: %v", r))
			panic(r)
		}
	}()

	for _, h := range s.beforeFlush {
		if err := h(ctx, s); err != nil {
			s.flushFailed(ctx, err)
			return err
		}
	}
	if err := s.write(ctx); err != nil {
		s.flushFailed(ctx, err)
		return err
	}
	s.finalize(ctx)
	metrics.Commits.WithLabelValues("ok").Inc()

	for _, h := range s.afterFlush {
		if err := h(ctx, s); err != nil {
			s.store.logger.Error("After-flush hook failed", "error", err)
		}
	}
	return nil
}

func (s *Session) flushFailed(ctx context.Context, err error) {
	metrics.Commits.WithLabelValues("failed").Inc()
	s.pending = nil
	s.plan = flushPlan{}
	for _, h := range s.onError {
		h(ctx, s, err)
	}
}

// Close releases the badge lock if an operation left it held, then runs the
// store's close hooks. It is safe to call after Commit.
func (s *Session) Close(ctx context.Context) {
	if s.lockHeld {
		s.releaseLock(ctx, slog.LevelWarn)
	}
	for _, h := range s.store.onClose {
		if err := h(ctx, s); err != nil {
			s.store.logger.Error("Close hook failed", "error", err)
		}
	}
}

func (s *Session) write(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range s.deleted {
			if err := tx.Delete(m).Error; err != nil {
				return fmt.Errorf("delete %s %s: %w", m.TableName(), m.GetID(), err)
			}
		}
		for _, e := range s.plan.updates {
			if err := tx.Save(e.m).Error; err != nil {
				return fmt.Errorf("update %s %s: %w", e.m.TableName(), e.m.GetID(), err)
			}
		}
		for _, e := range s.plan.creates {
			if err := tx.Create(e.m).Error; err != nil {
				return fmt.Errorf("create %s: %w", e.m.TableName(), err)
			}
		}
		for _, t := range s.pending {
			if err := tx.Create(t).Error; err != nil {
				return fmt.Errorf("write tracking: %w", err)
			}
		}
		return nil
	})
}

func (s *Session) finalize(ctx context.Context) {
	for _, m := range s.deleted {
		s.expunge(keyOf(m))
	}
	s.created = nil
	for _, e := range s.plan.creates {
		e.m.MarkPersisted()
		s.created = append(s.created, e.m)
	}
	for _, e := range s.live() {
		if snap, err := s.store.tracker.Snapshot(ctx, e.m); err == nil {
			e.orig = snap
		}
	}
	for _, t := range s.pending {
		metrics.AuditEntries.WithLabelValues(t.Action.String()).Inc()
	}
	s.deleted = nil
	s.deletedKeys = make(map[key]bool)
	s.touched = make(map[key]bool)
	s.pending = nil
	s.plan = flushPlan{}
}

func acquireBadgeLock(ctx context.Context, s *Session) error {
	return s.acquireLock(ctx)
}

func releaseBadgeLock(ctx context.Context, s *Session) error {
	s.releaseLock(ctx, slog.LevelError)
	return nil
}

func releaseBadgeLockOnError(ctx context.Context, s *Session, _ error) {
	s.releaseLock(ctx, slog.LevelWarn)
}

func (s *Session) acquireLock(ctx context.Context) error {
	if s.lockHeld {
		return nil
	}
	start := time.Now()
	if err := s.store.locker.Lock(ctx); err != nil {
		return fmt.Errorf("acquire badge lock: %w", err)
	}
	metrics.LockWait.Observe(time.Since(start).Seconds())
	s.lockHeld = true
	return nil
}

// releaseLock never fails the caller; a failed release is logged at level.
func (s *Session) releaseLock(ctx context.Context, level slog.Level) {
	if !s.lockHeld {
		return
	}
	s.lockHeld = false
	if err := s.store.locker.Unlock(context.WithoutCancel(ctx)); err != nil {
		metrics.LockReleaseFailures.Inc()
		s.store.logger.Log(ctx, level, "Failed to release badge lock", "error", err)
	}
}

// underLock runs fn with the badge lock held and commits when fn reports
// success. A lock taken here is released when fn fails.
func (s *Session) underLock(ctx context.Context, fn func() (bool, error)) error {
	held := s.lockHeld
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	ok, err := fn()
	if err != nil || !ok {
		if !held {
			s.releaseLock(ctx, slog.LevelWarn)
		}
		return err
	}
	return s.Commit(ctx)
}

func runPresave(ctx context.Context, s *Session) error {
	for i := 0; i < len(s.order); i++ {
		k := s.order[i]
		if s.deletedKeys[k] {
			continue
		}
		e := s.entries[k]
		run := e.orig == nil || s.touched[k]
		if !run {
			cur, err := s.store.tracker.Snapshot(ctx, e.m)
			if err != nil {
				return err
			}
			run = e.orig.Changed(cur)
		}
		if !run {
			continue
		}
		if err := e.m.PresaveAdjustments(ctx, s); err != nil {
			return fmt.Errorf("adjust %s: %w", e.m, err)
		}
	}
	for i := 0; i < len(s.deleted); i++ {
		m := s.deleted[i]
		if err := m.OnDelete(ctx, s); err != nil {
			return fmt.Errorf("delete hook for %s: %w", m, err)
		}
	}
	return nil
}

type validator interface {
	Valid() error
}

func planWrites(ctx context.Context, s *Session) error {
	var plan flushPlan
	for _, e := range s.live() {
		cur, err := s.store.tracker.Snapshot(ctx, e.m)
		if err != nil {
			return err
		}
		switch {
		case e.orig == nil:
			plan.creates = append(plan.creates, e)
		case e.orig.Changed(cur):
			plan.updates = append(plan.updates, e)
		default:
			continue
		}
		for col, v := range cur {
			if c, ok := v.(validator); ok {
				if err := c.Valid(); err != nil {
					return fmt.Errorf("%s.%s: %w", e.m.TableName(), col, err)
				}
			}
		}
	}
	s.plan = plan
	return nil
}

func trackChanges(ctx context.Context, s *Session) error {
	s.pending = nil
	add := func(action models.Action, m models.Model, orig audit.Snapshot) error {
		t, err := s.store.tracker.Track(ctx, action, m, orig, s.actor)
		if err != nil {
			return err
		}
		if t != nil {
			s.pending = append(s.pending, t)
		}
		return nil
	}
	for _, e := range s.plan.creates {
		if err := add(models.ActionCreated, e.m, nil); err != nil {
			return err
		}
	}
	for _, e := range s.plan.updates {
		if err := add(models.ActionUpdated, e.m, e.orig); err != nil {
			return err
		}
	}
	for _, m := range s.deleted {
		if err := add(models.ActionDeleted, m, nil); err != nil {
			return err
		}
	}
	return nil
}

var _ models.Tx = (*Session)(nil)
