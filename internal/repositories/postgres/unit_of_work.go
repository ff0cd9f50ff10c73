package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the transaction-scoped repositories handed to a unit of work
// callback.
type Repos struct {
	Sessions SessionRepository
	Members  MemberRepository
}

// UnitOfWork serializes check-then-act sequences. Conflict detection reads
// every session of a candidate before writing one, and composition
// validation reads every member of a session before writing the session, so
// each write path runs inside a transaction holding Postgres advisory locks.
// Every writer of an existing session row holds the session key; paths that
// run the conflict check hold the candidate key as well, acquired before the
// session key so the lock order is the same everywhere.
type UnitOfWork interface {
	WithCandidateLock(ctx context.Context, candidateID string, fn func(Repos) error) error
	WithSessionLock(ctx context.Context, sessionID string, fn func(Repos) error) error
	WithCandidateSessionLock(ctx context.Context, candidateID, sessionID string, fn func(Repos) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) WithCandidateLock(ctx context.Context, candidateID string, fn func(Repos) error) error {
	return u.withLocks(ctx, []string{"candidate:" + candidateID}, fn)
}

func (u *gormUnitOfWork) WithSessionLock(ctx context.Context, sessionID string, fn func(Repos) error) error {
	return u.withLocks(ctx, []string{"session:" + sessionID}, fn)
}

func (u *gormUnitOfWork) WithCandidateSessionLock(ctx context.Context, candidateID, sessionID string, fn func(Repos) error) error {
	return u.withLocks(ctx, []string{"candidate:" + candidateID, "session:" + sessionID}, fn)
}

func (u *gormUnitOfWork) withLocks(ctx context.Context, keys []string, fn func(Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Released automatically at commit/rollback.
		for _, key := range keys {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
				return err
			}
		}
		return fn(Repos{
			Sessions: NewSessionRepo(tx),
			Members:  NewMemberRepo(tx),
		})
	})
}
