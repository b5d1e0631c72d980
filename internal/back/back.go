package back

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/l8smu/rankedbot/internal/config"
)

type Back struct {
	db     *sqlx.DB
	config *config.Config

	// One mutex covers the queue, the formation/draft sessions, and the
	// active match registry: the Join->pop->create path and any concurrent
	// report/cancel path touch overlapping invariants.
	mu              sync.Mutex
	queue           []QueueEntry
	queueActivityAt time.Time
	groups          map[uuid.UUID]*FormationGroup
	drafts          map[uuid.UUID]*DraftSession
	matches         map[int64]*Match
	lastMatchID     int64

	notifications chan Notification
}

func New(sqlDriver string, sqlDSN string, conf *config.Config) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, err
	}

	b := &Back{
		db:            db,
		config:        conf,
		groups:        map[uuid.UUID]*FormationGroup{},
		drafts:        map[uuid.UUID]*DraftSession{},
		matches:       map[int64]*Match{},
		notifications: make(chan Notification, 32),
	}

	if err := db.Get(
		&b.lastMatchID,
		`SELECT COALESCE(MAX(Match.ID), 0) FROM Match`,
	); err != nil {
		return nil, fmt.Errorf("unable to read last match ID: %w", err)
	}

	return b, nil
}

func (b *Back) Notifications() <-chan Notification {
	return b.notifications
}

func (b *Back) Run(wg *sync.WaitGroup, done <-chan struct{}) {
	wg.Add(1)
	defer wg.Done()
	log.Print("info: starting Back dæmon")

	for {
		if err := b.runPeriodicTasks(); err != nil {
			log.Printf("error: runPeriodicTasks: %s", err)
		}

		select {
		case <-time.After(1 * time.Minute):
		case <-done:
			return
		}
	}
}

type transactionCallback func(*sqlx.Tx) error

func (b *Back) transaction(cb transactionCallback) error {
	tx, err := b.db.Beginx()
	if err != nil {
		return err
	}

	if err := cb(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("rollback error: %s\noriginal error: %s", err2, err)
		}

		return err
	}

	return tx.Commit()
}

// allocateMatchID hands out the next monotonically increasing match ID.
// Callers must hold b.mu.
func (b *Back) allocateMatchID() int64 {
	b.lastMatchID++
	return b.lastMatchID
}
