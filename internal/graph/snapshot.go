package graph

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const triplePrefix = "triple:"

// Snapshot persists the in-memory graph to disk so a restart can serve
// queries without re-extracting every document. It stores one record
// per triple, keyed by insertion index so load order matches build
// order.
type Snapshot struct {
	db  *badger.DB
	log *log.Logger
}

// badgerLogger adapts our logger to badger's interface.
type badgerLogger struct {
	log *log.Logger
}

var _ badger.Logger = badgerLogger{}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log.Debugf(format, args...) }

func OpenSnapshot(dir string, logger *log.Logger) (*Snapshot, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = badgerLogger{log: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return &Snapshot{db: db, log: logger}, nil
}

// Save replaces the stored snapshot with the current contents of m.
func (s *Snapshot) Save(m *Memory) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, t := range m.Triples() {
		buf := make([]byte, TripleMUS.Size(t))
		TripleMUS.Marshal(t, buf)
		if err := wb.Set(tripleKey(i), buf); err != nil {
			return fmt.Errorf("failed to queue triple: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}

	s.log.Info("saved graph snapshot", "triples", m.EdgeCount())
	return nil
}

// Load replays every stored triple into m and reports how many were
// restored.
func (s *Snapshot) Load(ctx context.Context, m *Memory) (int, error) {
	count := 0
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(triplePrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				t, _, err := TripleMUS.Unmarshal(val)
				if err != nil {
					return err
				}
				count++
				return m.AddTriple(ctx, t)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return count, nil
}

func (s *Snapshot) Close() error {
	return s.db.Close()
}

func tripleKey(i int) []byte {
	k := make([]byte, len(triplePrefix)+8)
	copy(k, triplePrefix)
	binary.BigEndian.PutUint64(k[len(triplePrefix):], uint64(i))
	return k
}
