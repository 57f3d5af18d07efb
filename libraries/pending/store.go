package pending

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/compression"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/encoding"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
	"github.com/bifrost-finance/bifrost-eos-relay/libraries/proof"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

var ErrNotFound = errors.New("pending record not found")

var recordPrefix = []byte("p/")

// Record is one proof handed to the relay, kept so it can be inspected and
// replayed after the fact.
type Record struct {
	Seq       uint64          `json:"seq"`
	Kind      proof.Kind      `json:"kind"`
	Endpoint  string          `json:"endpoint"`
	Identity  string          `json:"identity"`
	Bundle    json.RawMessage `json:"bundle"`
	Status    Status          `json:"status"`
	TxID      string          `json:"tx_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *Record) Decode() (proof.Bundle, error) {
	return proof.Unmarshal(r.Kind, r.Bundle)
}

type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if strings.Contains(msg, "stopped reading at offset") {
		logger.Printf("pending", "WAL recovery: %s", msg)
		return
	}
	logger.Printf("debug-pebble", "%s", msg)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	logger.Printf("pending", "ERROR: "+format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	logger.Fatal(format, args...)
}

type Store struct {
	db *pebble.DB

	mu   sync.Mutex
	last uint64
}

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{Logger: pebbleLogger{}})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if s.last, err = s.lastSeq(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Printf("startup", "pending log %s opened at seq %d", path, s.last)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(seq uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], seq)
	return key
}

func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			break
		}
	}
	return upper
}

func (s *Store) lastSeq() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: recordPrefix, UpperBound: prefixUpperBound(recordPrefix)})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, nil
	}
	return binary.BigEndian.Uint64(iter.Key()[len(recordPrefix):]), nil
}

func (s *Store) put(r *Record) error {
	data, err := encoding.JSONiter.Marshal(r)
	if err != nil {
		return err
	}
	value, err := compression.Compress(data)
	if err != nil {
		return err
	}
	return s.db.Set(recordKey(r.Seq), value, pebble.Sync)
}

func decodeRecord(value []byte) (*Record, error) {
	data, err := compression.Decompress(nil, value)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := encoding.JSONiter.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Append stores b as a new pending record and returns its sequence number.
func (s *Store) Append(b proof.Bundle, endpoint, identity string) (uint64, error) {
	data, err := proof.Marshal(b)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	r := &Record{
		Seq:       s.last + 1,
		Kind:      b.Kind(),
		Endpoint:  endpoint,
		Identity:  identity,
		Bundle:    data,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.put(r); err != nil {
		return 0, err
	}
	s.last = r.Seq
	logger.Printf("pending", "appended %s #%d for %s", r.Kind, r.Seq, endpoint)
	return r.Seq, nil
}

func (s *Store) Get(seq uint64) (*Record, error) {
	value, closer, err := s.db.Get(recordKey(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: #%d", ErrNotFound, seq)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodeRecord(value)
}

func (s *Store) update(seq uint64, fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.Get(seq)
	if err != nil {
		return err
	}
	fn(r)
	r.Attempts++
	r.UpdatedAt = time.Now().UTC()
	return s.put(r)
}

func (s *Store) MarkSubmitted(seq uint64, txID string) error {
	return s.update(seq, func(r *Record) {
		r.Status = StatusSubmitted
		r.TxID = txID
		r.Error = ""
	})
}

func (s *Store) MarkFailed(seq uint64, cause error) error {
	return s.update(seq, func(r *Record) {
		r.Status = StatusFailed
		if cause != nil {
			r.Error = cause.Error()
		}
	})
}

// List returns up to limit records with a sequence number above after, in
// order. An empty status matches every record; limit <= 0 means no limit.
func (s *Store) List(status Status, after uint64, limit int) ([]*Record, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: recordKey(after + 1),
		UpperBound: prefixUpperBound(recordPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*Record
	for iter.First(); iter.Valid(); iter.Next() {
		r, err := decodeRecord(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("record %x: %w", iter.Key(), err)
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}

// Counts tallies records by status.
func (s *Store) Counts() (map[Status]int, error) {
	records, err := s.List("", 0, 0)
	if err != nil {
		return nil, err
	}
	counts := map[Status]int{StatusPending: 0, StatusSubmitted: 0, StatusFailed: 0}
	for _, r := range records {
		counts[r.Status]++
	}
	return counts, nil
}
