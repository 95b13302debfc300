// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
	"github.com/poiesic/caselaw/storage"
)

// CaseRepository implements storage.CaseRepository for BadgerDB.
type CaseRepository struct {
	backend *Backend
	seq     *badger.Sequence
	// writes serializes AddCases so the ID and citation indices never race
	// between lookup and set.
	writes sync.Mutex
}

var _ storage.CaseRepository = (*CaseRepository)(nil)

// NewCaseRepository creates a case repository on backend.
func NewCaseRepository(backend *Backend) (storage.CaseRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	seq, err := backend.GetSequence(caseSeqKey)
	if err != nil {
		return nil, err
	}
	return &CaseRepository{backend: backend, seq: seq}, nil
}

// Close releases the insertion sequence.
func (r *CaseRepository) Close() error {
	return r.seq.Release()
}

// PutReporters replaces the reporters manifest.
func (r *CaseRepository) PutReporters(ctx context.Context, reporters []payload.ReporterManifest) error {
	value, err := storage.MarshalReporters(reporters)
	if err != nil {
		return err
	}
	return r.backend.SetWithTTL([]byte(reportersKey), value, 0)
}

// Reporters returns the stored manifest, or nil when none was stored.
func (r *CaseRepository) Reporters(ctx context.Context) ([]payload.ReporterManifest, error) {
	value, err := r.backend.Get([]byte(reportersKey))
	if err != nil || value == nil {
		return nil, err
	}
	return storage.UnmarshalReporters(value)
}

// AddCases stores cases in order. Large batches are split across
// transactions when badger reports the transaction is too big.
func (r *CaseRepository) AddCases(ctx context.Context, cases ...payload.Local) error {
	r.writes.Lock()
	defer r.writes.Unlock()

	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	tx := r.backend.db.NewTransaction(true)
	defer func() { tx.Discard() }()

	for i := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		seq, err := r.putCase(tx, &cases[i], 0)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := tx.Commit(); err != nil {
				return err
			}
			tx = r.backend.db.NewTransaction(true)
			_, err = r.putCase(tx, &cases[i], seq)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// putCase writes c and its index entries. The returned sequence is valid
// once assigned, even on error; retries pass it back as seqHint.
func (r *CaseRepository) putCase(tx *badger.Txn, c *payload.Local, seqHint uint64) (uint64, error) {
	id := strconv.FormatInt(c.Case.ID, 10)
	idKey := makeCaseIDKey(id)

	seq, found, err := readSeq(tx, idKey)
	if err != nil {
		return 0, err
	}
	if !found {
		seq = seqHint
		if seq == 0 {
			if seq, err = r.nextSeq(); err != nil {
				return 0, err
			}
		}
	}

	value, err := storage.MarshalCase(c)
	if err != nil {
		return seq, err
	}
	if err := tx.Set(makeCaseKey(seq), value); err != nil {
		return seq, err
	}
	if err := tx.Set(idKey, storage.MarshalSeq(seq)); err != nil {
		return seq, err
	}

	// First case stored under a citation keeps it.
	for _, cite := range c.Case.Citations {
		if core.NormalizeCitation(cite.Cite) == "" {
			continue
		}
		citeKey := makeCiteKey(cite.Cite)
		if _, exists, err := readSeq(tx, citeKey); err != nil {
			return seq, err
		} else if exists {
			continue
		}
		if err := tx.Set(citeKey, storage.MarshalSeq(seq)); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

func (r *CaseRepository) nextSeq() (uint64, error) {
	next, err := r.seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		return r.seq.Next()
	}
	return next, nil
}

// GetCase retrieves a case by archive ID.
func (r *CaseRepository) GetCase(ctx context.Context, id string) (*payload.Local, error) {
	return r.getVia(makeCaseIDKey(id))
}

// FindByCitation retrieves the case indexed under cite.
func (r *CaseRepository) FindByCitation(ctx context.Context, cite string) (*payload.Local, error) {
	if core.NormalizeCitation(cite) == "" {
		return nil, storage.ErrNotFound
	}
	return r.getVia(makeCiteKey(cite))
}

func (r *CaseRepository) getVia(indexKey []byte) (*payload.Local, error) {
	var result *payload.Local
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seq, found, err := readSeq(tx, indexKey)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result, err = readCase(tx, makeCaseKey(seq))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Scan visits cases in insertion order.
func (r *CaseRepository) Scan(ctx context.Context, fn func(c *payload.Local) error) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(casePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var c *payload.Local
			err := iter.Item().Value(func(val []byte) error {
				var err error
				c, err = storage.UnmarshalCase(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if errors.Is(err, storage.ErrStopScan) {
		return nil
	}
	return err
}

// Count returns the number of stored cases.
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	return r.backend.CountPrefix([]byte(casePrefix))
}

func readSeq(tx *badger.Txn, key []byte) (uint64, bool, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		seq, err = storage.UnmarshalSeq(val)
		return err
	})
	return seq, err == nil, err
}

func readCase(tx *badger.Txn, key []byte) (*payload.Local, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var c *payload.Local
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		c, unmarshalErr = storage.UnmarshalCase(val)
		return unmarshalErr
	})
	return c, err
}
