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

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/circulars/core"
	"github.com/poiesic/circulars/storage"
)

// Cache implements storage.Cache on a Backend.
type Cache struct {
	backend *Backend
}

var _ storage.Cache = (*Cache)(nil)

// NewCache creates a cache on an open backend. The cache owns the backend
// and closes it on Close.
func NewCache(backend *Backend) *Cache {
	return &Cache{backend: backend}
}

// OpenCache opens or creates a persistent cache in dir.
func OpenCache(dir string) (storage.Cache, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	return NewCache(backend), nil
}

// Close closes the backend.
func (c *Cache) Close() error {
	if c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}

func (c *Cache) checkOpen() error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// GetText returns cached text for a document file.
func (c *Cache) GetText(ctx context.Context, mode string, contentID core.ID) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}

	var text string
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTextKey(mode, contentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			text = string(val)
			return nil
		})
	}, false)
	return text, err
}

// PutText stores extracted text for a document file.
func (c *Cache) PutText(ctx context.Context, mode string, contentID core.ID, text string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeTextKey(mode, contentID), []byte(text)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetVectors returns the cached vectors for ids under model.
func (c *Cache) GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	found := make(map[core.ID][]float32, len(ids))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeVectorKey(model, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				v, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				found[id] = v
				return nil
			})
			if err != nil {
				// A corrupt entry is treated as a miss and overwritten later.
				c.backend.logger.Warn("dropping unreadable vector", "id", id, "err", err)
				delete(found, id)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutVectors stores vectors under model.
func (c *Cache) PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		for id, v := range vectors {
			if err := tx.Set(makeVectorKey(model, id), storage.MarshalVector(v)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Stats counts cached texts and vectors.
func (c *Cache) Stats(ctx context.Context) (storage.Stats, error) {
	if err := c.checkOpen(); err != nil {
		return storage.Stats{}, err
	}

	texts, err := c.backend.countPrefix([]byte(textPrefix + ":"))
	if err != nil {
		return storage.Stats{}, err
	}
	vectors, err := c.backend.countPrefix([]byte(vectorPrefix + ":"))
	if err != nil {
		return storage.Stats{}, err
	}
	return storage.Stats{Texts: texts, Vectors: vectors}, nil
}

// Clear removes every cached entry.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.backend.DropAll()
}
