package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vitos/crypto_arbitrage/internal/domain"
)

// KlineStore persists candle windows in an embedded badger database.
type KlineStore struct {
	db *badger.DB
}

func OpenKlineStore(path string) (*KlineStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open kline store %s: %w", path, err)
	}
	return &KlineStore{db: db}, nil
}

func (s *KlineStore) Close() error {
	return s.db.Close()
}

func (s *KlineStore) Get(ctx context.Context, key string) ([]domain.Candle, bool, error) {
	var candles []domain.Candle
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &candles)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read klines %s: %w", key, err)
	}
	return candles, found, nil
}

func (s *KlineStore) Put(ctx context.Context, key string, candles []domain.Candle) error {
	data, err := json.Marshal(candles)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}
