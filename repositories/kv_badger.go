package repositories

import (
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV stores the client credential on disk. Every batch runs in a
// single badger transaction.
type BadgerKV struct {
	db *badger.DB
}

func NewBadgerKV(db *badger.DB) *BadgerKV {
	return &BadgerKV{db: db}
}

func (b *BadgerKV) Get(key string) (string, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

func (b *BadgerKV) SetAll(values map[string]string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for k, v := range values {
			if err := txn.Set([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerKV) Remove(keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}
