package repositories

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"fmt"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openBadger(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCredentialStore(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	backends := map[string]func(t *testing.T) IKeyValue{
		"memory": func(t *testing.T) IKeyValue { return NewMemoryKV() },
		"badger": func(t *testing.T) IKeyValue { return NewBadgerKV(openBadger(t)) },
	}

	for name, newKV := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("should report absence on an empty store", func(t *testing.T) {
				req := require.New(t)
				store := NewCredentialStore(newKV(t), log)

				_, ok := store.Load()

				req.False(ok)
			})

			t.Run("should load what was saved", func(t *testing.T) {
				req := require.New(t)
				store := NewCredentialStore(newKV(t), log)
				credential := domain.Credential{Token: "abc", DisplayName: "alice"}

				req.NoError(store.Save(credential))
				loaded, ok := store.Load()

				req.True(ok)
				req.Equal(credential, loaded)
			})

			t.Run("should refuse an incomplete credential and keep the previous one", func(t *testing.T) {
				req := require.New(t)
				store := NewCredentialStore(newKV(t), log)
				previous := domain.Credential{Token: "abc", DisplayName: "alice"}
				req.NoError(store.Save(previous))

				err := store.Save(domain.Credential{Token: "def"})

				req.ErrorIs(err, errors.ErrIncompleteCred)
				loaded, ok := store.Load()
				req.True(ok)
				req.Equal(previous, loaded)
			})

			t.Run("should treat a half written record as absent", func(t *testing.T) {
				req := require.New(t)
				kv := newKV(t)
				req.NoError(kv.SetAll(map[string]string{tokenKey: "abc"}))
				store := NewCredentialStore(kv, log)

				_, ok := store.Load()

				req.False(ok)
			})

			t.Run("should clear idempotently", func(t *testing.T) {
				req := require.New(t)
				store := NewCredentialStore(newKV(t), log)
				req.NoError(store.Save(domain.Credential{Token: "abc", DisplayName: "alice"}))

				req.NoError(store.Clear())
				req.NoError(store.Clear())

				_, ok := store.Load()
				req.False(ok)
			})
		})
	}
}

func TestCredentialStore_ReadFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	kv := mocks.NewMockIKeyValue(ctrl)
	store := NewCredentialStore(kv, logs.GetLoggerFromLevel(slog.LevelDebug))

	kv.EXPECT().Get(tokenKey).Return("", false, fmt.Errorf("disk unplugged")).Times(1)

	_, ok := store.Load()

	req.False(ok)
}

func TestBadgerKV_Persists(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	req.NoError(err)
	store := NewCredentialStore(NewBadgerKV(db), slog.Default())
	req.NoError(store.Save(domain.Credential{Token: "abc", DisplayName: "alice"}))
	req.NoError(db.Close())

	db, err = badger.Open(opts)
	req.NoError(err)
	defer db.Close()
	loaded, ok := NewCredentialStore(NewBadgerKV(db), slog.Default()).Load()

	req.True(ok)
	req.Equal("alice", loaded.DisplayName)
}
