package core

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/provenance-io/warehouse-facility/internal/infra/persistence/memory"
	"github.com/provenance-io/warehouse-facility/internal/infra/persistence/postgres"
	pgtestutil "github.com/provenance-io/warehouse-facility/internal/infra/persistence/postgres/testutil"
	"github.com/provenance-io/warehouse-facility/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(StorageConfig{Driver: StorageMemory}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facility.db")
	store, err := OpenPersistentStore(StorageConfig{SQLitePath: path}, NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	sqliteStore, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	defer func() { _ = sqliteStore.Close() }()
	if sqliteStore.Path() != path {
		t.Fatalf("expected path %s, got %s", path, sqliteStore.Path())
	}

	svc := NewService(store, WithContractAddress(contract))
	if _, err := svc.Instantiate(context.Background(), originator, testInstantiateMsg()); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
}

func TestOpenPersistentStorePostgres(t *testing.T) {
	db, _ := pgtestutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := OpenPersistentStore(StorageConfig{Driver: StoragePostgres, PostgresDSN: "postgres://stub"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*postgres.Store); !ok {
		t.Fatalf("expected *postgres.Store, got %T", store)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(StorageConfig{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
