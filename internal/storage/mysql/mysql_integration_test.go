//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotel_catalog/internal/domain"
	mysqlrepo "hotel_catalog/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=catalog",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/catalog?parseTime=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := mysqlrepo.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run must be a no-op
	if err := mysqlrepo.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	return db
}

func TestRepo_MySQL_SnapshotRoundTrip(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	first := []domain.Hotel{
		{ID: 30, Name: "Zeta", Address: "3 Rd", Rate: pfloat(3000), Occupancy: pint(4), Rating: pstr("4.5"),
			Amenities: "<ul><li>Pool</li></ul>", AttachmentsURL: "https://wp.test/media?parent=30", RawJSON: []byte(`{"id":30}`)},
		{ID: 10, Name: "Alpha", Address: "1 Rd"},
	}
	if err := repo.SaveCatalog(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].ID != 30 || got[1].ID != 10 {
		t.Fatalf("expected fetch order preserved, got %+v", got)
	}
	if got[0].Rate == nil || *got[0].Rate != 3000 || got[0].Occupancy == nil || *got[0].Occupancy != 4 {
		t.Fatalf("unexpected numeric fields: %+v", got[0])
	}
	if got[1].Rate != nil || got[1].Occupancy != nil || got[1].Rating != nil {
		t.Fatalf("expected NULLs for missing fields: %+v", got[1])
	}

	// a new snapshot replaces the old one
	if err := repo.SaveCatalog(ctx, []domain.Hotel{{ID: 99, Name: "Only"}}); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	got, _ = repo.LoadCatalog(ctx)
	if len(got) != 1 || got[0].ID != 99 {
		t.Fatalf("expected replaced snapshot, got %+v", got)
	}
}

func TestRepo_MySQL_Images(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if _, err := repo.LoadImages(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SaveImages(ctx, 1, []string{"a.jpg", "b.jpg"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveImages(ctx, 1, []string{"c.jpg"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.LoadImages(ctx, 1)
	if err != nil || len(got) != 1 || got[0] != "c.jpg" {
		t.Fatalf("unexpected images: %v / %v", got, err)
	}
}
