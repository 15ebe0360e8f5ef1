package groups

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetHandlesNullColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, scale_type").
		WithArgs("group-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "scale_type", "colorize_range_low", "colorize_range_high"}).
			AddRow("group-1", "bilinear", nil, nil))

	repo := &PGRepo{DB: db}
	g, err := repo.Get(context.Background(), "group-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.ScaleType != "bilinear" {
		t.Fatalf("unexpected scale type %q", g.ScaleType)
	}
	if _, _, ok := g.ColorizeRange(); ok {
		t.Fatalf("expected no colorize range")
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, scale_type").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "scale_type", "colorize_range_low", "colorize_range_high"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestColorizeRangeRequiresBothEnds(t *testing.T) {
	repo := NewMemoryRepo(Group{ID: "g", ColorizeRangeLow: "#000000"})
	g, err := repo.Get(context.Background(), "g")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, _, ok := g.ColorizeRange(); ok {
		t.Fatalf("expected partial range to be ignored")
	}
	g.ColorizeRangeHigh = "#FFFFFF"
	low, high, ok := g.ColorizeRange()
	if !ok || low != "#000000" || high != "#FFFFFF" {
		t.Fatalf("unexpected range %q %q %v", low, high, ok)
	}
}

func TestPGRepoUpsertStoresNullsForEmptyFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO groups").
		WithArgs("group-1", "bilinear", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Upsert(context.Background(), Group{ID: "group-1", ScaleType: "bilinear"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMemoryRepoUpsertReplaces(t *testing.T) {
	repo := NewMemoryRepo(Group{ID: "g", ScaleType: "bicubic"})
	if err := repo.Upsert(context.Background(), Group{ID: "g", ScaleType: "colorize_bilinear"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	g, err := repo.Get(context.Background(), "g")
	if err != nil || g.ScaleType != "colorize_bilinear" {
		t.Fatalf("unexpected group %+v err=%v", g, err)
	}
}
