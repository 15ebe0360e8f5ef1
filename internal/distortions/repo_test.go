package distortions

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryRepoListBySetOrdersByPosition(t *testing.T) {
	repo := NewMemoryRepo(
		Pair{ID: "b", DistortionSetID: "set-1", Position: 2, StartX: 3},
		Pair{ID: "a", DistortionSetID: "set-1", Position: 1, StartX: 1},
		Pair{ID: "z", DistortionSetID: "set-2", Position: 0},
	)

	got, err := repo.ListBySet(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("ListBySet: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected pairs %+v", got)
	}
}

func TestMemoryRepoListUnknownSetIsEmpty(t *testing.T) {
	got, err := NewMemoryRepo().ListBySet(context.Background(), "")
	if err != nil {
		t.Fatalf("ListBySet: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no pairs, got %d", len(got))
	}
}

func TestPGRepoListBySet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM distortion_pairs").
		WithArgs("set-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "distortion_set_id", "position", "start_x", "start_y", "end_x", "end_y"}).
			AddRow("p1", "set-1", 0, 300, 110, 350, 140).
			AddRow("p2", "set-1", 1, 600, 310, 650, 340))

	repo := &PGRepo{DB: db}
	got, err := repo.ListBySet(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("ListBySet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(got))
	}
	if got[0].Token() != "300,110,350,140" {
		t.Fatalf("unexpected token %q", got[0].Token())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestMemoryRepoReplaceSetKeepsOtherSets(t *testing.T) {
	repo := NewMemoryRepo(
		Pair{ID: "a", DistortionSetID: "set-1"},
		Pair{ID: "b", DistortionSetID: "set-2"},
	)
	if err := repo.ReplaceSet(context.Background(), "set-1", []Pair{{ID: "c", Position: 1}, {ID: "d", Position: 0}}); err != nil {
		t.Fatalf("ReplaceSet: %v", err)
	}
	got, _ := repo.ListBySet(context.Background(), "set-1")
	if len(got) != 2 || got[0].ID != "d" || got[1].DistortionSetID != "set-1" {
		t.Fatalf("unexpected set-1 pairs %+v", got)
	}
	other, _ := repo.ListBySet(context.Background(), "set-2")
	if len(other) != 1 || other[0].ID != "b" {
		t.Fatalf("set-2 should be untouched, got %+v", other)
	}
}

func TestPGRepoReplaceSetRunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM distortion_pairs").WithArgs("set-1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO distortion_pairs").
		WithArgs("p1", "set-1", 0, 300, 110, 350, 140).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	pairs := []Pair{{ID: "p1", Position: 0, StartX: 300, StartY: 110, EndX: 350, EndY: 140}}
	if err := repo.ReplaceSet(context.Background(), "set-1", pairs); err != nil {
		t.Fatalf("ReplaceSet: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestParsePairRoundTripsToken(t *testing.T) {
	p, err := ParsePair(" 300, 110,350,140 ")
	if err != nil {
		t.Fatalf("ParsePair: %v", err)
	}
	if p.Token() != "300,110,350,140" {
		t.Fatalf("unexpected token %q", p.Token())
	}
	for _, bad := range []string{"", "1,2,3", "1,2,3,x"} {
		if _, err := ParsePair(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
