package moviestore_test

import (
	"fmt"
	"testing"

	moviestore "github.com/dalemusser/hypertube/internal/app/store/movies"
	"github.com/dalemusser/hypertube/internal/testutil"
)

func TestStore_ByIMDbCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := moviestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMovie(ctx, "tt0133093", "The Matrix", 8.7, "Action", "Sci-Fi")

	got, err := store.ByIMDbCode(ctx, " TT0133093 ")
	if err != nil {
		t.Fatalf("ByIMDbCode failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "The Matrix" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got, err = store.ByIMDbCode(ctx, "tt9999999")
	if err != nil {
		t.Fatalf("ByIMDbCode failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no movies, got %d", len(got))
	}
}

func TestStore_ByGenre_SortedAndCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := moviestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMovie(ctx, "tt0000001", "Low", 5.1, "Drama")
	fixtures.CreateMovie(ctx, "tt0000002", "High", 9.0, "Drama", "Crime")
	fixtures.CreateMovie(ctx, "tt0000003", "Mid", 7.4, "drama")
	fixtures.CreateMovie(ctx, "tt0000004", "Other", 9.9, "Comedy")

	got, err := store.ByGenre(ctx, "DRAMA")
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 movies, got %d", len(got))
	}
	want := []string{"High", "Mid", "Low"}
	for i, m := range got {
		if m.Title != want[i] {
			t.Errorf("movie %d = %q, want %q", i, m.Title, want[i])
		}
	}
}

func TestStore_ByGenre_Limit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := moviestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < moviestore.GenreLimit+5; i++ {
		fixtures.CreateMovie(ctx, fmt.Sprintf("tt%07d", i+1), fmt.Sprintf("Movie %02d", i), float64(i%10), "Horror")
	}

	got, err := store.ByGenre(ctx, "horror")
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if len(got) != moviestore.GenreLimit {
		t.Errorf("expected %d movies, got %d", moviestore.GenreLimit, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Rating > got[i-1].Rating {
			t.Fatalf("movies not sorted by rating at %d", i)
		}
	}
}
