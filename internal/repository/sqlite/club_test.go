package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/clubhub/internal/apperror"
	"github.com/sakif/clubhub/internal/model"
	"github.com/sakif/clubhub/internal/repository"
)

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateClub(t *testing.T) {
	db := newTestDB(t)

	club := &model.Club{
		Name:        "Chess Club",
		Description: "Weekly games and tactics",
		Level:       "Beginner",
		Category:    "Games",
	}

	if err := db.CreateClub(context.Background(), club); err != nil {
		t.Fatalf("CreateClub() error = %v", err)
	}
	if club.ID == 0 {
		t.Error("CreateClub() did not set club.ID")
	}
	if club.InterestedUsers == nil {
		t.Error("CreateClub() left InterestedUsers nil")
	}

	found, err := db.GetClub(context.Background(), club.ID)
	if err != nil {
		t.Fatalf("GetClub() error = %v", err)
	}
	if found.Name != "Chess Club" {
		t.Errorf("Name = %q, want %q", found.Name, "Chess Club")
	}
	if found.Href != nil {
		t.Errorf("Href = %v, want nil default", *found.Href)
	}
	if found.ApplicationRequired != nil {
		t.Errorf("ApplicationRequired = %v, want unspecified default", *found.ApplicationRequired)
	}
}

func TestCreateClub_OptionalFields(t *testing.T) {
	db := newTestDB(t)

	href := "https://chess.example.edu"
	required := true
	club := &model.Club{
		Name:                "Chess Club",
		Description:         "desc",
		Level:               "Beginner",
		Category:            "Games",
		Href:                &href,
		ApplicationRequired: &required,
	}
	if err := db.CreateClub(context.Background(), club); err != nil {
		t.Fatalf("CreateClub() error = %v", err)
	}

	found, err := db.GetClub(context.Background(), club.ID)
	if err != nil {
		t.Fatalf("GetClub() error = %v", err)
	}
	if found.Href == nil || *found.Href != href {
		t.Errorf("Href = %v, want %q", found.Href, href)
	}
	if found.ApplicationRequired == nil || !*found.ApplicationRequired {
		t.Errorf("ApplicationRequired = %v, want true", found.ApplicationRequired)
	}
}

func TestGetClub_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetClub(context.Background(), 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetClub() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FILTER TESTS
// =========================================================================

func TestListClubs_NoFilterReturnsAll(t *testing.T) {
	db := newTestDB(t)
	createTestClub(t, db, "Chess Club", "Beginner", "Games")
	createTestClub(t, db, "Climbing Club", "Advanced", "Sports")

	clubs, err := db.ListClubs(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 2 {
		t.Errorf("ListClubs() returned %d clubs, want 2", len(clubs))
	}
}

func TestListClubs_CategoryFilter(t *testing.T) {
	db := newTestDB(t)
	chess := createTestClub(t, db, "Chess Club", "Beginner", "Games")
	createTestClub(t, db, "Climbing Club", "Advanced", "Sports")

	clubs, err := db.ListClubs(context.Background(), &repository.ClubFilter{Category: "Games"})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 1 || clubs[0].ID != chess.ID {
		t.Fatalf("category=Games returned %d clubs, want just %q", len(clubs), chess.Name)
	}

	clubs, err = db.ListClubs(context.Background(), &repository.ClubFilter{Category: "Theater"})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 0 {
		t.Errorf("category=Theater returned %d clubs, want 0", len(clubs))
	}
}

func TestListClubs_SearchQueryIsCaseInsensitiveSubstring(t *testing.T) {
	db := newTestDB(t)
	createTestClub(t, db, "Chess Club", "Beginner", "Games")
	createTestClub(t, db, "Climbing Club", "Advanced", "Sports")

	// Matches name regardless of case.
	clubs, err := db.ListClubs(context.Background(), &repository.ClubFilter{SearchQuery: "cheSS"})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 1 || clubs[0].Name != "Chess Club" {
		t.Fatalf("query=cheSS returned %d clubs, want Chess Club", len(clubs))
	}

	// Matches description ("Climbing Club description").
	clubs, err = db.ListClubs(context.Background(), &repository.ClubFilter{SearchQuery: "climbing club desc"})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 1 || clubs[0].Name != "Climbing Club" {
		t.Fatalf("description search returned %d clubs, want Climbing Club", len(clubs))
	}

	// Matches category.
	clubs, err = db.ListClubs(context.Background(), &repository.ClubFilter{SearchQuery: "sport"})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 1 || clubs[0].Name != "Climbing Club" {
		t.Fatalf("category search returned %d clubs, want Climbing Club", len(clubs))
	}
}

func TestListClubs_FiltersCombineWithAND(t *testing.T) {
	db := newTestDB(t)
	createTestClub(t, db, "Chess Club", "Beginner", "Games")
	createTestClub(t, db, "Go Club", "Advanced", "Games")

	clubs, err := db.ListClubs(context.Background(), &repository.ClubFilter{
		Category: "Games",
		Level:    "Advanced",
	})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 1 || clubs[0].Name != "Go Club" {
		t.Fatalf("combined filter returned %d clubs, want Go Club", len(clubs))
	}
}

func TestListClubs_ApplicationRequiredTriState(t *testing.T) {
	db := newTestDB(t)

	yes, no := true, false
	mk := func(name string, required *bool) {
		club := &model.Club{
			Name: name, Description: "d", Level: "Any", Category: "Games",
			ApplicationRequired: required,
		}
		if err := db.CreateClub(context.Background(), club); err != nil {
			t.Fatalf("CreateClub(%s): %v", name, err)
		}
	}
	mk("Requires", &yes)
	mk("Open", &no)
	mk("Unspecified", nil)

	// Filtering on true matches the true club AND the unspecified one.
	clubs, err := db.ListClubs(context.Background(), &repository.ClubFilter{ApplicationRequired: &yes})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 2 {
		t.Fatalf("application_required=true returned %d clubs, want 2", len(clubs))
	}
	names := map[string]bool{clubs[0].Name: true, clubs[1].Name: true}
	if !names["Requires"] || !names["Unspecified"] {
		t.Errorf("application_required=true matched %v, want Requires and Unspecified", names)
	}

	// Same for false.
	clubs, err = db.ListClubs(context.Background(), &repository.ClubFilter{ApplicationRequired: &no})
	if err != nil {
		t.Fatalf("ListClubs() error = %v", err)
	}
	if len(clubs) != 2 {
		t.Errorf("application_required=false returned %d clubs, want 2", len(clubs))
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDeleteClub_RemovesEdgesButNotUsers(t *testing.T) {
	db := newTestDB(t)
	club := createTestClub(t, db, "Chess Club", "Beginner", "Games")
	user := createTestUser(t, db, "Ann", "ann@example.edu")

	if _, err := db.AddFavoriteClub(context.Background(), user.ID, club.ID); err != nil {
		t.Fatalf("AddFavoriteClub() error = %v", err)
	}

	deleted, err := db.DeleteClub(context.Background(), club.ID)
	if err != nil {
		t.Fatalf("DeleteClub() error = %v", err)
	}
	if deleted.ID != club.ID {
		t.Errorf("DeleteClub() returned id %d, want %d", deleted.ID, club.ID)
	}
	if len(deleted.InterestedUsers) != 1 {
		t.Errorf("deleted club had %d interested users, want 1", len(deleted.InterestedUsers))
	}

	if _, err := db.GetClub(context.Background(), club.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetClub() after delete error = %v, want ErrNotFound", err)
	}

	// The user survives, minus the favorite edge.
	found, err := db.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUser() after club delete error = %v", err)
	}
	if len(found.FavoriteClubs) != 0 {
		t.Errorf("user still has %d favorite clubs, want 0", len(found.FavoriteClubs))
	}
}

func TestDeleteClub_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.DeleteClub(context.Background(), 4242)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteClub() error = %v, want ErrNotFound", err)
	}
}
