package persona

import "testing"

func TestFindByIDDefaultsToMentor(t *testing.T) {
	store := NewMemoryStore(Seed())

	got, ok := store.FindByID("")
	if !ok {
		t.Fatal("expected default persona to resolve")
	}
	if got.ID != MentorID {
		t.Fatalf("expected %s, got %s", MentorID, got.ID)
	}
}

func TestFindByIDUnknown(t *testing.T) {
	store := NewMemoryStore(Seed())
	if _, ok := store.FindByID("nobody"); ok {
		t.Fatal("expected unknown persona to be missing")
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Name = "mutated"

	if store.List()[0].Name == "mutated" {
		t.Fatal("List must not expose the backing slice")
	}
}
