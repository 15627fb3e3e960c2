package collection

import (
	"errors"
	"slices"
	"testing"

	"github.com/julianstephens/checkin/internal/models"
)

func goals(ids ...string) []models.Goal {
	out := make([]models.Goal, len(ids))
	for i, id := range ids {
		out[i] = models.Goal{ID: id, Name: "goal " + id}
	}
	return out
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		item    models.Goal
		want    []string
		wantErr error
	}{
		{name: "front", index: 0, item: models.Goal{ID: "x"}, want: []string{"x", "a", "b", "c"}},
		{name: "middle", index: 2, item: models.Goal{ID: "x"}, want: []string{"a", "b", "x", "c"}},
		{name: "end", index: 3, item: models.Goal{ID: "x"}, want: []string{"a", "b", "c", "x"}},
		{name: "negative index", index: -1, item: models.Goal{ID: "x"}, wantErr: ErrIndexOutOfRange},
		{name: "past end", index: 4, item: models.Goal{ID: "x"}, wantErr: ErrIndexOutOfRange},
		{name: "duplicate id", index: 0, item: models.Goal{ID: "b"}, wantErr: ErrDuplicateID},
		{name: "missing id", index: 0, item: models.Goal{}, wantErr: ErrMissingID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := goals("a", "b", "c")
			got, err := Insert(in, tt.index, tt.item)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !slices.Equal(IDs(got), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, IDs(got))
			}
			if !slices.Equal(IDs(in), []string{"a", "b", "c"}) {
				t.Errorf("Input was modified: %v", IDs(in))
			}
		})
	}
}

func TestAppendToEmpty(t *testing.T) {
	got, err := Append[models.Goal](nil, models.Goal{ID: "a"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Expected [a], got %v", IDs(got))
	}
}

func TestRemoveByID(t *testing.T) {
	in := goals("a", "b", "c")

	got, err := RemoveByID(in, "b")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(IDs(got), []string{"a", "c"}) {
		t.Errorf("Expected [a c], got %v", IDs(got))
	}
	if !slices.Equal(IDs(in), []string{"a", "b", "c"}) {
		t.Errorf("Input was modified: %v", IDs(in))
	}

	if _, err := RemoveByID(in, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateByID(t *testing.T) {
	in := goals("a", "b", "c")

	got, err := UpdateByID(in, "b", func(g models.Goal) models.Goal {
		g.Name = "renamed"
		return g
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got[1].Name != "renamed" {
		t.Errorf("Expected renamed goal at index 1, got %q", got[1].Name)
	}
	if in[1].Name != "goal b" {
		t.Errorf("Input was modified: %q", in[1].Name)
	}

	_, err = UpdateByID(in, "b", func(g models.Goal) models.Goal {
		g.ID = "c"
		return g
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID for id collision, got %v", err)
	}

	if _, err := UpdateByID(in, "nope", func(g models.Goal) models.Goal { return g }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMoveItem(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
		wantErr  bool
	}{
		{name: "forward", from: 0, to: 2, want: []string{"b", "c", "a", "d"}},
		{name: "backward", from: 3, to: 1, want: []string{"a", "d", "b", "c"}},
		{name: "to end", from: 1, to: 3, want: []string{"a", "c", "d", "b"}},
		{name: "to front", from: 2, to: 0, want: []string{"c", "a", "b", "d"}},
		{name: "same index", from: 2, to: 2, want: []string{"a", "b", "c", "d"}},
		{name: "from out of range", from: 4, to: 0, wantErr: true},
		{name: "to out of range", from: 0, to: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := goals("a", "b", "c", "d")
			got, err := MoveItem(in, tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrIndexOutOfRange) {
					t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !slices.Equal(IDs(got), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, IDs(got))
			}
			if !slices.Equal(IDs(in), []string{"a", "b", "c", "d"}) {
				t.Errorf("Input was modified: %v", IDs(in))
			}
		})
	}
}

func TestMoveTo(t *testing.T) {
	got, err := MoveTo(goals("a", "b", "c"), "c", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(IDs(got), []string{"c", "a", "b"}) {
		t.Errorf("Expected [c a b], got %v", IDs(got))
	}

	if _, err := MoveTo(goals("a"), "x", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReorderLeavesOtherCollectionsAlone(t *testing.T) {
	p := models.Payload{
		Goals:        goals("g1", "g2"),
		Achievements: []models.Achievement{{ID: "a1", Title: "ran 5k"}, {ID: "a2", Title: "slept 8h"}},
	}
	before := slices.Clone(p.Achievements)

	moved, err := MoveItem(p.Goals, 0, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	p.Goals = moved

	if !slices.Equal(IDs(p.Goals), []string{"g2", "g1"}) {
		t.Errorf("Expected goals reordered, got %v", IDs(p.Goals))
	}
	if !slices.Equal(p.Achievements, before) {
		t.Errorf("Expected achievements untouched, got %v", p.Achievements)
	}
}
