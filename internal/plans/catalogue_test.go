package plans

import (
	"strings"
	"testing"

	"github.com/gymbucket/gymbucket/internal/models"
)

// TestParseCatalogue verifies YAML fields map onto exercises and
// difficulty defaults.
func TestParseCatalogue(t *testing.T) {
	data := []byte(`
exercises:
  - id: squat
    name: Back Squat
    muscle_groups: [legs, glutes]
    equipment: [barbell, rack]
    difficulty: intermediate
    instructions:
      - Brace
      - Sit back
  - id: " plank "
    name: Plank
    muscle_groups: [core]
`)
	list, err := ParseCatalogue(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if got := list[0]; got.Difficulty != models.DifficultyIntermediate || len(got.Instructions) != 2 || got.MuscleGroups[1] != "glutes" {
		t.Errorf("squat = %+v", got)
	}
	if got := list[1]; got.ID != "plank" || got.Difficulty != models.DifficultyBeginner {
		t.Errorf("plank = %+v", got)
	}
}

// TestParseCatalogueErrors verifies malformed catalogues are rejected.
func TestParseCatalogueErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing name", "exercises:\n  - id: a\n", "required"},
		{"duplicate", "exercises:\n  - {id: a, name: A}\n  - {id: a, name: B}\n", "twice"},
		{"bad difficulty", "exercises:\n  - {id: a, name: A, difficulty: extreme}\n", "difficulty"},
		{"bad yaml", "exercises: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
