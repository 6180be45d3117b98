package plans

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gymbucket/gymbucket/internal/models"
)

type catalogueFile struct {
	Exercises []models.Exercise `yaml:"exercises"`
}

// ParseCatalogue reads an exercise catalogue YAML document. Every entry
// needs a unique id and a name; difficulty defaults to beginner.
func ParseCatalogue(data []byte) ([]models.Exercise, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}

	seen := make(map[string]bool, len(f.Exercises))
	for i := range f.Exercises {
		e := &f.Exercises[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Name = strings.TrimSpace(e.Name)
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("exercise #%d: id and name are required", i+1)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("exercise %q listed twice", e.ID)
		}
		seen[e.ID] = true

		if e.Difficulty == "" {
			e.Difficulty = models.DifficultyBeginner
		}
		if !models.ValidDifficulty(e.Difficulty) {
			return nil, fmt.Errorf("exercise %q: unknown difficulty %q", e.ID, e.Difficulty)
		}
	}
	return f.Exercises, nil
}
