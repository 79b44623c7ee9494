// sim/world.go - world file loading
package sim

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// WorldFile is the on-disk seed format for the simulated population.
type WorldFile struct {
	Agents []*Agent `json:"agents"`
}

// LoadWorld reads a world file and registers every agent in r. Duplicate
// names are skipped with a log line; the first definition wins.
func LoadWorld(path string, r *Registry) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading world file: %w", err)
	}

	var world WorldFile
	if err := json.Unmarshal(data, &world); err != nil {
		return 0, fmt.Errorf("parsing world file %s: %w", path, err)
	}

	loaded := 0
	for _, a := range world.Agents {
		if a.Name == "" {
			continue
		}
		if a.MaxHP == 0 {
			a.MaxHP = a.HP
		}
		if err := r.Add(a); err != nil {
			log.Printf("world: skipping agent %q: %v", a.Name, err)
			continue
		}
		loaded++
	}
	return loaded, nil
}
