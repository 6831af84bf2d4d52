package cities

import (
	"sort"
	"strings"

	"trainmapper.org/internal/schedule"
)

// DeriveNames returns the lowercased first word of every stop name, without
// duplicates and sorted. "Paris Gare de Lyon" and "Paris Nord" both yield
// "paris".
func DeriveNames(stops []schedule.Stop) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range stops {
		fields := strings.Fields(s.Name)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
