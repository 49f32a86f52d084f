package config

import (
	"aptmarket/server/internal/analysis"
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseCities reads a newline-delimited city list. Lines are trimmed, and
// blank lines, duplicates and a literal "All" entry are skipped.
func ParseCities(r io.Reader) ([]string, error) {
	var cities []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || name == analysis.AllCities || seen[name] {
			continue
		}
		seen[name] = true
		cities = append(cities, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read city list: %w", err)
	}
	return cities, nil
}

// LoadCities reads the city list from a file
func LoadCities(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open city list: %w", err)
	}
	defer f.Close()

	return ParseCities(f)
}

// CityOptions returns the city filter options, "All" first
func CityOptions(cities []string) []string {
	options := make([]string, 0, len(cities)+1)
	options = append(options, analysis.AllCities)
	return append(options, cities...)
}
