// Package instance loads TSP instances from disk or request payloads.
//
// Two formats are understood. YAML documents list the cities and either
// planar coordinates or explicit pairwise distances:
//
//	name: square
//	start: A
//	cities: [A, B, C, D]
//	distances:
//	  - {from: A, to: B, distance: 1}
//	  ...
//
// Edge lists hold one "from to distance" triple per line; blank lines and
// lines starting with '#' are ignored, and cities are ordered by first
// appearance.
package instance

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/distance"
)

// Format selects the instance grammar.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatEdgeList Format = "edges"
)

// ErrParse is returned for malformed instance data.
var ErrParse = errors.New("instance: parse error")

// Instance is a loaded problem.
type Instance struct {
	Name  string
	Start distance.City
	Model *distance.Model
}

// Document is the YAML representation of an instance.
type Document struct {
	Name        string           `yaml:"name,omitempty" json:"name,omitempty"`
	Start       string           `yaml:"start,omitempty" json:"start,omitempty"`
	Cities      []string         `yaml:"cities" json:"cities"`
	Coordinates []distance.Point `yaml:"coordinates,omitempty" json:"coordinates,omitempty"`
	Distances   []Edge           `yaml:"distances,omitempty" json:"distances,omitempty"`
}

// Edge is one symmetric distance entry.
type Edge struct {
	From     string  `yaml:"from" json:"from"`
	To       string  `yaml:"to" json:"to"`
	Distance float64 `yaml:"distance" json:"distance"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatEdgeList
	}
}

// Load reads and parses the instance at path.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance file %s: %w", path, err)
	}
	inst, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse instance file %s: %w", path, err)
	}
	if inst.Name == "" {
		inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return inst, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Instance, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatEdgeList:
		return parseEdgeList(data)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrParse, format)
}

func parseYAML(data []byte) (*Instance, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc.Build()
}

// Build turns the document into an Instance.
func (d *Document) Build() (*Instance, error) {
	if len(d.Cities) == 0 {
		return nil, fmt.Errorf("%w: no cities", ErrParse)
	}
	if len(d.Coordinates) > 0 && len(d.Distances) > 0 {
		return nil, fmt.Errorf("%w: give either coordinates or distances, not both", ErrParse)
	}

	cities := make([]distance.City, len(d.Cities))
	for i, c := range d.Cities {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("%w: city %d has an empty name", ErrParse, i)
		}
		cities[i] = distance.City(c)
	}

	var (
		model *distance.Model
		err   error
	)
	if len(d.Coordinates) > 0 {
		model, err = distance.FromCoordinates(cities, d.Coordinates)
	} else {
		b := distance.NewBuilder(cities)
		for _, e := range d.Distances {
			b.Set(distance.City(e.From), distance.City(e.To), e.Distance)
		}
		model, err = b.Build()
	}
	if err != nil {
		return nil, err
	}
	return newInstance(d.Name, d.Start, model)
}

func parseEdgeList(data []byte) (*Instance, error) {
	type edge struct {
		from, to distance.City
		d        float64
	}
	var (
		cities []distance.City
		seen   = make(map[distance.City]bool)
		edges  []edge
	)
	add := func(c distance.City) {
		if !seen[c] {
			seen[c] = true
			cities = append(cities, c)
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want \"from to distance\", got %q", ErrParse, line, text)
		}
		d, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}
		from, to := distance.City(fields[0]), distance.City(fields[1])
		add(from)
		add(to)
		edges = append(edges, edge{from, to, d})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: no edges", ErrParse)
	}

	b := distance.NewBuilder(cities)
	for _, e := range edges {
		b.Set(e.from, e.to, e.d)
	}
	model, err := b.Build()
	if err != nil {
		return nil, err
	}
	return newInstance("", "", model)
}

func newInstance(name, start string, model *distance.Model) (*Instance, error) {
	inst := &Instance{Name: name, Model: model, Start: distance.City(start)}
	if inst.Start == "" {
		inst.Start = model.Cities()[0]
	}
	if !model.Has(inst.Start) {
		return nil, fmt.Errorf("%w: start city %q", distance.ErrUnknownCity, inst.Start)
	}
	return inst, nil
}
