// Package taskfile reads the YAML task list used to seed a scheduler.
//
// A file looks like:
//
//	tasks:
//	  - title: Write report
//	    deadline: "2026-01-20"
//	    duration: 3
//	    priority: 4
//	  - title: Standup
//	    deadline: "2026-01-15"
//	    duration: 0.25
//	    repeat: weekly
//	    fixed_start: "2026-01-15 09:30"
package taskfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	appLog "plancal/internal/log"
	"plancal/internal/planner"
)

// Entry is one task in the file, in the create-task request shape.
type Entry struct {
	Title      string  `yaml:"title"`
	Deadline   string  `yaml:"deadline"`
	Duration   float64 `yaml:"duration"`
	Priority   int     `yaml:"priority,omitempty"`
	Repeat     string  `yaml:"repeat,omitempty"`
	FixedStart string  `yaml:"fixed_start,omitempty"`
}

// File is the document root.
type File struct {
	Tasks []Entry `yaml:"tasks"`
}

// Input converts e into the scheduler's request type.
func (e Entry) Input() planner.AddInput {
	return planner.AddInput{
		Title:      e.Title,
		Deadline:   e.Deadline,
		Duration:   e.Duration,
		Priority:   e.Priority,
		Repeat:     e.Repeat,
		FixedStart: e.FixedStart,
	}
}

// Decode parses a task file. Unknown keys are rejected so that typos such
// as "dealine" do not silently drop a field.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("taskfile: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply adds every entry to s in file order and returns the base ids.
// It stops at the first rejected entry.
func (f *File) Apply(s *planner.Scheduler) ([]int, error) {
	ids := make([]int, 0, len(f.Tasks))
	for i, e := range f.Tasks {
		id, err := s.Add(e.Input())
		if err != nil {
			return ids, fmt.Errorf("taskfile: entry %d (%q): %w", i+1, e.Title, err)
		}
		ids = append(ids, id)
	}
	appLog.Info("tasks seeded", "count", len(ids))
	return ids, nil
}
