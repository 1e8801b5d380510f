package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/animforge/internal/model"
)

// Project is the on-disk form of an editor project: every sequence plus
// the timeline that schedules them.
type Project struct {
	Version   string              `yaml:"version"`
	Sequences []model.Sequence    `yaml:"sequences"`
	Timeline  model.TimelineState `yaml:",inline"`
}

// WriteProject writes a project to a YAML file.
func WriteProject(project *Project, path string) error {
	data, err := yaml.Marshal(project)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file.
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Load validates every sequence of a project into a fresh store.
func Load(project *Project) (*Store, error) {
	s := New()
	for i := range project.Sequences {
		if err := s.AddSequence(&project.Sequences[i]); err != nil {
			return nil, fmt.Errorf("project load: %w", err)
		}
	}
	s.SetTimeline(project.Timeline)
	return s, nil
}
