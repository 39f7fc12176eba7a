package config

import (
	"fmt"
	"runtime"
	"sort"

	goversion "github.com/hashicorp/go-version"
	"github.com/shirou/gopsutil/v3/cpu"
	log "github.com/sirupsen/logrus"
)

// Document is a parsed configuration file.
type Document = map[string]any

// Step raises a document to Target. Apply assumes the document already has
// the shape of the previous step's target and must not be run twice.
type Step struct {
	Target *goversion.Version
	Apply  func(doc Document) error
}

// Migrator applies the registered steps that are newer than a detected version.
type Migrator struct {
	steps    []Step
	cpuCount func() int
}

// NewMigrator returns a migrator with the 2.15, 2.18 and 2.19 steps registered.
func NewMigrator() *Migrator {
	m := &Migrator{cpuCount: logicalCPUCount}
	m.Register("2.15", func(doc Document) error { return UpdateTo215(doc, m.cpuCount()) })
	m.Register("2.18", UpdateTo218)
	m.Register("2.19", UpdateTo219)
	return m
}

// WithCPUCount replaces the logical CPU counter used by the 2.15 step.
func (m *Migrator) WithCPUCount(fn func() int) *Migrator {
	m.cpuCount = fn
	return m
}

// Register adds a step. Steps are kept sorted by target version.
func (m *Migrator) Register(target string, apply func(doc Document) error) {
	m.steps = append(m.steps, Step{Target: goversion.Must(goversion.NewVersion(target)), Apply: apply})
	sort.SliceStable(m.steps, func(i, j int) bool {
		return m.steps[i].Target.LessThan(m.steps[j].Target)
	})
}

// Latest returns the target of the newest registered step.
func (m *Migrator) Latest() *goversion.Version {
	if len(m.steps) == 0 {
		return nil
	}
	return m.steps[len(m.steps)-1].Target
}

// Migrate applies, in ascending order, every step whose target is strictly
// greater than detected. It returns the applied targets.
func (m *Migrator) Migrate(doc Document, detected string) ([]string, error) {
	current, err := goversion.NewVersion(detected)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", detected, err)
	}

	var applied []string
	for _, step := range m.steps {
		if !current.LessThan(step.Target) {
			continue
		}
		log.Infof("migrating configuration to %s", step.Target.Original())
		if err := step.Apply(doc); err != nil {
			return applied, fmt.Errorf("migrate to %s: %w", step.Target.Original(), err)
		}
		applied = append(applied, step.Target.Original())
	}
	return applied, nil
}

func logicalCPUCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		log.Debugf("failed to count logical CPUs, falling back to runtime: %v", err)
		return runtime.NumCPU()
	}
	return n
}

// ensureMapping returns doc[key] as a mapping, creating it when it is missing
// or null.
func ensureMapping(doc Document, key string) (Document, error) {
	switch v := doc[key].(type) {
	case nil:
		m := Document{}
		doc[key] = m
		return m, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%q is not a mapping", key)
	}
}

// lookupMapping returns doc[key] as a mapping when present. A null value is
// replaced with an empty mapping so a section written as "local:" still counts.
func lookupMapping(doc Document, key string) (Document, bool, error) {
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	switch m := v.(type) {
	case nil:
		m2 := Document{}
		doc[key] = m2
		return m2, true, nil
	case map[string]any:
		return m, true, nil
	default:
		return nil, false, fmt.Errorf("%q is not a mapping", key)
	}
}
