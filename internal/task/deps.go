package task

import "sort"

// Deps is an ordered collection of tasks. The constructors below cover
// every shape a task may declare: nothing, one task, a named mapping, or
// an arbitrary collection.
type Deps []Task

// None declares no dependencies.
func None() Deps {
	return nil
}

// One declares a single dependency.
func One(t Task) Deps {
	if t == nil {
		return nil
	}
	return Deps{t}
}

// All declares a collection of dependencies.
func All(tasks ...Task) Deps {
	return Deps(tasks)
}

// Named declares a mapping of dependencies, ordered by name.
func Named(m map[string]Task) Deps {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Deps, 0, len(m))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out
}

// Resolved is a dependency paired with its identity.
type Resolved struct {
	Task     Task
	Identity Identity
}

// Normalize flattens deps into a list deduplicated by identity, keeping
// first occurrences in order and dropping nil entries.
func (d Deps) Normalize() ([]Resolved, error) {
	out := make([]Resolved, 0, len(d))
	seen := make(map[Identity]bool, len(d))
	for _, t := range d {
		if t == nil {
			continue
		}
		id, err := IdentityOf(t)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Resolved{Task: t, Identity: id})
	}
	return out, nil
}
