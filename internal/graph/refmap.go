// Package graph builds the project-reference map and layered build queue
// described in spec §4.2–§4.3.
package graph

import "github.com/RyanCavanaugh/tsbuild/internal/project"

// ReferenceMap holds the two inverse adjacency relations over project IDs:
// childOf (a project's references) and parentOf (a project's dependents).
type ReferenceMap struct {
	childOf  map[project.ID]map[project.ID]struct{}
	parentOf map[project.ID]map[project.ID]struct{}
}

// NewReferenceMap returns an empty ReferenceMap.
func NewReferenceMap() *ReferenceMap {
	return &ReferenceMap{
		childOf:  map[project.ID]map[project.ID]struct{}{},
		parentOf: map[project.ID]map[project.ID]struct{}{},
	}
}

// AddReference records that parent references child. Idempotent; both
// directions are always kept in sync.
func (m *ReferenceMap) AddReference(child, parent project.ID) {
	if m.childOf[parent] == nil {
		m.childOf[parent] = map[project.ID]struct{}{}
	}
	m.childOf[parent][child] = struct{}{}

	if m.parentOf[child] == nil {
		m.parentOf[child] = map[project.ID]struct{}{}
	}
	m.parentOf[child][parent] = struct{}{}
}

// ChildrenOf returns the set of projects that parent directly references.
func (m *ReferenceMap) ChildrenOf(parent project.ID) []project.ID {
	return keys(m.childOf[parent])
}

// ParentsOf returns the set of projects that directly reference child.
func (m *ReferenceMap) ParentsOf(child project.ID) []project.ID {
	return keys(m.parentOf[child])
}

func keys(s map[project.ID]struct{}) []project.ID {
	out := make([]project.ID, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
