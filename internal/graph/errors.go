package graph

import "errors"

var (
	// ErrWouldCreateCycle is returned when adding an edge would make the
	// project's dependency graph cyclic.
	ErrWouldCreateCycle = errors.New("dependency would create a cycle")

	// ErrCrossProject is returned when the two tasks of an edge do not
	// both belong to the given project.
	ErrCrossProject = errors.New("tasks belong to different projects")

	// ErrSelfReference is returned when a task is made to depend on itself.
	ErrSelfReference = errors.New("task cannot depend on itself")

	// ErrEdgeNotFound is returned when removing a dependency that does
	// not exist.
	ErrEdgeNotFound = errors.New("dependency does not exist")

	// ErrBlockedByDependency is returned when a task is marked done
	// while a direct dependency is still incomplete.
	ErrBlockedByDependency = errors.New("cannot mark task done: dependencies incomplete")

	// ErrHasDependents is returned by DeleteTask under the reject policy
	// when other tasks still depend on the task.
	ErrHasDependents = errors.New("task has dependents")

	// ErrInvalidTransition is returned for status changes the workflow
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus is returned for a status outside the enum.
	ErrUnknownStatus = errors.New("unknown status")
)
