package crew

import "errors"

var (
	// ErrUnknownCrew is returned when a crew name is not defined.
	ErrUnknownCrew = errors.New("unknown crew")

	// ErrUnknownAgent is returned when a task references an undefined agent.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrUnknownTask is returned when the task order names an undefined task.
	ErrUnknownTask = errors.New("unknown task")

	// ErrUnknownTool is returned when an agent references an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNoTasks is returned for a crew without tasks.
	ErrNoTasks = errors.New("crew has no tasks")
)
