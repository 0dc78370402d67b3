// Package crew runs a crew: a fixed sequence of LLM-backed tasks, each
// assigned to an agent with a role, a goal, a backstory and a set of tools.
//
// A crew is built from a Definition (YAML) and executed with Kickoff. Tasks
// run strictly in declared order. Every task sees the outputs of the tasks
// before it, and the output of the last task is the crew result. There is no
// retry and no parallelism inside one kickoff; BatchRunner runs several
// kickoffs side by side when a caller has more than one input set.
package crew
