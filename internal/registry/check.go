package registry

import (
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/protocol"
)

// ProblemKind classifies a registry consistency problem.
type ProblemKind string

const (
	ProblemOverlap       ProblemKind = "port-overlap"
	ProblemPortRange     ProblemKind = "port-range"
	ProblemContainerName ProblemKind = "container-name"
)

// Problem is one finding of Check.
type Problem struct {
	Kind      ProblemKind
	Instances []string
	Detail    string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %v: %s", p.Kind, p.Instances, p.Detail)
}

// Check validates the invariants allocation maintains but nothing
// re-verifies afterwards: pairwise disjoint port blocks, ports in range, and
// container names derived from instance names. Useful after hand edits.
func (r *Registry) Check() ([]Problem, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return checkDocument(doc), nil
}

func checkDocument(doc *Document) []Problem {
	var problems []Problem
	records := sortedRecords(doc.Instances)

	for _, rec := range records {
		if rec.Port < 1 || rec.Port+protocol.OffsetVNCRelay > 65535 {
			problems = append(problems, Problem{
				Kind:      ProblemPortRange,
				Instances: []string{rec.Name},
				Detail:    fmt.Sprintf("base port %d leaves block outside 1-65535", rec.Port),
			})
		}
		if want := protocol.ContainerName(rec.Name); rec.Container != want {
			problems = append(problems, Problem{
				Kind:      ProblemContainerName,
				Instances: []string{rec.Name},
				Detail:    fmt.Sprintf("container %q, expected %q", rec.Container, want),
			})
		}
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			a, b := records[i], records[j]
			if shared := sharedPorts(a.Block(), b.Block()); len(shared) > 0 {
				problems = append(problems, Problem{
					Kind:      ProblemOverlap,
					Instances: []string{a.Name, b.Name},
					Detail:    fmt.Sprintf("both reserve %v", shared),
				})
			}
		}
	}

	return problems
}

func sharedPorts(a, b [4]int) []int {
	var shared []int
	for _, p := range a {
		for _, q := range b {
			if p == q {
				shared = append(shared, p)
			}
		}
	}
	return shared
}
