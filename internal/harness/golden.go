package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Transcript renders a result's step reports as plain text for golden
// comparison. A rejected step renders as "rejected".
func Transcript(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for i, report := range result.Reports {
		fmt.Fprintf(&b, "\n## step %d\n", i+1)
		if report == nil {
			b.WriteString("rejected\n")
			continue
		}
		b.WriteString(report.Text())
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its transcript against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns error if the
// scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Transcript(scenario.Name, result))
	return result, nil
}
