package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Render formats the run report as stable text: identical reports render to
// byte-identical output, which is what makes runs reproducible. Per-check
// failure lines are sorted by check name.
func (r RunReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Species: %s\n", r.Species)
	fmt.Fprintf(&b, "Query URL: %s\n", r.QueryURL)
	fmt.Fprintf(&b, "Total records fetched: %d\n", r.TotalFetched)
	fmt.Fprintf(&b, "Curated records: %d\n", r.CuratedCount)
	fmt.Fprintf(&b, "Rejected records: %d\n", r.RejectedCount)

	b.WriteString("Failures by check:\n")
	if len(r.FailuresByCheck) == 0 {
		b.WriteString("  none\n")
		return b.String()
	}
	names := make([]string, 0, len(r.FailuresByCheck))
	for name := range r.FailuresByCheck {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %d\n", name, r.FailuresByCheck[name])
	}
	return b.String()
}
