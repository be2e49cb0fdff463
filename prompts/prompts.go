// Package prompts embeds the agent instruction files and exports them as strings.
package prompts

import (
	_ "embed"
	"fmt"
	"time"
)

//go:embed root.txt
var root string

// Root returns the root agent instruction, scoped to a single BigQuery
// dataset. Every other dataset is off limits.
func Root(project, dataset string) string {
	scope := fmt.Sprintf(
		"You are a helpful assistant. The Google Cloud Project ID is %[1]s. "+
			"You are ONLY allowed to query tables in the dataset '%[2]s'. "+
			"Do not access, list, or query any other datasets. "+
			"Always qualify your table names like `%[1]s.%[2]s.table_name`.\n\n",
		project, dataset)
	return scope + root
}

// Global returns the global instruction. The date is injected at request
// time so long-lived sessions do not go stale.
func Global(now time.Time) string {
	return fmt.Sprintf("You are a helpful Assistant.\nToday's date: %s", now.Format("2006-01-02"))
}
