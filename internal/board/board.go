// Package board renders the task board as plain text.
package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agtx/agtx/internal/model"
)

// Render formats tasks as one section per workflow column, oldest first
// within a column.
func Render(tasks []model.Task) string {
	byStatus := make(map[model.Status][]model.Task)
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	var sb strings.Builder
	for _, col := range model.Columns() {
		entries := byStatus[col]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		})

		fmt.Fprintf(&sb, "%s (%d)\n", strings.ToUpper(string(col)), len(entries))
		if len(entries) == 0 {
			sb.WriteString("  -\n")
		}
		for _, t := range entries {
			fmt.Fprintf(&sb, "  %-26s %s\n", t.Slug, t.Title)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// RenderList formats tasks as a flat slug/status/title table for scripting.
func RenderList(tasks []model.Task) string {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var sb strings.Builder
	for _, t := range sorted {
		fmt.Fprintf(&sb, "%-26s %-10s %s\n", t.Slug, t.Status, t.Title)
	}
	return sb.String()
}
