package ui

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/todomvc/internal/model"
	"github.com/idilsaglam/todomvc/internal/state"
)

// ItemsLeft is the footer counter: "1 item left", "3 items left".
func ItemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

// FilterLinks renders All / Active / Completed with the current one selected.
func FilterLinks(selected model.Filter) string {
	t := Current()
	links := make([]string, 0, len(model.Filters))
	for i, f := range model.Filters {
		label := fmt.Sprintf("%d %s", i+1, f.Label())
		if f == selected {
			label = t.Selected.Render("[" + label + "]")
		} else {
			label = t.Muted.Render(" " + label + " ")
		}
		links = append(links, label)
	}
	return strings.Join(links, " ")
}

// Footer is empty when there are no todos at all, whatever the filter.
func Footer(st state.State) string {
	if len(st.Todos) == 0 {
		return ""
	}
	return Current().Pending.Render(ItemsLeft(st.ItemsLeft())) + "   " + FilterLinks(st.Filter)
}
