package tracker

import (
	"fmt"
	"html"
	"strings"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
)

// placeholder replaces empty optional fields in the rendered summary.
const placeholder = "—"

// Summary renders the HTML report broadcast for a submitted form.
func Summary(f *form.Form) string {
	var b strings.Builder

	writeLine := func(label, value string) {
		if value == "" {
			value = placeholder
		}

		fmt.Fprintf(&b, "<b>%s:</b> %s\n", label, html.EscapeString(value))
	}

	writeLine("System", f.System)
	writeLine("Name", f.DisplayName)
	writeLine("Departure", strings.TrimSpace(f.DepartureDate+" "+f.DepartureTime))
	writeLine("Return by", f.ExitDate+" "+f.ExitTime)
	writeLine("Control time", f.Control)
	writeLine("Participants", f.Participants)
	writeLine("Purpose", f.Purpose)
	writeLine("Phone", f.Phone)
	writeLine("Additional", f.Additional)

	return strings.TrimRight(b.String(), "\n")
}
