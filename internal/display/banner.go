package display

import (
	"fmt"
	"io"

	"github.com/backmassage/imgnorm/internal/term"
)

// PrintBanner writes the ASCII art banner to w, in magenta when colors are
// enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, ` _
(_)_ __ ___   __ _ _ __   ___  _ __ _ __ ___
| | '_ `+"`"+` _ \ / _`+"`"+` | '_ \ / _ \| '__| '_ `+"`"+` _ \
| | | | | | | (_| | | | | (_) | |  | | | | | |
|_|_| |_| |_|\__, |_| |_|\___/|_|  |_| |_| |_|
             |___/
`)
	fmt.Fprint(w, term.NC)
}
