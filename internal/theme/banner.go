package theme

import (
	"fmt"
	"io"
	"os"
)

// Banner returns the CLI banner shown above help output.
func Banner() string {
	const cyan = "\033[36m"
	const magenta = "\033[35m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"  ◆◇◆   " + magenta + "REPOMATCH" + reset + "   ◆◇◆\n" +
		cyan + "   ┌─o──o─┐   ┌─o──o─┐   ┌─o──o─┐\n" + reset +
		cyan + "   └──┬───┘ ─ └──┬───┘ ─ └──┬───┘\n" + reset +
		yellow + "     ────────────────────────────\n" + reset +
		"   repositories and developers you have not met yet\n"
	return art
}

// PrintBanner writes the banner to w, or stdout when w is nil.
func PrintBanner(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprint(w, Banner())
}
