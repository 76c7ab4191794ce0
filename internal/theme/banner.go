package theme

import (
	"fmt"
)

// Banner returns the CLI's startup banner.
func Banner() string {
	const cyan = "\033[36m"
	const magenta = "\033[35m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"   ✦   " + magenta + "HUBCTL" + reset + "   ✦\n" +
		cyan + "   ▄██▄  ▄██▄  ▄██▄\n" + reset +
		cyan + "   ▀██▀  ▀██▀  ▀██▀\n" + reset +
		yellow + "   ───────────────────\n" + reset +
		"   your hub boards and chats from the terminal ✦\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
