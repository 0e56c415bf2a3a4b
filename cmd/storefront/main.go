// Command storefront is the PulseCart client: it browses the catalog,
// manages the session, cart and orders, and runs the local dev servers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
