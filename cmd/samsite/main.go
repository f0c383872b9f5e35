// samsite defends a NationStates region: it watches for arriving nations
// and bans hostile ones on operator command.
package main

import "github.com/ppiankov/samsite/internal/cli"

func main() {
	cli.Execute()
}
