// stubrouter CLI - stub store server, editor UI and stub management commands
package main

import "github.com/getmockd/stubrouter/pkg/cli"

func main() {
	cli.Execute()
}
