// Command mailsweep is the bulk mailbox cleanup CLI.
package main

import "github.com/mailsweep/mailsweep/internal/interfaces/cli"

func main() {
	cli.Execute()
}
