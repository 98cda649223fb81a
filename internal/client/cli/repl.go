package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	exec(ctx context.Context, cmd string, args []string) error
}

// runREPL starts a simple read-eval-print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command and hands the rest to a.exec. The loop exits on scanner EOF or
// when the user types "exit" or "quit". Command errors are printed and the
// loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func(ctx context.Context) string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("dashapi %s > ", statusFn(ctx)))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			if !a.isLoggedIn(ctx) {
				printlnFn("Not logged in: start with 'login <username>'.")
			}
		}

		if err := a.exec(ctx, cmd, args); err != nil {
			if errors.Is(err, ErrUsage) {
				printlnFn(err.Error())
				continue
			}
			printlnFn("error:", err)
		}
	}
}
