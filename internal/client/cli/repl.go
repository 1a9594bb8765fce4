package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophdirectory/internal/client/client"
	"github.com/dmitrijs2005/gophdirectory/internal/common"
	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// isTerminal reports whether the prompt should be shown. Piped input gets no
// prompt so scripted sessions produce clean output.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	User(ctx context.Context, args []string) error
	Username(ctx context.Context, args []string) error
	Pay(ctx context.Context, args []string) error
	Group(ctx context.Context, args []string) error
	AddGroup(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	SearchOnline(ctx context.Context, args []string) error
	Contacts(ctx context.Context, args []string) error
	AddContact(ctx context.Context, args []string) error
	RemoveContact(ctx context.Context, args []string) error
	Block(ctx context.Context, args []string) error
	Unblock(ctx context.Context, args []string) error
	Blocked(ctx context.Context, args []string) error
	Report(ctx context.Context, args []string) error
	Publish(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  user <id>                                  resolve by canonical id
  username <name>                            resolve by username
  pay <address>                              resolve by payment address
  group <id>                                 show a cached group
  addgroup <id> <title> [members...]         store a group locally
  search <query>                             search cached usernames
  searchonline <query>                       search the directory
  contacts | addcontact <id> | rmcontact <id>
  block <address> | unblock <address> | blocked
  report <address> <details...>              report a user
  publish <username> <payment_address> [name...]
  avatar <id> <file>                         upload an avatar image
  clear                                      wipe cached profiles
  exit | quit`

// usageError is returned by handlers called with the wrong arguments.
type usageError string

func (u usageError) Error() string { return "Usage: " + string(u) }

func newScanner(in io.Reader) *bufio.Scanner {
	return bufio.NewScanner(in)
}

// runREPL starts a read–eval–print loop over scanner.
//
// The first token of every line is the command, the rest are its arguments.
// Handler errors are printed and the loop carries on. The loop exits on
// scanner EOF, on "exit"/"quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	handlers := map[string]func(context.Context, []string) error{
		"user":         a.User,
		"username":     a.Username,
		"pay":          a.Pay,
		"group":        a.Group,
		"addgroup":     a.AddGroup,
		"search":       a.Search,
		"searchonline": a.SearchOnline,
		"contacts":     a.Contacts,
		"addcontact":   a.AddContact,
		"rmcontact":    a.RemoveContact,
		"block":        a.Block,
		"unblock":      a.Unblock,
		"blocked":      a.Blocked,
		"report":       a.Report,
		"publish":      a.Publish,
		"avatar":       a.Avatar,
		"clear":        a.Clear,
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if isTerminal() {
			fmt.Printf("gd (%s)> ", statusFn())
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		h, ok := handlers[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := h(ctx, args); err != nil {
			printlnFn(describeError(err))
		}
	}
}

// describeError turns handler errors into one line for the user.
func describeError(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return "Not cached, and the directory is unreachable."
	case errors.Is(err, client.ErrUnavailable):
		return "Directory unavailable, try again later."
	case errors.Is(err, client.ErrUnauthorized):
		return "Rejected by the directory."
	case errors.Is(err, common.ErrorNotFound):
		return "Not found."
	case errors.Is(err, common.ErrorValidation):
		return "Invalid input: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
