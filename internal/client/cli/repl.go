package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Products(ctx context.Context) error
	Mine(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Search(term string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Cart(ctx context.Context) error
	Buy(ctx context.Context, id string) error
	SetQuantity(ctx context.Context, id string, quantity int) error
	Remove(ctx context.Context, id string) error
}

const (
	guestHelp  = "Available commands: register, login, products, show <id>, search [term], exit"
	memberHelp = "Available commands: products, mine, show <id>, search [term], add, edit <id>, delete <id>, " +
		"cart, buy <id>, qty <id> <n>, rm <id>, logout, exit"
)

// runREPL reads commands line by line from scanner and dispatches them to a.
//
// The prompt shows the current status (from statusFn). Commands that need a
// product id print a usage line when it is missing. Handler errors are
// printed and the loop carries on. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("shop %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(memberHelp)
			} else {
				printlnFn(guestHelp)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)

		case "products", "p":
			err = a.Products(ctx)
		case "mine":
			err = a.Mine(ctx)
		case "search":
			err = a.Search(strings.Join(args, " "))
		case "add":
			err = a.Add(ctx)
		case "cart":
			err = a.Cart(ctx)

		case "show", "edit", "delete", "buy", "rm":
			if len(args) != 1 {
				printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
				continue
			}
			err = dispatchByID(ctx, a, cmd, args[0])

		case "qty":
			if len(args) != 2 {
				printlnFn("Usage: qty <id> <n>")
				continue
			}
			n, convErr := strconv.Atoi(args[1])
			if convErr != nil {
				printlnFn("Quantity must be a whole number")
				continue
			}
			err = a.SetQuantity(ctx, args[0], n)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", describeError(err))
		}
	}
}

func dispatchByID(ctx context.Context, a execIface, cmd, id string) error {
	switch cmd {
	case "show":
		return a.Show(ctx, id)
	case "edit":
		return a.Edit(ctx, id)
	case "delete":
		return a.Delete(ctx, id)
	case "buy":
		return a.Buy(ctx, id)
	default:
		return a.Remove(ctx, id)
	}
}
