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

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Tables(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Put(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
	Purge(ctx context.Context, args []string) error

	Pending(ctx context.Context) error
	Failed(ctx context.Context) error
	Retry(ctx context.Context, args []string) error
	Flush(ctx context.Context) error
	Status(ctx context.Context) error

	Duplicates(ctx context.Context) error
	ABC(ctx context.Context) error
	Inbox(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Reset(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, pending, failed, status, exit"
	helpLoggedIn  = "Available commands: tables, (l)ist <table>, show <table> <key>, put <table>, " +
		"delete|restore|purge <table> <key>, pending, failed, retry <#>, flush, status, " +
		"dupes, abc, inbox, export [file], reset, logout, exit"
)

// runREPL reads commands from scanner until EOF or exit. Command errors are
// printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bizsync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if ctx.Err() != nil {
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			report(err)
		}
	}
}

var errNotLoggedIn = errors.New("please login first")

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "pending":
		return a.Pending(ctx)
	case "failed":
		return a.Failed(ctx)
	case "status":
		return a.Status(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "tables", "l", "list", "show", "put", "delete", "restore", "purge", "retry",
			"flush", "dupes", "abc", "inbox", "export", "reset", "logout":
			return errNotLoggedIn
		}
	}

	switch cmd {
	case "tables":
		return a.Tables(ctx)
	case "l", "list":
		return a.List(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "put":
		return a.Put(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "restore":
		return a.Restore(ctx, args)
	case "purge":
		return a.Purge(ctx, args)
	case "retry":
		return a.Retry(ctx, args)
	case "flush":
		return a.Flush(ctx)
	case "dupes":
		return a.Duplicates(ctx)
	case "abc":
		return a.ABC(ctx)
	case "inbox":
		return a.Inbox(ctx)
	case "export":
		return a.Export(ctx, args)
	case "reset":
		return a.Reset(ctx)
	case "logout":
		return a.Logout(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func report(err error) {
	if errors.Is(err, errUsage) {
		printlnFn(strings.Replace(err.Error(), errUsage.Error()+": ", "Usage: ", 1))
		return
	}
	printlnFn("Error:", err)
}
