// Command self runs a script-AST file against the interpreter.
//
// Since no textual lexer/parser is in scope, the program's only input
// format is the YAML script-AST file format scriptfile.go defines; there
// is no REPL surface syntax to read from stdin the way the teacher's
// cmd/io REPL does. What is kept from the teacher's driver is the overall
// shape: a read-eval loop over os.Args, SIGINT handling, and an
// error/stack-trace report written to stderr in the exact form spec.md §6
// specifies.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/selflang/selfcore"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: self [-config path] script.yaml [script.yaml ...]")
		return 2
	}

	cfg := selfcore.DefaultConfig()
	var scripts []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-config" && i+1 < len(args) {
			loaded, err := selfcore.LoadConfig(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "self: loading config %s: %v\n", args[i+1], err)
				return 1
			}
			cfg = loaded
			i++
			continue
		}
		scripts = append(scripts, args[i])
	}

	vm := selfcore.NewVM(cfg)
	if err := vm.PrepareWorld(); err != nil {
		fmt.Fprintf(os.Stderr, "self: preparing world: %v\n", err)
		return 1
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, unix.SIGINT)
	defer signal.Stop(sigc)
	interrupted := make(chan struct{})
	go func() {
		<-sigc
		close(interrupted)
	}()

	status := 0
	for _, path := range scripts {
		select {
		case <-interrupted:
			fmt.Fprintln(os.Stderr, "self: interrupted")
			return 130
		default:
		}
		if !runScript(vm, path) {
			status = 1
		}
	}
	if msg := vm.Tracked.LeakReport(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	return status
}

// runScript loads and executes one script-AST file, reporting a runtime
// error in the exact format spec.md §6 specifies (file:line:column:
// error: <message>, followed by a stack trace) and returns false on
// failure.
func runScript(vm *selfcore.VM, path string) bool {
	script, err := LoadScript(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "self: %v\n", err)
		return false
	}

	result, rerr := vm.ExecuteScript(script)
	if rerr != nil {
		fmt.Fprint(os.Stderr, rerr.Report(nil))
		return false
	}
	_ = result
	return true
}
