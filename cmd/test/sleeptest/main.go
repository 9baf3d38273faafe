package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
)

// sleeptest is a sample service: it sleeps for the given number of seconds
// and exits 0, or exits 1 when interrupted first.
type flagOptions struct {
	Args struct {
		Seconds float64 `positional-arg-name:"seconds" description:"how long to sleep (default 2)"`
	} `positional-args:"yes"`
}

func main() {
	var opts flagOptions
	opts.Args.Seconds = 2
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(2)
	}
	if opts.Args.Seconds < 0 {
		fmt.Printf("Duration cannot be negative: %v\n", opts.Args.Seconds)
		os.Exit(2)
	}

	fmt.Printf("Sleeptest %d sleeping for %v seconds...\n", os.Getpid(), opts.Args.Seconds)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case receivedSignal := <-sig:
		fmt.Printf("Sleeptest %d received signal: %v\n", os.Getpid(), receivedSignal)
		os.Exit(1)
	case <-time.After(time.Duration(opts.Args.Seconds * float64(time.Second))):
	}

	fmt.Printf("Sleeptest %d done\n", os.Getpid())
}
