package main

import (
	"fmt"
	"io"

	"github.com/bassbeaver/gevents/event_bus"
	"github.com/bassbeaver/gevents/event_bus/listener"
	"github.com/spf13/cobra"
)

// NewDemoCmd creates the demo subcommand.
func NewDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the cat and human example",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout())
		},
	}
}

func runDemo(out io.Writer) error {
	registry := event_bus.NewEventRegistry()

	say := func(line string) listener.Func {
		return func() error {
			_, err := fmt.Fprintln(out, line)
			return err
		}
	}

	if _, err := registry.Register("meow", say("Human: Awww, what a cute kitty *pets cat*")); nil != err {
		return err
	}
	if _, err := registry.RegisterWithPriority("meow", say("Human daydreams about owning a dog"), 0); nil != err {
		return err
	}
	ponder := listener.ArgFunc(func(param interface{}) error {
		info, isString := param.(string)
		if !isString {
			return nil
		}
		_, err := fmt.Fprintf(out, "Oooh, I think I know:\n%s\n", info)
		return err
	})
	if _, err := registry.Register("meow", ponder); nil != err {
		return err
	}

	fmt.Fprintln(out, "Cat: MRaawwweeee")
	if err := registry.Trigger("meow", "The cat is hungry!"); nil != err {
		return err
	}

	fmt.Fprintln(out, "Cat: MRaawwweeee")
	if err := registry.Trigger("meow", "The cat is hungry again!"); nil != err {
		return err
	}

	_, err := fmt.Fprintf(out, "meow done: %t\n", registry.IsDone("meow"))

	return err
}
