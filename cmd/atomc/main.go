// Command atomc compiles and runs a single AtomC source file.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"atomc/compiler"
	"atomc/diag"
	"atomc/symbols"
)

var (
	trace           bool
	dumpTokens      bool
	dumpSymbols     bool
	dumpIR          bool
	stackSize       int
	maxInstructions int64
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "atomc <source-file>",
		Short:         "Compile and run an AtomC program",
		Args:          cobra.ExactArgs(1),
		RunE:          runAtomC,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "log every VM instruction as it executes")
	cmd.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "print the lexed token stream and exit")
	cmd.Flags().BoolVar(&dumpSymbols, "dump-symbols", false, "print the global symbol table and exit")
	cmd.Flags().BoolVar(&dumpIR, "dump-ir", false, "print the emitted instruction stream and exit")
	cmd.Flags().IntVar(&stackSize, "stack-size", 4096, "VM value-stack capacity, in cells")
	cmd.Flags().Int64Var(&maxInstructions, "max-instructions", 0, "abort after this many executed instructions (0 = unbounded)")
	return cmd
}

func runAtomC(cmd *cobra.Command, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return &diag.HostError{Msg: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var log *logrus.Logger
	if trace {
		log = logrus.New()
		log.SetLevel(logrus.TraceLevel)
	}

	opts := compiler.Options{
		Stdout:          cmd.OutOrStdout(),
		StackSize:       stackSize,
		MaxInstructions: maxInstructions,
		Log:             log,
	}

	if dumpTokens || dumpSymbols || dumpIR {
		res, err := compiler.Compile(string(src), opts)
		if err != nil {
			return err
		}
		if dumpTokens {
			fmt.Fprintln(cmd.OutOrStdout(), "tokens:")
			spew.Fdump(cmd.OutOrStdout(), res.Tokens)
		}
		if dumpSymbols {
			fmt.Fprintln(cmd.OutOrStdout(), "globals:")
			spew.Fdump(cmd.OutOrStdout(), res.Table.AllGlobals())
		}
		if dumpIR {
			fmt.Fprintln(cmd.OutOrStdout(), "entry:")
			for ip := res.Entry; ip != nil; ip = ip.Next {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", ip.Op)
			}
			for _, sym := range res.Table.AllGlobals() {
				if sym.Kind != symbols.KindFn || sym.IsExternal {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", sym.Name)
				for ip := sym.FirstInstr; ip != nil; ip = ip.Next {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", ip.Op)
				}
			}
		}
		return nil
	}

	return compiler.Run(string(src), opts)
}
