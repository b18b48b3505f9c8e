package main

// Inspect the built-in register maps.
//
// Usage:
//
//    regmap COMMAND [ARGUMENTS]
//
// Run regmap without arguments for the list of commands.

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

type tool struct {
	descr string
	main  func(args []string)
}

var tools = map[string]tool{
	"list":    {"list the device types", listMain},
	"show":    {"list the fields of a device type", showMain},
	"lint":    {"validate device types or descriptor files", lintMain},
	"table":   {"write the descriptor table of a device type as YAML", tableMain},
	"svd":     {"write a CMSIS-SVD description of a device type", svdMain},
	"scripts": {"list the command scripts of a device type", scriptsMain},
}

func printToolList() {
	os.Stderr.WriteString("Usage:\n  regmap COMMAND [ARGUMENTS]\n\nCommands:\n")
	maxLen := 0
	names := make([]string, 0, len(tools))
	for name := range tools {
		if len(name) > maxLen {
			maxLen = len(name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s%s  %s\n", name, strings.Repeat(" ", maxLen-len(name)), tools[name].descr)
	}
	os.Stderr.WriteString("\nRun 'regmap COMMAND --help' for more information.\n")
}

func main() {
	if len(os.Args) < 2 {
		printToolList()
		os.Exit(1)
	}
	t, ok := tools[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printToolList()
		os.Exit(1)
	}
	t.main(os.Args[1:])
}
