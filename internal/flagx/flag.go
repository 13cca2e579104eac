// Package flagx splits feedfilter command lines into a subcommand and the
// flag subsets each configuration layer understands.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Command returns the leading subcommand of args (e.g. "build" in
// "build -feed 3") and the remaining arguments. An empty command is returned
// when args start with a flag.
func Command(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", args
	}
	return args[0], args[1:]
}

// FilterArgs returns the subset of args made of the allowed flags and their
// values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//  3. Switches listed in switches, which never consume a value: -force
//
// Anything else, including positional arguments, is dropped.
func FilterArgs(args []string, allowedFlags []string, switches ...string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}
	isSwitch := make(map[string]struct{}, len(switches))
	for _, f := range switches {
		isSwitch[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			_, ok := allowed[name]
			_, sw := isSwitch[name]
			if ok || sw {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := isSwitch[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// the next token is this flag's value unless it looks like a flag
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath extracts the JSON config file path given with -c or -config.
// Other arguments are ignored. Empty when neither flag is present.
func ConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}
