// Package flagx pulls the config file location out of a command line before
// the full flag set exists, so file values can become flag defaults.
package flagx

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
)

const (
	ConfigFlag  = "config"
	ConfigShort = "c"
)

// ConfigFile returns the path given with -c, --config or the single dash
// -config spelling, or "" when none is present. The last occurrence wins.
// Every other flag and argument is ignored, as is a trailing flag with no
// value.
func ConfigFile(args []string) string {
	var path string

	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringVarP(&path, ConfigFlag, ConfigShort, "", "path to config file (JSON or YAML)")

	// --help stops parsing early; whatever was seen before it still counts.
	_ = fs.Parse(normalize(args))
	return path
}

// normalize rewrites the Go flag style "-config" into "--config" and drops a
// config value that looks like a flag, so "-c --verbose" does not swallow
// "--verbose". Parsing stops at "--".
func normalize(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if arg == "-"+ConfigFlag || strings.HasPrefix(arg, "-"+ConfigFlag+"=") {
			arg = "-" + arg
		}
		isConfig := arg == "--"+ConfigFlag || arg == "-"+ConfigShort
		if isConfig && (i+1 == len(args) || strings.HasPrefix(args[i+1], "-")) {
			continue
		}
		out = append(out, arg)
	}
	return out
}
