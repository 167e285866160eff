package main

import (
	"os"
	"strings"

	"datamosh/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args, environ()))
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
