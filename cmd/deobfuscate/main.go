// deobfuscate is a tool to reverse common obfuscator.io transformations
// in a JavaScript source file: string-array inlining, identifier
// renaming, constant folding, and dead-code elimination.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/jsdeobfuscate/pipeline"
)

func usage() {
	fmt.Println(`deobfuscate reverses common obfuscator.io transformations in a
JavaScript source file.

Usage:

	deobfuscate INPUT OUTPUT

INPUT and OUTPUT are file paths; OUTPUT is overwritten if it already
exists.
`)
}

func main() {
	if len(os.Args) != 3 {
		usage()
		os.Exit(1)
	}
	inPath, outPath := os.Args[1], os.Args[2]

	src, err := os.ReadFile(inPath)
	if err != nil {
		exit(err)
	}

	out, err := pipeline.New().Run(context.Background(), inPath, string(src))
	if err != nil {
		exit(err)
	}

	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
