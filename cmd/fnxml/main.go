// Command fnxml is a small conformance-runner-adjacent CLI exercising the
// event pipeline: dumping raw events, pretty-printing via the DOM builder,
// and validating a document's characters and comments (DTD declarations are
// not validated). Grounded on the
// teacher's command router (arturoeanton-go-xml/main.go) and xml/cli.go's
// getInputReader/subcommand style.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	fnxml "github.com/arturoeanton/fnxml/xml"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "events":
		cmdEvents(args)
	case "fmt":
		cmdFormat(args)
	case "validate":
		cmdValidate(args)
	case "query":
		cmdQuery(args)
	default:
		fmt.Fprintf(os.Stderr, "fnxml: unknown command %q\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("fnxml - streaming XML event pipeline CLI")
	fmt.Println("usage: fnxml <command> [flags] [file]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  events   <file>   dump the raw event sequence as JSON lines")
	fmt.Println("  fmt      <file>   parse, build, and pretty-print via the DOM builder")
	fmt.Println("  validate <file>   run the character and comment validators and report errors")
	fmt.Println("  query    <file> <path>   resolve a simple-form path (a/b/c) against the document")
}

// getInputReader mirrors the teacher's helper: a bare file argument, or
// stdin when piped.
func getInputReader(args []string) (io.Reader, []string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, args, err
		}
		return f, args[1:], nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		return os.Stdin, args, nil
	}
	return nil, args, fmt.Errorf("no input provided (pipe or file)")
}

func readAll(args []string) ([]byte, []string, error) {
	r, rest, err := getInputReader(args)
	if err != nil {
		return nil, rest, err
	}
	data, err := io.ReadAll(r)
	return data, rest, err
}

func cmdEvents(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	mode := fs.String("mode", "xml", "xml|html")
	fs.Parse(args)

	data, _, err := readAll(fs.Args())
	if err != nil {
		die(err)
	}

	opts := []fnxml.Option{}
	if *mode == "html" {
		opts = append(opts, fnxml.WithMode(fnxml.ModeHTML))
	}

	enc := json.NewEncoder(os.Stdout)
	for ev := range fnxml.Parse(data, opts...).Events() {
		if err := enc.Encode(ev); err != nil {
			die(err)
		}
	}
}

func cmdFormat(args []string) {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	indent := fs.String("indent", "  ", "indent unit")
	fs.Parse(args)

	data, _, err := readAll(fs.Args())
	if err != nil {
		die(err)
	}

	doc, err := fnxml.Build(fnxml.Parse(data).Events())
	if err != nil {
		die(err)
	}
	out, err := fnxml.ToIoData(doc, fnxml.WithPrettyPrint(true), fnxml.WithIndent(*indent), fnxml.WithXMLDeclaration(true))
	if err != nil {
		die(err)
	}
	os.Stdout.Write(out)
	fmt.Println()
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	mode := fs.String("mode", "xml", "xml|html")
	fs.Parse(args)

	data, _, err := readAll(fs.Args())
	if err != nil {
		die(err)
	}

	opts := []fnxml.Option{}
	if *mode == "html" {
		opts = append(opts, fnxml.WithMode(fnxml.ModeHTML))
	}

	events := fnxml.ValidateComments(fnxml.ValidateCharacters(fnxml.Parse(data, opts...).Events(), opts...).Events(), opts...)

	errCount := 0
	for ev := range events.Events() {
		if ev.Kind == fnxml.ErrorEvent || ev.Kind == fnxml.DTDErrorEvent {
			errCount++
			fmt.Fprintf(os.Stderr, "%s at line %d, column %d: %s %s\n",
				ev.ErrorKind, ev.Location.Line, ev.Location.Column(), ev.Message, ev.Context)
		}
	}
	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "%d error(s) found\n", errCount)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func cmdQuery(args []string) {
	if len(args) < 2 {
		die(fmt.Errorf("usage: fnxml query <file> <path>"))
	}
	path := args[len(args)-1]
	fileArgs := args[:len(args)-1]

	data, _, err := readAll(fileArgs)
	if err != nil {
		die(err)
	}

	doc, err := fnxml.Build(fnxml.Parse(data).Events())
	if err != nil {
		die(err)
	}
	m := fnxml.ToOrderedMap(doc)
	val := m.GetPath(path)
	if val == nil {
		fmt.Fprintln(os.Stderr, "no result at path:", path)
		os.Exit(1)
	}
	switch v := val.(type) {
	case *fnxml.OrderedMap:
		fmt.Println(v.Dump())
	default:
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
	}
}

func die(err error) {
	log.SetFlags(0)
	log.Fatalf("fnxml: %v", err)
}
