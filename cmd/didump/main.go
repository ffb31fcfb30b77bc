// cmd/didump/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/davianspace/davianspace-dependencyinjection/di"
)

// This binary is a wiring-inspection tool.
//
// It assembles the demo service graph, compiles it into a container with the
// requested validation, and writes the compiled-plan snapshot (services,
// lifetimes, creation strategies, dependency edges) to stdout.
//
// Key behaviors:
// - -format yaml|json selects the output encoding (default yaml)
// - -validate enables the build-time missing-dependency check
// - -scopes enables the build-time captive-dependency check
// - -verbose attaches a development zap logger to the build
// - build failures are reported per problem on stderr, exit code 1

// Demo wiring: a logger, a per-request store session, and a request handler
// over it. The shape exists to make snapshots and validation output concrete.

type EventLog struct {
	Level string
}

func NewEventLog() *EventLog {
	return &EventLog{Level: "info"}
}

type SessionStore struct {
	Log *EventLog
}

func NewSessionStore(log *EventLog) *SessionStore {
	return &SessionStore{Log: log}
}

func (s *SessionStore) Close() error { return nil }

type RequestHandler struct {
	Store *SessionStore
}

func NewRequestHandler(store *SessionStore) *RequestHandler {
	return &RequestHandler{Store: store}
}

// demoCollection assembles the demo graph.
func demoCollection() (*di.Collection, error) {
	c := di.NewCollection()
	if err := di.AddSingleton[*EventLog](c, NewEventLog); err != nil {
		return nil, err
	}
	if err := di.AddScoped[*SessionStore](c, NewSessionStore); err != nil {
		return nil, err
	}
	if err := di.AddTransient[*RequestHandler](c, NewRequestHandler); err != nil {
		return nil, err
	}
	return c, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("didump", flag.ContinueOnError)
	flags.SetOutput(stderr)

	format := flags.String("format", "yaml", "output format: yaml or json")
	validate := flags.Bool("validate", false, "enable the missing-dependency build check")
	scopes := flags.Bool("scopes", false, "enable the captive-dependency build check")
	verbose := flags.Bool("verbose", false, "log build events")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *format != "yaml" && *format != "json" {
		fmt.Fprintf(stderr, "didump: unknown format %q (want yaml or json)\n", *format)
		return 2
	}

	var opts []di.BuildOption
	if *validate {
		opts = append(opts, di.WithValidation())
	}
	if *scopes {
		opts = append(opts, di.WithScopeValidation())
	}
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(stderr, "didump: %v\n", err)
			return 1
		}
		defer func() { _ = logger.Sync() }()
		opts = append(opts, di.WithLogger(logger))
	}

	c, err := demoCollection()
	if err != nil {
		fmt.Fprintf(stderr, "didump: %v\n", err)
		return 1
	}

	ctr, err := c.Build(opts...)
	if err != nil {
		reportBuildFailure(stderr, err)
		return 1
	}
	defer func() { _ = ctr.Dispose() }()

	out, err := encodeSnapshot(ctr.Snapshot(), *format)
	if err != nil {
		fmt.Fprintf(stderr, "didump: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s", out)
	return 0
}

// reportBuildFailure prints one line per validation problem when the build
// raised an aggregate, and the raw error otherwise.
func reportBuildFailure(stderr io.Writer, err error) {
	if build, ok := err.(di.BuildError); ok {
		fmt.Fprintf(stderr, "didump: build failed with %d problem(s)\n", len(build.Errors))
		for _, e := range build.Errors {
			fmt.Fprintf(stderr, "  - %v\n", e)
		}
		return
	}
	fmt.Fprintf(stderr, "didump: %v\n", err)
}

func encodeSnapshot(snap di.Snapshot, format string) ([]byte, error) {
	if format == "json" {
		return json.MarshalIndent(snap, "", "  ")
	}
	return snap.YAML()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
