package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/lumenui/bridge"
	"github.com/lumenui/bridge/engine"
	"github.com/lumenui/bridge/session"
)

func main() {
	var (
		uiFile      = flag.String("ui", "", "Path to .ui.hcl definition file")
		props       = flag.String("props", "", "Initial properties (name=value,name2=value2)")
		data        = flag.String("data", "", "Projection data files (name=items.json,...)")
		watchMode   = flag.Bool("watch", false, "Keep running and reload on save")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *uiFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridgerun -ui <file.ui.hcl> [-props k=v,...] [-data name=file.json,...]")
		fmt.Fprintln(os.Stderr, "       bridgerun -ui <file.ui.hcl> -watch  (reload on save)")
		fmt.Fprintln(os.Stderr, "       bridgerun -ui <file.ui.hcl> -i      (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*uiFile, *props, *data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code, err := run(*uiFile, *props, *data, *watchMode, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(uiFile, propsStr, dataStr string, watchMode, verbose bool) (int, error) {
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return 0, fmt.Errorf("create logger: %w", err)
		}
	}

	s := session.New(session.WithLogger(log))
	if err := s.Initialize(flag.Args()); err != nil {
		return 0, fmt.Errorf("initialize: %w", err)
	}
	defer s.Close()

	if err := newSessionSetup(s, propsStr, dataStr); err != nil {
		return 0, err
	}

	if !s.LoadDefinition(uiFile) {
		return 0, fmt.Errorf("load %s failed", uiFile)
	}

	fmt.Printf("Definition: %s\n", uiFile)
	fmt.Printf("Windows: %d\n\n", s.Engine().RootCount())
	printTree(s.Engine(), os.Stdout)

	if !watchMode {
		return 0, nil
	}

	fmt.Println("\nWatching for changes. Ctrl+C to stop.")
	return s.RunLoop(), nil
}

// newSessionSetup applies -props and -data flags to a fresh session.
func newSessionSetup(s *session.Session, propsStr, dataStr string) error {
	if propsStr != "" {
		for _, kv := range strings.Split(propsStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad property %q, want name=value", kv)
			}
			s.SetProperty(parts[0], parts[1])
		}
	}

	if dataStr != "" {
		for _, kv := range strings.Split(dataStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("bad data mapping %q, want name=file.json", kv)
			}
			raw, err := os.ReadFile(parts[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", parts[1], err)
			}
			s.CreateProjection(parts[0])
			if err := s.SetProjectionData(parts[0], string(raw)); err != nil {
				return fmt.Errorf("projection %s: %w", parts[0], err)
			}
		}
	}
	return nil
}

func printTree(e *engine.Engine, out *os.File) {
	a := e.Arena()
	for _, root := range e.RootNodes() {
		printNode(a, root, 0, out)
	}
}

func printNode(a *engine.Arena, id engine.NodeID, depth int, out *os.File) {
	indent := strings.Repeat("  ", depth)
	label := a.Label(id)
	if label != "" {
		label = fmt.Sprintf(" %q", label)
	}
	fmt.Fprintf(out, "%s%s%s%s\n", indent, a.Kind(id), label, formatProps(a, id))
	for _, child := range a.Children(id) {
		printNode(a, child, depth+1, out)
	}
}

func formatProps(a *engine.Arena, id engine.NodeID) string {
	var parts []string
	for _, name := range a.PropNames(id) {
		v := a.Prop(id, name)
		if v.Kind() == bridge.KindAbsent {
			continue
		}
		parts = append(parts, name+"="+v.Render())
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, " ") + "]"
}
