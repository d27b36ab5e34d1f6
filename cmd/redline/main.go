// Package main is the entry point for the redline annotation editor.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dshills/redline/internal/completion"
	"github.com/dshills/redline/internal/completion/openai"
	"github.com/dshills/redline/internal/completion/spark"
	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/doc"
	"github.com/dshills/redline/internal/session"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	author     string
	track      bool
	file       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.author != "" {
		cfg.Tracking.Author = opts.author
	}
	if opts.track {
		cfg.Tracking.Enabled = true
	}

	if cfg.Log.Path != "" {
		path := cfg.Log.Path
		commonlog.Configure(cfg.Log.Verbosity, &path)
	} else {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	}

	var content []byte
	if opts.file != "" {
		content, err = os.ReadFile(opts.file)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: failed to open %s: %v\n", opts.file, err)
			return 1
		}
	}

	s := session.New(string(content), session.Config{
		Author:             cfg.Tracking.Author,
		TrackChanges:       cfg.Tracking.Enabled,
		CommandPrefix:      cfg.Command.PrefixRune(),
		Provider:           provider(cfg.Completion),
		CompletionDebounce: cfg.Completion.Debounce,
		CompletionTimeout:  cfg.Completion.Timeout,
		SaveQuiet:          cfg.Save.Quiet,
		Save:               saveTo(opts.file),
		MaxDiffUnits:       cfg.Diff.MaxUnits,
		OnSuggestion: func(g completion.Ghost) {
			fmt.Printf("suggestion at %d: %q\n", g.At, g.Text)
		},
	})
	defer s.Close()

	if err := loop(s, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// provider builds the completion backend named by the config, or nil
// when completion is off.
func provider(cfg config.Completion) completion.Provider {
	switch cfg.Provider {
	case "spark":
		return spark.New(spark.Config{
			AppID:     cfg.Spark.AppID,
			APIKey:    cfg.Spark.APIKey,
			APISecret: cfg.Spark.APISecret,
			Host:      cfg.Spark.Host,
			Path:      cfg.Spark.Path,
			Domain:    cfg.Spark.Domain,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	default:
		return nil
	}
}

// saveTo returns the session save hook, or nil when no file is open.
func saveTo(path string) func(string) error {
	if path == "" {
		return nil
	}
	return func(snapshot string) error {
		return os.WriteFile(path, []byte(snapshot), 0o644)
	}
}

// loop reads line commands until EOF or quit.
func loop(s *session.Session, in *os.File) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "q" {
			break
		}
		if err := execute(s, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return s.SaveNow()
}

// execute runs one line command against the session.
func execute(s *session.Session, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "insert": // insert <at> <text...>
		at, rest, err := offsetArg(args, line, cmd)
		if err != nil {
			return err
		}
		if err := s.Insert(at, rest); err != nil {
			return err
		}
		menu(s)
		return nil

	case "delete": // delete <start> <end>
		r, err := rangeArg(args)
		if err != nil {
			return err
		}
		return s.Delete(r)

	case "replace": // replace <start> <end> <text...>
		r, err := rangeArg(args)
		if err != nil {
			return err
		}
		return s.Replace(r, strings.Join(args[2:], " "))

	case "rewrite": // rewrite <start> <end> <text...>
		r, err := rangeArg(args)
		if err != nil {
			return err
		}
		return s.Rewrite(r, strings.Join(args[2:], " "))

	case "format": // format <start> <end>
		r, err := rangeArg(args)
		if err != nil {
			return err
		}
		rec, err := s.ProposeFormat(r)
		if err != nil {
			return err
		}
		fmt.Println(rec.ID)
		return nil

	case "track": // track on|off
		if len(args) != 1 {
			return fmt.Errorf("usage: track on|off")
		}
		s.SetTracking(args[0] == "on")
		return nil

	case "changes":
		for _, rec := range s.PendingChanges() {
			fmt.Printf("%s\n", rec)
		}
		return nil

	case "accept":
		if len(args) == 1 && args[0] == "all" {
			return s.AcceptAllChanges()
		}
		if len(args) != 1 {
			return fmt.Errorf("usage: accept <id>|all")
		}
		return s.AcceptChange(args[0])

	case "reject":
		if len(args) == 1 && args[0] == "all" {
			return s.RejectAllChanges()
		}
		if len(args) != 1 {
			return fmt.Errorf("usage: reject <id>|all")
		}
		return s.RejectChange(args[0])

	case "advice": // advice <start> <end> <message...>
		r, err := rangeArg(args)
		if err != nil {
			return err
		}
		id, err := s.AddAdvice(r, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil

	case "advices":
		for _, rec := range s.Advice() {
			fmt.Printf("%s %q\n", rec, rec.Message)
		}
		return nil

	case "activate": // activate [<id>]
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return s.SetActiveAdvice(id)

	case "resolve": // resolve <id>
		if len(args) != 1 {
			return fmt.Errorf("usage: resolve <id>")
		}
		return s.ResolveAdvice(args[0])

	case "run": // run <command-id>
		if len(args) != 1 {
			return fmt.Errorf("usage: run <command-id>")
		}
		return s.RunCommand(args[0])

	case "tab":
		return s.AcceptCompletion()

	case "esc":
		s.DismissCompletion()
		return nil

	case "text":
		fmt.Println(s.Text())
		return nil

	case "save":
		return s.SaveNow()

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// menu prints the slash menu state after a keystroke.
func menu(s *session.Session) {
	if !s.CheckCommandTrigger() {
		return
	}
	_, matching, query := s.CommandMenu()
	fmt.Printf("menu %q: %s\n", query, strings.Join(matching, " "))
}

// offsetArg parses "<at> <text...>" arguments.
func offsetArg(args []string, line, cmd string) (doc.Offset, string, error) {
	if len(args) < 1 {
		return 0, "", fmt.Errorf("usage: %s <at> <text...>", cmd)
	}
	at, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("bad offset %q: %w", args[0], err)
	}
	// Keep the raw tail so inserted text preserves internal spacing.
	idx := strings.Index(line, args[0])
	rest := strings.TrimPrefix(line[idx+len(args[0]):], " ")
	return doc.Offset(at), rest, nil
}

// rangeArg parses "<start> <end> ..." arguments.
func rangeArg(args []string) (doc.Range, error) {
	if len(args) < 2 {
		return doc.Range{}, fmt.Errorf("expected <start> <end>")
	}
	start, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return doc.Range{}, fmt.Errorf("bad offset %q: %w", args[0], err)
	}
	end, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return doc.Range{}, fmt.Errorf("bad offset %q: %w", args[1], err)
	}
	return doc.Range{Start: doc.Offset(start), End: doc.Offset(end)}, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.author, "author", "", "Author name for change records")
	flag.BoolVar(&opts.track, "track", false, "Enable track-change recording")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Redline - annotation and change-tracking editor core\n\n")
		fmt.Fprintf(os.Stderr, "Usage: redline [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  redline draft.txt           Open a file\n")
		fmt.Fprintf(os.Stderr, "  redline -track draft.txt    Open with tracking on\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Redline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		opts.file = flag.Arg(0)
	}
	return opts
}
