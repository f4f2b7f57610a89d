package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dnaik/lucid/internal/config"
	"github.com/dnaik/lucid/internal/llm"
	"github.com/dnaik/lucid/internal/tui"
)

func main() {
	configPath := flag.String("config", "lucid.yaml", "path to a lucid config file (YAML)")
	model := flag.String("model", "", "override the configured model name")
	endpoint := flag.String("endpoint", "", "override the configured API endpoint")
	extract := flag.Bool("extract", false, "extract text from PDFs locally instead of uploading them")
	noAltScreen := flag.Bool("no-alt-screen", false, "run inline instead of taking over the terminal")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() > 1 {
		usage()
		os.Exit(2)
	}

	// A missing .env is fine; explicit env still wins.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lucid: %v\n", err)
		os.Exit(1)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "lucid: invalid config: %v\n", err)
		os.Exit(1)
	}

	if os.Getenv("LUCID_DEBUG") != "" {
		f, err := tea.LogToFile("lucid-debug.log", "lucid")
		if err != nil {
			fmt.Fprintf(os.Stderr, "lucid: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	client, err := llm.New(llm.Config{
		Model:      cfg.Model,
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		HTTPClient: cfg.HTTPClient(),
	})
	if err != nil {
		// Still start the UI so a loaded document is at least readable.
		fmt.Fprintf(os.Stderr, "lucid: LLM disabled: %v\n", err)
		client = nil
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(tui.NewModel(tui.Config{
		LLM:        client,
		SourcePath: flag.Arg(0),
		ExtractPDF: *extract,
	}), opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "lucid: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: lucid [flags] [file-or-url]

Simplify a document into plain language and read it interactively:
highlighted terms can be defined in place and the summary answers
follow-up questions.

Flags:
`)
	flag.PrintDefaults()
}
