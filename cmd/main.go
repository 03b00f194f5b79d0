package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/askdoc/askdoc/internal/models"
	"github.com/askdoc/askdoc/internal/types"
	"github.com/askdoc/askdoc/pkg/chunker"
	"github.com/askdoc/askdoc/pkg/composer"
	cfgPkg "github.com/askdoc/askdoc/pkg/config"
	"github.com/askdoc/askdoc/pkg/extractor"
	"github.com/askdoc/askdoc/pkg/index"
	"github.com/askdoc/askdoc/pkg/llm"
	"github.com/askdoc/askdoc/pkg/pipeline"
	"github.com/askdoc/askdoc/pkg/websearch"
	"github.com/askdoc/askdoc/server"
)

type flags struct {
	configPath string
	filePath   string
	serveAddr  string
	model      string
	temp       float64
	k          int
}

func main() {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.filePath, "file", "", "Document to load on startup (pdf or text)")
	flag.StringVar(&f.serveAddr, "serve", "", "Run the HTTP server on this address instead of the chat loop")
	flag.StringVar(&f.model, "model", "", "Generation model override")
	flag.Float64Var(&f.temp, "temperature", 0, "Sampling temperature override")
	flag.IntVar(&f.k, "k", 0, "Document snippets to retrieve per question")
	flag.Parse()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func run(f flags) error {
	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.temp != 0 {
		cfg.LLM.Temperature = f.temp
	}
	if f.k != 0 {
		cfg.Retrieval.K = f.k
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if f.serveAddr != "" {
		return server.New(p).ListenAndServe(f.serveAddr)
	}

	return chatLoop(p, cfg, f.filePath)
}

func buildPipeline(cfg *cfgPkg.Config) (*pipeline.Pipeline, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		MaxRetries: cfg.Embedding.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	chatEngine, err := llm.NewChatWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	ch, err := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}

	newIndex := func() types.Index { return index.NewMemory(embedder) }
	if cfg.Retrieval.Backend == "pgvector" {
		newIndex = func() types.Index {
			idx, err := index.NewPgVectorWithConfig(index.PgVectorConfig{
				ConnString: cfg.Retrieval.URL,
				TableName:  cfg.Retrieval.TableName,
			}, embedder)
			if err != nil {
				color.Red("pgvector unavailable, falling back to memory index: %v", err)
				return index.NewMemory(embedder)
			}
			return idx
		}
	}

	web := websearch.NewWithConfig(websearch.SearchConfig{
		APIKey:          cfg.WebSearch.APIKey,
		DisableFallback: cfg.WebSearch.DisableFallback,
		MaxResults:      cfg.WebSearch.MaxResults,
		RateLimit:       cfg.WebSearch.RateLimit,
	})

	return pipeline.New(pipeline.PipelineConfig{
		RetrievalK: cfg.Retrieval.K,
		WebResults: cfg.WebSearch.MaxResults,
	}, ch, newIndex, web, composer.New(chatEngine)), nil
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func loadDocument(p *pipeline.Pipeline, path string) (types.Index, error) {
	text, pages, err := extractor.ExtractFile(path)
	if err != nil {
		return nil, err
	}

	bar := getSpinner(" Indexing document...")
	idx, err := p.Ingest(context.Background(), text, path)
	bar.Finish()
	if err != nil {
		return nil, err
	}

	color.Green("✓ Indexed %d segments from %d page(s)\n", idx.Len(), len(pages))
	return idx, nil
}

func chatLoop(p *pipeline.Pipeline, cfg *cfgPkg.Config, filePath string) error {
	var idx types.Index
	history := pipeline.NewHistory()

	if filePath != "" {
		loaded, err := loadDocument(p, filePath)
		if err != nil {
			return err
		}
		idx = loaded
	}

	color.Cyan("\nAsk questions about your document (type '/load <path>' to load one, 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			return nil
		case strings.HasPrefix(line, "/load "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/load "))
			loaded, err := loadDocument(p, path)
			if err != nil {
				color.Red("Failed to load document: %v\n", err)
				continue
			}
			if idx != nil {
				idx.Close()
			}
			idx = loaded
			history.Clear()
			continue
		}

		if idx == nil {
			color.Yellow("Load a document first: /load <path>")
			continue
		}

		spinner := getSpinner(" Searching...")
		record, err := p.Ask(context.Background(), line, idx)
		spinner.Finish()

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		history.Append(record)

		fmt.Print("\n")
		assistantPrompt("Assistant: %s\n", record.Answer)
		printProvenance(record)
	}

	return nil
}

func printProvenance(record models.AnswerRecord) {
	if record.Degraded {
		color.Yellow("⚠ %s", record.DegradedReason)
	}

	var sources []string
	if len(record.DocumentSnippets) > 0 {
		sources = append(sources, fmt.Sprintf("%d document segment(s)", len(record.DocumentSnippets)))
	}
	for _, s := range record.WebSnippets {
		if s.URL != "" {
			sources = append(sources, s.URL)
		}
	}
	if len(sources) > 0 {
		color.Blue("Sources: %s", strings.Join(sources, ", "))
	}
}
