package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"guardianpdf/internal/config"
	"guardianpdf/internal/domain"
	"guardianpdf/internal/embedding/openai"
	"guardianpdf/internal/embedding/tfidf"
	"guardianpdf/internal/extractor"
	"guardianpdf/internal/pipeline"
	"guardianpdf/internal/provider"
	"guardianpdf/internal/service"
	"guardianpdf/internal/tui"
	"guardianpdf/internal/vectorstore/chromem"
	"guardianpdf/internal/vectorstore/memory"
	"guardianpdf/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/guardianpdf/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) != 1 {
		fmt.Println("Usage: guardianpdf-tui [--config=config.yaml] document.pdf")
		os.Exit(1)
	}
	path := inputs[0]

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The TUI owns the terminal, so service logs are discarded.
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := service.New(service.Config{
		Extractor:       extractor.NewPDF(),
		Embedder:        buildEmbedder(cfg),
		Store:           buildStore(cfg),
		LLM:             buildProvider(cfg),
		Options:         buildPipelineOptions(cfg),
		VerifyIntegrity: cfg.Security.VerifyIntegrityEnabled(),
		AIDetection:     cfg.Security.AIDetectionEnabled(),
		Logger:          logrus.NewEntry(logger),
	})

	name := filepath.Base(path)
	var report *service.UploadReport
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		report, err = svc.ProcessPDF(path, name)
	} else {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Fatalf("read %s: %v", path, readErr)
		}
		report, err = svc.IngestText(name, string(data))
	}
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	m := tui.New(svc, summaryLine(report))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func summaryLine(r *service.UploadReport) string {
	line := fmt.Sprintf("%s: %d unique chunks (%d duplicates removed)",
		r.Filename, r.Stats.UniqueCount, r.Stats.DuplicatesRemoved)
	if r.Security.WarningLevel != "" {
		line += fmt.Sprintf(", security: %s", r.Security.WarningLevel)
	}
	return line
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder()
	case "openai":
		ocfg := openai.Config{}
		if c := cfg.Embedder.OpenAI; c != nil {
			ocfg = openai.Config{
				BaseURL:   c.BaseURL,
				APIKeyEnv: c.APIKeyEnv,
				Model:     c.Model,
				Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
			}
		}
		client, err := openai.NewClient(ocfg)
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}

func buildStore(cfg *config.AppConfig) domain.VectorStore {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.NewStorage()
	case "chromem":
		ccfg := chromem.Config{}
		if c := cfg.VectorStore.Chromem; c != nil {
			ccfg = chromem.Config{Path: c.Path, Collection: c.Collection, Compress: c.Compress}
		}
		st, err := chromem.NewStorage(ccfg)
		if err != nil {
			log.Fatalf("chromem store init failed: %v", err)
		}
		return st
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
		return nil
	}
}

func buildProvider(cfg *config.AppConfig) domain.Provider {
	switch cfg.LLM.Provider {
	case "openai", "":
		llm, err := provider.NewOpenAIChat(provider.OpenAIConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Model:     cfg.LLM.Model,
			Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("llm init failed: %v", err)
		}
		return llm
	case "ollama":
		return provider.NewOllama(provider.OllamaConfig{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown llm provider: %s", cfg.LLM.Provider)
		return nil
	}
}

func buildPipelineOptions(cfg *config.AppConfig) pipeline.Options {
	return pipeline.Options{
		ChunkSize:           cfg.Pipeline.ChunkSize,
		OverlapSize:         cfg.Pipeline.OverlapSizeValue(),
		Dedup:               cfg.Pipeline.DedupEnabled(),
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
	}
}
