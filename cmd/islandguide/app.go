package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/0xcro3dile/islandguide/internal/adapters/embedding"
	"github.com/0xcro3dile/islandguide/internal/adapters/llm"
	"github.com/0xcro3dile/islandguide/internal/adapters/loader"
	"github.com/0xcro3dile/islandguide/internal/adapters/lock"
	"github.com/0xcro3dile/islandguide/internal/adapters/parser"
	"github.com/0xcro3dile/islandguide/internal/adapters/transit"
	"github.com/0xcro3dile/islandguide/internal/adapters/vectordb"
	"github.com/0xcro3dile/islandguide/internal/config"
	"github.com/0xcro3dile/islandguide/internal/domain/chunker"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
	"github.com/0xcro3dile/islandguide/internal/domain/usecases"
	"github.com/0xcro3dile/islandguide/internal/infrastructure/metrics"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	index    ports.DocumentIndex
	closeFn  func() error
	pdf      *parser.PythonPDFParser
	watchExt []string
	ingest   *usecases.IngestUseCase
	router   *usecases.RouterUseCase
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// ── Providers ────────────────────────────────────────────────────────
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	generator, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}

	// ── Index + ingestion ────────────────────────────────────────────────
	index, closeIndex, err := newIndex(cfg, embedder)
	if err != nil {
		return nil, err
	}

	pdfParser := parser.NewPythonPDFParser(cfg.PDFServiceURL)
	docLoader := loader.NewMultiLoader(
		loader.NewTextLoader(),
		loader.NewPDFLoader(pdfParser),
		loader.NewHTMLLoader(),
	)
	source := loader.NewDirectorySource(cfg.DocumentsDir, docLoader)

	ingest := usecases.NewIngestUseCase(
		index,
		chunker.New(chunker.Config{
			Window:    cfg.ChunkWindow,
			Step:      cfg.ChunkStep,
			MinLength: cfg.ChunkMinLength,
		}),
		source,
		lock.NewFileLock(cfg.DataDir, cfg.ReloadLockWait),
	)

	// ── Question answering ───────────────────────────────────────────────
	retriever := usecases.NewRetrieveUseCase(index, cfg.RetrieverMinTitleRunes)
	answerer := usecases.NewAnswerUseCase(retriever, generator, cfg.MinEvidenceLength)

	transitUC, err := newTransit(cfg, m)
	if err != nil {
		closeIndex()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		index:    index,
		closeFn:  closeIndex,
		pdf:      pdfParser,
		watchExt: docLoader.SupportedExtensions(),
		ingest:   ingest,
		router:   usecases.NewRouterUseCase(answerer, transitUC, cfg.MapSearchURL),
	}, nil
}

// bootstrap fills an empty index. A failure is logged, not fatal: the
// transit and map routes work without documents and knowledge questions
// are refused until a reload succeeds.
func (a *app) bootstrap(ctx context.Context) {
	if !a.pdf.IsServiceHealthy(ctx) {
		slog.Warn("pdf extraction service unreachable, pdf documents will be skipped", "url", a.cfg.PDFServiceURL)
	}

	stats, ran, err := a.ingest.Bootstrap(ctx)
	if err != nil {
		slog.Error("bootstrap ingestion failed", "error", err, "chunks", stats.Chunks)
	}
	if ran {
		a.metrics.ObserveIngest(stats.Chunks)
		logSkipped(stats)
	}
}

// reload runs a locked reload and records it.
func (a *app) reload(ctx context.Context) (usecases.IngestStats, error) {
	stats, err := a.ingest.Reload(ctx)
	a.metrics.ObserveReload(stats.Chunks, err)
	switch {
	case errors.Is(err, ports.ErrReloadInProgress):
		slog.Warn("reload skipped, another reload holds the lock")
	case err != nil:
		slog.Error("reload failed", "error", err)
	default:
		logSkipped(stats)
	}
	return stats, err
}

func (a *app) Close() error {
	return a.closeFn()
}

func logSkipped(stats usecases.IngestStats) {
	for _, s := range stats.Skipped {
		slog.Warn("skipped document", "path", s.Path, "reason", s.Reason)
	}
}

// newIndex opens the configured index backend. The memory backend forgets
// everything on exit, so every start bootstraps from the documents.
func newIndex(cfg *config.Config, embedder ports.EmbeddingService) (ports.DocumentIndex, func() error, error) {
	if cfg.IndexBackend == config.IndexMemory {
		slog.Info("using in-memory document index")
		return vectordb.NewMemoryIndex(embedder), func() error { return nil }, nil
	}

	index, err := vectordb.NewSQLiteIndex(cfg.DataDir, embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("opening index: %w", err)
	}
	return index, index.Close, nil
}

func newEmbedder(cfg *config.Config) (ports.EmbeddingService, error) {
	switch cfg.EmbedProvider {
	case config.ProviderOpenAI:
		return embedding.NewOpenAIAdapter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIEmbedModel, cfg.EmbedTimeout)
	case config.ProviderOllama:
		return embedding.NewOllamaAdapter(cfg.OllamaBaseURL, cfg.OllamaEmbedModel, cfg.EmbedTimeout), nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}

func newLLM(cfg *config.Config) (ports.LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIAdapter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIChatModel, cfg.GenerationTimeout)
	case config.ProviderOllama:
		return llm.NewOllamaLLMAdapter(cfg.OllamaBaseURL, cfg.OllamaChatModel, cfg.GenerationTimeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// newTransit wires the direct tier and, when enabled, the headless tier.
// observer may be nil.
func newTransit(cfg *config.Config, observer ports.FetchObserver) (*usecases.TransitStatusUseCase, error) {
	extractor, err := transit.NewExtractor(transit.DefaultSelectors())
	if err != nil {
		return nil, fmt.Errorf("compiling status selectors: %w", err)
	}

	tiers := []ports.PageFetcher{transit.NewDirectFetcher(cfg.TransitFetchTimeout, cfg.TransitFetchRPS)}
	if cfg.TransitBrowserEnabled {
		tiers = append(tiers, transit.NewBrowserFetcher(cfg.TransitBrowserTimeout, cfg.TransitBrowserPath))
	}
	return usecases.NewTransitStatusUseCase(cfg.TransitStatusURL, extractor, observer, tiers...), nil
}
