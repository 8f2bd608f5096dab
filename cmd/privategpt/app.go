package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/0xcro3dile/privategpt-go/internal/adapters/blobstore"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/cachestore"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/embedding"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/llm"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/loader"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/parser"
	"github.com/0xcro3dile/privategpt-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/privategpt-go/internal/config"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/domain/usecases"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// app is a wired session plus the resources it holds.
type app struct {
	cfg       *config.Config
	session   *usecases.Session
	loader    *loader.MultiLoader
	partition *parser.PartitionParser
	closers   []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	a.partition = parser.NewPartitionParser(cfg.Parser.PartitionURL, "pdf", "docx")
	a.loader = newLoader(cfg, a.partition)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	chat, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}
	builder, err := a.newIndexBuilder(cfg)
	if err != nil {
		return nil, err
	}

	a.session = usecases.NewSession(usecases.SessionDeps{
		Blobs:  blobstore.NewDisk(cfg.Cache.Root),
		Loader: a.loader,
		Splitter: usecases.NewTextSplitter(
			cfg.Chunker.Separator, cfg.Chunker.Size, cfg.Chunker.Overlap,
		),
		Retriever: usecases.NewRetriever(
			embedder,
			cachestore.NewSQLiteOpener(cfg.Cache.Root),
			builder,
			cfg.Model.EmbeddingModel,
			cfg.Retriever.TopK,
		),
		Assembler: usecases.NewPromptAssembler(""),
		Engine:    usecases.NewGenerationEngine(chat),
		Memory:    usecases.NewWindowMemory(cfg.Memory.Window),
	})

	logger.GetLogger().WithFields(logrus.Fields{
		"session":   a.session.ID(),
		"backend":   cfg.Model.Backend,
		"model":     cfg.Model.ChatModel,
		"retriever": cfg.Retriever.Backend,
	}).Info("session ready")
	return a, nil
}

// newLoader registers .txt, the partition service for .pdf and .docx and,
// when enabled, the in-process .docx parser in its place.
func newLoader(cfg *config.Config, partition *parser.PartitionParser) *loader.MultiLoader {
	loaders := []ports.DocumentLoader{
		loader.NewTextLoader(),
		loader.NewParserLoader(partition),
	}
	if cfg.Parser.LocalDocx {
		loaders = append(loaders, loader.NewParserLoader(parser.NewDocxParser()))
	}
	return loader.NewMultiLoader(loaders...)
}

func newEmbedder(cfg *config.Config) (ports.EmbeddingService, error) {
	switch cfg.Model.Backend {
	case "openai":
		return embedding.NewOpenAIAdapter(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.EmbeddingModel), nil
	case "ollama":
		e, err := embedding.NewOllamaAdapter(cfg.Model.BaseURL, cfg.Model.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		return e, nil
	default:
		return nil, config.ErrUnknownModelBackend
	}
}

func newLLM(cfg *config.Config) (ports.LLMService, error) {
	switch cfg.Model.Backend {
	case "openai":
		return llm.NewOpenAIAdapter(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.ChatModel, cfg.Model.Temperature), nil
	case "ollama":
		l, err := llm.NewOllamaLLMAdapter(cfg.Model.BaseURL, cfg.Model.ChatModel, cfg.Model.Temperature)
		if err != nil {
			return nil, fmt.Errorf("creating chat model: %w", err)
		}
		return l, nil
	default:
		return nil, config.ErrUnknownModelBackend
	}
}

func (a *app) newIndexBuilder(cfg *config.Config) (ports.IndexBuilder, error) {
	switch cfg.Retriever.Backend {
	case "qdrant":
		b, err := vectordb.NewQdrantBuilder(cfg.Qdrant.Host, cfg.Qdrant.Port)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	case "memory":
		return vectordb.NewMemoryBuilder(), nil
	default:
		return nil, config.ErrUnknownRetrieverBackend
	}
}

// checkParser warns when the partition service cannot be reached.
func (a *app) checkParser(ctx context.Context) {
	if !a.partition.IsServiceHealthy(ctx) {
		logger.GetLogger().
			WithField("url", a.cfg.Parser.PartitionURL).
			Warn("partition service unreachable, .pdf uploads will fail")
	}
}

func (a *app) Close(ctx context.Context) error {
	errs := []error{a.session.Close(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
