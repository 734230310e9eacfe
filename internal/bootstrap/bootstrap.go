package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/docgate/internal/config"
	"github.com/kirillkom/docgate/internal/core/analysis"
	"github.com/kirillkom/docgate/internal/core/lexicon"
	"github.com/kirillkom/docgate/internal/core/normalize"
	"github.com/kirillkom/docgate/internal/core/ports"
	"github.com/kirillkom/docgate/internal/core/scoring"
	"github.com/kirillkom/docgate/internal/core/usecase"
	"github.com/kirillkom/docgate/internal/infrastructure/command"
	"github.com/kirillkom/docgate/internal/infrastructure/convert/libreoffice"
	"github.com/kirillkom/docgate/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/docgate/internal/infrastructure/ocr/vision"
	"github.com/kirillkom/docgate/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docgate/internal/infrastructure/render/poppler"
	"github.com/kirillkom/docgate/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docgate/internal/infrastructure/resilience"
	"github.com/kirillkom/docgate/internal/infrastructure/storage/localfs"
)

// Pipeline is the validation core without persistence or messaging. The CLI
// and the MCP server run on it directly.
type Pipeline struct {
	Lexicon   *lexicon.Lexicon
	Validator *usecase.ValidateDocumentUseCase

	closeFn func()
}

func NewPipeline(cfg config.Config, observer ports.ValidationObserver, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lex, err := lexicon.LoadFile(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	scorer := scoring.NewScorer(lex, cfg.LabelBonusCap)

	runner := command.NewExecRunner(logger)
	renderer := poppler.NewRenderer(poppler.Config{
		Binary:  cfg.PdftoppmBin,
		DPI:     cfg.RenderDPI,
		Timeout: cfg.ConversionTimeout,
	}, runner, logger)
	converter := libreoffice.NewConverter(libreoffice.Config{
		Binary:  cfg.SofficeBin,
		Timeout: cfg.ConversionTimeout,
	}, runner, logger)
	normalizer := normalize.New(renderer, converter, normalize.Options{
		ImageTypes:  cfg.AllowedImageMimeTypes,
		PDFTypes:    cfg.AllowedPDFMimeTypes,
		OfficeTypes: cfg.AllowedOfficeMimeTypes,
		MaxPages:    cfg.MaxPages,
	}, logger)

	recognizer, closeRecognizer, err := newRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	analyzer := analysis.New(recognizer, analysis.Options{
		LabelAllowlist: cfg.DocLabelAllowlist,
		LanguageHints:  cfg.OCRLanguageHints,
		Timeout:        cfg.OCRTimeout,
		Parallelism:    cfg.OCRPageParallelism,
	}, logger)

	validator := usecase.NewValidateDocumentUseCase(normalizer, analyzer, scorer, observer, usecase.GateConfig{
		MinChars:  cfg.MinOCRChars,
		Threshold: cfg.ClassifyThreshold,
	}, logger)

	logger.Info("pipeline_ready",
		"ocr_provider", cfg.OCRProvider,
		"lexicon_version", lex.Version(),
		"accepted_categories", len(lex.Accepted()),
		"max_pages", cfg.MaxPages,
	)

	return &Pipeline{
		Lexicon:   lex,
		Validator: validator,
		closeFn:   closeRecognizer,
	}, nil
}

func (p *Pipeline) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}

func newRecognizer(cfg config.Config, logger *slog.Logger) (ports.PageRecognizer, func(), error) {
	switch cfg.OCRProvider {
	case "tesseract":
		rec, err := tesseract.New(tesseract.Config{
			Languages: cfg.TesseractLanguages,
			Workers:   cfg.OCRPageParallelism,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init tesseract: %w", err)
		}
		return rec, func() { _ = rec.Close() }, nil
	default:
		breaker := resilience.NoRetryConfig()
		breaker.BreakerEnabled = cfg.OCRBreakerEnabled
		guard := resilience.NewGuard(resilience.GuardConfig{
			Breaker:       breaker,
			RatePerSecond: cfg.OCRRateLimitRPS,
			Burst:         cfg.OCRRateLimitBurst,
			Timeout:       cfg.OCRTimeout,
		}, logger)
		return vision.New(vision.Config{
			BaseURL: cfg.VisionURL,
			APIKey:  cfg.VisionAPIKey,
		}, guard, logger), func() {}, nil
	}
}

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.ValidationRepository
	Validator ports.DocumentValidator
	SubmitUC  ports.ValidationSubmitter
	ProcessUC ports.ValidationProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, observer ports.ValidationObserver, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pipeline, err := NewPipeline(cfg, observer, logger)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		pipeline.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewValidationRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		pipeline.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		pipeline.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, nats.Options{
		RequestSubject:     cfg.NATSRequestSubject,
		DecisionSubject:    cfg.NATSDecisionSubject,
		ResilienceExecutor: resilience.NewExecutorWithLogger(resilience.DefaultConfig(), logger),
		Logger:             logger,
	})
	if err != nil {
		pipeline.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	submitUC := usecase.NewSubmitValidationUseCase(pipeline.Validator, repo, storage, queue, logger)
	processUC := usecase.NewProcessValidationUseCase(repo, storage, pipeline.Validator, queue, logger)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		Validator: pipeline.Validator,
		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
			pipeline.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
