package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hammamikhairi/souschef/internal/clock"
	"github.com/hammamikhairi/souschef/internal/config"
	"github.com/hammamikhairi/souschef/internal/conversation"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/gpt"
	"github.com/hammamikhairi/souschef/internal/recipe"
	"github.com/hammamikhairi/souschef/internal/speech"
	"github.com/hammamikhairi/souschef/internal/storage"
	"github.com/hammamikhairi/souschef/internal/timer"
)

const redisPingTimeout = 3 * time.Second

// deps is what the serve and cook front ends share.
type deps struct {
	recipes   domain.RecipeSource
	pantry    domain.PantryStore
	timers    *timer.Registry
	assistant domain.Assistant // nil when no GPT credentials are set
	narrator  *speech.Narrator // nil when narration is off
}

// wire builds the shared dependencies from the configuration.
func (a *app) wire(ctx context.Context) (*deps, error) {
	recipes, err := a.recipeSource(ctx)
	if err != nil {
		return nil, err
	}
	pantry, err := a.pantryStore()
	if err != nil {
		return nil, err
	}
	timers := timer.NewRegistry(clock.System{}, a.log.Named("timers"))

	return &deps{
		recipes:   recipes,
		pantry:    pantry,
		timers:    timers,
		assistant: a.assistant(timers),
		narrator:  a.narrator(ctx),
	}, nil
}

// ── Recipes ──────────────────────────────────────────────────────

func (a *app) recipeSource(ctx context.Context) (domain.RecipeSource, error) {
	cfg := a.cfg.Recipes

	if cfg.Source == config.SourceMemory {
		mem := recipe.NewMemorySource(a.log.Named("recipes"))
		if cfg.BookPath != "" {
			n, err := mem.LoadBook(cfg.BookPath)
			if err != nil {
				return nil, fmt.Errorf("loading recipe book: %w", err)
			}
			a.log.Info("loaded %d recipes from %s", n, cfg.BookPath)
		}
		return mem, nil
	}

	src := recipe.NewMealDBSource(a.log.Named("mealdb"), recipe.WithBaseURL(cfg.MealDBURL))
	ttl := cfg.CacheTTL.Std()
	if ttl <= 0 {
		return src, nil
	}
	return recipe.NewCachedSource(src, a.cacheStore(ctx), ttl, a.log.Named("recipe-cache")), nil
}

// cacheStore prefers Redis and falls back to an in-process map when Redis
// is not configured or does not answer.
func (a *app) cacheStore(ctx context.Context) recipe.Store {
	if !a.cfg.Redis.Enabled() {
		return recipe.NewMapStore(clock.System{})
	}
	opts, err := a.cfg.Redis.Options()
	if err != nil {
		a.log.Warn("redis config: %v, caching in process", err)
		return recipe.NewMapStore(clock.System{})
	}

	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		rdb.Close()
		a.log.Warn("redis at %s unreachable, caching in process: %v", opts.Addr, err)
		return recipe.NewMapStore(clock.System{})
	}
	a.onClose(rdb.Close)
	a.log.Info("recipe cache: redis at %s", opts.Addr)
	return recipe.NewRedisStore(rdb)
}

// ── Pantry ───────────────────────────────────────────────────────

func (a *app) pantryStore() (domain.PantryStore, error) {
	path := a.cfg.Pantry.DBPath
	if path == "" {
		return storage.NewMemoryStore(a.log.Named("pantry")), nil
	}
	db, err := storage.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening pantry: %w", err)
	}
	a.onClose(db.Close)
	return storage.NewSQLiteStore(db, a.log.Named("pantry")), nil
}

// ── Assistant ────────────────────────────────────────────────────

func (a *app) assistant(timers *timer.Registry) domain.Assistant {
	cfg := a.cfg.GPT
	if !cfg.Enabled() {
		a.log.Info("assistant disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT to enable")
		return nil
	}

	var opts []gpt.ClientOption
	if cfg.Model != "" {
		opts = append(opts, gpt.WithModel(cfg.Model))
	}
	if cfg.Bearer {
		opts = append(opts, gpt.WithBearerAuth())
	}
	client := gpt.NewClient(cfg.Endpoint, cfg.Key, a.log.Named("gpt"), opts...)
	a.log.Info("assistant enabled")
	return gpt.NewAgent(client, a.log.Named("agent"), gpt.WithTimers(timers.List))
}

// ── Speech ───────────────────────────────────────────────────────

// narrator starts Azure narration, or returns nil when it is not
// configured or no audio device can be opened.
func (a *app) narrator(ctx context.Context) *speech.Narrator {
	cfg := a.cfg.Speech
	if !cfg.TTSEnabled() {
		a.log.Info("narration disabled: set AZURE_SPEECH_KEY and AZURE_SPEECH_REGION to enable")
		return nil
	}

	player, err := speech.NewPlayer(a.log.Named("player"))
	if err != nil {
		a.log.Error("audio player init failed, narration disabled: %v", err)
		return nil
	}
	tts := speech.NewAzureClient(cfg.AzureKey, cfg.AzureRegion, a.log.Named("tts"),
		speech.WithVoice(cfg.Voice),
	)
	n := speech.NewNarrator(tts, player, a.log.Named("narrator"),
		speech.WithCacheDir(cfg.CacheDir),
		speech.WithDiskWrite(cfg.DiskCache),
	)
	n.Start(ctx)
	a.log.Info("narration enabled (voice=%s, region=%s)", cfg.Voice, cfg.AzureRegion)
	return n
}

// recognizer builds the Whisper recognizer. narrator may be nil.
func (a *app) recognizer(narrator *speech.Narrator) *speech.Recognizer {
	cfg := a.cfg.Speech
	tempDir := filepath.Join(filepath.Dir(cfg.CacheDir), "stt")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		a.log.Warn("creating %s: %v", tempDir, err)
	}

	opts := []speech.RecognizerOption{
		speech.WithChunkDuration(cfg.Chunk.Std()),
		speech.WithTempDir(tempDir),
	}
	if narrator != nil {
		opts = append(opts, speech.WithNarrator(narrator))
	}
	return speech.NewRecognizer(cfg.WhisperBin, cfg.WhisperModel, a.log.Named("stt"), opts...)
}

// ── Engine ───────────────────────────────────────────────────────

func (a *app) engine(d *deps, notifier domain.Notifier) *engine.Engine {
	var opts []engine.Option
	if d.assistant != nil {
		opts = append(opts, engine.WithAssistant(d.assistant))
	}
	parser := conversation.NewKeywordParser(a.log.Named("parser"))
	return engine.New(d.recipes, parser, d.timers, notifier, a.log.Named("engine"), opts...)
}

func (a *app) supervisor(timers *timer.Registry, notifier domain.Notifier) *timer.Supervisor {
	return timer.New(timers, notifier, a.log.Named("supervisor"),
		timer.WithTickInterval(a.cfg.Timers.TickInterval.Std()),
		timer.WithAlmostDoneThreshold(a.cfg.Timers.AlmostDone.Std()),
		timer.WithWatcher(),
	)
}
