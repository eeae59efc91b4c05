// Command libbdemo exercises the setting and taskrun packages together: it
// builds a locked configuration tree from flags, environment, and an optional
// snapshot file, then pushes a batch of demo tasks through a rate-limited
// executor under a per-task timeout guard.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bissli/libb-util/setting"
	"github.com/bissli/libb-util/taskrun"
)

func main() {
	app := kingpin.New("libbdemo", "Demo harness for the libb-util configuration and execution packages")
	envPrefix := app.Flag("env-prefix", "Environment variable prefix for option resolution").Default("CONFIG_").String()
	configFile := app.Flag("config", "Path to an optional TOML/JSON/YAML snapshot file").String()
	workers := app.Flag("workers", "Executor worker count").Default("-1").Int()
	queueDepth := app.Flag("queue", "Admission queue depth (defaults to twice the worker count)").Default("-1").Int()
	rps := app.Flag("rps", "Dispatch rate limit in tasks per second (0 disables)").Default("-1").Float64()
	burst := app.Flag("burst", "Rate limiter burst capacity").Default("-1").Int()
	taskTimeout := app.Flag("task-timeout", "Per-task wall-clock limit").Default("0s").Duration()
	taskCount := app.Flag("tasks", "Number of demo tasks to run").Default("-1").Int()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := newLogger()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := buildConfig(*envPrefix, *configFile, cliOverrides(*workers, *queueDepth, *rps, *burst, *taskTimeout, *taskCount))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logResolved(logger, cfg)

	if err := runTasks(cfg, logger); err != nil {
		logger.Fatal("task run failed", zap.Error(err))
	}
}

// options declares every tunable the demo understands. Environment variables
// follow the <PREFIX><OPTION> convention, e.g. CONFIG_EXECUTOR_WORKERS.
func options() []setting.Option {
	return []setting.Option{
		{Name: "executor.workers", Default: 4, Parse: setting.ParseInt},
		{Name: "executor.queue", Default: 8, Parse: setting.ParseInt},
		{Name: "executor.rps", Default: 0.0, Parse: setting.ParseFloat},
		{Name: "executor.burst", Default: 1, Parse: setting.ParseInt},
		{Name: "demo.task-timeout", Default: 2 * time.Second, Parse: setting.ParseDuration},
		{Name: "demo.tasks", Default: 16, Parse: setting.ParseInt},
	}
}

// cliOverrides maps sentinel-defaulted flags onto explicit overrides, the
// highest-priority configuration source.
func cliOverrides(workers, queueDepth int, rps float64, burst int, taskTimeout time.Duration, taskCount int) map[string]any {
	overrides := make(map[string]any)
	if workers >= 0 {
		overrides["executor.workers"] = workers
	}
	if queueDepth >= 0 {
		overrides["executor.queue"] = queueDepth
	}
	if rps >= 0 {
		overrides["executor.rps"] = rps
	}
	if burst >= 0 {
		overrides["executor.burst"] = burst
	}
	if taskTimeout > 0 {
		overrides["demo.task-timeout"] = taskTimeout
	}
	if taskCount >= 0 {
		overrides["demo.tasks"] = taskCount
	}
	return overrides
}

func buildConfig(envPrefix, configFile string, overrides map[string]any) (*setting.Setting, error) {
	b := setting.NewBuilder().
		WithOptions(options()...).
		WithEnvPrefix(envPrefix).
		WithValidator(func(s *setting.Setting) error {
			if n, err := s.Int64("executor.workers"); err != nil || n < 1 {
				return fmt.Errorf("executor.workers must be at least 1")
			}
			return nil
		})
	if configFile != "" {
		b = b.WithFile(configFile)
	}
	for name, value := range overrides {
		b = b.WithOverride(name, value)
	}
	return b.Build()
}

func logResolved(logger *zap.Logger, cfg *setting.Setting) {
	fields := make([]zap.Field, 0, 8)
	for _, path := range cfg.Paths("") {
		if v, ok := cfg.GetPath(path); ok {
			fields = append(fields, zap.Any(path, v))
		}
	}
	logger.Info("resolved configuration", fields...)
}

func runTasks(cfg *setting.Setting, logger *zap.Logger) error {
	workers, _ := cfg.Int64("executor.workers")
	queueDepth, _ := cfg.Int64("executor.queue")
	rps, _ := cfg.Float64("executor.rps")
	burst, _ := cfg.Int64("executor.burst")
	timeout, _ := cfg.Duration("demo.task-timeout")
	count, _ := cfg.Int64("demo.tasks")

	opts := []taskrun.ExecutorOption{
		taskrun.WithQueueDepth(int(queueDepth)),
		taskrun.WithLogger(logger),
	}
	if rps > 0 {
		opts = append(opts, taskrun.WithRateLimit(rps, int(burst)))
	}

	ex, err := taskrun.NewExecutor(int(workers), opts...)
	if err != nil {
		return err
	}

	futures := make([]*taskrun.Future[any], 0, count)
	for i := int64(0); i < count; i++ {
		i := i
		fut, err := ex.Submit(func() (any, error) {
			return taskrun.WithTimeout(timeout, func() (string, error) {
				time.Sleep(time.Duration(rand.Intn(100)) * time.Millisecond)
				return fmt.Sprintf("task-%d", i), nil
			})
		})
		if err != nil {
			return err
		}
		futures = append(futures, fut)
	}

	var failed int
	for _, fut := range futures {
		if v, err := fut.Result(); err != nil {
			failed++
			logger.Warn("task failed", zap.Error(err))
		} else {
			logger.Info("task completed", zap.Any("result", v))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskrun.DefaultShutdownTimeout)
	defer cancel()
	if err := ex.Shutdown(ctx); err != nil {
		return fmt.Errorf("executor drain: %w", err)
	}

	logger.Info("run complete", zap.Int64("tasks", count), zap.Int("failed", failed))
	return nil
}

// newLogger builds a production JSON logger.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
