package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrRuntimeNotFound     = errors.New("runtime not found")
)

// pistonLanguages maps playground language ids to Piston runtime names.
var pistonLanguages = map[string]string{
	"python":     "python",
	"javascript": "javascript",
	"java":       "java",
	"cpp":        "c++",
	"sql":        "sqlite3",
}

const (
	runtimesTTL       = 10 * time.Minute
	compileTimeoutMS  = 10000
	runTimeoutMS      = 3000
	pistonHTTPTimeout = 30 * time.Second
)

type Execution struct {
	Output        string `json:"output"`
	Stderr        string `json:"stderr"`
	ExitCode      int    `json:"exit_code"`
	Signal        string `json:"signal,omitempty"`
	ExecutionTime string `json:"execution_time"`
	Language      string `json:"language"`
	Version       string `json:"version"`
}

// Executor runs untrusted code in a remote sandbox.
type Executor interface {
	Execute(ctx context.Context, language, code, stdin string) (*Execution, error)
}

type pistonRuntime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	Args               []string     `json:"args"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

// PistonExecutor executes code through the Piston API. The runtime list is
// cached for runtimesTTL.
type PistonExecutor struct {
	baseURL    string
	logger     *zap.Logger
	now        func() time.Time
	newBackoff func() retry.Backoff

	mu        sync.Mutex
	runtimes  []pistonRuntime
	fetchedAt time.Time
}

func NewPistonExecutor(baseURL string, logger *zap.Logger) *PistonExecutor {
	return &PistonExecutor{
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
		},
	}
}

func SupportedLanguage(language string) bool {
	_, ok := pistonLanguages[language]
	return ok
}

func (p *PistonExecutor) Execute(ctx context.Context, language, code, stdin string) (*Execution, error) {
	pistonLanguage, ok := pistonLanguages[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	runtime, err := p.findRuntime(ctx, pistonLanguage)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Executing code",
		zap.String("language", runtime.Language),
		zap.String("version", runtime.Version),
		zap.Int("code_length", len(code)),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	status, body, errs := fiber.Post(p.baseURL + "/execute").
		Timeout(pistonHTTPTimeout).
		JSON(pistonRequest{
			Language:           runtime.Language,
			Version:            runtime.Version,
			Files:              []pistonFile{{Content: code}},
			Stdin:              stdin,
			Args:               []string{},
			CompileTimeout:     compileTimeoutMS,
			RunTimeout:         runTimeoutMS,
			CompileMemoryLimit: -1,
			RunMemoryLimit:     -1,
		}).
		Bytes()
	elapsed := time.Since(start)
	if len(errs) > 0 {
		return nil, fmt.Errorf("piston execute: %w", errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		msg := gjson.GetBytes(body, "message").String()
		return nil, fmt.Errorf("piston execute: status %d: %s", status, msg)
	}

	result := gjson.ParseBytes(body)
	return &Execution{
		Output:        firstNonEmpty(result.Get("run.output").String(), result.Get("compile.output").String()),
		Stderr:        firstNonEmpty(result.Get("run.stderr").String(), result.Get("compile.stderr").String()),
		ExitCode:      int(firstNonZero(result.Get("run.code").Int(), result.Get("compile.code").Int())),
		Signal:        firstNonEmpty(result.Get("run.signal").String(), result.Get("compile.signal").String()),
		ExecutionTime: fmt.Sprintf("%dms", elapsed.Milliseconds()),
		Language:      runtime.Language,
		Version:       runtime.Version,
	}, nil
}

func (p *PistonExecutor) findRuntime(ctx context.Context, language string) (pistonRuntime, error) {
	runtimes, err := p.listRuntimes(ctx)
	if err != nil {
		return pistonRuntime{}, err
	}
	for _, r := range runtimes {
		if r.Language == language {
			return r, nil
		}
	}
	return pistonRuntime{}, fmt.Errorf("%w: %s", ErrRuntimeNotFound, language)
}

func (p *PistonExecutor) listRuntimes(ctx context.Context) ([]pistonRuntime, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runtimes != nil && p.now().Sub(p.fetchedAt) < runtimesTTL {
		return p.runtimes, nil
	}

	var runtimes []pistonRuntime
	err := retry.Do(ctx, p.newBackoff(), func(ctx context.Context) error {
		status, body, errs := fiber.Get(p.baseURL + "/runtimes").Timeout(pistonHTTPTimeout).Bytes()
		if len(errs) > 0 {
			return retry.RetryableError(errors.Join(errs...))
		}
		if status >= 500 {
			return retry.RetryableError(fmt.Errorf("status %d", status))
		}
		if status != fiber.StatusOK {
			return fmt.Errorf("status %d", status)
		}
		return json.Unmarshal(body, &runtimes)
	})
	if err != nil {
		return nil, fmt.Errorf("piston runtimes: %w", err)
	}

	p.runtimes = runtimes
	p.fetchedAt = p.now()
	return runtimes, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
