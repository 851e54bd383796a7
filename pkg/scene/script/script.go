// Package script evaluates scene scripts into snapshots.
//
// A scene script is a small Lisp program run in a sandboxed zygomys
// interpreter. It describes the active view, the symbol library and the
// elements to tag:
//
//	; ground floor, east wing
//	(view :floor-plan)
//	(default-library)
//	(family "Office Door Tag" :id "2001" :category :doors)
//	(element "w1" :category :walls :curve (vec3 0 0 0) (vec3 10 0 0) :curtain)
//	(element "d1" :category :doors :at (vec3 1 2 0))
//	(element "r1" :category :rooms :at (vec3 5 5 0) :level 12)
//
// Keywords (:floor-plan), kebab-case names (default-library) and ;
// comments are rewritten before evaluation. Every evaluation runs in a
// fresh interpreter and is bounded by a timeout.
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/scene"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

// Extensions lists the file extensions recognized as scene scripts.
var Extensions = []string{".tag", ".lisp"}

// IsScript reports whether path has a scene script extension.
func IsScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// EvalError is a script error with an optional source line.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Evaluator runs scene scripts. Every evaluation gets its own sandbox, so
// an Evaluator is safe for concurrent use.
type Evaluator struct {
	// Timeout bounds each evaluation; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewEvaluator returns an Evaluator with the default timeout.
func NewEvaluator() *Evaluator {
	return &Evaluator{Timeout: DefaultTimeout}
}

type evalResult struct {
	snap *scene.Snapshot
	err  error
}

// Evaluate runs source and returns the snapshot it describes.
//
// Parse and runtime errors are ErrCodeScript errors wrapping an
// [EvalError]. Exceeding the timeout is an ErrCodeTimeout error.
func (e *Evaluator) Evaluate(ctx context.Context, source string) (*scene.Snapshot, error) {
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: errors.New(errors.ErrCodeScript, "panic during evaluation: %v", r)}
			}
		}()
		snap, err := evaluate(source)
		ch <- evalResult{snap: snap, err: err}
	}()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.snap, res.err
	case <-timer.C:
		return nil, errors.New(errors.ErrCodeTimeout, "evaluation timed out after %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load reads and evaluates a script file.
func (e *Evaluator) Load(ctx context.Context, path string) (*scene.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	snap, err := e.Evaluate(ctx, string(data))
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func evaluate(source string) (*scene.Snapshot, error) {
	b := newBuilder()
	if strings.TrimSpace(source) == "" {
		return b.snapshot(), nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, scriptError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, scriptError(err)
	}
	return b.snapshot(), nil
}

var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// scriptError converts an interpreter error into a coded error carrying
// the source line when the interpreter reports one.
func scriptError(err error) error {
	return errors.Wrap(errors.ErrCodeScript, parseEvalError(err.Error()), "evaluate scene script")
}

func parseEvalError(msg string) EvalError {
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return EvalError{Message: strings.TrimSpace(msg)}
}
