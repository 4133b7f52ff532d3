package config

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

const (
	FilterTypeSlide = "FILTER_TYPE_SLIDE"
	FilterTypeBlock = "FILTER_TYPE_BLOCK"
)

// Filter decides whether a slide or a block is exported.
// Condition is an expr-lang expression evaluated against
// FilterSlideEnv or FilterBlockEnv, depending on Type.
type Filter struct {
	Type      string `yaml:"type" validate:"required,oneof=FILTER_TYPE_SLIDE FILTER_TYPE_BLOCK"`
	Condition string `yaml:"condition" validate:"required"`

	once       sync.Once
	program    *vm.Program
	compileErr error
}

// FilterSlideEnv is the environment of slide filters.
//
// The `expr` tag is used to map the field to the corresponding variable.
// Without it, all variables start with capitalized letters.
type FilterSlideEnv struct {
	Index  int    `expr:"index"`
	Title  string `expr:"title"`
	Layout string `expr:"layout"`
	Blocks int    `expr:"blocks"`
}

// FilterBlockEnv is the environment of block filters. Slide is the
// title of the slide the block belongs to.
type FilterBlockEnv struct {
	Type     string `expr:"type"`
	Text     string `expr:"text"`
	Language string `expr:"language"`
	Slide    string `expr:"slide"`
}

func (f *Filter) Evaluate(env interface{}) (bool, error) {
	f.once.Do(func() {
		program, err := expr.Compile(
			f.Condition,
			expr.Env(env),
			expr.AsBool(),
		)
		f.program, f.compileErr = program, errors.Wrap(err, "failed to compile filter program")
	})

	if f.program == nil {
		return false, f.compileErr
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, errors.Wrap(err, "failed to run filter program")
	}
	return result.(bool), nil
}
