package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

var infoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

// Validate compiles source without running it.
func Validate(name, source string) error {
	if _, err := goja.Compile(name, source, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidScript, name, err)
	}
	return nil
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterDOM(dom DocumentDOM) error {
	appObj := e.vm.NewObject()
	err := appObj.Set("alert", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		dom.Alert(msg)
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	if err := e.vm.Set("app", appObj); err != nil {
		return err
	}

	info := e.vm.NewObject()
	for _, key := range infoKeys {
		key := key
		getter := e.vm.ToValue(func(goja.FunctionCall) goja.Value {
			return e.vm.ToValue(dom.Info(key))
		})
		if err := info.DefineAccessorProperty(lowerFirst(key), getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return err
		}
	}
	if err := e.vm.Set("info", info); err != nil {
		return err
	}

	global := e.vm.GlobalObject()
	return global.DefineAccessorProperty("numPages",
		e.vm.ToValue(func(goja.FunctionCall) goja.Value { return e.vm.ToValue(dom.NumPages()) }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
