package interp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/natan/internal/config/tree"
)

// luaRemovedGlobals are base-library functions that reach outside the
// sandbox or load code.
var luaRemovedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"print",
	"collectgarbage",
	"getfenv",
	"setfenv",
	"newproxy",
	"_printregs",
}

// luaEvaluator evaluates snippets with gopher-lua. Each snippet runs in a
// fresh state with only the base, table, string and math libraries opened,
// so globals set by one snippet are never seen by another.
type luaEvaluator struct {
	builtins Builtins
	timeout  time.Duration
}

func newLuaEvaluator(b Builtins, timeout time.Duration) (Evaluator, error) {
	return &luaEvaluator{builtins: b, timeout: timeout}, nil
}

func (e *luaEvaluator) newState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	// io, os, debug and package stay closed.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetTop(0)

	for _, name := range luaRemovedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	e.installBuiltins(L)
	return L
}

func (e *luaEvaluator) installBuiltins(L *lua.LState) {
	env := L.NewTable()
	meta := L.NewTable()
	L.SetField(meta, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if v, ok := e.builtins.Env.LookupEnv(name); ok {
			L.Push(lua.LString(v))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	L.SetField(meta, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("env is read-only")
		return 0
	}))
	L.SetMetatable(env, meta)
	L.SetGlobal("env", env)

	L.SetGlobal("hostname", L.NewFunction(func(L *lua.LState) int {
		name, err := e.builtins.Hostname()
		if err != nil {
			L.RaiseError("hostname: %v", err)
			return 0
		}
		L.Push(lua.LString(name))
		return 1
	}))

	L.SetGlobal("uuid", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(uuid.NewString()))
		return 1
	}))

	hostErrMeta := L.NewTable()
	L.SetField(hostErrMeta, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		if err, ok := ud.Value.(error); ok {
			L.Push(lua.LString(err.Error()))
		} else {
			L.Push(lua.LString("error"))
		}
		return 1
	}))

	L.SetGlobal("key", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		v, err := e.builtins.Key(path)
		if err != nil {
			// Raised as userdata so the typed error survives unless the
			// snippet catches it.
			ud := L.NewUserData()
			ud.Value = err
			L.SetMetatable(ud, hostErrMeta)
			L.Error(ud, 1)
			return 0
		}
		L.Push(toLua(L, v))
		return 1
	}))
}

// Eval implements Evaluator. The body is first tried as an expression and
// then as a chunk, so "1 + 1" and "local x = 2; return x * x" both work.
func (e *luaEvaluator) Eval(ctx context.Context, expr string) (any, error) {
	fail := func(cause error) (any, error) {
		return nil, &EvaluationError{Engine: "lua", Expr: expr, Err: cause}
	}

	L := e.newState()
	defer L.Close()

	fn, err := L.LoadString("return (" + expr + ")")
	if err != nil {
		fn, err = L.LoadString(expr)
		if err != nil {
			return fail(err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	L.SetContext(ctx)

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		L.Push(fn)
		callErr = L.PCall(0, 1, nil)
	}()

	if callErr != nil {
		if hostErr := luaHostError(callErr); hostErr != nil {
			return nil, hostErr
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fail(ErrEvaluationTimeout)
		}
		return fail(callErr)
	}

	v, err := fromLua(L.Get(-1), 0)
	if err != nil {
		return fail(err)
	}
	return v, nil
}

// Close implements Evaluator.
func (e *luaEvaluator) Close() {}

// luaHostError returns the Go error raised by key() when it is the error
// that ended the snippet.
func luaHostError(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return nil
	}
	ud, ok := apiErr.Object.(*lua.LUserData)
	if !ok {
		return nil
	}
	hostErr, _ := ud.Value.(error)
	return hostErr
}

const maxLuaDepth = 64

// fromLua converts a Lua value into a tree value. Integral numbers become
// int64, tables with keys 1..n become arrays and other tables become maps
// with sorted keys.
func fromLua(lv lua.LValue, depth int) (any, error) {
	if depth > maxLuaDepth {
		return nil, errors.New("result nested too deeply")
	}

	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return int64(f), nil
		}
		return f, nil
	case lua.LString:
		return string(v), nil
	case *lua.LTable:
		return tableFromLua(v, depth)
	default:
		return nil, fmt.Errorf("cannot use a Lua %s as a config value", lv.Type())
	}
}

func tableFromLua(t *lua.LTable, depth int) (any, error) {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			v, err := fromLua(t.RawGetInt(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i-1] = v
		}
		return arr, nil
	}

	type entry struct {
		key   string
		value lua.LValue
	}
	var entries []entry
	var keyErr error
	t.ForEach(func(k, v lua.LValue) {
		switch kv := k.(type) {
		case lua.LString:
			entries = append(entries, entry{string(kv), v})
		case lua.LNumber:
			entries = append(entries, entry{strconv.FormatFloat(float64(kv), 'f', -1, 64), v})
		default:
			keyErr = fmt.Errorf("cannot use a Lua %s as a map key", k.Type())
		}
	})
	if keyErr != nil {
		return nil, keyErr
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	m := tree.NewMap()
	for _, e := range entries {
		v, err := fromLua(e.value, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(e.key, v)
	}
	return m, nil
}

// toLua converts a tree value into a Lua value. Regular expressions are
// passed as their pattern.
func toLua(L *lua.LState, v any) lua.LValue {
	switch n := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(n)
	case int64:
		return lua.LNumber(n)
	case float64:
		return lua.LNumber(n)
	case string:
		return lua.LString(n)
	case *regexp.Regexp:
		return lua.LString(n.String())
	case []any:
		t := L.NewTable()
		for _, e := range n {
			t.Append(toLua(L, e))
		}
		return t
	case *tree.Map:
		t := L.NewTable()
		n.Each(func(key string, value any) bool {
			t.RawSetString(key, toLua(L, value))
			return true
		})
		return t
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
