package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
)

// hook names per collection kind
var hooks = map[feature.Kind]string{
	feature.PointKind:      "process_point",
	feature.LineStringKind: "process_line_string",
	feature.PolygonKind:    "process_polygon",
}

// Runtime wraps a Lua state holding the user's layer hooks.
// A single LState is not goroutine safe, so calls are serialized.
type Runtime struct {
	L   *lua.LState
	mu  sync.Mutex
	log *zap.Logger
}

// NewRuntime creates a Lua runtime with the lanelet API registered
func NewRuntime() *Runtime {
	r := &Runtime{
		L:   lua.NewState(),
		log: logger.Named("script"),
	}
	r.registerAPI()
	return r
}

// Close releases Lua resources
func (r *Runtime) Close() {
	r.L.Close()
}

func (r *Runtime) registerAPI() {
	lanelet := r.L.NewTable()
	lanelet.RawSetString("version", lua.LString("1.0.0"))
	r.L.SetGlobal("lanelet", lanelet)

	RegisterTransforms(r.L)

	r.L.SetGlobal("print", r.L.NewFunction(r.luaPrint))
}

// LoadFile loads and executes a Lua script
func (r *Runtime) LoadFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua file: %w", err)
	}
	return nil
}

// LoadString executes Lua code
func (r *Runtime) LoadString(code string) error {
	if err := r.L.DoString(code); err != nil {
		return fmt.Errorf("failed to execute Lua code: %w", err)
	}
	return nil
}

// HasHook reports whether the script defines the hook for kind
func (r *Runtime) HasHook(kind feature.Kind) bool {
	return r.L.GetGlobal(hooks[kind]).Type() == lua.LTFunction
}

// Apply runs the kind's hook over every feature of the collection.
// A hook returning false drops the feature, a table replaces its tags
// and anything else keeps it unchanged. Without a hook c is returned as is.
func (r *Runtime) Apply(c *feature.Collection) (*feature.Collection, error) {
	if !r.HasHook(c.Kind()) {
		return c, nil
	}
	fn := r.L.GetGlobal(hooks[c.Kind()])

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	out := c.Filter(func(f *feature.Feature) (*feature.Feature, bool) {
		if firstErr != nil {
			return nil, false
		}
		ret, err := r.call(fn, c.Kind(), f)
		if err != nil {
			firstErr = fmt.Errorf("%s(%s): %w", hooks[c.Kind()], f.ID, err)
			return nil, false
		}
		switch v := ret.(type) {
		case lua.LBool:
			if !bool(v) {
				return nil, false
			}
		case *lua.LTable:
			return &feature.Feature{ID: f.ID, Geometry: f.Geometry, Properties: tableToProperties(f.ID, v)}, true
		}
		return f, true
	})
	if firstErr != nil {
		return nil, firstErr
	}

	r.log.Debug("Applied Lua hook",
		zap.String("hook", hooks[c.Kind()]),
		zap.Int("in", c.Len()),
		zap.Int("out", out.Len()))
	return out, nil
}

func (r *Runtime) call(fn lua.LValue, kind feature.Kind, f *feature.Feature) (lua.LValue, error) {
	if err := r.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, r.featureToLua(kind, f)); err != nil {
		return nil, fmt.Errorf("lua callback error: %w", err)
	}
	ret := r.L.Get(-1)
	r.L.Pop(1)
	return ret, nil
}

// featureToLua converts a feature to {id, kind, tags}
func (r *Runtime) featureToLua(kind feature.Kind, f *feature.Feature) *lua.LTable {
	tbl := r.L.NewTable()
	tbl.RawSetString("id", lua.LString(f.ID))
	tbl.RawSetString("kind", lua.LString(kind))

	tags := r.L.NewTable()
	f.Properties.Each(func(k string, v feature.Value) {
		if k == "id" {
			return
		}
		if n, ok := v.Num(); ok {
			tags.RawSetString(k, lua.LNumber(n))
			return
		}
		tags.RawSetString(k, lua.LString(v.String()))
	})
	tbl.RawSetString("tags", tags)
	return tbl
}

// tableToProperties converts a returned tag table into properties:
// id first, then string keys in sorted order
func tableToProperties(id string, tbl *lua.LTable) *feature.Properties {
	vals := make(map[string]feature.Value)
	tbl.ForEach(func(key, value lua.LValue) {
		ks, ok := key.(lua.LString)
		if !ok || string(ks) == "id" {
			return
		}
		switch v := value.(type) {
		case lua.LString:
			vals[string(ks)] = feature.StringValue(string(v))
		case lua.LNumber:
			vals[string(ks)] = feature.NumberValue(float64(v))
		case lua.LBool:
			vals[string(ks)] = feature.StringValue(strconv.FormatBool(bool(v)))
		}
	})

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := feature.NewProperties(len(keys) + 1)
	props.Set("id", feature.StringValue(id))
	for _, k := range keys {
		props.Set(k, vals[k])
	}
	return props
}

// luaPrint routes print output to the logger
func (r *Runtime) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.log.Info(strings.Join(parts, "\t"))
	return 0
}
