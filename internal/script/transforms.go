package script

import (
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// RegisterTransforms adds the tag helpers under lanelet.transforms
func RegisterTransforms(L *lua.LState) {
	transforms := L.NewTable()
	L.SetField(transforms, "trim", L.NewFunction(luaTrim))
	L.SetField(transforms, "lower", L.NewFunction(luaLower))
	L.SetField(transforms, "upper", L.NewFunction(luaUpper))
	L.SetField(transforms, "parse_int", L.NewFunction(luaParseInt))
	L.SetField(transforms, "parse_real", L.NewFunction(luaParseReal))

	lanelet, ok := L.GetGlobal("lanelet").(*lua.LTable)
	if !ok {
		lanelet = L.NewTable()
		L.SetGlobal("lanelet", lanelet)
	}
	L.SetField(lanelet, "transforms", transforms)
}

func luaTrim(L *lua.LState) int {
	L.Push(lua.LString(strings.TrimSpace(L.CheckString(1))))
	return 1
}

func luaLower(L *lua.LState) int {
	L.Push(lua.LString(strings.ToLower(L.CheckString(1))))
	return 1
}

func luaUpper(L *lua.LState) int {
	L.Push(lua.LString(strings.ToUpper(L.CheckString(1))))
	return 1
}

// luaParseInt parses an integer, truncating reals, with optional default
func luaParseInt(L *lua.LState) int {
	s := strings.TrimSpace(L.CheckString(1))
	def := lua.LNumber(0)
	if L.GetTop() >= 2 {
		def = lua.LNumber(L.CheckInt64(2))
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		L.Push(lua.LNumber(v))
	} else if f, err := strconv.ParseFloat(s, 64); err == nil {
		L.Push(lua.LNumber(int64(f)))
	} else {
		L.Push(def)
	}
	return 1
}

// luaParseReal parses a float with optional default
func luaParseReal(L *lua.LState) int {
	s := strings.TrimSpace(L.CheckString(1))
	def := lua.LNumber(0)
	if L.GetTop() >= 2 {
		def = L.CheckNumber(2)
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		L.Push(lua.LNumber(v))
	} else {
		L.Push(def)
	}
	return 1
}
