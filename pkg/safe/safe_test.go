package safe

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func decode(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

func TestGet(t *testing.T) {
	Convey("Given a decoded query_range response", t, func() {
		resp := decode(`{"data":{"result":[{"values":[[1700000000.5,"3"],[1700000030.5,"4"]]}]}}`)

		Convey("When the full path exists", func() {
			v, ok := Get(resp, "data", "result", 0, "values", 0, 1)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "3")
		})

		Convey("When an index is out of range", func() {
			_, ok := Get(resp, "data", "result", 1, "values")
			So(ok, ShouldBeFalse)
		})

		Convey("When a key is missing", func() {
			_, ok := Get(resp, "data", "nope", 0)
			So(ok, ShouldBeFalse)
		})

		Convey("When the path indexes into a scalar", func() {
			_, ok := Get(resp, "data", "result", 0, "values", 0, 1, "x")
			So(ok, ShouldBeFalse)
		})

		Convey("When the path uses an unsupported key type", func() {
			_, ok := Get(resp, "data", 1.5)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given nil input", t, func() {
		_, ok := Get(nil, "data")
		So(ok, ShouldBeFalse)
		So(String(nil, "fallback", "a"), ShouldEqual, "fallback")
		So(Float64(nil, 7, "a"), ShouldEqual, 7.0)
		So(Truthy(nil, "a"), ShouldBeFalse)
	})
}

func TestTypedAccessors(t *testing.T) {
	Convey("Given mixed values", t, func() {
		v := decode(`{"s":"1","n":2.5,"z":0,"e":"","f":false,"t":true,"o":{},"a":[],"null":null,"bad":"x1"}`)

		Convey("Then String only accepts strings", func() {
			So(String(v, "d", "s"), ShouldEqual, "1")
			So(String(v, "d", "n"), ShouldEqual, "d")
		})

		Convey("Then Float64 parses numeric strings and falls back otherwise", func() {
			So(Float64(v, -1, "s"), ShouldEqual, 1.0)
			So(Float64(v, -1, "n"), ShouldEqual, 2.5)
			So(Float64(v, -1, "bad"), ShouldEqual, -1.0)
			So(Float64(v, -1, "missing"), ShouldEqual, -1.0)
		})

		Convey("Then Truthy follows JSON truthiness", func() {
			So(Truthy(v, "s"), ShouldBeTrue)
			So(Truthy(v, "n"), ShouldBeTrue)
			So(Truthy(v, "t"), ShouldBeTrue)
			So(Truthy(v, "o"), ShouldBeTrue)
			So(Truthy(v, "a"), ShouldBeTrue)
			So(Truthy(v, "z"), ShouldBeFalse)
			So(Truthy(v, "e"), ShouldBeFalse)
			So(Truthy(v, "f"), ShouldBeFalse)
			So(Truthy(v, "null"), ShouldBeFalse)
			So(Truthy(v, "missing"), ShouldBeFalse)
		})
	})

	Convey("Given typed Go maps", t, func() {
		v := map[string]any{
			"counts": []map[string]any{{"n": 1}},
			"inner":  map[any]any{"x": 3},
		}

		So(Float64(v, 0, "counts", 0, "n"), ShouldEqual, 1.0)
		So(Float64(v, 0, "inner", "x"), ShouldEqual, 3.0)
	})
}
