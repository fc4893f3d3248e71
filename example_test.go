package marshal_test

import (
	"fmt"

	"github.com/wippyai/marshal"
	"github.com/wippyai/marshal/codec"
	"github.com/wippyai/marshal/registry"
	"github.com/wippyai/marshal/value"
)

type Employee struct {
	Name    string
	Manager *Employee
}

func Example() {
	reg := registry.New()
	if err := registry.RegisterType[Employee](reg, "Employee"); err != nil {
		panic(err)
	}
	m := marshal.New(reg, codec.DefaultOptions())

	boss := &Employee{Name: "Ada"}
	boss.Manager = boss
	staff := []any{boss, &Employee{Name: "Lin", Manager: boss}}

	data, err := m.Dump(staff)
	if err != nil {
		panic(err)
	}
	v, err := m.Load(data)
	if err != nil {
		panic(err)
	}

	out := v.([]any)
	ada, lin := out[0].(*Employee), out[1].(*Employee)
	fmt.Println(ada.Manager == ada, lin.Manager == ada)
	// Output: true true
}

func ExampleDump() {
	data, err := marshal.Dump([]any{1, value.Symbol("a"), value.MapOf(value.Symbol("k"), 2.5)})
	if err != nil {
		panic(err)
	}
	fmt.Printf("% x\n", data)
	// Output: 04 08 5b 03 69 01 3a 01 61 7b 01 3a 01 6b 66 00 00 00 00 00 00 04 40
}
