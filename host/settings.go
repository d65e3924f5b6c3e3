package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// settings holds the monitor's tunable values. Fields are addressed by
// case-insensitive unique prefix through the settings tree.
type settings struct {
	DisasmLines     int    // lines shown by the disassemble command
	MemDumpBytes    int    // bytes shown by memory dump
	StepLines       int    // trailing steps displayed after step <count>
	NextDisasmAddr  uint16 // address the next disassemble continues from
	NextMemDumpAddr uint16 // address the next memory dump continues from
	Trace           bool   // display each instruction while stepping
}

func newSettings() *settings {
	return &settings{
		DisasmLines:  10,
		MemDumpBytes: 64,
		StepLines:    20,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	settingsType := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, settingsType.NumField())
	for i := 0; i < len(settingsFields); i++ {
		f := settingsType.Field(i)
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		switch f.kind {
		case reflect.Uint16:
			fmt.Fprintf(w, "    %-20s $%04X\n", f.name, uint16(v.Uint()))
		default:
			fmt.Fprintf(w, "    %-20s %v\n", f.name, v)
		}
	}
}

func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.Find(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.Find(strings.ToLower(key))
	if err != nil {
		return err
	}

	vIn := reflect.ValueOf(value)
	if !vIn.Type().ConvertibleTo(f.typ) {
		return errors.New("invalid type")
	}

	vOut := reflect.ValueOf(s).Elem().Field(f.index).Addr().Elem()
	vOut.Set(vIn.Convert(f.typ))
	return nil
}
