package codec

import (
	"fmt"
	"strconv"

	"github.com/wippyai/marshal/value"
)

type segmentKind uint8

const (
	segIndex segmentKind = iota
	segKey
	segField
)

// segment is one step of the traversal path, rendered only on error.
type segment struct {
	key   any
	field string
	index int
	kind  segmentKind
}

type pathStack []segment

func (p *pathStack) pushIndex(i int) {
	*p = append(*p, segment{kind: segIndex, index: i})
}

func (p *pathStack) pushKey(k any) {
	*p = append(*p, segment{kind: segKey, key: k})
}

func (p *pathStack) pushField(name string) {
	*p = append(*p, segment{kind: segField, field: name})
}

func (p *pathStack) pop() {
	*p = (*p)[:len(*p)-1]
}

func (p pathStack) strings() []string {
	if len(p) == 0 {
		return nil
	}
	out := make([]string, len(p))
	for i, seg := range p {
		switch seg.kind {
		case segIndex:
			out[i] = "[" + strconv.Itoa(seg.index) + "]"
		case segKey:
			out[i] = "[" + keyString(seg.key) + "]"
		default:
			out[i] = seg.field
		}
	}
	return out
}

// keyString renders primitive mapping keys. Composite keys may be cyclic
// and are shown by type only.
func keyString(k any) string {
	switch k := k.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(k)
	case value.Symbol:
		return k.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(k)
	default:
		return fmt.Sprintf("<%T>", k)
	}
}
