package op

import (
	"fmt"
	"hash/fnv"
)

// Hash returns the FNV-64a hash of the canonical JSON encoding of ops.
// Equal sequences hash equally; the length is not mixed in, so callers that
// need it in a key should store it alongside.
func Hash(ops []Operation) uint64 {
	h := fnv.New64a()
	for _, o := range ops {
		data, err := o.MarshalJSON()
		if err != nil {
			// Only a zero or unencodable Operation gets here.
			fmt.Fprintf(h, "%#v", o)
		} else {
			_, _ = h.Write(data)
		}
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
