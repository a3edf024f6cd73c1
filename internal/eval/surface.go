package eval

import (
	"fmt"

	"github.com/rtm0/ukcaeval/internal/field"
)

// Surface returns the (lat, lon) map at the first time step and lowest
// model level.
func Surface(f *field.Field) (*field.Field, error) {
	var err error
	for _, dim := range []string{field.Time, field.Lev} {
		if f.Has(dim) {
			if f, err = f.SelectIndex(dim, 0); err != nil {
				return nil, err
			}
		}
	}
	if len(f.Dims) != 2 || f.Dims[0] != field.Lat || f.Dims[1] != field.Lon {
		return nil, fmt.Errorf("field %s: unhandled dimensions %v", f.Name, f.Dims)
	}
	return f, nil
}
