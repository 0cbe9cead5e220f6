package model

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// orderSchema mirrors Order.Validate as CUE constraints. Catalog files are
// checked against it so a bad tuple is reported with the offending field
// before any case runs.
const orderSchema = `
#Order: {
	p: int & >=0
	d: int & >=0
	q: int & >=0
	P: int & >=0
	D: int & >=0
	Q: int & >=0
	s: int & >=0
	length: int & >=0
	solver: string

	if P+D+Q > 0 {
		s: >0
	}
}

#Training: #Order

#CSS: #Order & {
	length: >0
	solver: "jacobi" | "forwardsub"
}
`

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
	schemaErr   error

	// *cue.Context is not safe for concurrent use.
	schemaMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaValue = schemaCtx.CompileString(orderSchema)
		schemaErr = schemaValue.Err()
	})
	return schemaCtx, schemaValue, schemaErr
}

// ValidateSchema checks o against the CUE definition for the variant.
func ValidateSchema(v Variant, o Order) error {
	ctx, schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile order schema: %w", err)
	}

	def := "#Training"
	if v == VariantCSS {
		def = "#CSS"
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	// The definition is not concrete until it is unified with an order, so
	// only its presence is checked here.
	constraint := schema.LookupPath(cue.ParsePath(def))
	if !constraint.Exists() {
		return fmt.Errorf("order schema has no %s definition", def)
	}

	unified := constraint.Unify(ctx.Encode(o))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("order %s does not satisfy %s: %w", o, def, err)
	}
	return nil
}
