package source

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/prereq/internal/ir"
)

// recordSchema is unified with every CUE input. #Record is a definition and
// therefore closed: unknown fields are rejected.
const recordSchema = `
#Record: {
	name:          string & !=""
	prerequisites: [...string] | *[]
}

records: [...#Record]
`

// parseCUE compiles a CUE document, unifies it with recordSchema and decodes
// the records field.
//
//	records: [
//		{name: "Math"},
//		{name: "Physics", prerequisites: ["Math"]},
//	]
func parseCUE(data []byte, name string) ([]ir.Record, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(recordSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUEError(ErrCodeGeneric, name, err)
	}

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fromCUEError(ErrCodeParseFailed, name, err)
	}

	recordsVal := v.LookupPath(cue.ParsePath("records"))
	if !recordsVal.Exists() {
		return nil, &LoadError{
			Code:    ErrCodeSchema,
			Message: "records is required",
			Path:    name,
			Pos:     v.Pos(),
		}
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUEError(ErrCodeSchema, name, err)
	}

	var records []ir.Record
	if err := unified.LookupPath(cue.ParsePath("records")).Decode(&records); err != nil {
		return nil, fromCUEError(ErrCodeSchema, name, err)
	}
	if records == nil {
		records = []ir.Record{}
	}
	return records, nil
}
