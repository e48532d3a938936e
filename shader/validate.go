package shader

import (
	"errors"

	"github.com/gogpu/naga"
)

// Validate checks WGSL source without a device: it parses the source, lowers
// it to naga IR and runs the IR validator on the result, so broken source is
// rejected before it reaches the driver.
func Validate(src string) error {
	ast, err := naga.Parse(src)
	if err != nil {
		return &Error{Kind: ErrInvalidWGSL, Subject: "source", Err: err}
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return &Error{Kind: ErrInvalidWGSL, Subject: "source", Err: err}
	}
	issues, err := naga.Validate(module)
	if err != nil {
		return &Error{Kind: ErrInvalidWGSL, Subject: "source", Err: err}
	}
	if len(issues) > 0 {
		errs := make([]error, len(issues))
		for i, issue := range issues {
			errs[i] = issue
		}
		return &Error{Kind: ErrInvalidWGSL, Subject: "source", Err: errors.Join(errs...)}
	}
	return nil
}
