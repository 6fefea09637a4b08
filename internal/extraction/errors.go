package extraction

import "errors"

// ErrSchemaViolation indicates recipe data that does not satisfy the
// structured recipe contract.
var ErrSchemaViolation = errors.New("recipe schema violation")
