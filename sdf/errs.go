package sdf

import (
	"errors"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/textfmt"
	"github.com/signadot/go-sdf/value"
)

var (
	ErrDuplicateSpec         = errors.New("duplicate spec")
	ErrSpecNotFound          = errors.New("spec not found")
	ErrInvalidParent         = errors.New("invalid parent")
	ErrNamespaceEditConflict = errors.New("namespace edit conflict")
	ErrOpen                  = errors.New("cannot open layer")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrNotWritable           = errors.New("layer not writable")
	ErrChildrenField         = errors.New("children fields are maintained by the spec tree")
	ErrRequiredField         = errors.New("field is required")

	ErrInvalidPathOperation = sdfpath.ErrInvalidPathOperation
	ErrParse                = textfmt.ErrParse
	ErrTypeMismatch         = value.ErrTypeMismatch
	ErrUnknownType          = value.ErrUnknownType
	ErrUnknownField         = sdfdata.ErrUnknownField
)
