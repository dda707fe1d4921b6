package model

import "errors"

// Tree assembly errors. NewTree wraps them with the offending path.
var (
	ErrInvalidMnemonic   = errors.New("invalid mnemonic")
	ErrAmbiguousMnemonic = errors.New("ambiguous sibling mnemonics")
	ErrMultipleDefaults  = errors.New("more than one default child")
	ErrLeafWithChildren  = errors.New("leaf has both handler and children")
	ErrEmptyBranch       = errors.New("branch has no children")
	ErrNoHandler         = errors.New("leaf has no handler")
	ErrNoHandlerMode     = errors.New("handler implements neither event nor query")
	ErrCommonPlacement   = errors.New("common commands must be leaves directly under the root")
	ErrCommonDefault     = errors.New("common commands cannot be default")
)
