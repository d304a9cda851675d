package assets

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

var ErrWriteFailed = errors.New("assets: failed writing local copy")

// CategoryStorage tags failures raised while persisting asset bytes or
// manifest state.
var CategoryStorage = goerrors.Category("storage")

const (
	assetWriteFailedCode   = "ASSET_WRITE_FAILED"
	manifestLoadFailedCode = "MANIFEST_LOAD_FAILED"
	manifestSaveFailedCode = "MANIFEST_SAVE_FAILED"
	manifestSchemaFailCode = "MANIFEST_SCHEMA_FAILED"
)
