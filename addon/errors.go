package addon

import "errors"

// Every failure in this package is scoped to a single user interaction;
// nothing here is fatal to the host process. Callers classify failures by
// unwrapping against these sentinels.
var (
	// ErrUnsupportedHost means the ambient context matched neither the
	// tracker nor the wiki product, so there is nothing to launch.
	ErrUnsupportedHost = errors.New("addon: host context matches no supported product")

	// ErrContextFetch means the host runtime never resolved the ambient
	// context, or resolved it with data the launcher cannot use.
	ErrContextFetch = errors.New("addon: failed to fetch host context")

	// ErrContentFetch means a REST call to the host content API failed
	// (network error or non-2xx response).
	ErrContentFetch = errors.New("addon: failed to fetch host content")

	// ErrDialogCreation means the host runtime rejected the dialog open
	// request.
	ErrDialogCreation = errors.New("addon: host rejected dialog creation")
)
