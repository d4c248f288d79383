package addon

import "time"

// HostRequestTimeout is the default timeout for REST calls to the host
// product's own API (issue and content reads, comment writes).
const HostRequestTimeout = 10 * time.Second

// GenerateRequestTimeout is the default timeout for calls to the
// chat-completions endpoint that produces the generated test cases.
const GenerateRequestTimeout = 30 * time.Second

// ContextFetchTimeout bounds how long a launch waits for the host runtime
// to resolve the ambient context before the click is abandoned.
const ContextFetchTimeout = 5 * time.Second
