package addon

import (
	"fmt"
	"net/url"
)

// Product identifies which host product a launch originates from.
type Product string

const (
	ProductTracker Product = "tracker"
	ProductWiki    Product = "wiki"
)

// HostContext is the ambient context the host runtime exposes at the moment
// of a click. It is a tagged variant rather than a bag of optional fields:
// exactly one product branch is populated, or none for an unknown host.
type HostContext struct {
	product   Product
	entityID  string
	tenantKey string
}

// TrackerContext builds a host context for a click on a tracker issue.
func TrackerContext(issueKey string, tenantKey string) HostContext {
	return HostContext{product: ProductTracker, entityID: issueKey, tenantKey: tenantKey}
}

// WikiContext builds a host context for a click on a wiki page.
func WikiContext(contentID string, tenantKey string) HostContext {
	return HostContext{product: ProductWiki, entityID: contentID, tenantKey: tenantKey}
}

// TenantKey returns the installed tenant this context belongs to.
func (h HostContext) TenantKey() string {
	return h.tenantKey
}

// LaunchContext is the transient value a single click produces. It is
// consumed immediately to build the dialog URL and then discarded; it is
// never persisted.
type LaunchContext struct {
	Product   Product
	EntityID  string
	TenantKey string
}

// ResolveLaunchContext maps the ambient host context to a launch context.
// The tracker branch is checked first and never falls through to the wiki
// branch. A context populated by neither product fails with
// ErrUnsupportedHost.
func ResolveLaunchContext(host HostContext) (LaunchContext, error) {
	switch host.product {
	case ProductTracker:
		return LaunchContext{Product: ProductTracker, EntityID: host.entityID, TenantKey: host.tenantKey}, nil
	case ProductWiki:
		return LaunchContext{Product: ProductWiki, EntityID: host.entityID, TenantKey: host.tenantKey}, nil
	}
	return LaunchContext{}, ErrUnsupportedHost
}

// DialogURL builds the dialog content URL for this launch. The mapping is
// deterministic: the same launch context always yields the same string.
// The wiki variant carries only the tenant key - the backend derives the
// page from the dialog session, matching the deployed endpoint contract.
// Both values are query-escaped so entity ids containing '&' or '?' cannot
// break out of their parameter.
func (l LaunchContext) DialogURL() string {
	if l.Product == ProductTracker {
		return fmt.Sprintf("/tracker-test-generator?issueKey=%s&clientKey=%s",
			url.QueryEscape(l.EntityID), url.QueryEscape(l.TenantKey))
	}
	return fmt.Sprintf("/wiki-test-generator?clientKey=%s", url.QueryEscape(l.TenantKey))
}
