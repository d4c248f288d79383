package addon

import (
	"context"
	"fmt"
	"log"
)

// Event names the host runtime fires when a user clicks one of the
// add-on's entry points. They must match the module keys declared in the
// descriptor - Descriptor.Validate enforces this.
const (
	EventTrackerGlanceClicked  = "tracker-glance-clicked"
	EventWikiBylineItemClicked = "wiki-byline-item-clicked"
)

// ContextProvider resolves the ambient host context for the current user
// interaction. The host runtime supplies the real implementation; tests
// supply synthetic ones.
type ContextProvider interface {
	HostContext(ctx context.Context) (HostContext, error)
}

// DialogOpener asks the host runtime to render a modal pointed at a URL.
type DialogOpener interface {
	Open(ctx context.Context, url string, options DialogOptions) error
}

// DialogOptions is the static sizing and chrome configuration for the
// generator dialog, mirrored from the descriptor's dialog module.
type DialogOptions struct {
	Width  string `json:"width" yaml:"width"`
	Height string `json:"height" yaml:"height"`
	Chrome bool   `json:"chrome" yaml:"chrome"`
}

// Launcher wires the two click events to the launch chain:
// fetch host context, resolve it, build the dialog URL, open the dialog.
// Each invocation is an independent, self-contained chain; the launcher
// holds no mutable state across clicks.
type Launcher struct {
	Provider ContextProvider
	Opener   DialogOpener
	Options  DialogOptions

	bindings map[string]func(ctx context.Context) error
}

// NewLauncher binds both events once at construction. There is no
// unbinding: the bindings live as long as the launcher.
func NewLauncher(provider ContextProvider, opener DialogOpener, options DialogOptions) *Launcher {
	l := &Launcher{Provider: provider, Opener: opener, Options: options}
	l.bindings = map[string]func(ctx context.Context) error{
		EventTrackerGlanceClicked:  l.Launch,
		EventWikiBylineItemClicked: l.Launch,
	}
	return l
}

// BoundEvents returns the events every launcher binds.
func BoundEvents() []string {
	return []string{EventTrackerGlanceClicked, EventWikiBylineItemClicked}
}

// EventNames returns the events this launcher is bound to.
func (l *Launcher) EventNames() []string {
	return BoundEvents()
}

// HandleEvent dispatches a named host event. Unknown events are ignored
// with a logged diagnostic, mirroring how the host discards stale
// callbacks.
func (l *Launcher) HandleEvent(ctx context.Context, event string) error {
	handler, bound := l.bindings[event]
	if !bound {
		log.Printf("Ignoring unbound event: %s", event)
		return nil
	}
	return handler(ctx)
}

// Launch runs one click's chain. The context fetch is bounded by
// ContextFetchTimeout so a host runtime that never resolves cannot hold
// the interaction open forever. Failures are logged and returned wrapped
// in the package error taxonomy; there are no retries.
func (l *Launcher) Launch(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, ContextFetchTimeout)
	defer cancel()

	host, err := l.Provider.HostContext(fetchCtx)
	if err != nil {
		log.Printf("Host context fetch failed: %v", err)
		return fmt.Errorf("%w: %v", ErrContextFetch, err)
	}

	launch, err := ResolveLaunchContext(host)
	if err != nil {
		log.Printf("Launch aborted: %v", err)
		return err
	}

	if err := l.Opener.Open(ctx, launch.DialogURL(), l.Options); err != nil {
		log.Printf("Dialog creation failed for %s %q: %v", launch.Product, launch.EntityID, err)
		return fmt.Errorf("%w: %v", ErrDialogCreation, err)
	}
	return nil
}
