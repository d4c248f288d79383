package addon

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// Descriptor is the manifest the host fetches to install the add-on.
// It is configuration, not logic, but it is an external contract: the
// module keys it declares must line up with the events the launcher
// binds, which Validate enforces.
type Descriptor struct {
	Key            string         `json:"key"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	BaseURL        string         `json:"baseUrl"`
	Authentication Authentication `json:"authentication"`
	Lifecycle      Lifecycle      `json:"lifecycle"`
	Scopes         []string       `json:"scopes"`
	Modules        Modules        `json:"modules"`
}

type Authentication struct {
	Type string `json:"type"`
}

type Lifecycle struct {
	Installed   string `json:"installed"`
	Uninstalled string `json:"uninstalled"`
}

type Modules struct {
	Glances     []EntryPointModule `json:"glances,omitempty"`
	BylineItems []EntryPointModule `json:"bylineItems,omitempty"`
	Dialogs     []DialogModule     `json:"dialogs,omitempty"`
}

// EntryPointModule is a UI slot (glance or byline item) the host renders
// an entry point into.
type EntryPointModule struct {
	Key        string      `json:"key"`
	Name       I18nText    `json:"name"`
	Target     string      `json:"target"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// DialogModule declares the modal the entry points open, with its static
// sizing and chrome.
type DialogModule struct {
	Key     string        `json:"key"`
	URL     string        `json:"url"`
	Options DialogOptions `json:"options"`
}

type I18nText struct {
	Value string `json:"value"`
}

// Condition restricts where an entry point is shown, e.g. to specific
// entity subtypes.
type Condition struct {
	Condition string                 `json:"condition"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// DescriptorParams is the configurable identity of the add-on.
type DescriptorParams struct {
	Key            string
	Name           string
	BaseURL        string
	DialogOptions  DialogOptions
	TrackerSubtype []string // issue subtypes the glance is shown on
	WikiSubtype    []string // content subtypes the byline item is shown on
}

// ModuleKey derives a module key from a display name, e.g.
// "Tracker Glance" -> "tracker-glance". The click event for an entry
// point is its module key plus the "-clicked" suffix.
func ModuleKey(displayName string) string {
	return strcase.ToKebab(displayName)
}

// NewDescriptor builds the manifest for this add-on.
func NewDescriptor(params DescriptorParams) Descriptor {
	glanceKey := ModuleKey("Tracker Glance")
	bylineKey := ModuleKey("Wiki Byline Item")
	dialogKey := ModuleKey("Test Generator Dialog")

	return Descriptor{
		Key:         params.Key,
		Name:        params.Name,
		Description: "Generates test cases from issue and page content",
		BaseURL:     params.BaseURL,
		Authentication: Authentication{
			Type: "jwt",
		},
		Lifecycle: Lifecycle{
			Installed:   "/installed",
			Uninstalled: "/uninstalled",
		},
		Scopes: []string{"READ", "WRITE"},
		Modules: Modules{
			Glances: []EntryPointModule{{
				Key:    glanceKey,
				Name:   I18nText{Value: "Test Generator"},
				Target: dialogKey,
				Conditions: []Condition{{
					Condition: "entity_subtype",
					Params:    map[string]interface{}{"subtypes": params.TrackerSubtype},
				}},
			}},
			BylineItems: []EntryPointModule{{
				Key:    bylineKey,
				Name:   I18nText{Value: "Generate test cases"},
				Target: dialogKey,
				Conditions: []Condition{{
					Condition: "entity_subtype",
					Params:    map[string]interface{}{"subtypes": params.WikiSubtype},
				}},
			}},
			Dialogs: []DialogModule{{
				Key:     dialogKey,
				URL:     "/tracker-test-generator",
				Options: params.DialogOptions,
			}},
		},
	}
}

// Validate checks the contract between the manifest and the launcher:
// every entry point's click event must be one the launcher binds, and
// every entry point must target a declared dialog.
func (d Descriptor) Validate(boundEvents []string) error {
	bound := make(map[string]bool)
	for _, event := range boundEvents {
		bound[event] = true
	}

	dialogs := make(map[string]bool)
	for _, dialog := range d.Modules.Dialogs {
		dialogs[dialog.Key] = true
	}

	entryPoints := append(append([]EntryPointModule{}, d.Modules.Glances...), d.Modules.BylineItems...)
	for _, m := range entryPoints {
		event := m.Key + "-clicked"
		if !bound[event] {
			return fmt.Errorf("addon: module %q fires event %q which the launcher does not bind", m.Key, event)
		}
		if !dialogs[m.Target] {
			return fmt.Errorf("addon: module %q targets undeclared dialog %q", m.Key, m.Target)
		}
	}
	return nil
}
