package addon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// FetchHostDataParams carries everything a host API fetch needs. The
// builder is injected so tests can point it at a local server and so a
// single configured builder can serve every fetch for a tenant.
type FetchHostDataParams struct {
	Context        context.Context
	EntityID       string
	HostAPIBuilder *requests.Builder
}

// HostError is the error document the host API returns on failure.
type HostError map[string]interface{}

// HostAPIBuilder returns a requests.Builder configured for one tenant's
// host API: the tenant's own base URL, basic auth, and a bounded timeout.
func HostAPIBuilder(inst Installation, email string, apiToken string) *requests.Builder {
	return requests.
		URL(inst.BaseURL).
		BasicAuth(email, apiToken).
		Accept("application/json").
		Client(&http.Client{Timeout: HostRequestTimeout})
}

// Source wraps a fetched host document for path-based extraction.
// Accessors report whether the path held a real value so callers can
// apply their own fallbacks; the extraction helpers below always fall
// back to the empty string, never nil.
type Source struct {
	data gjson.Result
}

func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) ForEachAtPath(path string, fn func(value gjson.Result) bool) {
	s.data.Get(path).ForEach(func(_, value gjson.Result) bool {
		return fn(value)
	})
}

// IssueDetails holds the fields extracted from a tracker issue.
type IssueDetails struct {
	Summary     string
	Description string

	Source Source
}

// FetchHostData reads the issue from the tracker REST API and extracts
// its summary and description. A missing summary or description yields
// the empty string, never an error: the generator can still work from
// whichever field is present.
func (d *IssueDetails) FetchHostData(params FetchHostDataParams) error {
	hostError := HostError{}
	var json string
	err := params.HostAPIBuilder.
		Pathf("/rest/api/3/issue/%s", params.EntityID).
		ToString(&json).
		ErrorJSON(&hostError).
		Fetch(params.Context)
	if err != nil {
		log.Printf("Host Error: %+v", hostError)
		return fmt.Errorf("%w: issue %s: %v", ErrContentFetch, params.EntityID, err)
	}
	if !gjson.Valid(json) {
		log.Printf("Invalid Host Response:\n%s", json)
		return fmt.Errorf("%w: %v", ErrContentFetch, errors.New("invalid json response"))
	}
	d.Source.data = gjson.Parse(json)
	d.Summary, _ = d.Source.StringForPath("fields.summary")
	d.Description = flattenDocument(d.Source, "fields.description")
	return nil
}

// flattenDocument walks a rich-text document at the given path and joins
// the text of its paragraphs, one line per paragraph. Anything that is
// not a paragraph of text nodes is skipped.
func flattenDocument(source Source, path string) string {
	var b strings.Builder
	source.ForEachAtPath(path+".content", func(block gjson.Result) bool {
		if block.Get("type").String() != "paragraph" {
			return true
		}
		block.Get("content").ForEach(func(_, node gjson.Result) bool {
			if node.Get("type").String() == "text" {
				b.WriteString(node.Get("text").String())
				b.WriteString("\n")
			}
			return true
		})
		return true
	})
	return b.String()
}

// PageDetails holds the fields extracted from a wiki page.
type PageDetails struct {
	Title string
	Body  string

	Source Source
}

// FetchHostData reads the page from the wiki REST API, expanding the
// storage-format body. Missing title or body fall back to the empty
// string.
func (d *PageDetails) FetchHostData(params FetchHostDataParams) error {
	hostError := HostError{}
	var json string
	err := params.HostAPIBuilder.
		Pathf("/rest/api/content/%s", params.EntityID).
		Param("expand", "body.storage").
		ToString(&json).
		ErrorJSON(&hostError).
		Fetch(params.Context)
	if err != nil {
		log.Printf("Host Error: %+v", hostError)
		return fmt.Errorf("%w: content %s: %v", ErrContentFetch, params.EntityID, err)
	}
	if !gjson.Valid(json) {
		log.Printf("Invalid Host Response:\n%s", json)
		return fmt.Errorf("%w: %v", ErrContentFetch, errors.New("invalid json response"))
	}
	d.Source.data = gjson.Parse(json)
	d.Title, _ = d.Source.StringForPath("title")
	d.Body, _ = d.Source.StringForPath("body.storage.value")
	return nil
}
