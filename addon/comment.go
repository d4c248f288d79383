package addon

import (
	"context"
	"fmt"
	"log"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/sjson"
)

// CommentWriter posts generated test cases back to a tracker issue as a
// rich-text comment.
type CommentWriter struct {
	Heading string // comment heading, e.g. "Generated test cases"
}

// AddCommentParams carries one comment write.
type AddCommentParams struct {
	Context        context.Context
	IssueKey       string
	Body           string // generated test case text, placed in a code block
	Language       string // code block language, e.g. "gherkin"
	HostAPIBuilder *requests.Builder
}

// commentDocument builds the rich-text comment: a level-3 heading
// followed by a code block holding the generated text verbatim. sjson
// handles the escaping of the generated text.
func (c CommentWriter) commentDocument(body string, language string) (string, error) {
	doc := `{"body":{"version":1,"type":"doc","content":[{"type":"heading","attrs":{"level":3},"content":[]},{"type":"codeBlock","attrs":{},"content":[]}]}}`
	var err error
	doc, err = sjson.Set(doc, "body.content.0.content.-1", map[string]interface{}{"type": "text", "text": c.Heading})
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "body.content.1.attrs.language", language)
	if err != nil {
		return "", err
	}
	doc, err = sjson.Set(doc, "body.content.1.content.-1", map[string]interface{}{"type": "text", "text": body})
	if err != nil {
		return "", err
	}
	return doc, nil
}

// AddComment builds the comment document and posts it to the issue.
func (c CommentWriter) AddComment(params AddCommentParams) error {
	doc, err := c.commentDocument(params.Body, params.Language)
	if err != nil {
		return fmt.Errorf("addon: failed to build comment document: %w", err)
	}

	hostError := HostError{}
	err = params.HostAPIBuilder.
		Pathf("/rest/api/3/issue/%s/comment", params.IssueKey).
		ContentType("application/json").
		BodyBytes([]byte(doc)).
		ErrorJSON(&hostError).
		Fetch(params.Context)
	if err != nil {
		log.Printf("Host Error: %+v", hostError)
		return fmt.Errorf("%w: comment on %s: %v", ErrContentFetch, params.IssueKey, err)
	}
	return nil
}
