package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/infrastructure/resilience"
)

const defaultAPIVersion = "2022-06-28"

var errEmptyDocumentID = errors.New("empty document id")

// Client reads page content through the Notion block children API.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, token string) *Client {
	return NewWithOptions(baseURL, token, Options{})
}

type Options struct {
	APIVersion         string
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func NewWithOptions(baseURL, token string, options Options) *Client {
	version := strings.TrimSpace(options.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// FetchContent walks every block of the page, flattening the first rich text
// run of each block into one space-joined string and collecting image blocks.
func (c *Client) FetchContent(ctx context.Context, documentID string) (*domain.DocumentContent, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, domain.WrapError(domain.ErrContentFetch, "notion fetch", errEmptyDocumentID)
	}

	var texts []string
	var images []domain.ImageRef

	cursor := ""
	for {
		page, err := c.listBlockChildren(ctx, documentID, cursor)
		if err != nil {
			return nil, wrapFetchError(ctx, "notion fetch", err)
		}

		for _, raw := range page.Results {
			block, ok := decodeBlock(raw)
			if !ok {
				continue
			}
			if len(block.body.RichText) > 0 {
				texts = append(texts, block.body.RichText[0].PlainText)
			}
			if block.blockType == "image" {
				if image, ok := imageFromBlock(block.body); ok {
					images = append(images, image)
				}
			}
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return &domain.DocumentContent{
		Text:   strings.Join(texts, " "),
		Images: images,
	}, nil
}

type blockListPage struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

func (c *Client) listBlockChildren(ctx context.Context, documentID, cursor string) (blockListPage, error) {
	query := url.Values{}
	query.Set("page_size", "100")
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}
	path := "/v1/blocks/" + url.PathEscape(documentID) + "/children?" + query.Encode()

	var page blockListPage
	call := func(callCtx context.Context) error {
		page = blockListPage{}
		return c.getJSON(callCtx, path, &page, "blocks.children")
	}

	var err error
	if c.executor != nil {
		err = c.executor.ExecuteOnce(ctx, "notion.blocks.children", call, classifyNotionError)
	} else {
		err = call(ctx)
	}
	return page, err
}

type richText struct {
	PlainText string `json:"plain_text"`
}

// blockBody is the union of the per-type payload fields the fetcher reads.
// Unknown block types carry none of them and decode to the zero value.
type blockBody struct {
	RichText []richText `json:"rich_text"`
	Type     string     `json:"type"`
	External struct {
		URL string `json:"url"`
	} `json:"external"`
	File struct {
		URL string `json:"url"`
	} `json:"file"`
	Caption []richText `json:"caption"`
}

type decodedBlock struct {
	blockType string
	body      blockBody
}

func decodeBlock(raw json.RawMessage) (decodedBlock, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return decodedBlock{}, false
	}

	var blockType string
	if err := json.Unmarshal(envelope["type"], &blockType); err != nil || blockType == "" {
		return decodedBlock{}, false
	}

	payload, ok := envelope[blockType]
	if !ok {
		return decodedBlock{}, false
	}

	var body blockBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return decodedBlock{}, false
	}
	return decodedBlock{blockType: blockType, body: body}, true
}

func imageFromBlock(body blockBody) (domain.ImageRef, bool) {
	var imageURL string
	switch body.Type {
	case "external":
		imageURL = body.External.URL
	case "file":
		imageURL = body.File.URL
	}
	if imageURL == "" {
		return domain.ImageRef{}, false
	}

	captions := make([]string, 0, len(body.Caption))
	for _, caption := range body.Caption {
		captions = append(captions, caption.PlainText)
	}
	return domain.ImageRef{
		URL:     imageURL,
		Caption: strings.Join(captions, " "),
	}, true
}
