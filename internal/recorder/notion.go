package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"FXSentinel/internal/model"
	"FXSentinel/internal/retrier"
)

const (
	DefaultNotionBaseURL = "https://api.notion.com"
	notionVersion        = "2022-06-28"
)

// NotionStore writes rows into a Notion database through the public REST API.
type NotionStore struct {
	BaseURL    string
	Token      string
	DatabaseID string
	Client     *http.Client
	Retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewNotionStore creates a store with optional proxy support.
func NewNotionStore(token, databaseID, proxyURL string, timeout time.Duration, r *retrier.Retrier, logger *zap.Logger) *NotionStore {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if r == nil {
		r = retrier.New(retrier.WithRetryIf(model.IsRetryable))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotionStore{
		BaseURL:    DefaultNotionBaseURL,
		Token:      token,
		DatabaseID: databaseID,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Retrier: r,
		logger:  logger,
	}
}

func (n *NotionStore) Name() string { return "notion" }

func (n *NotionStore) Close() error { return nil }

// notionQueryResponse is the database query result page.
type notionQueryResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Properties struct {
			Name struct {
				Title []struct {
					PlainText string `json:"plain_text"`
				} `json:"title"`
			} `json:"Name"`
		} `json:"properties"`
	} `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// pageIter walks the query result pages. It restarts from the first page
// when a fresh iterator is created.
type pageIter struct {
	store  *NotionStore
	cursor string
	done   bool
}

// Next fetches the next page. ok is false once all pages were read.
func (it *pageIter) Next(ctx context.Context) (rows []Row, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}
	payload := map[string]string{}
	if it.cursor != "" {
		payload["start_cursor"] = it.cursor
	}

	var page notionQueryResponse
	endpoint := fmt.Sprintf("%s/v1/databases/%s/query", it.store.BaseURL, it.store.DatabaseID)
	if err := it.store.do(ctx, http.MethodPost, endpoint, payload, &page); err != nil {
		return nil, false, err
	}

	rows = make([]Row, 0, len(page.Results))
	for _, res := range page.Results {
		var name strings.Builder
		for _, t := range res.Properties.Name.Title {
			name.WriteString(t.PlainText)
		}
		rows = append(rows, Row{Handle: res.ID, Name: name.String()})
	}

	if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
		it.done = true
	} else {
		it.cursor = *page.NextCursor
	}
	return rows, true, nil
}

// ListRows materializes every page of the database query in order.
func (n *NotionStore) ListRows(ctx context.Context) ([]Row, error) {
	it := &pageIter{store: n}
	var all []Row
	pages := 0
	for {
		rows, ok, err := it.Next(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "list rows (page %d)", pages+1)
		}
		if !ok {
			break
		}
		pages++
		all = append(all, rows...)
	}
	n.logger.Debug("listed notion rows", zap.Int("rows", len(all)), zap.Int("pages", pages))
	return all, nil
}

func (n *NotionStore) Create(ctx context.Context, f Fields) (string, error) {
	payload := struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
		Properties notionProperties `json:"properties"`
	}{Properties: toNotionProperties(f)}
	payload.Parent.DatabaseID = n.DatabaseID

	var created struct {
		ID string `json:"id"`
	}
	if err := n.do(ctx, http.MethodPost, n.BaseURL+"/v1/pages", payload, &created); err != nil {
		return "", errors.Wrapf(err, "create row %s", f.Name)
	}
	return created.ID, nil
}

func (n *NotionStore) Update(ctx context.Context, handle string, f Fields) error {
	payload := struct {
		Properties notionProperties `json:"properties"`
	}{Properties: toNotionProperties(f)}

	endpoint := fmt.Sprintf("%s/v1/pages/%s", n.BaseURL, url.PathEscape(handle))
	if err := n.do(ctx, http.MethodPatch, endpoint, payload, nil); err != nil {
		return errors.Wrapf(err, "update row %s", f.Name)
	}
	return nil
}

// do sends one JSON request, retrying transport failures that may be transient.
func (n *NotionStore) do(ctx context.Context, method, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	op := method + " " + strings.TrimPrefix(endpoint, n.BaseURL)

	return n.Retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+n.Token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Notion-Version", notionVersion)

		resp, err := n.Client.Do(req)
		if err != nil {
			return &model.TransportError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &model.TransportError{Op: op, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			n.logger.Warn("notion request failed", zap.String("op", op), zap.Int("status", resp.StatusCode))
			return &model.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(string(respBody))}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &model.MalformedResponseError{Op: op, Detail: err.Error()}
		}
		return nil
	})
}

type notionText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type notionTitle struct {
	Title []notionText `json:"title"`
}

// notionNumber encodes a nil Number as JSON null, which clears the cell.
type notionNumber struct {
	Number *float64 `json:"number"`
}

type notionDate struct {
	Date struct {
		Start string `json:"start"`
	} `json:"date"`
}

type notionSelectOption struct {
	Name string `json:"name"`
}

type notionMultiSelect struct {
	MultiSelect []notionSelectOption `json:"multi_select"`
}

type notionProperties struct {
	Name         notionTitle       `json:"Name"`
	CurrentPrice notionNumber      `json:"Current Price"`
	DailyHigh    notionNumber      `json:"Daily High"`
	DailyLow     notionNumber      `json:"Daily Low"`
	TenDayHigh   notionNumber      `json:"10-Day High"`
	TenDayLow    notionNumber      `json:"10-Day Low"`
	BBUpper      notionNumber      `json:"BB Upper"`
	BBLower      notionNumber      `json:"BB Lower"`
	UpdatedAt    notionDate        `json:"Updated At"`
	Flags        notionMultiSelect `json:"Flags"`
}

func toNotionProperties(f Fields) notionProperties {
	var p notionProperties

	var name notionText
	name.Text.Content = f.Name
	p.Name.Title = []notionText{name}

	price, high, low := f.CurrentPrice, f.TenDayHigh, f.TenDayLow
	p.CurrentPrice.Number = &price
	p.TenDayHigh.Number = &high
	p.TenDayLow.Number = &low
	p.DailyHigh.Number = ptr(f.DailyHigh)
	p.DailyLow.Number = ptr(f.DailyLow)
	p.BBUpper.Number = ptr(f.BBUpper)
	p.BBLower.Number = ptr(f.BBLower)

	p.UpdatedAt.Date.Start = f.UpdatedAt.UTC().Format(time.RFC3339Nano)

	p.Flags.MultiSelect = make([]notionSelectOption, 0, len(f.Flags))
	for _, fl := range f.Flags {
		p.Flags.MultiSelect = append(p.Flags.MultiSelect, notionSelectOption{Name: string(fl)})
	}
	return p
}
