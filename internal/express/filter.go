package express

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rpggio/expressup/internal/domain/order"
)

// Filter asks the service which of an order's files are relevant. It returns
// nil when the service cannot classify the order.
func (c *Client) Filter(ctx context.Context, paths []string) (*order.FilterOutcome, error) {
	if paths == nil {
		paths = []string{}
	}
	encoded, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("encoding paths: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeJSONPart(mw, "paths", encoded); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing filter form: %w", err)
	}

	resp, err := c.post(ctx, pathFilter, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("filtering order: %w", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound, http.StatusUnprocessableEntity:
		return nil, nil
	}
	if !success(resp.StatusCode) {
		return nil, &StatusError{Op: "filter", Code: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var outcome order.FilterOutcome
	if err := json.Unmarshal(body, &outcome); err != nil {
		return nil, fmt.Errorf("decoding filter outcome: %w: %w", ErrMalformedResponse, err)
	}
	if !outcome.Recognized() {
		return nil, nil
	}
	return &outcome, nil
}

func writeJSONPart(mw *multipart.Writer, name string, data []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, name))
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", name, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("writing %s part: %w", name, err)
	}
	return nil
}
