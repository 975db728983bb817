package express

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/rpggio/expressup/internal/domain/order"
)

// Qualify asks whether a classified order can be designed. The order file is
// always sent; the design file only when non-nil. An empty reason means the
// order qualifies.
func (c *Client) Qualify(ctx context.Context, outcome *order.FilterOutcome, orderFile, designFile io.Reader) (string, error) {
	if !outcome.Recognized() {
		return "", fmt.Errorf("qualifying order: outcome not recognized")
	}
	if orderFile == nil {
		return "", fmt.Errorf("qualifying order: order file missing")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "order", baseName(outcome.OrderPath), orderFile); err != nil {
		return "", err
	}
	if designFile != nil {
		if err := writeFilePart(mw, "design", baseName(outcome.DesignPath), designFile); err != nil {
			return "", err
		}
	}
	encoded, err := json.Marshal(outcome.Paths)
	if err != nil {
		return "", fmt.Errorf("encoding paths: %w", err)
	}
	if err := writeJSONPart(mw, "paths", encoded); err != nil {
		return "", err
	}
	if err := mw.WriteField("orderFileName", outcome.OrderPath); err != nil {
		return "", fmt.Errorf("writing orderFileName field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing qualify form: %w", err)
	}

	resp, err := c.post(ctx, pathQualify, mw.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("qualifying order: %w", err)
	}
	defer drain(resp)
	if !success(resp.StatusCode) {
		return "", &StatusError{Op: "qualify", Code: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func writeFilePart(mw *multipart.Writer, field, name string, r io.Reader) error {
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("writing %s part: %w", field, err)
	}
	return nil
}

func baseName(rel string) string {
	if rel == "" {
		return "file"
	}
	return path.Base(strings.ReplaceAll(rel, "\\", "/"))
}
