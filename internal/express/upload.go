package express

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// Upload streams an archive to the service. If ctx is cancelled before the
// response arrives the error matches both ErrUploadCancelled and ctx.Err().
func (c *Client) Upload(ctx context.Context, name string, archive io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, contextReader{ctx: ctx, r: archive}); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	c.logger.Info("uploading order archive", "name", name)
	resp, err := c.post(ctx, pathUpload, mw.FormDataContentType(), pr)
	if err != nil {
		pr.CloseWithError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrUploadCancelled, ctxErr)
		}
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	defer drain(resp)
	if !success(resp.StatusCode) {
		return &StatusError{Op: "upload", Code: resp.StatusCode}
	}
	return nil
}

// contextReader stops a copy as soon as ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
