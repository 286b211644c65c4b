package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/progress"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartFrame returns the bytes that go before and after the file content
// of a single-part form upload, plus the matching Content-Type.
func multipartFrame(filename string) (head, foot []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		constants.UploadFormField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", "application/octet-stream")
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", err
	}
	headLen := buf.Len()

	if err := mw.Close(); err != nil {
		return nil, nil, "", err
	}
	all := buf.Bytes()
	return all[:headLen], all[headLen:], mw.FormDataContentType(), nil
}

func (c *Client) newReporter(op string) progress.Reporter {
	if c.reporter == nil {
		return progress.NewNoOpProgress()
	}
	return c.reporter(op)
}

// Upload sends file to POST /upload/{p} as multipart/form-data with one part
// named "file". The body length is known up front so no chunked encoding is used.
func (c *Client) Upload(ctx context.Context, p models.Provider, file models.SelectedFile) error {
	if !p.Valid() {
		return models.ErrUnknownProvider
	}

	f, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", file.Path)
	}
	size := info.Size()

	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	head, foot, contentType, err := multipartFrame(name)
	if err != nil {
		return fmt.Errorf("failed to build upload body: %w", err)
	}

	req, requestID, err := c.newRequest(ctx, nethttp.MethodPost, "/upload/"+url.PathEscape(string(p)))
	if err != nil {
		return err
	}

	reporter := c.newReporter("upload")
	reporter.Start(size, fmt.Sprintf("Uploading %s", name))

	body := io.MultiReader(
		bytes.NewReader(head),
		progress.NewProgressReader(f, size, reporter),
		bytes.NewReader(foot),
	)
	req.Body = io.NopCloser(body)
	req.ContentLength = int64(len(head)) + size + int64(len(foot))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.send(c.transferClient, req, "upload", requestID)
	if err != nil {
		reporter.Error(err)
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	reporter.Finish()
	c.logger.Info().
		Str("provider", string(p)).
		Str("request_id", requestID).
		Str("file", name).
		Int64("bytes", size).
		Msg("upload complete")
	return nil
}

// Download streams GET /download/{p}/{fileID} into w and returns the filename
// the backend suggested, or "downloaded_file" when it sent none.
func (c *Client) Download(ctx context.Context, p models.Provider, fileID string, w io.Writer) (string, error) {
	if !p.Valid() {
		return "", models.ErrUnknownProvider
	}
	req, requestID, err := c.newRequest(ctx, nethttp.MethodGet, downloadPath(p, fileID))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.send(c.transferClient, req, "download", requestID)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	name := FilenameFromDisposition(resp.Header.Get("Content-Disposition"))

	reporter := c.newReporter("download")
	reporter.Start(resp.ContentLength, fmt.Sprintf("Downloading %s", name))

	n, err := io.Copy(w, progress.NewProgressReader(resp.Body, resp.ContentLength, reporter))
	if err != nil {
		reporter.Error(err)
		return name, &NetworkError{Op: "download", Err: err}
	}
	reporter.Finish()

	c.logger.Info().
		Str("provider", string(p)).
		Str("file_id", fileID).
		Str("request_id", requestID).
		Int64("bytes", n).
		Msg("download complete")
	return name, nil
}

// DownloadToDir downloads into dir, naming the file from Content-Disposition.
// The content is staged in a temp file and renamed on success.
func (c *Client) DownloadToDir(ctx context.Context, p models.Provider, fileID, dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, ".cloudfm-download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	name, err := c.Download(ctx, p, fileID, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save %s: %w", dest, err)
	}
	return dest, nil
}

// FilenameFromDisposition extracts a safe base filename from a
// Content-Disposition header value.
func FilenameFromDisposition(header string) string {
	if header == "" {
		return constants.DefaultDownloadName
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return constants.DefaultDownloadName
	}
	name := params["filename"]
	// Strip any directory components the server (or an attacker) put in
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return constants.DefaultDownloadName
	}
	return name
}
