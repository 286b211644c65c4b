package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"

	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/models"
)

// listingDecoder extracts file entries from one provider's listing body.
type listingDecoder func(body []byte) []models.FileEntry

// The two providers wrap their listings differently: google under "files",
// onedrive under "value" (the Graph API shape the backend passes through).
var listingDecoders = map[models.Provider]listingDecoder{
	models.ProviderGoogle:   decodeGoogleListing,
	models.ProviderOneDrive: decodeOneDriveListing,
}

type googleListing struct {
	Files []models.FileEntry `json:"files"`
}

type oneDriveListing struct {
	Value []models.FileEntry `json:"value"`
}

func decodeGoogleListing(body []byte) []models.FileEntry {
	var env googleListing
	if err := json.Unmarshal(body, &env); err != nil {
		return []models.FileEntry{}
	}
	return nonNil(env.Files)
}

func decodeOneDriveListing(body []byte) []models.FileEntry {
	var env oneDriveListing
	if err := json.Unmarshal(body, &env); err != nil {
		return []models.FileEntry{}
	}
	return nonNil(env.Value)
}

func nonNil(entries []models.FileEntry) []models.FileEntry {
	if entries == nil {
		return []models.FileEntry{}
	}
	return entries
}

// DecodeListing decodes a listing body for p. An absent key or malformed
// JSON yields an empty listing, never an error.
func DecodeListing(p models.Provider, body []byte) []models.FileEntry {
	decode, ok := listingDecoders[p]
	if !ok {
		return []models.FileEntry{}
	}
	return decode(body)
}

// ListFiles fetches GET /files/{p}. Entries come back in backend order.
func (c *Client) ListFiles(ctx context.Context, p models.Provider) ([]models.FileEntry, error) {
	if !p.Valid() {
		return nil, models.ErrUnknownProvider
	}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/files/"+url.PathEscape(string(p)), "list files")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "list files", Err: err}
	}
	return DecodeListing(p, body), nil
}

type userPayload struct {
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

type userEnvelope struct {
	User *userPayload `json:"user"`
}

// decodeUser returns nil for {"user": null}, a missing key or a malformed body.
// A user object without any name or email is still a connected account.
func decodeUser(body []byte) *models.UserIdentity {
	var env userEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.User == nil {
		return nil
	}

	u := env.User
	name := u.DisplayName
	if name == "" {
		name = u.Name
	}
	if name == "" {
		name = u.Email
	}
	return &models.UserIdentity{DisplayName: name, Email: u.Email}
}

// FetchUser fetches GET /user/{p}. A nil identity with a nil error means the
// backend reports no connected account.
func (c *Client) FetchUser(ctx context.Context, p models.Provider) (*models.UserIdentity, error) {
	if !p.Valid() {
		return nil, models.ErrUnknownProvider
	}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/user/"+url.PathEscape(string(p)), "fetch user")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxUserBodyBytes+1))
	if err != nil {
		return nil, &NetworkError{Op: "fetch user", Err: err}
	}
	if len(body) > constants.MaxUserBodyBytes {
		return nil, fmt.Errorf("fetch user: response exceeds %d bytes", constants.MaxUserBodyBytes)
	}
	return decodeUser(body), nil
}

// Delete issues DELETE /delete/{p}/{fileID}.
func (c *Client) Delete(ctx context.Context, p models.Provider, fileID string) error {
	if !p.Valid() {
		return models.ErrUnknownProvider
	}
	path := "/delete/" + url.PathEscape(string(p)) + "/" + url.PathEscape(fileID)
	resp, err := c.doRequest(ctx, nethttp.MethodDelete, path, "delete")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Logout issues GET /logout/{p}. The backend clears the provider's session.
func (c *Client) Logout(ctx context.Context, p models.Provider) error {
	if !p.Valid() {
		return models.ErrUnknownProvider
	}
	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/logout/"+url.PathEscape(string(p)), "logout")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
