// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/blob"
	"github.com/dalemusser/threadhub/internal/app/system/limits"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// profileRequest is the JSON form of PUT /profile. Multipart requests use
// the same field names plus an optional "image" file.
type profileRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl"`
}

// ServeProfile returns the caller's stored profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		errorsfeature.Write(w, r, h.Log, apperr.E("profile.ServeProfile", apperr.NotFound, "profile not created yet"))
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// HandleUpsert creates or updates the caller's profile.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	extID, _ := auth.ExternalID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "profile upsert")
	defer cancel()

	var (
		req profileRequest
		err error
	)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		req, err = h.readMultipart(ctx, w, r, extID)
	} else if derr := respond.DecodeJSON(w, r, &req, limits.MaxProfileBody); derr != nil {
		err = apperr.E("profile.HandleUpsert", apperr.InvalidArgument, "Request body must be JSON or multipart form data.")
	}
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}

	u, err := h.Users.UpsertProfile(ctx, userstore.ProfileInput{
		ExternalID: extID,
		Username:   req.Username,
		Name:       req.Name,
		Bio:        req.Bio,
		ImageURL:   req.ImageURL,
	})
	h.Metrics.Write("upsert_profile", err)
	if err != nil {
		errorsfeature.Write(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// readMultipart parses the form and, when an image is attached, uploads it
// and substitutes its URL for imageUrl.
func (h *Handler) readMultipart(ctx context.Context, w http.ResponseWriter, r *http.Request, extID string) (profileRequest, error) {
	const op = "profile.readMultipart"

	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxImageBytes+limits.MaxProfileBody)
	if err := r.ParseMultipartForm(blob.MaxImageBytes); err != nil {
		return profileRequest{}, apperr.Wrap(op, apperr.InvalidArgument, "Form is too large or malformed.", err)
	}
	req := profileRequest{
		Username: r.FormValue("username"),
		Name:     r.FormValue("name"),
		Bio:      r.FormValue("bio"),
		ImageURL: r.FormValue("imageUrl"),
	}

	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return profileRequest{}, apperr.Wrap(op, apperr.InvalidArgument, "Could not read the image.", err)
	}
	defer file.Close()

	if h.Blob == nil {
		return profileRequest{}, apperr.E(op, apperr.InvalidArgument, "Image uploads are not enabled.")
	}
	if hdr.Size > blob.MaxImageBytes {
		return profileRequest{}, apperr.E(op, apperr.InvalidArgument, "Image must be 4 MB or smaller.")
	}

	contentType, err := sniff(file)
	if err != nil {
		return profileRequest{}, apperr.Wrap(op, apperr.InvalidArgument, "Could not read the image.", err)
	}

	url, err := h.Blob.Upload(ctx, "profiles/"+extID, file, hdr.Size, contentType)
	if errors.Is(err, blob.ErrUnsupportedType) {
		return profileRequest{}, apperr.Wrap(op, apperr.InvalidArgument, "Image must be PNG, JPEG, GIF or WebP.", err)
	}
	if err != nil {
		h.Log.Warn("profile image upload failed", zap.String("external_id", extID), zap.Error(err))
		return profileRequest{}, apperr.Wrap(op, apperr.DependencyUnavailable, "image storage unavailable", err)
	}
	req.ImageURL = url
	return req, nil
}

// sniff detects the content type from the first bytes and rewinds.
func sniff(f io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
