// internal/app/features/webhooks/organizations.go
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/app/features/shared/respond"
	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/events"
	"github.com/dalemusser/threadhub/internal/app/system/limits"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Event types from the organization system.
const (
	TypeOrganizationCreated = "organization.created"
	TypeOrganizationUpdated = "organization.updated"
	TypeOrganizationDeleted = "organization.deleted"
	TypeMembershipCreated   = "organizationMembership.created"
	TypeMembershipDeleted   = "organizationMembership.deleted"
	TypeInvitationCreated   = "organizationInvitation.created"
)

// communityBio is the bio given to communities created from an
// organization, which carries none.
const communityBio = "org bio"

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type organizationData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LogoURL   string `json:"logo_url"`
	ImageURL  string `json:"image_url"`
	CreatedBy string `json:"created_by"`
}

func (o organizationData) image() string {
	if o.LogoURL != "" {
		return o.LogoURL
	}
	return o.ImageURL
}

type membershipData struct {
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

type ack struct {
	Message string `json:"message"`
}

// HandleOrganizations handles POST /webhooks/organizations.
//
// Applied events answer 201. Redeliveries of an event that already took
// effect, and event types that need no action, answer 200 so the sender
// stops retrying.
func (h *Handler) HandleOrganizations(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limits.MaxWebhookBody))
	if err != nil {
		errorsfeature.BadRequest(w, "could not read body")
		return
	}
	if err := h.Signer.Verify(r.Header, body); err != nil {
		h.Log.Warn("webhook signature rejected", zap.Error(err))
		errorsfeature.BadRequest(w, "invalid signature")
		return
	}

	var ev envelope
	if err := json.Unmarshal(body, &ev); err != nil || ev.Type == "" {
		errorsfeature.BadRequest(w, "invalid event")
		return
	}

	actor := auditlog.WebhookActor(r.Header.Get("svix-id"))
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "organization webhook "+ev.Type)
	defer cancel()

	var msg string
	switch ev.Type {
	case TypeOrganizationCreated:
		msg, err = h.created(ctx, actor, ev.Data)
	case TypeOrganizationUpdated:
		msg, err = h.updated(ctx, actor, ev.Data)
	case TypeOrganizationDeleted:
		msg, err = h.deleted(ctx, actor, ev.Data)
	case TypeMembershipCreated:
		msg, err = h.memberAdded(ctx, actor, ev.Data)
	case TypeMembershipDeleted:
		msg, err = h.memberRemoved(ctx, actor, ev.Data)
	case TypeInvitationCreated:
		h.Log.Info("organization invitation created", zap.String("delivery", r.Header.Get("svix-id")))
		respond.JSON(w, http.StatusOK, ack{Message: "Invitation noted"})
		return
	default:
		h.Log.Debug("ignoring webhook event", zap.String("type", ev.Type))
		respond.JSON(w, http.StatusOK, ack{Message: "Event ignored"})
		return
	}
	h.Metrics.Write("webhook_"+ev.Type, err)

	var redelivery *alreadyApplied
	switch {
	case errors.As(err, &redelivery):
		h.Log.Info("webhook already applied", zap.String("type", ev.Type), zap.Error(redelivery.err))
		respond.JSON(w, http.StatusOK, ack{Message: "Already applied"})
	case err != nil:
		errorsfeature.Write(w, r, h.Log, err)
	default:
		respond.JSON(w, http.StatusCreated, ack{Message: msg})
	}
}

// alreadyApplied marks a store error that means the event's effect is
// already in place.
type alreadyApplied struct{ err error }

func (a *alreadyApplied) Error() string { return a.err.Error() }
func (a *alreadyApplied) Unwrap() error { return a.err }

func (h *Handler) created(ctx context.Context, actor string, raw json.RawMessage) (string, error) {
	const op = "webhooks.created"

	var d organizationData
	if err := json.Unmarshal(raw, &d); err != nil || d.ID == "" || d.Name == "" || d.CreatedBy == "" {
		return "", apperr.E(op, apperr.InvalidArgument, "Missing required organization data")
	}

	c, err := h.Communities.Create(ctx, communitystore.NewCommunity{
		ExternalID:        d.ID,
		Name:              d.Name,
		Username:          d.Slug,
		ImageURL:          d.image(),
		Bio:               communityBio,
		CreatorExternalID: d.CreatedBy,
	})
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return "", &alreadyApplied{err}
	}
	if err != nil {
		return "", err
	}
	h.Audit.CommunityCreated(ctx, actor, c.ID, c.ExternalID, c.Name)
	return "Organization created", nil
}

func (h *Handler) updated(ctx context.Context, actor string, raw json.RawMessage) (string, error) {
	const op = "webhooks.updated"

	var d organizationData
	if err := json.Unmarshal(raw, &d); err != nil || d.ID == "" || d.Name == "" || d.Slug == "" {
		return "", apperr.E(op, apperr.InvalidArgument, "Missing required organization data")
	}

	c, changed, err := h.Communities.Update(ctx, d.ID, communitystore.CommunityUpdate{
		Name:     d.Name,
		Username: d.Slug,
		ImageURL: d.LogoURL,
	})
	if err != nil {
		return "", err
	}
	h.Audit.CommunityUpdated(ctx, actor, c.ID, c.ExternalID, strings.Join(changed, ","))
	return "Organization updated", nil
}

func (h *Handler) deleted(ctx context.Context, actor string, raw json.RawMessage) (string, error) {
	const op = "webhooks.deleted"

	var d organizationData
	if err := json.Unmarshal(raw, &d); err != nil || d.ID == "" {
		return "", apperr.E(op, apperr.InvalidArgument, "Missing organization ID")
	}

	res, err := h.Communities.DeleteCascade(ctx, d.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", &alreadyApplied{err}
	}
	if err != nil {
		return "", err
	}
	h.Audit.CommunityDeleted(ctx, actor, res.Community.ID, res.Community.ExternalID, res.DeletedThreads)

	ev := events.CommunityDeleted{
		CommunityID:    res.Community.ID,
		ExternalID:     res.Community.ExternalID,
		DeletedThreads: res.DeletedThreads,
	}
	if err := h.Events.Publish(ctx, events.KeyCommunityDeleted, ev); err != nil {
		h.Log.Warn("event publish failed", zap.String("key", events.KeyCommunityDeleted), zap.Error(err))
	}
	return "Organization deleted", nil
}

func (h *Handler) memberAdded(ctx context.Context, actor string, raw json.RawMessage) (string, error) {
	org, user, err := membership("webhooks.memberAdded", raw)
	if err != nil {
		return "", err
	}
	err = h.Communities.Join(ctx, org, user)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return "", &alreadyApplied{err}
	}
	if err != nil {
		return "", err
	}
	h.Audit.MemberJoined(ctx, actor, org, user)
	return "Member added", nil
}

func (h *Handler) memberRemoved(ctx context.Context, actor string, raw json.RawMessage) (string, error) {
	org, user, err := membership("webhooks.memberRemoved", raw)
	if err != nil {
		return "", err
	}
	if err := h.Communities.Leave(ctx, org, user); err != nil {
		return "", err
	}
	h.Audit.MemberLeft(ctx, actor, org, user)
	return "Member removed", nil
}

func membership(op string, raw json.RawMessage) (org, user string, err error) {
	var d membershipData
	if err := json.Unmarshal(raw, &d); err != nil || d.Organization.ID == "" || d.PublicUserData.UserID == "" {
		return "", "", apperr.E(op, apperr.InvalidArgument, "Missing required membership data")
	}
	return d.Organization.ID, d.PublicUserData.UserID, nil
}
