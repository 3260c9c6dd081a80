// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/threadhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for community and directory changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// Actor helpers for the Actor field.
func WebhookActor(msgID string) string  { return "webhook:" + msgID }
func UserActor(externalID string) string { return "user:" + externalID }

const CLIActor = "cli"

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.String("actor", event.Actor),
		zap.Bool("success", event.Success),
	}

	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.TargetExternalID != "" {
		fields = append(fields, zap.String("target_external_id", event.TargetExternalID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	if event.Category == audit.CategoryAdmin {
		setting = l.config.Admin
	}

	switch setting {
	case "off":
		return
	case "log":
		l.logToZap(event)
		return
	case "db":
	default:
		l.logToZap(event)
	}

	if l.store == nil {
		return
	}
	if err := l.store.Log(ctx, event); err != nil {
		l.zapLog.Error("failed to store audit event",
			zap.Error(err),
			zap.String("event_type", event.EventType),
		)
	}
}

func (l *Logger) admin(ctx context.Context, eventType, actor string, targetID *primitive.ObjectID, targetExt string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:         audit.CategoryAdmin,
		EventType:        eventType,
		Actor:            actor,
		TargetID:         targetID,
		TargetExternalID: targetExt,
		Success:          true,
		Details:          details,
	})
}

// CommunityCreated logs a new community.
func (l *Logger) CommunityCreated(ctx context.Context, actor string, communityID primitive.ObjectID, externalID, name string) {
	l.admin(ctx, audit.EventCommunityCreated, actor, &communityID, externalID, map[string]string{"name": name})
}

// CommunityUpdated logs a community field change.
func (l *Logger) CommunityUpdated(ctx context.Context, actor string, communityID primitive.ObjectID, externalID, fieldsChanged string) {
	l.admin(ctx, audit.EventCommunityUpdated, actor, &communityID, externalID, map[string]string{"fields_changed": fieldsChanged})
}

// CommunityDeleted logs a cascade delete and how many threads it removed.
func (l *Logger) CommunityDeleted(ctx context.Context, actor string, communityID primitive.ObjectID, externalID string, deletedThreads int64) {
	l.admin(ctx, audit.EventCommunityDeleted, actor, &communityID, externalID, map[string]string{
		"deleted_threads": strconv.FormatInt(deletedThreads, 10),
	})
}

// MemberJoined logs a user joining a community.
func (l *Logger) MemberJoined(ctx context.Context, actor, communityExternalID, userExternalID string) {
	l.admin(ctx, audit.EventMemberJoined, actor, nil, communityExternalID, map[string]string{"user": userExternalID})
}

// MemberLeft logs a user leaving a community.
func (l *Logger) MemberLeft(ctx context.Context, actor, communityExternalID, userExternalID string) {
	l.admin(ctx, audit.EventMemberLeft, actor, nil, communityExternalID, map[string]string{"user": userExternalID})
}

// UserDeleted logs an administrative user delete.
func (l *Logger) UserDeleted(ctx context.Context, actor string, userID primitive.ObjectID, externalID string) {
	l.admin(ctx, audit.EventUserDeleted, actor, &userID, externalID, nil)
}
