// internal/store/preferences.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"

	custom_errors "gitnote-backend/internal/errors"
	"gitnote-backend/internal/model"
)

// PreferenceStore holds one row per user, keyed by user id.
type PreferenceStore struct {
	client    *dynamodb.DynamoDB
	tableName *string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPreferenceStore creates a PreferenceStore backed by the given table.
func NewPreferenceStore(sess *session.Session, tableName string, logger *slog.Logger) *PreferenceStore {
	return &PreferenceStore{
		client:    dynamodb.New(sess),
		tableName: aws.String(tableName),
		logger:    logger,
		now:       time.Now,
	}
}

// PreferenceUpdate carries the fields of an upsert request. Nil means the
// field was absent from the request and the stored value is kept.
type PreferenceUpdate struct {
	AutoReportEnabled        *bool
	Email                    *string
	EmailNotificationEnabled *bool
	ReportStyle              *string
	ReportFrequency          *string
	Repository               *string
}

// Upsert creates or merges the user's preference row. On create both
// timestamps are set to now; on update only UpdatedAt advances and only the
// fields present in the request are overwritten. The user id and CreatedAt
// never change after creation.
func (s *PreferenceStore) Upsert(ctx context.Context, userID string, update PreferenceUpdate) (*model.Preference, error) {
	existing, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := mergePreference(existing, userID, update, s.now())

	item, err := dynamodbattribute.MarshalMap(merged)
	if err != nil {
		return nil, fmt.Errorf("PreferenceStore.Upsert: failed to marshal preference: %w", err)
	}

	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: s.tableName,
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("PreferenceStore.Upsert: failed to put item: %w", err)
	}

	s.logger.Info("Preference upserted", "user_id", userID)
	return &merged, nil
}

// mergePreference applies the update on top of the existing row, or builds a
// fresh row when none exists. Empty strings are normalized to absent because
// the store forbids empty string values.
func mergePreference(existing *model.Preference, userID string, update PreferenceUpdate, now time.Time) model.Preference {
	var merged model.Preference
	if existing != nil {
		merged = *existing
	} else {
		merged.UserID = userID
		merged.CreatedAt = now
	}
	merged.UpdatedAt = now

	if update.AutoReportEnabled != nil {
		merged.AutoReportEnabled = *update.AutoReportEnabled
	}
	if update.EmailNotificationEnabled != nil {
		merged.EmailNotificationEnabled = *update.EmailNotificationEnabled
	}
	if update.Email != nil {
		merged.Email = normalizeOptional(*update.Email)
	}
	if update.ReportStyle != nil {
		merged.ReportStyle = normalizeOptional(*update.ReportStyle)
	}
	if update.ReportFrequency != nil {
		merged.ReportFrequency = normalizeOptional(*update.ReportFrequency)
	}
	if update.Repository != nil {
		merged.Repository = normalizeOptional(*update.Repository)
	}

	return merged
}

func normalizeOptional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// GetByUser fetches the user's preference row. Returns nil when absent.
func (s *PreferenceStore) GetByUser(ctx context.Context, userID string) (*model.Preference, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: s.tableName,
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(userID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("PreferenceStore.GetByUser: failed to get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var pref model.Preference
	if err := dynamodbattribute.UnmarshalMap(out.Item, &pref); err != nil {
		return nil, fmt.Errorf("PreferenceStore.GetByUser: failed to unmarshal item: %w", err)
	}
	return &pref, nil
}

// DeleteByUser removes the user's preference row. Deleting a missing key is a no-op.
func (s *PreferenceStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: s.tableName,
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(userID)},
		},
	})
	if err != nil {
		return fmt.Errorf("PreferenceStore.DeleteByUser: failed to delete item: %w", err)
	}
	return nil
}

// UpdateEmail overwrites the notification email and its enabled flag. The row
// must already exist.
func (s *PreferenceStore) UpdateEmail(ctx context.Context, userID, email string, enabled bool) (*model.Preference, error) {
	upd := expression.Set(expression.Name("EmailNotificationEnabled"), expression.Value(enabled))
	if normalizeOptional(email) != nil {
		upd = upd.Set(expression.Name("Email"), expression.Value(email))
	} else {
		upd = upd.Remove(expression.Name("Email"))
	}
	return s.updateExisting(ctx, userID, upd)
}

// UpdateStyle overwrites the report style. The row must already exist.
func (s *PreferenceStore) UpdateStyle(ctx context.Context, userID, style string) (*model.Preference, error) {
	upd := expression.UpdateBuilder{}
	if normalizeOptional(style) != nil {
		upd = expression.Set(expression.Name("ReportStyle"), expression.Value(style))
	} else {
		upd = expression.Remove(expression.Name("ReportStyle"))
	}
	return s.updateExisting(ctx, userID, upd)
}

// UpdateFrequency overwrites the report frequency. The row must already exist.
func (s *PreferenceStore) UpdateFrequency(ctx context.Context, userID, frequency string) (*model.Preference, error) {
	upd := expression.UpdateBuilder{}
	if normalizeOptional(frequency) != nil {
		upd = expression.Set(expression.Name("ReportFrequency"), expression.Value(frequency))
	} else {
		upd = expression.Remove(expression.Name("ReportFrequency"))
	}
	return s.updateExisting(ctx, userID, upd)
}

// updateExisting runs a field-group update conditioned on the row existing and
// advances UpdatedAt.
func (s *PreferenceStore) updateExisting(ctx context.Context, userID string, upd expression.UpdateBuilder) (*model.Preference, error) {
	upd = upd.Set(expression.Name("UpdatedAt"), expression.Value(s.now().Format(time.RFC3339Nano)))

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		WithUpdate(upd).
		Build()
	if err != nil {
		return nil, fmt.Errorf("PreferenceStore.updateExisting: failed to build expression: %w", err)
	}

	out, err := s.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: s.tableName,
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(userID)},
		},
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              aws.String(dynamodb.ReturnValueAllNew),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return nil, &custom_errors.ErrNotFound{Resource: "user preference"}
		}
		return nil, fmt.Errorf("PreferenceStore.updateExisting: failed to update item: %w", err)
	}

	var pref model.Preference
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &pref); err != nil {
		return nil, fmt.Errorf("PreferenceStore.updateExisting: failed to unmarshal item: %w", err)
	}
	return &pref, nil
}
