// internal/store/reports.go
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"gitnote-backend/internal/model"
)

// ReportStore persists generated reports in a DynamoDB table keyed by
// repository full name (PK) and generation timestamp (SK).
type ReportStore struct {
	client    *dynamodb.DynamoDB
	tableName *string
	logger    *slog.Logger
}

// NewReportStore creates a ReportStore backed by the given table.
func NewReportStore(sess *session.Session, tableName string, logger *slog.Logger) *ReportStore {
	return &ReportStore{
		client:    dynamodb.New(sess),
		tableName: aws.String(tableName),
		logger:    logger,
	}
}

// Save writes a single report row. Rows are never updated afterwards.
func (s *ReportStore) Save(ctx context.Context, repository, user, content, generatedAt string) error {
	item, err := dynamodbattribute.MarshalMap(model.Report{
		Repository:  repository,
		GeneratedAt: generatedAt,
		User:        user,
		Content:     content,
	})
	if err != nil {
		return fmt.Errorf("ReportStore.Save: failed to marshal report: %w", err)
	}

	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("ReportStore.Save: failed to put item: %w", err)
	}

	s.logger.Info("Report saved", "repository", repository, "generated_at", generatedAt)
	return nil
}

// GetByKey fetches one report by its exact composite key. Returns nil when the
// key does not exist.
func (s *ReportStore) GetByKey(ctx context.Context, repository, generatedAt string) (*model.Report, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: s.tableName,
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(repository)},
			"SK": {S: aws.String(generatedAt)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ReportStore.GetByKey: failed to get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var report model.Report
	if err := dynamodbattribute.UnmarshalMap(out.Item, &report); err != nil {
		return nil, fmt.Errorf("ReportStore.GetByKey: failed to unmarshal item: %w", err)
	}
	return &report, nil
}

// ListAll returns every stored report. A full scan is acceptable only because
// data volume is expected to stay small; this is a known scalability ceiling.
func (s *ReportStore) ListAll(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	var pageErr error

	err := s.client.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: s.tableName,
	}, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var dataPage []model.Report
		pageErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &dataPage)
		if pageErr != nil {
			return false
		}
		reports = append(reports, dataPage...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("ReportStore.ListAll: failed to scan pages: %w", err)
	}
	if pageErr != nil {
		return nil, fmt.Errorf("ReportStore.ListAll: failed to unmarshal maps: %w", pageErr)
	}

	return reports, nil
}
