package data

import (
	"clinic/lib/apperrors"
	"clinic/lib/constants"
	"clinic/lib/models"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
)

// ReportRepository defines the persistence operations on medical reports
type ReportRepository interface {
	// Create stores a new report. The report id must not exist yet.
	Create(ctx context.Context, report *models.MedicalReport) error

	// GetByID returns the report or a NOT_FOUND error
	GetByID(ctx context.Context, reportID string) (*models.MedicalReport, error)

	// ListByPatient returns every report of a patient, newest first
	ListByPatient(ctx context.Context, patientID string) ([]models.MedicalReport, error)

	// ListByDoctor returns every report written by a doctor, newest first
	ListByDoctor(ctx context.Context, doctorID string) ([]models.MedicalReport, error)

	// Update merges the non-nil fields into an existing report and returns the stored result
	Update(ctx context.Context, reportID string, update *models.UpdateReportRequest, updatedAt string) (*models.MedicalReport, error)

	// Delete removes an existing report
	Delete(ctx context.Context, reportID string) error
}

// DynamoDBClientInterface is the subset of the DynamoDB API used by the DAOs
type DynamoDBClientInterface interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ReportDao implements ReportRepository on a DynamoDB table keyed by reportId
type ReportDao struct {
	Client       DynamoDBClientInterface
	TableName    string
	PatientIndex string
	DoctorIndex  string
	Logger       *logrus.Logger
}

func (dao *ReportDao) key(reportID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		constants.REPORT_KEY: &types.AttributeValueMemberS{Value: reportID},
	}
}

// Create stores a new report
func (dao *ReportDao) Create(ctx context.Context, report *models.MedicalReport) error {
	item, err := attributevalue.MarshalMap(report)
	if err != nil {
		return apperrors.NewInternal("Failed to encode report", err)
	}

	cond := expression.AttributeNotExists(expression.Name(constants.REPORT_KEY))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewInternal("Failed to build report condition", err)
	}

	_, err = dao.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(dao.TableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "CreateReport",
			"report_id": report.ReportID,
			"error":     err.Error(),
		}).Error("Failed to create report")

		// a failed attribute_not_exists condition means the generated id collided
		if isConditionalCheckFailed(err) {
			return apperrors.NewConflict("Report already exists")
		}
		return apperrors.FromAWS(err, "Report")
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation":  "CreateReport",
		"report_id":  report.ReportID,
		"patient_id": report.PatientID,
		"doctor_id":  report.DoctorID,
	}).Info("Successfully created report")

	return nil
}

// GetByID returns the report with the given id
func (dao *ReportDao) GetByID(ctx context.Context, reportID string) (*models.MedicalReport, error) {
	output, err := dao.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(dao.TableName),
		Key:       dao.key(reportID),
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "GetReport",
			"report_id": reportID,
			"error":     err.Error(),
		}).Error("Failed to get report")
		return nil, apperrors.FromAWS(err, "Report")
	}

	if len(output.Item) == 0 {
		return nil, apperrors.NewNotFound("Report not found")
	}

	var report models.MedicalReport
	if err := attributevalue.UnmarshalMap(output.Item, &report); err != nil {
		return nil, apperrors.NewInternal("Failed to decode report", err)
	}

	return &report, nil
}

func (dao *ReportDao) ListByPatient(ctx context.Context, patientID string) ([]models.MedicalReport, error) {
	return dao.queryIndex(ctx, dao.PatientIndex, "patientId", patientID)
}

func (dao *ReportDao) ListByDoctor(ctx context.Context, doctorID string) ([]models.MedicalReport, error) {
	return dao.queryIndex(ctx, dao.DoctorIndex, "doctorId", doctorID)
}

// queryIndex reads every page of an equality query on a secondary index.
// ScanIndexForward false returns the newest reports first when the index sorts on createdAt.
func (dao *ReportDao) queryIndex(ctx context.Context, indexName, attribute, value string) ([]models.MedicalReport, error) {
	keyCond := expression.Key(attribute).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewInternal("Failed to build report query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(dao.TableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	reports := []models.MedicalReport{}
	pages := 0
	for {
		output, err := dao.Client.Query(ctx, input)
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation": "QueryReports",
				"index":     indexName,
				attribute:   value,
				"error":     err.Error(),
			}).Error("Failed to query reports")
			return nil, apperrors.FromAWS(err, "Report")
		}
		pages++

		var page []models.MedicalReport
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, apperrors.NewInternal("Failed to decode reports", err)
		}
		reports = append(reports, page...)

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "QueryReports",
		"index":     indexName,
		"pages":     pages,
		"count":     len(reports),
	}).Debug("Successfully queried reports")

	return reports, nil
}

// Update applies the partial update only if the report exists. The existence
// check and the write happen in one conditional request.
func (dao *ReportDao) Update(ctx context.Context, reportID string, update *models.UpdateReportRequest, updatedAt string) (*models.MedicalReport, error) {
	set := expression.Set(expression.Name("updatedAt"), expression.Value(updatedAt))
	if update.ReportContent != nil {
		set = set.Set(expression.Name("reportContent"), expression.Value(*update.ReportContent))
	}
	if update.DoctorNotes != nil {
		set = set.Set(expression.Name("doctorNotes"), expression.Value(*update.DoctorNotes))
	}

	cond := expression.AttributeExists(expression.Name(constants.REPORT_KEY))
	expr, err := expression.NewBuilder().WithUpdate(set).WithCondition(cond).Build()
	if err != nil {
		return nil, apperrors.NewInternal("Failed to build report update", err)
	}

	output, err := dao.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(dao.TableName),
		Key:                       dao.key(reportID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, apperrors.NewNotFound("Report not found")
		}
		dao.Logger.WithFields(logrus.Fields{
			"operation": "UpdateReport",
			"report_id": reportID,
			"error":     err.Error(),
		}).Error("Failed to update report")
		return nil, apperrors.FromAWS(err, "Report")
	}

	var report models.MedicalReport
	if err := attributevalue.UnmarshalMap(output.Attributes, &report); err != nil {
		return nil, apperrors.NewInternal("Failed to decode report", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "UpdateReport",
		"report_id": reportID,
	}).Info("Successfully updated report")

	return &report, nil
}

// Delete removes the report if it exists
func (dao *ReportDao) Delete(ctx context.Context, reportID string) error {
	cond := expression.AttributeExists(expression.Name(constants.REPORT_KEY))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return apperrors.NewInternal("Failed to build report condition", err)
	}

	_, err = dao.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(dao.TableName),
		Key:                      dao.key(reportID),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return apperrors.NewNotFound("Report not found")
		}
		dao.Logger.WithFields(logrus.Fields{
			"operation": "DeleteReport",
			"report_id": reportID,
			"error":     err.Error(),
		}).Error("Failed to delete report")
		return apperrors.FromAWS(err, "Report")
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "DeleteReport",
		"report_id": reportID,
	}).Info("Successfully deleted report")

	return nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
