package data

import (
	"clinic/lib/apperrors"
	"clinic/lib/constants"
	"clinic/lib/models"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"
)

type AppointmentRepository interface {
	// ListByDateRange returns the appointments dated between start and end.
	// A zero start reads every appointment.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Appointment, error)
}

// AppointmentDao reads appointments through the date index. Every appointment
// item shares one partition value on that index so a single query covers a range.
type AppointmentDao struct {
	Client    DynamoDBClientInterface
	TableName string
	DateIndex string
	Logger    *logrus.Logger
}

func (dao *AppointmentDao) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	keyCond := expression.Key(constants.APPOINTMENT_PARTITION_ATTR).Equal(expression.Value(constants.APPOINTMENT_PARTITION_VALUE))
	if !start.IsZero() {
		lower := start.UTC().Format("2006-01-02")
		upper := end.UTC().Format(time.RFC3339)
		keyCond = keyCond.And(expression.Key(constants.APPOINTMENT_DATE_ATTR).Between(expression.Value(lower), expression.Value(upper)))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.NewInternal("Failed to build appointment query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(dao.TableName),
		IndexName:                 aws.String(dao.DateIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	appointments := []models.Appointment{}
	for {
		output, err := dao.Client.Query(ctx, input)
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation": "ListAppointments",
				"start":     start,
				"end":       end,
				"error":     err.Error(),
			}).Error("Failed to query appointments")
			return nil, apperrors.FromAWS(err, "Appointment")
		}

		var page []models.Appointment
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, apperrors.NewInternal("Failed to decode appointments", err)
		}
		appointments = append(appointments, page...)

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "ListAppointments",
		"count":     len(appointments),
	}).Debug("Successfully queried appointments")

	return appointments, nil
}
