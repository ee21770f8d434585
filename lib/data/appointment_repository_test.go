package data

import (
	"clinic/lib/models"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointmentDao(mock *MockDynamoDBClient) *AppointmentDao {
	return &AppointmentDao{
		Client:    mock,
		TableName: "appointments",
		DateIndex: "appointmentDate-index",
		Logger:    logrus.New(),
	}
}

func appointmentItem(t *testing.T, id, date, status string) map[string]types.AttributeValue {
	item, err := attributevalue.MarshalMap(models.Appointment{
		AppointmentID:   id,
		RecordType:      "APPOINTMENT",
		AppointmentDate: date,
		Status:          status,
	})
	require.NoError(t, err)
	return item
}

func Test_AppointmentDao_ListByDateRange(t *testing.T) {
	//Arrange
	mock := &MockDynamoDBClient{QueryPages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{appointmentItem(t, "a-1", "2024-01-05", "Completed")},
			LastEvaluatedKey: map[string]types.AttributeValue{"appointmentId": &types.AttributeValueMemberS{Value: "a-1"}},
		},
		{
			Items: []map[string]types.AttributeValue{appointmentItem(t, "a-2", "2024-02-11", "Cancelled")},
		},
	}}
	dao := newAppointmentDao(mock)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	//Act
	appointments, err := dao.ListByDateRange(context.Background(), start, end)

	//Assert
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.Equal(t, "a-1", appointments[0].AppointmentID)
	assert.Equal(t, "Cancelled", appointments[1].Status)

	require.Len(t, mock.QueryInputs, 2)
	input := mock.QueryInputs[0]
	assert.Equal(t, "appointmentDate-index", aws.ToString(input.IndexName))
	assert.Contains(t, aws.ToString(input.KeyConditionExpression), "BETWEEN")

	var values []string
	for _, v := range input.ExpressionAttributeValues {
		values = append(values, v.(*types.AttributeValueMemberS).Value)
	}
	assert.ElementsMatch(t, []string{"APPOINTMENT", "2024-01-01", "2024-06-15T12:00:00Z"}, values)
}

func Test_AppointmentDao_ListByDateRange_Unbounded(t *testing.T) {
	//Arrange
	mock := &MockDynamoDBClient{}
	dao := newAppointmentDao(mock)

	//Act
	appointments, err := dao.ListByDateRange(context.Background(), time.Time{}, time.Now())

	//Assert
	require.NoError(t, err)
	assert.Empty(t, appointments)
	assert.NotContains(t, aws.ToString(mock.QueryInputs[0].KeyConditionExpression), "BETWEEN")
	assert.Len(t, mock.QueryInputs[0].ExpressionAttributeValues, 1)
}

func Test_AppointmentDao_ListByDateRange_Failure(t *testing.T) {
	//Arrange
	dao := newAppointmentDao(&MockDynamoDBClient{Err: errors.New("throttled")})

	//Act
	appointments, err := dao.ListByDateRange(context.Background(), time.Time{}, time.Now())

	//Assert
	assert.Nil(t, appointments)
	assert.Error(t, err)
}
