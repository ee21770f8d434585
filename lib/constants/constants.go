package constants

// SSM parameter names, relative to SSM_PARAMETER_PATH
const (
	ALLOWED_ORIGINS = "/ALLOWED_ORIGINS"
	USER_POOL_ID    = "/USER_POOL_ID"
)

const (
	STAGE_DEV  = "dev"
	STAGE_PROD = "prod"

	DEFAULT_REGION = "us-east-1"
)

// DynamoDB layout
const (
	REPORT_KEY                     = "reportId"
	DEFAULT_PATIENT_INDEX          = "patientId-index"
	DEFAULT_DOCTOR_INDEX           = "doctorId-index"
	DEFAULT_APPOINTMENT_DATE_INDEX = "appointmentDate-index"

	APPOINTMENT_PARTITION_ATTR  = "recordType"
	APPOINTMENT_PARTITION_VALUE = "APPOINTMENT"
	APPOINTMENT_DATE_ATTR       = "appointmentDate"
)

// Cognito attribute names
const (
	ATTR_EMAIL          = "email"
	ATTR_EMAIL_VERIFIED = "email_verified"
	ATTR_GIVEN_NAME     = "given_name"
	ATTR_FAMILY_NAME    = "family_name"
	ATTR_PHONE          = "phone_number"
	ATTR_ROLE           = "custom:role"
	ATTR_PROFILE_IMAGE  = "custom:profileImage"

	DEFAULT_ROLE = "patient"
)

const (
	PROFILE_IMAGE_PREFIX = "profile-images"
	LOCALSTACK_ENDPOINT  = "http://docker.for.mac.host.internal:4566"
)

// DefaultAllowedOrigins is the CORS allow-list used when none is configured.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"https://admin.clinic.example.com",
}
