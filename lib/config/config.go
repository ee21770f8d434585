package config

import (
	"clinic/lib/constants"
	"clinic/lib/util"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the settings shared by every Lambda. Each Lambda reads the whole
// struct and calls Require for the fields it depends on.
type Config struct {
	Stage                    string
	Region                   string
	TracingEnabled           bool
	SSMParameterPath         string
	UserPoolID               string
	MedicalReportsTable      string
	AppointmentsTable        string
	PatientIndexName         string
	DoctorIndexName          string
	AppointmentDateIndexName string
	ProfileImagesBucket      string
	AllowedOrigins           []string
}

// Load builds the configuration from environment variables. Values found in
// ssmParams (keyed by full parameter name, as returned by SSMDao) take
// precedence for the settings that can live in Parameter Store.
func Load(ssmParams map[string]string) *Config {
	cfg := &Config{
		Stage:                    strings.ToLower(getEnv("STAGE", constants.STAGE_PROD)),
		Region:                   getEnv("AWS_REGION", constants.DEFAULT_REGION),
		TracingEnabled:           getBool("TRACING_ENABLED"),
		SSMParameterPath:         strings.TrimSuffix(os.Getenv("SSM_PARAMETER_PATH"), "/"),
		UserPoolID:               os.Getenv("USER_POOL_ID"),
		MedicalReportsTable:      os.Getenv("MEDICAL_REPORTS_TABLE"),
		AppointmentsTable:        os.Getenv("APPOINTMENTS_TABLE_NAME"),
		PatientIndexName:         getEnv("PATIENT_INDEX_NAME", constants.DEFAULT_PATIENT_INDEX),
		DoctorIndexName:          getEnv("DOCTOR_INDEX_NAME", constants.DEFAULT_DOCTOR_INDEX),
		AppointmentDateIndexName: getEnv("APPOINTMENT_DATE_INDEX_NAME", constants.DEFAULT_APPOINTMENT_DATE_INDEX),
		ProfileImagesBucket:      os.Getenv("PROFILE_IMAGES_BUCKET"),
		AllowedOrigins:           util.SplitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if origins := util.SplitList(ssmParams[cfg.SSMParameterPath+constants.ALLOWED_ORIGINS]); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if poolID := ssmParams[cfg.SSMParameterPath+constants.USER_POOL_ID]; poolID != "" {
		cfg.UserPoolID = poolID
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string(nil), constants.DefaultAllowedOrigins...)
	}

	return cfg
}

// IsDev reports whether the stage is the development stage
func (c *Config) IsDev() bool {
	return c.Stage == constants.STAGE_DEV
}

// Require returns an error naming every listed setting that is empty.
// Names are the environment variable names.
func (c *Config) Require(names ...string) error {
	values := map[string]string{
		"USER_POOL_ID":            c.UserPoolID,
		"MEDICAL_REPORTS_TABLE":   c.MedicalReportsTable,
		"APPOINTMENTS_TABLE_NAME": c.AppointmentsTable,
		"PROFILE_IMAGES_BUCKET":   c.ProfileImagesBucket,
		"AWS_REGION":              c.Region,
	}

	var missing []string
	for _, name := range names {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string) bool {
	value, _ := strconv.ParseBool(os.Getenv(key))
	return value
}
