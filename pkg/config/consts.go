package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "ATRIUM_APP_ENV"
	EnvPort       = "ATRIUM_APP_PORT"
	EnvDBDSN      = "ATRIUM_DB_DSN"
	EnvDBHost     = "ATRIUM_DB_HOST"
	EnvDBUser     = "ATRIUM_DB_USER"
	EnvDBName     = "ATRIUM_DB_NAME"
	EnvRedisURL   = "ATRIUM_REDIS_URL"
	EnvJWTSecret  = "ATRIUM_JWT_SECRET"
	EnvJWTIssuer  = "ATRIUM_JWT_ISSUER"
	EnvJWTExpMins = "ATRIUM_JWT_EXPIRATION_MINUTES"
	EnvGCSBucket  = "ATRIUM_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
