package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "STOCKTRACK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Canonical environment variable names, shared with tests and deploy manifests.
const (
	EnvAppEnv                 = "STOCKTRACK_APP_ENV"
	EnvPort                   = "STOCKTRACK_APP_PORT"
	EnvDBDSN                  = "STOCKTRACK_DB_DSN"
	EnvDBHost                 = "STOCKTRACK_DB_HOST"
	EnvDBUser                 = "STOCKTRACK_DB_USER"
	EnvDBName                 = "STOCKTRACK_DB_NAME"
	EnvRedisURL               = "STOCKTRACK_REDIS_URL"
	EnvJWTSecret              = "STOCKTRACK_JWT_SECRET"
	EnvJWTIssuer              = "STOCKTRACK_JWT_ISSUER"
	EnvJWTExpMins             = "STOCKTRACK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOCKTRACK_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "STOCKTRACK_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "STOCKTRACK_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "STOCKTRACK_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
