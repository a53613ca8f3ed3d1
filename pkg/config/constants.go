package config

// EnvPrefix scopes envconfig lookups; individual fields carry full names.
const EnvPrefix = "HANDYHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "HANDYHUB_DB_DSN"
	EnvDBHost = "HANDYHUB_DB_HOST"
	EnvDBUser = "HANDYHUB_DB_USER"
	EnvDBName = "HANDYHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
