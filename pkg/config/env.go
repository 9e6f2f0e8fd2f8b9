package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SHOPLIGHT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SHOPLIGHT_DB_DSN"
	EnvDBHost = "SHOPLIGHT_DB_HOST"
	EnvDBUser = "SHOPLIGHT_DB_USER"
	EnvDBName = "SHOPLIGHT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
