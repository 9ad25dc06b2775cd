package config

const (
	EnvPrefix = "SHOPSTREAM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPSTREAM_DB_DSN"
	EnvDBHost = "SHOPSTREAM_DB_HOST"
	EnvDBUser = "SHOPSTREAM_DB_USER"
	EnvDBName = "SHOPSTREAM_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
