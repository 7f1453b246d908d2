package env

const (
	// Prefix is the prefix shared by all fxconv environment variables
	Prefix = "FXCONV_"

	// DBURLSuffix is the env suffix holding the postgres DSN
	DBURLSuffix = "DB_URL"
)
