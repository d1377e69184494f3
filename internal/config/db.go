package config

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string `validate:"omitempty,oneof=sqlite mysql postgres"`
	// Path of the sqlite database file, ":memory:" for a private in-memory database.
	Path string
}
