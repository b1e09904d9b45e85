package repo

// Conn is a single database connection operating in autocommit mode.
// Every statement this project issues (catalog lookups, CREATE
// DATABASE, DROP DATABASE) must run outside of a transaction block,
// so no transactional variant is provided.
type Conn interface {
	Queryer
	IsConn()
}
