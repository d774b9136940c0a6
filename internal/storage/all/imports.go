// Package all wires every built-in storage backend into the storage
// registry. Importing it for side effects makes the kinds "sqlite",
// "postgres", "mssql", "mysql" and "duckdb" available to storage.New.
package all

import (
	_ "srccompiler/internal/storage/duckdb"
	_ "srccompiler/internal/storage/mssql"
	_ "srccompiler/internal/storage/mysql"
	_ "srccompiler/internal/storage/postgres"
	_ "srccompiler/internal/storage/sqlite"
)
